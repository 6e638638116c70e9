// Package file provides file-based implementations of the driven
// configuration ports: a TOML config store and a prompt store backed
// by user-editable text files.
package file
