// Package services implements the driving port interfaces.
// Services contain the core business logic: strategy selection and the
// three analysis pipelines, orchestrating calls to driven ports
// (adapters) and the chunker/extractor/tagger/timeline packages.
//
// Services are pure Go with no CGO or external dependencies.
package services
