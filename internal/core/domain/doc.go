// Package domain contains the core business entities for chronicle.
//
// The domain layer has no dependencies on adapters or infrastructure.
// It defines the document intelligence pipeline's data model: raw
// documents and OCR blocks, scored chunks, candidate events, merged
// timelines, temporal filter results, and the adaptive strategy types.
package domain
