// CLAUDE:SUMMARY Sentinel errors for the pipeline: invalid identifier, no resolvable main file.
package pipeline

import "errors"

// ErrValidation is returned for a malformed paper identifier. It fails
// fast, before any resource is acquired.
var ErrValidation = errors.New("pipeline: invalid arXiv identifier")

// ErrProcessing is returned when an archive contains no resolvable main
// TeX file.
var ErrProcessing = errors.New("pipeline: no main TeX file found")
