// CLAUDE:SUMMARY Result and Status types for the paper-processing pipeline.
package pipeline

// Result is the outcome of processing one paper.
//
// Success=false implies MainFile and ExtractedText are empty. A failed
// compilation never fails the run: PDFCompiled=false with PDFError set,
// Success still true when text extraction worked.
type Result struct {
	ID            string `json:"arxiv_id"`
	Success       bool   `json:"success"`
	MainFile      string `json:"main_tex_file,omitempty"`
	ExtractedText string `json:"extracted_text,omitempty"`
	FileCount     int    `json:"file_count"`

	PDFCompiled bool              `json:"pdf_compiled"`
	PDFText     string            `json:"pdf_text,omitempty"`
	PDFMetadata map[string]string `json:"pdf_metadata,omitempty"`
	PDFSize     int               `json:"pdf_size,omitempty"`
	PDFError    string            `json:"pdf_error,omitempty"`

	Error string `json:"error,omitempty"`
}

// Status is a point-in-time view of the pipeline.
type Status struct {
	Config     StatusConfig     `json:"config"`
	Semaphores StatusSemaphores `json:"semaphores"`
	Counters   map[string]int64 `json:"counters"`
}

// StatusConfig echoes the configured budgets.
type StatusConfig struct {
	MaxDownloads      int64   `json:"max_downloads"`
	MaxExtractions    int64   `json:"max_extractions"`
	MaxCompilations   int64   `json:"max_compilations"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// StatusSemaphores reports free slots per stage.
type StatusSemaphores struct {
	DownloadAvailable    int64 `json:"download_available"`
	ExtractionAvailable  int64 `json:"extraction_available"`
	CompilationAvailable int64 `json:"compilation_available"`
}
