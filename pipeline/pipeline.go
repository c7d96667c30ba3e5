// CLAUDE:SUMMARY Pipeline orchestrator: validate → download → extract → resolve → text → optional compile/read.
// Package pipeline processes arXiv papers: it downloads the source
// archive, extracts it safely, resolves and converts the main TeX file
// to text, and optionally compiles the source to PDF and reads the
// rendered output.
//
// Three independent semaphores bound downloads, extractions and
// compilations for the lifetime of the pipeline. Batch processing runs
// items concurrently against those shared budgets; one item's failure
// never disturbs its siblings.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/arxpipe/arxpipe/pdfread"
	"github.com/arxpipe/arxpipe/pipeline/internal/archive"
	"github.com/arxpipe/arxpipe/pipeline/internal/compile"
	"github.com/arxpipe/arxpipe/pipeline/internal/fetch"
	"github.com/arxpipe/arxpipe/pipeline/internal/texsrc"
)

// Pipeline orchestrates the per-paper processing stages.
type Pipeline struct {
	config   *Config
	fetcher  *fetch.Fetcher
	compiler *compile.Compiler
	reader   pdfread.Reader
	metrics  *Collector
	logger   *slog.Logger

	downloadSem *semaphore.Weighted
	extractSem  *semaphore.Weighted
	compileSem  *semaphore.Weighted

	// In-flight counts per stage, for Status. The semaphores enforce the
	// bounds; these only observe.
	downloadsInFlight atomic.Int64
	extractsInFlight  atomic.Int64
	compilesInFlight  atomic.Int64

	eventHook func(res *Result, elapsed time.Duration)
}

// Option configures a Pipeline during creation.
type Option func(*Pipeline)

// WithReader overrides the rendered-artifact reader selected by the
// PDFTextExtraction flag.
func WithReader(r pdfread.Reader) Option {
	return func(p *Pipeline) { p.reader = r }
}

// WithEventHook registers a callback invoked with every finished Result
// and its wall-clock duration. The hook runs on the processing goroutine
// and must not block.
func WithEventHook(fn func(res *Result, elapsed time.Duration)) Option {
	return func(p *Pipeline) { p.eventHook = fn }
}

// New creates a Pipeline.
func New(cfg *Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.defaults()

	collector := NewCollector()
	var sink Sink = collector
	if cfg.Metrics != nil {
		sink = teeSink{collector, cfg.Metrics}
	}

	p := &Pipeline{
		config: cfg,
		fetcher: fetch.New(fetch.Config{
			BaseURL:           cfg.SourceBaseURL,
			Timeout:           cfg.DownloadTimeout,
			BurstSize:         cfg.BurstSize,
			RequestsPerSecond: cfg.RequestsPerSecond,
			UserAgent:         "arxpipe/1.0",
			Metrics:           sink,
			Logger:            cfg.Logger,
		}),
		compiler: compile.New(compile.Config{
			Binary:           cfg.CompileBinary,
			Timeout:          cfg.CompilationTimeout,
			EnableSandboxing: cfg.EnableSandboxing,
			Logger:           cfg.Logger,
		}),
		metrics:     collector,
		logger:      cfg.Logger,
		downloadSem: semaphore.NewWeighted(cfg.MaxDownloads),
		extractSem:  semaphore.NewWeighted(cfg.MaxExtractions),
		compileSem:  semaphore.NewWeighted(cfg.MaxCompilations),
	}

	if cfg.PDFTextExtraction {
		p.reader = pdfread.New()
	} else {
		p.reader = pdfread.NewNull()
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one paper through the full pipeline. Every failure is
// reported in the Result; Process itself never fails.
func (p *Pipeline) Process(ctx context.Context, id string, includePDF bool) *Result {
	start := time.Now()
	res := p.process(ctx, id, includePDF)
	if p.eventHook != nil {
		p.eventHook(res, time.Since(start))
	}
	return res
}

func (p *Pipeline) process(ctx context.Context, id string, includePDF bool) *Result {
	res := &Result{ID: id}
	p.logger.Info("pipeline start", "id", id, "include_pdf", includePDF)

	// Validation fails fast, before any slot or network resource.
	trimmed, err := ValidateID(id)
	if err != nil {
		return p.fail(res, err)
	}

	data, err := p.download(ctx, trimmed)
	if err != nil {
		return p.fail(res, err)
	}

	files, err := p.extract(ctx, data)
	if err != nil {
		return p.fail(res, err)
	}

	mainFile := texsrc.FindMainFile(files)
	if mainFile == "" {
		return p.fail(res, fmt.Errorf("%w in %s", ErrProcessing, trimmed))
	}

	res.MainFile = mainFile
	res.ExtractedText = texsrc.ExtractText(string(files[mainFile]))
	res.FileCount = len(files)
	res.Success = true

	if includePDF {
		p.renderPDF(ctx, res, files, mainFile)
	}

	p.metrics.Increment("pipeline", map[string]string{"status": "success"})
	p.logger.Info("pipeline done", "id", trimmed, "files", res.FileCount, "pdf", res.PDFCompiled)
	return res
}

// ProcessMany processes ids concurrently under the shared stage budgets.
// The returned slice matches the input order; a failing item becomes its
// own failure Result and never aborts siblings.
func (p *Pipeline) ProcessMany(ctx context.Context, ids []string, includePDF bool) []*Result {
	p.logger.Info("batch start", "papers", len(ids))
	results := make([]*Result, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = &Result{ID: id, Error: fmt.Sprintf("panic: %v", r)}
				}
			}()
			results[i] = p.Process(ctx, id, includePDF)
		}(i, id)
	}
	wg.Wait()

	p.logger.Info("batch done", "papers", len(ids))
	return results
}

// Status reports configuration, free stage slots and counter values.
func (p *Pipeline) Status() *Status {
	return &Status{
		Config: StatusConfig{
			MaxDownloads:      p.config.MaxDownloads,
			MaxExtractions:    p.config.MaxExtractions,
			MaxCompilations:   p.config.MaxCompilations,
			RequestsPerSecond: p.config.RequestsPerSecond,
		},
		Semaphores: StatusSemaphores{
			DownloadAvailable:    p.config.MaxDownloads - p.downloadsInFlight.Load(),
			ExtractionAvailable:  p.config.MaxExtractions - p.extractsInFlight.Load(),
			CompilationAvailable: p.config.MaxCompilations - p.compilesInFlight.Load(),
		},
		Counters: p.metrics.Snapshot(),
	}
}

// download fetches the source archive under a download slot.
func (p *Pipeline) download(ctx context.Context, id string) ([]byte, error) {
	if err := p.downloadSem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("download slot: %w", err)
	}
	p.downloadsInFlight.Add(1)
	defer func() {
		p.downloadsInFlight.Add(-1)
		p.downloadSem.Release(1)
	}()

	return p.fetcher.Fetch(ctx, id)
}

// extract decodes the archive under an extraction slot.
func (p *Pipeline) extract(ctx context.Context, data []byte) (map[string][]byte, error) {
	if err := p.extractSem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("extraction slot: %w", err)
	}
	p.extractsInFlight.Add(1)
	defer func() {
		p.extractsInFlight.Add(-1)
		p.extractSem.Release(1)
	}()

	return archive.Extract(data, p.config.MaxFilesPerArchive)
}

// renderPDF compiles the source and reads the rendered output. Failures
// here degrade the result instead of failing the run.
func (p *Pipeline) renderPDF(ctx context.Context, res *Result, files map[string][]byte, mainFile string) {
	pdf, err := p.compileFiles(ctx, files, mainFile)
	if err != nil {
		p.logger.Warn("compilation failed", "id", res.ID, "error", err)
		p.metrics.Increment("compilations", map[string]string{"status": "error"})
		res.PDFCompiled = false
		res.PDFError = err.Error()
		return
	}
	p.metrics.Increment("compilations", map[string]string{"status": "success"})

	res.PDFCompiled = true
	res.PDFSize = len(pdf)

	doc, err := p.reader.Read(pdf)
	if err != nil {
		// Reading is best-effort once a PDF exists; mirror the reader's
		// own degradation instead of dropping the artifact.
		res.PDFText = fmt.Sprintf("[PDF text extraction failed: %v]", err)
		res.PDFMetadata = map[string]string{}
		return
	}
	res.PDFText = doc.Text
	if res.PDFText == "" {
		// A compiled result always carries rendered text, if only a marker.
		res.PDFText = "[PDF contains no extractable text]"
	}
	res.PDFMetadata = doc.Metadata
}

// compileFiles runs the typesetter under a compilation slot.
func (p *Pipeline) compileFiles(ctx context.Context, files map[string][]byte, mainFile string) ([]byte, error) {
	if err := p.compileSem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("compilation slot: %w", err)
	}
	p.compilesInFlight.Add(1)
	defer func() {
		p.compilesInFlight.Add(-1)
		p.compileSem.Release(1)
	}()

	return p.compiler.Compile(ctx, files, mainFile)
}

func (p *Pipeline) fail(res *Result, err error) *Result {
	res.Error = err.Error()
	p.metrics.Increment("pipeline", map[string]string{"status": "error"})
	p.logger.Error("pipeline failed", "id", res.ID, "error", err)
	return res
}
