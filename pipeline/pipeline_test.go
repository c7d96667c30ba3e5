package pipeline

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arxpipe/arxpipe/pdfread"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// tarGzArchive builds a gzipped tar with the given members.
func tarGzArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// fakeLatex writes an executable shell script standing in for the
// typesetter. It receives -interaction=nonstopmode -output-directory
// <dir> <main> and exposes outdir, main and stem to the script body.
func fakeLatex(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakelatex")
	body := "#!/bin/sh\noutdir=\"$3\"\nmain=\"$4\"\nstem=$(basename \"${main%.*}\")\n" + script
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// archiveServer serves the same archive for every paper id.
func archiveServer(t *testing.T, archive []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(srv *httptest.Server) *Config {
	cfg := DefaultConfig()
	cfg.SourceBaseURL = srv.URL + "/"
	cfg.RequestsPerSecond = 1000
	cfg.PDFTextExtraction = false
	cfg.Logger = discardLogger()
	return cfg
}

var paperFiles = map[string]string{
	"main.tex":  `\documentclass{article}\begin{document}\section{Intro} Hello world.\end{document}`,
	"other.tex": `\section{Appendix}`,
	"refs.bib":  `@article{x, title={Y}}`,
}

func TestProcessEndToEnd(t *testing.T) {
	srv := archiveServer(t, tarGzArchive(t, paperFiles))
	cfg := testConfig(srv)
	cfg.CompileBinary = fakeLatex(t, `printf '%%PDF-1.4 fake body' > "$outdir/$stem.pdf"`)

	p := New(cfg)
	res := p.Process(context.Background(), "2301.00001", true)

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.MainFile != "main.tex" {
		t.Errorf("main file = %q", res.MainFile)
	}
	if !strings.Contains(res.ExtractedText, "Hello world.") {
		t.Errorf("extracted text = %q", res.ExtractedText)
	}
	if res.FileCount != 3 {
		t.Errorf("file count = %d", res.FileCount)
	}
	if !res.PDFCompiled {
		t.Fatalf("expected compiled PDF, error %q", res.PDFError)
	}
	if res.PDFSize == 0 {
		t.Error("expected non-empty PDF")
	}
	if res.PDFText != pdfread.UnavailableText {
		t.Errorf("pdf text = %q", res.PDFText)
	}
}

func TestProcessWithoutPDF(t *testing.T) {
	srv := archiveServer(t, tarGzArchive(t, paperFiles))
	cfg := testConfig(srv)
	cfg.CompileBinary = "/nonexistent/latex" // must never be invoked

	p := New(cfg)
	res := p.Process(context.Background(), "2301.00001", false)

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.PDFCompiled || res.PDFError != "" {
		t.Errorf("pdf stage ran: compiled=%v error=%q", res.PDFCompiled, res.PDFError)
	}
}

func TestProcessValidationFailsBeforeNetwork(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	cfg := testConfig(srv)
	p := New(cfg)
	res := p.Process(context.Background(), "not-an-id", false)

	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "invalid arXiv identifier") {
		t.Errorf("error = %q", res.Error)
	}
	if requests != 0 {
		t.Errorf("server saw %d requests, want 0", requests)
	}
}

func TestProcessNoMainFile(t *testing.T) {
	srv := archiveServer(t, tarGzArchive(t, map[string]string{
		"README":   "nothing to typeset here",
		"data.csv": "a,b\n1,2\n",
	}))
	p := New(testConfig(srv))
	res := p.Process(context.Background(), "2301.00001", false)

	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "no main TeX file") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestProcessCompileFailureDoesNotFailRun(t *testing.T) {
	srv := archiveServer(t, tarGzArchive(t, paperFiles))
	cfg := testConfig(srv)
	cfg.CompileBinary = fakeLatex(t, `exit 1`)

	p := New(cfg)
	res := p.Process(context.Background(), "2301.00001", true)

	if !res.Success {
		t.Fatalf("text extraction succeeded, run must too; error %q", res.Error)
	}
	if res.PDFCompiled {
		t.Error("expected compilation failure")
	}
	if res.PDFError == "" {
		t.Error("expected pdf_error to be set")
	}
	if res.ExtractedText == "" {
		t.Error("extracted text must survive a compile failure")
	}
}

func TestProcessManyIsolation(t *testing.T) {
	srv := archiveServer(t, tarGzArchive(t, paperFiles))
	p := New(testConfig(srv))

	ids := []string{"2301.00001", "definitely not an id", "hep-th/9901001"}
	results := p.ProcessMany(context.Background(), ids, false)

	if len(results) != len(ids) {
		t.Fatalf("got %d results", len(results))
	}
	for i, id := range ids {
		if results[i].ID != id {
			t.Errorf("result %d id = %q, want %q", i, results[i].ID, id)
		}
	}
	if !results[0].Success || !results[2].Success {
		t.Errorf("valid ids must succeed: %q / %q", results[0].Error, results[2].Error)
	}
	if results[1].Success {
		t.Error("invalid id must fail alone")
	}
}

func TestDownloadConcurrencyBounded(t *testing.T) {
	var mu sync.Mutex
	var inFlight, peak int
	archive := tarGzArchive(t, paperFiles)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	cfg := testConfig(srv)
	cfg.MaxDownloads = 2
	cfg.BurstSize = 100
	p := New(cfg)

	ids := make([]string, 6)
	for i := range ids {
		ids[i] = fmt.Sprintf("2301.%05d", i+1)
	}
	results := p.ProcessMany(context.Background(), ids, false)

	for _, res := range results {
		if !res.Success {
			t.Fatalf("paper %s failed: %s", res.ID, res.Error)
		}
	}
	if peak > 2 {
		t.Errorf("peak concurrent downloads = %d, want <= 2", peak)
	}
}

func TestStatusReportsBudgetsAndCounters(t *testing.T) {
	srv := archiveServer(t, tarGzArchive(t, paperFiles))
	cfg := testConfig(srv)
	p := New(cfg)

	p.Process(context.Background(), "2301.00001", false)
	p.Process(context.Background(), "bogus", false)

	st := p.Status()
	if st.Config.MaxDownloads != cfg.MaxDownloads {
		t.Errorf("max downloads = %d", st.Config.MaxDownloads)
	}
	if st.Semaphores.DownloadAvailable != cfg.MaxDownloads {
		t.Errorf("download slots = %d, want all free", st.Semaphores.DownloadAvailable)
	}
	if st.Semaphores.CompilationAvailable != cfg.MaxCompilations {
		t.Errorf("compilation slots = %d, want all free", st.Semaphores.CompilationAvailable)
	}
	if st.Counters["pipeline_success"] != 1 {
		t.Errorf("pipeline_success = %d", st.Counters["pipeline_success"])
	}
	if st.Counters["pipeline_error"] != 1 {
		t.Errorf("pipeline_error = %d", st.Counters["pipeline_error"])
	}
}

// emptyReader parses nothing out of an otherwise valid PDF.
type emptyReader struct{}

func (emptyReader) Read([]byte) (*pdfread.Document, error) {
	return &pdfread.Document{Metadata: map[string]string{}}, nil
}

func TestCompiledResultAlwaysCarriesText(t *testing.T) {
	srv := archiveServer(t, tarGzArchive(t, paperFiles))
	cfg := testConfig(srv)
	cfg.CompileBinary = fakeLatex(t, `printf '%%PDF-1.4 fake body' > "$outdir/$stem.pdf"`)

	p := New(cfg, WithReader(emptyReader{}))
	res := p.Process(context.Background(), "2301.00001", true)

	if !res.PDFCompiled {
		t.Fatalf("expected compiled PDF, error %q", res.PDFError)
	}
	if res.PDFText == "" {
		t.Fatal("compiled result must carry rendered text")
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"pdf_text"`) {
		t.Errorf("pdf_text missing from payload: %s", data)
	}
}

func TestEventHookObservesEveryRun(t *testing.T) {
	srv := archiveServer(t, tarGzArchive(t, paperFiles))
	cfg := testConfig(srv)

	var mu sync.Mutex
	var seen []*Result
	p := New(cfg, WithEventHook(func(res *Result, elapsed time.Duration) {
		if elapsed < 0 {
			t.Errorf("elapsed = %v", elapsed)
		}
		mu.Lock()
		seen = append(seen, res)
		mu.Unlock()
	}))

	p.Process(context.Background(), "2301.00001", false)
	p.Process(context.Background(), "bogus", false)

	if len(seen) != 2 {
		t.Fatalf("hook saw %d runs", len(seen))
	}
	if !seen[0].Success || seen[1].Success {
		t.Errorf("hook results: %v / %v", seen[0].Success, seen[1].Success)
	}
}

func TestExternalSinkReceivesCounters(t *testing.T) {
	srv := archiveServer(t, tarGzArchive(t, paperFiles))
	cfg := testConfig(srv)
	rec := NewCollector()
	cfg.Metrics = rec
	p := New(cfg)

	p.Process(context.Background(), "2301.00001", false)

	snap := rec.Snapshot()
	if snap["downloads_success"] == 0 {
		t.Errorf("external sink missed download counter: %v", snap)
	}
}
