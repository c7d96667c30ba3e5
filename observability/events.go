package observability

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/arxpipe/arxpipe/idgen"
)

// PaperEvent records the outcome of one paper's processing run.
type PaperEvent struct {
	ArxivID     string
	MainTexFile string
	FileCount   int
	Success     bool
	PDFCompiled bool
	DurationMs  int64
	Error       string
	CreatedAt   time.Time
}

// EventLogger writes per-paper processing outcomes.
type EventLogger struct {
	db    *sql.DB
	newID idgen.Generator
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithEventIDGenerator sets a custom ID generator for event IDs.
func WithEventIDGenerator(gen idgen.Generator) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger backed by the given observability database.
func NewEventLogger(db *sql.DB, opts ...EventLoggerOption) *EventLogger {
	l := &EventLogger{
		db:    db,
		newID: idgen.Prefixed("evt_", idgen.Default),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// LogEvent records a paper outcome. Non-blocking: errors are logged via
// slog but do not propagate, so a failing observability store never
// blocks the pipeline.
func (l *EventLogger) LogEvent(ctx context.Context, event PaperEvent) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO paper_events (
			event_id, arxiv_id, main_tex_file, file_count,
			success, pdf_compiled, duration_ms, error_message, created_at
		) VALUES (?,?,?,?,?,?,?,?,?)`,
		l.newID(), event.ArxivID, event.MainTexFile, event.FileCount,
		event.Success, event.PDFCompiled, event.DurationMs, event.Error,
		time.Now().Unix())
	if err != nil {
		slog.Error("paper event log failed", "error", err, "arxiv_id", event.ArxivID)
	}
}

// RecentEvents returns the latest events, newest first. Pass an empty
// arxivID for all papers.
func (l *EventLogger) RecentEvents(ctx context.Context, arxivID string, limit int) ([]*PaperEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT arxiv_id, main_tex_file, file_count, success, pdf_compiled,
		duration_ms, error_message, created_at FROM paper_events`
	args := []interface{}{}
	if arxivID != "" {
		q += " WHERE arxiv_id = ?"
		args = append(args, arxivID)
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query paper events: %w", err)
	}
	defer rows.Close()

	var out []*PaperEvent
	for rows.Next() {
		var ev PaperEvent
		var created int64
		if err := rows.Scan(&ev.ArxivID, &ev.MainTexFile, &ev.FileCount,
			&ev.Success, &ev.PDFCompiled, &ev.DurationMs, &ev.Error, &created); err != nil {
			return nil, fmt.Errorf("scan paper event: %w", err)
		}
		ev.CreatedAt = time.Unix(created, 0)
		out = append(out, &ev)
	}
	return out, rows.Err()
}
