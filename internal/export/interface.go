// Package export writes a finished analysis to txt, md or xlsx.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chat-insights-go/internal/actionable"
	"chat-insights-go/internal/aggregator"
	"chat-insights-go/internal/teams"
	"chat-insights-go/internal/types"
)

// Report is everything an exporter may render.
type Report struct {
	Title       string
	Model       string
	Language    string
	Query       string
	GeneratedAt time.Time
	Range       types.TimeRange
	Teams       teams.View
	Stats       aggregator.Stats
	Actions     []actionable.ActionCard
	Body        string
}

// NewReport fills in the derived parts (statistics, action items) of a report.
func NewReport(body, transcript string, view teams.View) Report {
	return Report{
		Title:       "Chat Analysis Report",
		GeneratedAt: time.Now(),
		Teams:       view,
		Stats:       aggregator.Aggregate(transcript, view),
		Actions:     actionable.Generate(body),
		Body:        body,
	}
}

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(r Report, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "txt", "text":
		return &TextExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "xlsx", "excel":
		return &ExcelExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: txt, md, xlsx)", format)
	}
}

// WriteFile picks the exporter from the file extension and writes r to path.
func WriteFile(path string, r Report) error {
	ex, err := NewExporter(filepath.Ext(path))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return &types.IOError{Op: "write", Path: path, Err: err}
	}
	if err := ex.Export(r, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return &types.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
