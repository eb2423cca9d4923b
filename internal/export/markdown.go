package export

import (
	"fmt"
	"io"
	"strings"

	"chat-insights-go/internal/report"
)

// MarkdownExporter renders numbered headings as #, ## and ### and keeps
// bullets as list items.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(r Report, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# %s\n\n", r.Title)
	if r.Model != "" {
		_, _ = fmt.Fprintf(w, "**Model:** %s  \n", r.Model)
	}
	if r.Language != "" {
		_, _ = fmt.Fprintf(w, "**Language:** %s  \n", r.Language)
	}
	_, _ = fmt.Fprintf(w, "**Period:** %s to %s  \n", r.Range.FormatStart(), r.Range.FormatEnd())
	if !r.GeneratedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Generated:** %s\n", r.GeneratedAt.Format("2006-01-02 15:04"))
	}
	_, _ = fmt.Fprintf(w, "\n**%s:** %s  \n", r.Teams.GroupAName, joinOrNone(r.Teams.GroupA))
	_, _ = fmt.Fprintf(w, "**%s:** %s\n\n---\n\n", r.Teams.GroupBName, joinOrNone(r.Teams.GroupB))

	for _, ln := range report.Classify(r.Body) {
		var err error
		switch ln.Kind {
		case report.Heading1:
			_, err = fmt.Fprintf(w, "\n## %s\n\n", ln.Text)
		case report.Heading2:
			_, err = fmt.Fprintf(w, "\n### %s\n\n", ln.Text)
		case report.Heading3:
			_, err = fmt.Fprintf(w, "\n#### %s\n\n", ln.Text)
		case report.Bullet:
			_, err = fmt.Fprintf(w, "- %s\n", strings.TrimSpace(strings.TrimPrefix(ln.Text, "-")))
		default:
			_, err = fmt.Fprintf(w, "%s\n\n", ln.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *MarkdownExporter) Extension() string { return "md" }

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}
