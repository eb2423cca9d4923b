package export

import "io"

// TextExporter writes the analysis body unchanged.
type TextExporter struct{}

func (e *TextExporter) Export(r Report, w io.Writer) error {
	_, err := io.WriteString(w, r.Body)
	return err
}

func (e *TextExporter) Extension() string { return "txt" }
