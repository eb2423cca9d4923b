package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"chat-insights-go/internal/teams"
)

const body = "**1. Summary**\nPrinter outage.\n2. Open Actionables\n- Replace toner (Owner: IT Support)\n"
const chat = "[1/2/2025, 09:00] Alice: down\n[1/2/2025, 09:05] Bob: on it\n"

func sampleReport() Report {
	view := teams.View{
		GroupAName: "Customer", GroupBName: "IT Support",
		Participants: []string{"Alice", "Bob", "Carol"},
		GroupA:       []string{"Alice"}, GroupB: []string{"Bob"}, Unassigned: []string{"Carol"},
	}
	r := NewReport(body, chat, view)
	r.Model = "Gemini 1.5 Pro"
	r.Language = "English"
	return r
}

func TestNewExporter(t *testing.T) {
	for format, ext := range map[string]string{"txt": "txt", ".md": "md", "markdown": "md", "XLSX": "xlsx"} {
		ex, err := NewExporter(format)
		if err != nil {
			t.Fatalf("NewExporter(%q): %v", format, err)
		}
		if ex.Extension() != ext {
			t.Fatalf("NewExporter(%q).Extension() = %q", format, ex.Extension())
		}
	}
	if _, err := NewExporter("docx"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestTextExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextExporter{}).Export(sampleReport(), &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != body {
		t.Fatalf("text export should be the raw body, got %q", buf.String())
	}
}

func TestMarkdownExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(sampleReport(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"# Chat Analysis Report",
		"**Customer:** Alice",
		"## 1. Summary",
		"## 2. Open Actionables",
		"- Replace toner (Owner: IT Support)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "**1. Summary**") {
		t.Error("emphasis should be stripped from headings")
	}
}

func TestExcelExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.xlsx")
	if err := WriteFile(path, sampleReport()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != reportSheet {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	rows, err := f.GetRows(reportSheet)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, r := range rows {
		if len(r) == 2 && r[0] == "heading1" && r[1] == "1. Summary" {
			found = true
		}
	}
	if !found {
		t.Fatalf("classified heading row missing: %v", rows)
	}

	teamRows, err := f.GetRows(teamsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(teamRows) != 4 || teamRows[1][0] != "Alice" || teamRows[1][1] != "Customer" || teamRows[1][2] != "1" {
		t.Fatalf("unexpected teams sheet %v", teamRows)
	}
	actionRows, err := f.GetRows(actionsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(actionRows) != 2 || actionRows[1][2] != "IT Support" {
		t.Fatalf("unexpected actionables sheet %v", actionRows)
	}
}
