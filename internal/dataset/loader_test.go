package dataset

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cellName, _ := excelize.CoordinatesToCellName(1, i+1)
		row := r
		if err := f.SetSheetRow("Sheet1", cellName, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "chat.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadChat(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Date", "Time", "Sender", "Message"},
		{"2025-02-01", "09:00", "Alice", "printer down"},
		{"01/02/2025", "09:05", "Bob", "on it"},
		{"2025-02-01", "09:06", "", "orphan"},
		{"", "", "Carol", "no stamp"},
	})
	got, err := LoadChat(path)
	if err != nil {
		t.Fatalf("LoadChat: %v", err)
	}
	want := "[1/2/2025, 09:00] Alice: printer down\n[1/2/2025, 09:05] Bob: on it\nCarol: no stamp\n"
	if got != want {
		t.Fatalf("LoadChat =\n%q\nwant\n%q", got, want)
	}
}

func TestLoadChatMissingColumns(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Foo", "Bar"},
		{"1", "2"},
	})
	if _, err := LoadChat(path); err == nil {
		t.Fatal("expected error when sender/message columns are absent")
	}
}
