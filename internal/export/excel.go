package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"chat-insights-go/internal/report"
)

const (
	reportSheet  = "Report"
	teamsSheet   = "Teams"
	actionsSheet = "Actionables"
)

// ExcelExporter writes a workbook with the classified report lines, the team
// rosters with message counts, and the extracted action items.
type ExcelExporter struct{}

func (e *ExcelExporter) Export(r Report, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}
	if err := writeReportSheet(f, r); err != nil {
		return fmt.Errorf("report sheet: %w", err)
	}
	if err := writeTeamsSheet(f, r); err != nil {
		return fmt.Errorf("teams sheet: %w", err)
	}
	if err := writeActionsSheet(f, r); err != nil {
		return fmt.Errorf("actionables sheet: %w", err)
	}
	return f.Write(w)
}

func (e *ExcelExporter) Extension() string { return "xlsx" }

func writeReportSheet(f *excelize.File, r Report) error {
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return err
	}
	heading, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})
	if err != nil {
		return err
	}
	if err := f.SetCellValue(reportSheet, "A1", r.Title); err != nil {
		return err
	}
	if err := f.SetCellStyle(reportSheet, "A1", "A1", title); err != nil {
		return err
	}
	meta := [][]interface{}{
		{"Model", r.Model},
		{"Language", r.Language},
		{"Period", fmt.Sprintf("%s to %s", r.Range.FormatStart(), r.Range.FormatEnd())},
	}
	row := 2
	for _, m := range meta {
		if err := f.SetSheetRow(reportSheet, cell(1, row), &m); err != nil {
			return err
		}
		row++
	}
	row++
	if err := f.SetSheetRow(reportSheet, cell(1, row), &[]interface{}{"Type", "Text"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(reportSheet, cell(1, row), cell(2, row), heading); err != nil {
		return err
	}
	for _, ln := range report.Classify(r.Body) {
		row++
		if err := f.SetSheetRow(reportSheet, cell(1, row), &[]interface{}{ln.Kind.String(), ln.Text}); err != nil {
			return err
		}
		if ln.Kind.IsHeading() {
			if err := f.SetCellStyle(reportSheet, cell(2, row), cell(2, row), heading); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(reportSheet, "A", "A", 12); err != nil {
		return err
	}
	return f.SetColWidth(reportSheet, "B", "B", 100)
}

func writeTeamsSheet(f *excelize.File, r Report) error {
	if _, err := f.NewSheet(teamsSheet); err != nil {
		return err
	}
	header := []interface{}{"Participant", "Group", "Messages"}
	if err := f.SetSheetRow(teamsSheet, "A1", &header); err != nil {
		return err
	}
	row := 2
	add := func(names []string, group string) error {
		for _, n := range names {
			vals := []interface{}{n, group, r.Stats.ByParticipant[n]}
			if err := f.SetSheetRow(teamsSheet, cell(1, row), &vals); err != nil {
				return err
			}
			row++
		}
		return nil
	}
	if err := add(r.Teams.GroupA, r.Teams.GroupAName); err != nil {
		return err
	}
	if err := add(r.Teams.GroupB, r.Teams.GroupBName); err != nil {
		return err
	}
	return add(r.Teams.Unassigned, "Unassigned")
}

func writeActionsSheet(f *excelize.File, r Report) error {
	if _, err := f.NewSheet(actionsSheet); err != nil {
		return err
	}
	header := []interface{}{"Section", "Action", "Owner"}
	if err := f.SetSheetRow(actionsSheet, "A1", &header); err != nil {
		return err
	}
	for i, a := range r.Actions {
		vals := []interface{}{a.Section, a.Action, a.Owner}
		if err := f.SetSheetRow(actionsSheet, cell(1, i+2), &vals); err != nil {
			return err
		}
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
