package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// LoadChat converts a spreadsheet chat export into transcript text, one
// "[D/M/YYYY, HH:MM] Sender: Message" line per row. Columns are found by
// header heuristics; rows without a sender or message are skipped.
func LoadChat(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return "", fmt.Errorf("no data rows")
	}
	header := rows[0]
	dateIdx, timeIdx, senderIdx, msgIdx := -1, -1, -1, -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "date") || strings.Contains(l, "timestamp"):
			if dateIdx == -1 {
				dateIdx = i
			}
		case strings.Contains(l, "time"):
			if timeIdx == -1 {
				timeIdx = i
			}
		case strings.Contains(l, "sender") || strings.Contains(l, "author") || strings.Contains(l, "from") || strings.Contains(l, "name"):
			if senderIdx == -1 {
				senderIdx = i
			}
		case strings.Contains(l, "message") || strings.Contains(l, "text") || strings.Contains(l, "body"):
			if msgIdx == -1 {
				msgIdx = i
			}
		}
	}
	if senderIdx == -1 || msgIdx == -1 {
		return "", fmt.Errorf("sender and message columns not found in header %v", header)
	}

	var b strings.Builder
	for i, r := range rows {
		if i == 0 {
			continue
		}
		sender := column(r, senderIdx)
		msg := column(r, msgIdx)
		if sender == "" || msg == "" {
			continue
		}
		stamp := formatStamp(column(r, dateIdx), column(r, timeIdx))
		if stamp != "" {
			fmt.Fprintf(&b, "[%s] %s: %s\n", stamp, sender, msg)
		} else {
			fmt.Fprintf(&b, "%s: %s\n", sender, msg)
		}
	}
	return b.String(), nil
}

func column(r []string, idx int) string {
	if idx < 0 || idx >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[idx])
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
	"2/1/2006",
	"01-02-06",
}

// formatStamp accepts ISO or day-first dates, with the time in its own
// column or appended to the date.
func formatStamp(date, clock string) string {
	if date == "" {
		return ""
	}
	raw := date
	if clock != "" {
		raw = date + " " + clock
	}
	for _, layout := range dateLayouts {
		for _, candidate := range []string{raw, date} {
			t, err := time.Parse(layout, candidate)
			if err != nil {
				continue
			}
			if candidate == date && clock != "" {
				if c, err := time.Parse("15:04", clock); err == nil {
					t = t.Add(time.Duration(c.Hour())*time.Hour + time.Duration(c.Minute())*time.Minute)
				}
			}
			return fmt.Sprintf("%d/%d/%d, %02d:%02d", t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute())
		}
	}
	return ""
}
