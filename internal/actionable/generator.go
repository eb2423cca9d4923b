package actionable

import (
	"strings"

	"chat-insights-go/internal/report"
)

// section headings whose items are treated as follow-ups
var actionMarkers = []string{"action", "next step", "recommend", "follow-up", "follow up"}

type ActionCard struct {
	Section string `json:"section"`
	Action  string `json:"action"`
	Owner   string `json:"owner,omitempty"`
}

// Generate collects the items listed under action-like headings of an
// analysis report. An "Owner: X" suffix is split off into Owner.
func Generate(body string) []ActionCard {
	var cards []ActionCard
	section := ""
	inActions := false
	for _, ln := range report.Classify(body) {
		if ln.Kind.IsHeading() {
			section = ln.Text
			inActions = isActionHeading(ln.Text)
			continue
		}
		if !inActions {
			continue
		}
		text := strings.TrimSpace(strings.TrimPrefix(ln.Text, "-"))
		if text == "" {
			continue
		}
		card := ActionCard{Section: section, Action: text}
		if i := strings.Index(strings.ToLower(text), "owner:"); i >= 0 {
			card.Owner = strings.TrimSpace(strings.Trim(text[i+len("owner:"):], " )"))
			card.Action = strings.TrimRight(strings.TrimSpace(text[:i]), " (-,;")
		}
		cards = append(cards, card)
	}
	return cards
}

func isActionHeading(text string) bool {
	l := strings.ToLower(text)
	for _, m := range actionMarkers {
		if strings.Contains(l, m) {
			return true
		}
	}
	return false
}
