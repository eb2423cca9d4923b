package analysis

import (
	"fmt"
	"strings"
)

// BuildPrompt lays out the analysis request: instructions, rosters, time
// window, the transcript between --- fences, and the user query last.
func BuildPrompt(req Request, query string) string {
	var b strings.Builder
	b.WriteString(req.Config.BaseInstructions)
	fmt.Fprintf(&b, "\n\nTeams → %s: [%s], %s: [%s]\n",
		orDefault(req.GroupAName, "Customer"), roster(req.GroupA),
		orDefault(req.GroupBName, "IT Support"), roster(req.GroupB))
	fmt.Fprintf(&b, "Analyze chat between %s and %s.\n---\n%s\n---\n", req.Range.FormatStart(), req.Range.FormatEnd(), req.Transcript)
	fmt.Fprintf(&b, "User Query:\n%s", query)
	return b.String()
}

func roster(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// needsTranslation reports whether a query in language must be translated
// before it is sent alongside the transcript.
func needsTranslation(language, working string) bool {
	return language != "" && !strings.EqualFold(strings.TrimSpace(language), working)
}
