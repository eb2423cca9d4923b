package aggregator

import (
	"regexp"
	"slices"
	"sort"
	"strings"

	"chat-insights-go/internal/teams"
)

const Unassigned = "Unassigned"

// "[1/2/2025, 09:00] Name: text" or "1/2/25, 9:00 - Name: text"
var messageLine = regexp.MustCompile(`^\[?\d{1,2}/\d{1,2}/\d{2,4},\s*\d{1,2}:\d{2}(?::\d{2})?\]?\s*(?:-\s*)?([^:]+):`)

type SpeakerCount struct {
	Name     string `json:"name"`
	Messages int    `json:"messages"`
}

type Stats struct {
	Messages      int            `json:"messages"`
	ByParticipant map[string]int `json:"by_participant"`
	ByGroup       map[string]int `json:"by_group"`
}

// Aggregate counts the messages of each speaker in transcript and folds the
// counts into the partition's groups.
func Aggregate(transcript string, view teams.View) Stats {
	st := Stats{ByParticipant: map[string]int{}, ByGroup: map[string]int{}}
	for _, line := range strings.Split(transcript, "\n") {
		m := messageLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		st.Messages++
		st.ByParticipant[strings.TrimSpace(m[1])]++
	}
	for name, n := range st.ByParticipant {
		st.ByGroup[groupOf(name, view)] += n
	}
	return st
}

func groupOf(name string, view teams.View) string {
	switch {
	case slices.Contains(view.GroupA, name):
		return view.GroupAName
	case slices.Contains(view.GroupB, name):
		return view.GroupBName
	default:
		return Unassigned
	}
}

// TopSpeakers returns speakers by message count, busiest first, ties by name.
func (s Stats) TopSpeakers() []SpeakerCount {
	out := make([]SpeakerCount, 0, len(s.ByParticipant))
	for name, n := range s.ByParticipant {
		out = append(out, SpeakerCount{Name: name, Messages: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Messages != out[j].Messages {
			return out[i].Messages > out[j].Messages
		}
		return out[i].Name < out[j].Name
	})
	return out
}
