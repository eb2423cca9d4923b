package aggregator

import (
	"testing"

	"chat-insights-go/internal/teams"
)

func TestAggregate(t *testing.T) {
	text := "[1/2/2025, 09:00] Alice: printer down\n" +
		"[1/2/2025, 09:01] Alice: still down\n" +
		"1/2/25, 9:05 - Bob: on it\n" +
		"continuation line without a stamp\n" +
		"[1/2/2025, 09:07] Carol: thanks\n"
	view := teams.View{GroupAName: "Customer", GroupBName: "IT Support", GroupA: []string{"Alice"}, GroupB: []string{"Bob"}}

	st := Aggregate(text, view)
	if st.Messages != 4 {
		t.Fatalf("expected 4 messages, got %d", st.Messages)
	}
	if st.ByGroup["Customer"] != 2 || st.ByGroup["IT Support"] != 1 || st.ByGroup[Unassigned] != 1 {
		t.Fatalf("unexpected group counts %v", st.ByGroup)
	}
	top := st.TopSpeakers()
	if top[0].Name != "Alice" || top[0].Messages != 2 || top[1].Name != "Bob" || top[2].Name != "Carol" {
		t.Fatalf("unexpected ranking %+v", top)
	}
}
