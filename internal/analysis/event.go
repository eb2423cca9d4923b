package analysis

import (
	"fmt"
	"time"
)

type Kind int

const (
	KindStatus Kind = iota
	KindContent
	KindCancelled
	KindFailed
)

var kindNames = map[Kind]string{
	KindStatus:    "status",
	KindContent:   "content",
	KindCancelled: "cancelled",
	KindFailed:    "failed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", string(b))
}

// Event is one item of the stream a run reports to its caller.
type Event struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text,omitempty"`
}

func Status(text string) Event  { return Event{Kind: KindStatus, Text: text} }
func Content(text string) Event { return Event{Kind: KindContent, Text: text} }
func Cancelled() Event          { return Event{Kind: KindCancelled} }
func Failed(msg string) Event   { return Event{Kind: KindFailed, Text: msg} }

// Terminal reports whether no event follows this one.
func (e Event) Terminal() bool {
	return e.Kind == KindCancelled || e.Kind == KindFailed
}

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// Result summarizes a finished run. Output holds the content already
// delivered, also when the run failed or was cancelled midway.
type Result struct {
	Outcome Outcome
	Output  string
	Elapsed time.Duration
	Err     error
}
