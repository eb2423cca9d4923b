// Package teams splits the participants of a chat into two named groups.
package teams

import (
	"slices"
	"sort"
	"sync"
)

type Group int

const (
	GroupA Group = iota
	GroupB
)

func (g Group) String() string {
	if g == GroupB {
		return "B"
	}
	return "A"
}

// View is a consistent copy of the partition.
type View struct {
	GroupAName   string   `json:"group_a_name"`
	GroupBName   string   `json:"group_b_name"`
	Participants []string `json:"participants"`
	GroupA       []string `json:"group_a"`
	GroupB       []string `json:"group_b"`
	Unassigned   []string `json:"unassigned"`
}

// Partition keeps groupA and groupB disjoint subsets of the participants.
// Groups keep assignment order.
type Partition struct {
	mu           sync.RWMutex
	nameA, nameB string
	participants []string
	a, b         []string
}

func New(groupAName, groupBName string) *Partition {
	return &Partition{nameA: groupAName, nameB: groupBName}
}

// Names returns the display names of group A and group B.
func (p *Partition) Names() (string, string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nameA, p.nameB
}

// Assign moves each known name into the target group.
func (p *Partition) Assign(names []string, target Group) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range names {
		if !slices.Contains(p.participants, n) {
			continue
		}
		if target == GroupA {
			p.b = remove(p.b, n)
			if !slices.Contains(p.a, n) {
				p.a = append(p.a, n)
			}
		} else {
			p.a = remove(p.a, n)
			if !slices.Contains(p.b, n) {
				p.b = append(p.b, n)
			}
		}
	}
}

func (p *Partition) Unassign(names []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range names {
		p.a = remove(p.a, n)
		p.b = remove(p.b, n)
	}
}

// SetParticipants installs a freshly extracted participant list. Members
// still present keep their group; vanished names are dropped.
func (p *Partition) SetParticipants(names []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.participants = dedupe(names)
	p.a = intersect(p.a, p.participants)
	p.b = intersect(p.b, p.participants)
}

// Restore rebuilds the partition from saved rosters. Group members missing
// from participants are added to it; a name in both groups stays in A.
func (p *Partition) Restore(participants, groupA, groupB []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	all := dedupe(append(append(append([]string(nil), participants...), groupA...), groupB...))
	p.participants = all
	p.a = dedupe(groupA)
	p.b = nil
	for _, n := range dedupe(groupB) {
		if !slices.Contains(p.a, n) {
			p.b = append(p.b, n)
		}
	}
}

func (p *Partition) Participants() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.participants)
}

func (p *Partition) GroupA() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.a)
}

func (p *Partition) GroupB() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.b)
}

// Unassigned lists participants in neither group, sorted.
func (p *Partition) Unassigned() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.unassigned()
}

func (p *Partition) unassigned() []string {
	out := []string{}
	for _, n := range p.participants {
		if !slices.Contains(p.a, n) && !slices.Contains(p.b, n) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func (p *Partition) View() View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return View{
		GroupAName:   p.nameA,
		GroupBName:   p.nameB,
		Participants: append([]string{}, p.participants...),
		GroupA:       append([]string{}, p.a...),
		GroupB:       append([]string{}, p.b...),
		Unassigned:   p.unassigned(),
	}
}

func remove(list []string, name string) []string {
	return slices.DeleteFunc(list, func(s string) bool { return s == name })
}

func intersect(list, keep []string) []string {
	var out []string
	for _, n := range list {
		if slices.Contains(keep, n) {
			out = append(out, n)
		}
	}
	return out
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
