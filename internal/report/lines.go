// Package report classifies the lines of a generated analysis the way the
// exporters lay them out: numbered headings, bullets and plain paragraphs.
package report

import (
	"regexp"
	"strings"
)

type Kind int

const (
	Paragraph Kind = iota
	Heading1
	Heading2
	Heading3
	Bullet
)

func (k Kind) String() string {
	switch k {
	case Heading1:
		return "heading1"
	case Heading2:
		return "heading2"
	case Heading3:
		return "heading3"
	case Bullet:
		return "bullet"
	default:
		return "paragraph"
	}
}

// IsHeading reports whether k is one of the heading levels.
func (k Kind) IsHeading() bool {
	return k == Heading1 || k == Heading2 || k == Heading3
}

type Line struct {
	Kind Kind
	Text string
}

var (
	emphasis = regexp.MustCompile(`\*\*|\*`)
	h3       = regexp.MustCompile(`^\d+\.\d+\.\d+`)
	h2       = regexp.MustCompile(`^\d+\.\d+`)
	h1       = regexp.MustCompile(`^\d+\.`)
)

// Classify strips ** and * emphasis, drops blank lines and tags the rest.
// "1.1.1" is checked before "1.1" before "1.".
func Classify(body string) []Line {
	var out []Line
	for _, raw := range strings.Split(body, "\n") {
		clean := strings.TrimSpace(emphasis.ReplaceAllString(raw, ""))
		if clean == "" {
			continue
		}
		kind := Paragraph
		switch {
		case h3.MatchString(clean):
			kind = Heading3
		case h2.MatchString(clean):
			kind = Heading2
		case h1.MatchString(clean):
			kind = Heading1
		case strings.HasPrefix(clean, "-"):
			kind = Bullet
		}
		out = append(out, Line{Kind: kind, Text: clean})
	}
	return out
}
