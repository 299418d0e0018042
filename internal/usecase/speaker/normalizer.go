// Package speaker detects speaker labels in transcripts and renames them.
package speaker

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxLabelLen is the exclusive upper bound on detected label length
const DefaultMaxLabelLen = 30

// labelLine matches "Label:", "**Label**:", "__Label__:" and "**Label:**" at a line start
var labelLine = regexp.MustCompile(`(?m)^(\*\*|__)?([A-Za-z0-9 ()\-.]+)(\*\*|__)?:`)

// Normalizer finds and rewrites speaker labels. It keeps no state between calls.
type Normalizer struct {
	maxLabelLen int
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithMaxLabelLen sets the length at or above which candidates are discarded
func WithMaxLabelLen(n int) Option {
	return func(s *Normalizer) {
		if n > 0 {
			s.maxLabelLen = n
		}
	}
}

// New creates a Normalizer
func New(opts ...Option) *Normalizer {
	n := &Normalizer{maxLabelLen: DefaultMaxLabelLen}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// MaxLabelLen returns the configured label length threshold
func (n *Normalizer) MaxLabelLen() int {
	return n.maxLabelLen
}

// Detect returns the sorted, deduplicated candidate labels found at line starts
func (n *Normalizer) Detect(transcript string) []string {
	labels := []string{}
	if strings.TrimSpace(transcript) == "" {
		return labels
	}

	seen := make(map[string]struct{})
	for _, m := range labelLine.FindAllStringSubmatch(transcript, -1) {
		opener, label, closer := m[1], strings.TrimSpace(m[2]), m[3]
		if closer != "" && closer != opener {
			continue
		}
		if label == "" || len([]rune(label)) >= n.maxLabelLen {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}

	sort.Strings(labels)
	return labels
}

// RenameResult is the outcome of applying a label mapping
type RenameResult struct {
	Text         string         `json:"text"`
	Replacements int            `json:"replacements"`
	PerLabel     map[string]int `json:"per_label"`
}

// Changed reports whether any label was rewritten
func (r RenameResult) Changed() bool {
	return r.Replacements > 0
}

// Summary is the user-facing confirmation line
func (r RenameResult) Summary() string {
	switch r.Replacements {
	case 0:
		return "No changes made"
	case 1:
		return "Updated 1 reference"
	default:
		return fmt.Sprintf("Updated %d references", r.Replacements)
	}
}

// Rename rewrites every label occurrence in mapping (old -> new) in one pass.
//
// A label is rewritten where it starts a line, optionally wrapped in ** or __,
// and is followed by a colon, or anywhere it appears as **Label** or __Label__.
// Blanks around a line-start label are tolerated the same way Detect trims them.
// Other occurrences are left alone. Entries with an empty side or new == old
// are ignored.
func (n *Normalizer) Rename(transcript string, mapping map[string]string) RenameResult {
	result := RenameResult{Text: transcript, PerLabel: map[string]int{}}

	active := make(map[string]string, len(mapping))
	for from, to := range mapping {
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if from == "" || to == "" || from == to {
			continue
		}
		active[from] = to
	}
	if len(active) == 0 || transcript == "" {
		return result
	}

	re := renamePattern(active)
	matches := re.FindAllStringSubmatchIndex(transcript, -1)
	if len(matches) == 0 {
		return result
	}

	var b strings.Builder
	b.Grow(len(transcript))
	last := 0
	for _, loc := range matches {
		// the label sits in whichever of the three capture groups matched
		for g := 1; g <= 3; g++ {
			start, end := loc[2*g], loc[2*g+1]
			if start < 0 {
				continue
			}
			label := transcript[start:end]
			b.WriteString(transcript[last:start])
			b.WriteString(active[label])
			last = end
			result.Replacements++
			result.PerLabel[label]++
			break
		}
	}
	b.WriteString(transcript[last:])

	result.Text = b.String()
	return result
}

// renamePattern builds one alternation over all labels, longest first, so a
// label that prefixes another never shadows it
func renamePattern(mapping map[string]string) *regexp.Regexp {
	labels := make([]string, 0, len(mapping))
	for from := range mapping {
		labels = append(labels, from)
	}
	sort.Slice(labels, func(i, j int) bool {
		if len(labels[i]) != len(labels[j]) {
			return len(labels[i]) > len(labels[j])
		}
		return labels[i] < labels[j]
	})

	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = regexp.QuoteMeta(l)
	}
	alt := strings.Join(quoted, "|")

	return regexp.MustCompile(
		`(?m)^[ \t]*(?:\*\*|__)?[ \t]*(` + alt + `)[ \t]*(?:\*\*|__)?[ \t]*:` +
			`|\*\*(` + alt + `)\*\*` +
			`|__(` + alt + `)__`,
	)
}
