package project

import (
	"math"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Draft is a loosely typed candidate as produced by a language model: scores
// may be fractional, enums may be misspelled, and deadlines are free text.
type Draft struct {
	Name         string   `json:"name"`
	Description  *string  `json:"description"`
	Priority     *float64 `json:"ceoPriority"`
	Urgency      *float64 `json:"stakeholderUrgency"`
	Sentiment    *string  `json:"stakeholderSentiment"`
	Status       *string  `json:"status"`
	Deadline     *string  `json:"deadline"`
	Notes        *string  `json:"notes"`
	Risks        []string `json:"keyRisks"`
	Dependencies []string `json:"dependencies"`
}

// Candidate converts the draft into a normalized candidate. Deadlines are
// resolved relative to now and dropped when they cannot be parsed.
func (d Draft) Candidate(sourceFile string, now time.Time) (Candidate, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return Candidate{}, ErrMissingName
	}

	c := Candidate{
		Name:         name,
		Description:  d.Description,
		Notes:        d.Notes,
		Risks:        d.Risks,
		Dependencies: d.Dependencies,
		SourceFile:   sourceFile,
		Deadline:     ParseDeadline(d.Deadline, now),
	}
	if d.Priority != nil {
		c.Priority = intPtr(int(math.Round(*d.Priority)))
	}
	if d.Urgency != nil {
		c.Urgency = intPtr(int(math.Round(*d.Urgency)))
	}
	if d.Sentiment != nil {
		s := Sentiment(strings.ToLower(strings.TrimSpace(*d.Sentiment)))
		c.Sentiment = &s
	}
	if d.Status != nil {
		s := Status(strings.ToLower(strings.TrimSpace(*d.Status)))
		c.Status = &s
	}
	return Normalize(c), nil
}

var deadlineLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

var deadlineParser = newDeadlineParser()

func newDeadlineParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseDeadline turns a model-provided deadline into a timestamp. Empty,
// "null" and unparseable values yield nil; there is no sentinel time.
func ParseDeadline(raw *string, now time.Time) *time.Time {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	r, err := deadlineParser.Parse(s, now)
	if err != nil || r == nil {
		return nil
	}
	t := r.Time.UTC()
	return &t
}
