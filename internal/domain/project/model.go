package project

import (
	"slices"
	"time"
)

// Sentiment is the stakeholder mood for a project, ordered by severity.
type Sentiment string

const (
	SentimentCalm       Sentiment = "calm"
	SentimentConcerned  Sentiment = "concerned"
	SentimentFrustrated Sentiment = "frustrated"
	SentimentFurious    Sentiment = "furious"
)

// Rank returns the severity rank of the sentiment (calm=0 .. furious=3), or -1
// for an unknown value.
func (s Sentiment) Rank() int {
	switch s {
	case SentimentCalm:
		return 0
	case SentimentConcerned:
		return 1
	case SentimentFrustrated:
		return 2
	case SentimentFurious:
		return 3
	default:
		return -1
	}
}

// Valid reports whether s is a known sentiment.
func (s Sentiment) Valid() bool {
	return s.Rank() >= 0
}

// Status represents the lifecycle state of a project.
type Status string

const (
	StatusActive    Status = "active"
	StatusBlocked   Status = "blocked"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusBlocked, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// CaptureMethod records how an update reached the store.
type CaptureMethod string

const (
	MethodFile         CaptureMethod = "file"
	MethodVoice        CaptureMethod = "voice"
	MethodEmail        CaptureMethod = "email"
	MethodQuickCapture CaptureMethod = "quick-capture"
)

// Valid reports whether m is a known capture method.
func (m CaptureMethod) Valid() bool {
	switch m {
	case MethodFile, MethodVoice, MethodEmail, MethodQuickCapture:
		return true
	}
	return false
}

// Score bounds and defaults.
const (
	MinScore          = 0
	MaxScore          = 10
	DefaultPriority   = 5
	DefaultUrgency    = 5
	FuriousMinUrgency = 8
)

// HistoryEntry is one immutable audit record on a project.
type HistoryEntry struct {
	Timestamp     time.Time     `json:"timestamp"`
	Change        string        `json:"change"`
	CaptureMethod CaptureMethod `json:"captureMethod"`
}

// Project is a tracked initiative.
type Project struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Priority     int            `json:"ceoPriority"`
	Urgency      int            `json:"stakeholderUrgency"`
	Sentiment    Sentiment      `json:"stakeholderSentiment"`
	Status       Status         `json:"status"`
	Deadline     *time.Time     `json:"deadline,omitempty"`
	Notes        string         `json:"notes"`
	Risks        []string       `json:"keyRisks"`
	Dependencies []string       `json:"dependencies"`
	History      []HistoryEntry `json:"history"`
	SourceFile   string         `json:"sourceFile,omitempty"`
	LastUpdated  time.Time      `json:"lastUpdated"`
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	if p.Deadline != nil {
		d := *p.Deadline
		c.Deadline = &d
	}
	c.Risks = slices.Clone(p.Risks)
	c.Dependencies = slices.Clone(p.Dependencies)
	c.History = slices.Clone(p.History)
	return &c
}

// AppendHistory adds an audit entry to the end of the history.
func (p *Project) AppendHistory(entry HistoryEntry) {
	p.History = append(p.History, entry)
}

// Summary is a lightweight representation for listing.
type Summary struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Priority     int        `json:"ceoPriority"`
	Urgency      int        `json:"stakeholderUrgency"`
	Sentiment    Sentiment  `json:"stakeholderSentiment"`
	Status       Status     `json:"status"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	RiskCount    int        `json:"riskCount"`
	HistoryCount int        `json:"historyCount"`
	LastUpdated  time.Time  `json:"lastUpdated"`
}

// Summarize builds the listing view of a project.
func (p *Project) Summarize() Summary {
	return Summary{
		ID:           p.ID,
		Name:         p.Name,
		Priority:     p.Priority,
		Urgency:      p.Urgency,
		Sentiment:    p.Sentiment,
		Status:       p.Status,
		Deadline:     p.Deadline,
		RiskCount:    len(p.Risks),
		HistoryCount: len(p.History),
		LastUpdated:  p.LastUpdated,
	}
}

// SearchResult is a project matching a full-text query. Lower Rank is a
// better match.
type SearchResult struct {
	Project Summary `json:"project"`
	Rank    float64 `json:"rank"`
	Snippet string  `json:"snippet"`
}
