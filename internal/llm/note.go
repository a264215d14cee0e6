package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/nexus/internal/domain/capture"
	"github.com/rpggio/nexus/internal/domain/project"
)

type noteReply struct {
	ProjectName   string   `json:"projectName"`
	Description   *string  `json:"description"`
	Priority      *float64 `json:"ceoPriority"`
	Urgency       *float64 `json:"stakeholderUrgency"`
	Sentiment     *string  `json:"stakeholderSentiment"`
	Status        *string  `json:"status"`
	ChangeSummary string   `json:"changeSummary"`
}

// ParseNote reads a single project update out of a short note.
func (c *Client) ParseNote(ctx context.Context, text string, knownNames []string) (*capture.ParsedNote, error) {
	prompt, err := c.render("note", struct {
		Names []string
		Text  string
	}{knownNames, text})
	if err != nil {
		return nil, err
	}
	reply, err := c.complete(ctx, noteSystemPrompt, prompt, noteMaxTokens)
	if err != nil {
		return nil, err
	}
	return parseNote(reply)
}

func parseNote(reply string) (*capture.ParsedNote, error) {
	var out noteReply
	if err := decodeObject(reply, &out); err != nil {
		return nil, fmt.Errorf("parsing note reply: %w", err)
	}
	d := project.Draft{
		Name:        out.ProjectName,
		Description: out.Description,
		Priority:    out.Priority,
		Urgency:     out.Urgency,
		Sentiment:   out.Sentiment,
		Status:      out.Status,
	}
	// Notes carry no deadline, so the reference time is irrelevant.
	cand, err := d.Candidate("", time.Time{})
	if err != nil {
		return nil, fmt.Errorf("parsing note reply: %w", err)
	}
	return &capture.ParsedNote{
		Candidate:     cand,
		ChangeSummary: strings.TrimSpace(out.ChangeSummary),
	}, nil
}
