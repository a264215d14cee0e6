package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/nexus/internal/domain/ingest"
	"github.com/rpggio/nexus/internal/domain/project"
)

type extractionReply struct {
	Projects *[]json.RawMessage `json:"projects"`
}

// Extract asks the model for every project mentioned in text. label is the
// document name; it becomes each candidate's source file.
func (c *Client) Extract(ctx context.Context, text, label string) ([]project.Candidate, error) {
	prompt, err := c.render("extract", struct{ Label, Text string }{label, text})
	if err != nil {
		return nil, err
	}
	reply, err := c.complete(ctx, extractSystemPrompt, prompt, c.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ingest.ErrExtraction, label, err)
	}
	return c.parseExtraction(reply, label, c.now())
}

func (c *Client) parseExtraction(reply, label string, now time.Time) ([]project.Candidate, error) {
	var out extractionReply
	if err := decodeObject(reply, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ingest.ErrExtraction, label, err)
	}
	if out.Projects == nil {
		return nil, fmt.Errorf("%w: %s: reply has no projects list", ingest.ErrExtraction, label)
	}

	candidates := make([]project.Candidate, 0, len(*out.Projects))
	for i, raw := range *out.Projects {
		var d project.Draft
		if err := json.Unmarshal(raw, &d); err != nil {
			c.warn("skipping malformed project entry", "document", label, "index", i, "error", err)
			continue
		}
		cand, err := d.Candidate(label, now)
		if err != nil {
			c.warn("skipping project entry", "document", label, "index", i, "error", err)
			continue
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
