package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/project"
)

// Explain asks the model whether an incoming update contradicts recent history.
func (c *Client) Explain(ctx context.Context, req conflict.ExplainRequest) (string, error) {
	prompt, err := c.renderExplain(req)
	if err != nil {
		return "", err
	}
	reply, err := c.complete(ctx, "", prompt, explainMaxTokens)
	if err != nil {
		return "", err
	}
	if s := strings.TrimSpace(reply); s != "" {
		return s, nil
	}
	return conflict.NoConflictRationale, nil
}

func (c *Client) renderExplain(req conflict.ExplainRequest) (string, error) {
	current, err := json.Marshal(struct {
		Priority  int               `json:"priority"`
		Urgency   int               `json:"urgency"`
		Sentiment project.Sentiment `json:"sentiment"`
	}{req.Existing.Priority, req.Existing.Urgency, req.Existing.Sentiment})
	if err != nil {
		return "", err
	}
	incoming, err := json.Marshal(req.Candidate)
	if err != nil {
		return "", err
	}
	return c.render("explain", struct {
		Name       string
		Type       conflict.Type
		Recent     []project.HistoryEntry
		Current    string
		Incoming   string
		NoConflict string
	}{
		Name:       req.Existing.Name,
		Type:       req.Type,
		Recent:     req.Recent,
		Current:    string(current),
		Incoming:   string(incoming),
		NoConflict: conflict.NoConflictRationale,
	})
}
