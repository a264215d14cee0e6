package llm

import (
	"context"
	"strings"

	"github.com/rpggio/nexus/internal/domain/project"
)

// Summarize writes a one-sentence reason for a set of tracked-field changes.
func (c *Client) Summarize(ctx context.Context, existing *project.Project, changes []project.Change) (string, error) {
	if len(changes) == 0 {
		return "", nil
	}
	lines := make([]string, 0, len(changes))
	for _, ch := range changes {
		lines = append(lines, ch.String())
	}
	prompt, err := c.render("summarize", struct {
		Name    string
		Changes []string
		Context string
	}{existing.Name, lines, existing.Notes})
	if err != nil {
		return "", err
	}
	reply, err := c.complete(ctx, "", prompt, summarizeMaxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}
