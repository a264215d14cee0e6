package llm

import (
	"strings"
	"text/template"
)

const extractSystemPrompt = `You are a strategic analyst extracting project information for a CEO dashboard.

Extract ALL projects mentioned in the document and return ONLY valid JSON (no markdown):

{
  "projects": [
    {
      "name": "Project name",
      "description": "1-2 sentence summary",
      "ceoPriority": 0-10,
      "stakeholderUrgency": 0-10,
      "stakeholderSentiment": "calm"|"concerned"|"frustrated"|"furious",
      "status": "active"|"blocked"|"completed"|"archived",
      "deadline": "free text date or null",
      "notes": "Detailed context",
      "keyRisks": ["risk1"],
      "dependencies": []
    }
  ]
}

Rules:
1. If a stakeholder is "furious", urgency must be at least 8.
2. Prioritize based on CEO strategic goals (growth, risk mitigation, innovation).
3. Quote risks exactly as written.
4. Leave out fields the document does not mention.
5. Return ONLY the JSON object, no other text or markdown.`

const noteSystemPrompt = `You are parsing a CEO's quick note to extract a project update.

Input: a short note like "Project X is now top priority because the board is asking questions".

Output JSON:
{
  "projectName": "Project X",
  "ceoPriority": 9,
  "stakeholderUrgency": null,
  "stakeholderSentiment": null,
  "status": null,
  "description": "Brief summary",
  "changeSummary": "CEO elevated priority due to board interest"
}

Rules:
- Use the existing project name when the note refers to one, even loosely ("Phoenix" is "Project Phoenix").
- "top priority" means 9 or more, "urgent" means 8 or more.
- Write a one-line strategic change summary.
- Return null for fields the note does not mention.
- Return ONLY the JSON object.`

const extractPromptTemplate = `Extract all project information from this document.

File: {{.Label}}

Content:
{{.Text}}

Return JSON following the schema exactly.`

const notePromptTemplate = `Parse this quick capture note.

Existing projects: {{if .Names}}{{join .Names ", "}}{{else}}None{{end}}

Note: {{.Text}}

Return JSON with projectName and any updated fields.`

const explainPromptTemplate = `Analyze this potential conflict in project data:

Project: {{.Name}}
Conflict Type: {{.Type}}
Recent History (last 2 hours):
{{range .Recent}}- {{.Timestamp.Format "2006-01-02T15:04:05Z07:00"}}: {{.Change}}
{{else}}- none
{{end}}
Current State: {{.Current}}

Incoming Update: {{.Incoming}}

Question: Does this update contradict recent changes? If yes, explain the strategic implication in 1 sentence.
If no conflict, return "{{.NoConflict}}"`

const summarizePromptTemplate = `Summarize why these project metrics changed in 1 concise sentence:

Project: {{.Name}}
Changes: {{join .Changes ", "}}
New context: {{if .Context}}{{.Context}}{{else}}No new context{{end}}

Focus on the strategic reason (e.g., "Stakeholder escalated urgency due to missed deadline").`

func parseTemplates() (*template.Template, error) {
	root := template.New("prompts").Funcs(template.FuncMap{"join": strings.Join})
	for name, text := range map[string]string{
		"extract":   extractPromptTemplate,
		"note":      notePromptTemplate,
		"explain":   explainPromptTemplate,
		"summarize": summarizePromptTemplate,
	} {
		if _, err := root.New(name).Parse(text); err != nil {
			return nil, err
		}
	}
	return root, nil
}
