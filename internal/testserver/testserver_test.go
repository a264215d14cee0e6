package testserver_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/nexus/internal/domain/activity"
	"github.com/rpggio/nexus/internal/domain/capture"
	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/ingest"
	"github.com/rpggio/nexus/internal/domain/project"
	"github.com/rpggio/nexus/internal/mcp"
	"github.com/rpggio/nexus/internal/testserver"
)

func intp(v int) *int { return &v }

func sentimentp(s project.Sentiment) *project.Sentiment { return &s }

func strp(s string) *string { return &s }

func TestIngest_FuriousStakeholderRaisesUrgency(t *testing.T) {
	ts := testserver.New(t)
	ts.WriteInbox(t, "phoenix.md", "Phoenix: the sponsor is furious about the slip.")
	ts.Model.OnDocument("phoenix.md", project.Candidate{
		Name:        "Phoenix",
		Description: strp("Billing platform rewrite"),
		Urgency:     intp(6),
		Sentiment:   sentimentp(project.SentimentFurious),
	})

	var out mcp.IngestOutput
	ts.Call(t, "ingest_documents", nil, &out)
	require.Equal(t, 1, out.Processed)
	require.Equal(t, 1, out.Created)
	require.Empty(t, out.Failures)
	require.Len(t, out.Projects, 1)

	var got mcp.ProjectOutput
	ts.Call(t, "get_project", map[string]any{"ref": "phoenix"}, &got)
	require.NotNil(t, got.Project)
	require.Equal(t, "Phoenix", got.Project.Name)
	require.Equal(t, 8, got.Project.Urgency)
	require.Equal(t, project.SentimentFurious, got.Project.Sentiment)
	require.Equal(t, project.DefaultPriority, got.Project.Priority)
	require.Len(t, got.Project.History, 1)
	require.Equal(t, project.MethodFile, got.Project.History[0].CaptureMethod)

	var list mcp.ListProjectsOutput
	ts.Call(t, "list_projects", nil, &list)
	require.Len(t, list.Projects, 1)
	require.Equal(t, got.Project.ID, list.Projects[0].ID)
}

func TestIngest_ReingestKeepsIdentity(t *testing.T) {
	ts := testserver.New(t)
	ts.WriteInbox(t, "week1.txt", "Atlas kicked off.")
	ts.Model.OnDocument("week1.txt", project.Candidate{Name: "Atlas", Priority: intp(5)})

	var first mcp.IngestOutput
	ts.Call(t, "ingest_documents", nil, &first)
	require.Equal(t, 1, first.Created)
	id := first.Projects[0].ID

	ts.Model.OnDocument("week1.txt", project.Candidate{Name: "atlas", Priority: intp(7)})
	var second mcp.IngestOutput
	ts.Call(t, "ingest_documents", nil, &second)
	require.Equal(t, 0, second.Created)
	require.Equal(t, 1, second.Updated)

	var got mcp.ProjectOutput
	ts.Call(t, "get_project", map[string]any{"ref": id}, &got)
	require.Equal(t, "Atlas", got.Project.Name)
	require.Equal(t, 7, got.Project.Priority)
	require.Len(t, got.Project.History, 2)
	require.Equal(t, "Priority increased from 5 to 7", got.Project.History[1].Change)

	var list mcp.ListProjectsOutput
	ts.Call(t, "list_projects", nil, &list)
	require.Len(t, list.Projects, 1)
}

func TestIngest_FailedDocumentIsSkipped(t *testing.T) {
	ts := testserver.New(t)
	ts.WriteInbox(t, "a.txt", "alpha")
	ts.WriteInbox(t, "b.txt", "bravo")
	ts.WriteInbox(t, "c.txt", "charlie")
	ts.Model.OnDocument("a.txt", project.Candidate{Name: "Alpha"})
	ts.Model.FailDocument("b.txt", fmt.Errorf("%w: reply was not JSON", ingest.ErrExtraction))
	ts.Model.OnDocument("c.txt", project.Candidate{Name: "Charlie", Priority: intp(9)})

	var out mcp.IngestOutput
	ts.Call(t, "ingest_documents", nil, &out)
	require.Equal(t, 2, out.Processed)
	require.Equal(t, 2, out.Created)
	require.Len(t, out.Failures, 1)
	require.Equal(t, "b.txt", out.Failures[0].Document)
	require.Contains(t, out.Failures[0].Message, "reply was not JSON")

	var list mcp.ListProjectsOutput
	ts.Call(t, "list_projects", nil, &list)
	require.Len(t, list.Projects, 2)
	require.Equal(t, "Charlie", list.Projects[0].Name)
	require.Equal(t, "Alpha", list.Projects[1].Name)

	var failed mcp.ActivityOutput
	ts.Call(t, "get_recent_activity", map[string]any{"type": string(activity.TypeDocumentFailed)}, &failed)
	require.Len(t, failed.Entries, 1)
	require.Contains(t, failed.Entries[0].Summary, "b.txt")
}

func TestIngest_SelectedFiles(t *testing.T) {
	ts := testserver.New(t)
	ts.WriteInbox(t, "a.txt", "alpha")
	ts.WriteInbox(t, "b.txt", "bravo")
	ts.Model.OnDocument("a.txt", project.Candidate{Name: "Alpha"})
	ts.Model.OnDocument("b.txt", project.Candidate{Name: "Bravo"})

	var out mcp.IngestOutput
	ts.Call(t, "ingest_documents", map[string]any{"files": []string{"b.txt"}}, &out)
	require.Equal(t, 1, out.Processed)
	require.Len(t, out.Projects, 1)
	require.Equal(t, "Bravo", out.Projects[0].Name)
}

func TestConflict_PriorityReversalWithinWindow(t *testing.T) {
	ts := testserver.New(t)
	ts.Model.Explanation = "Priority was just raised by the CEO; the note lowers it again."
	ts.WriteInbox(t, "atlas.txt", "Atlas update")
	ts.Model.OnDocument("atlas.txt", project.Candidate{Name: "Atlas", Priority: intp(5)})
	ts.Call(t, "ingest_documents", nil, nil)

	ts.Clock.Advance(10 * time.Minute)
	ts.Model.OnDocument("atlas.txt", project.Candidate{Name: "Atlas", Priority: intp(8)})
	var raised mcp.IngestOutput
	ts.Call(t, "ingest_documents", nil, &raised)
	require.Empty(t, raised.Conflicts)

	ts.Clock.Advance(30 * time.Minute)
	note := "Atlas can drop back, priority 5 for now"
	ts.Model.OnNote(note, capture.ParsedNote{
		Candidate:     project.Candidate{Name: "Atlas", Priority: intp(5)},
		ChangeSummary: "Priority lowered after CEO call",
	})

	var out mcp.QuickUpdateOutput
	ts.Call(t, "quick_update", map[string]any{"text": note}, &out)
	require.False(t, out.Created)
	require.Equal(t, []string{"Atlas"}, out.ProjectsUpdated)
	require.Len(t, out.Conflicts, 1)
	alert := out.Conflicts[0]
	require.Equal(t, conflict.TypePriorityShift, alert.ConflictType)
	require.Contains(t, alert.PreviousValue, "8")
	require.Contains(t, alert.NewValue, "5")
	require.Equal(t, ts.Model.Explanation, alert.Analysis)
	require.False(t, alert.Resolved)

	var listed mcp.ListConflictsOutput
	ts.Call(t, "list_conflicts", map[string]any{"unresolved_only": true}, &listed)
	require.Len(t, listed.Conflicts, 1)
	require.Equal(t, alert.ID, listed.Conflicts[0].ID)

	var got mcp.ProjectOutput
	ts.Call(t, "get_project", map[string]any{"ref": "Atlas"}, &got)
	require.Equal(t, 5, got.Project.Priority)
	require.Equal(t, "Priority lowered after CEO call", got.Project.History[len(got.Project.History)-1].Change)
	require.Equal(t, project.MethodQuickCapture, got.Project.History[len(got.Project.History)-1].CaptureMethod)

	var detected mcp.ActivityOutput
	ts.Call(t, "get_recent_activity", map[string]any{"type": string(activity.TypeConflictDetected)}, &detected)
	require.Len(t, detected.Entries, 1)
}

func TestConflict_OutsideWindowIsIgnored(t *testing.T) {
	ts := testserver.New(t)
	ts.WriteInbox(t, "atlas.txt", "Atlas update")
	ts.Model.OnDocument("atlas.txt", project.Candidate{Name: "Atlas", Priority: intp(5)})
	ts.Call(t, "ingest_documents", nil, nil)
	ts.Model.OnDocument("atlas.txt", project.Candidate{Name: "Atlas", Priority: intp(8)})
	ts.Call(t, "ingest_documents", nil, nil)

	ts.Clock.Advance(3 * time.Hour)
	note := "Atlas priority back to 5"
	ts.Model.OnNote(note, capture.ParsedNote{Candidate: project.Candidate{Name: "Atlas", Priority: intp(5)}})

	var out mcp.QuickUpdateOutput
	ts.Call(t, "quick_update", map[string]any{"text": note, "method": "voice"}, &out)
	require.Empty(t, out.Conflicts)

	var got mcp.ProjectOutput
	ts.Call(t, "get_project", map[string]any{"ref": "atlas"}, &got)
	last := got.Project.History[len(got.Project.History)-1]
	require.Equal(t, "Updated via voice", last.Change)
	require.Equal(t, project.MethodVoice, last.CaptureMethod)

	var listed mcp.ListConflictsOutput
	ts.Call(t, "list_conflicts", nil, &listed)
	require.Empty(t, listed.Conflicts)
}

func TestConflict_UrgencySpikeAndSentiment(t *testing.T) {
	ts := testserver.New(t)
	ts.WriteInbox(t, "orion.txt", "Orion")
	ts.Model.OnDocument("orion.txt", project.Candidate{
		Name:      "Orion",
		Urgency:   intp(3),
		Sentiment: sentimentp(project.SentimentCalm),
	})
	ts.Call(t, "ingest_documents", nil, nil)

	ts.Clock.Advance(5 * time.Minute)
	ts.Model.OnDocument("orion.txt", project.Candidate{
		Name:      "Orion",
		Urgency:   intp(7),
		Sentiment: sentimentp(project.SentimentFrustrated),
	})
	var out mcp.IngestOutput
	ts.Call(t, "ingest_documents", nil, &out)
	require.Len(t, out.Conflicts, 2)

	types := []conflict.Type{out.Conflicts[0].ConflictType, out.Conflicts[1].ConflictType}
	require.ElementsMatch(t, []conflict.Type{conflict.TypeUrgencySpike, conflict.TypeSentimentChange}, types)
	require.Equal(t, conflict.NoConflictRationale, out.Conflicts[0].Analysis)
}

func TestQuickUpdate_CreatesProject(t *testing.T) {
	ts := testserver.New(t)
	note := "New initiative Vega, CEO wants it at priority 9"
	ts.Model.OnNote(note, capture.ParsedNote{Candidate: project.Candidate{Name: "Vega", Priority: intp(9)}})

	var out mcp.QuickUpdateOutput
	ts.Call(t, "quick_update", map[string]any{"text": note}, &out)
	require.True(t, out.Created)
	require.Equal(t, []string{"Vega"}, out.ProjectsUpdated)

	var got mcp.ProjectOutput
	ts.Call(t, "get_project", map[string]any{"ref": "vega"}, &got)
	require.Equal(t, 9, got.Project.Priority)
	require.Equal(t, note, got.Project.Notes)
	require.Len(t, got.Project.History, 1)
	require.Equal(t, "Created via quick-capture: "+note, got.Project.History[0].Change)
}

func TestQuickUpdate_UnparseableNote(t *testing.T) {
	ts := testserver.New(t)
	msg := ts.CallError(t, "quick_update", map[string]any{"text": "something the model never saw"})
	require.NotEmpty(t, msg)

	var list mcp.ListProjectsOutput
	ts.Call(t, "list_projects", nil, &list)
	require.Empty(t, list.Projects)
}

func TestIngestEmail(t *testing.T) {
	ts := testserver.New(t)
	ts.Model.OnDocument("Status: Lyra.txt", project.Candidate{Name: "Lyra", Status: func() *project.Status {
		s := project.StatusBlocked
		return &s
	}()})

	var out mcp.IngestOutput
	ts.Call(t, "ingest_email", map[string]any{"subject": "Status: Lyra", "body": "Lyra is blocked on legal."}, &out)
	require.Equal(t, 1, out.Processed)
	require.Len(t, out.Projects, 1)
	require.Equal(t, project.StatusBlocked, out.Projects[0].Status)
	require.Equal(t, project.MethodEmail, out.Projects[0].History[0].CaptureMethod)
}

func TestQualityScore(t *testing.T) {
	ts := testserver.New(t)

	var empty mcp.QualityScoreOutput
	ts.Call(t, "quality_score", nil, &empty)
	require.Equal(t, 90, empty.Score)

	ts.WriteInbox(t, "full.txt", "Full record")
	deadline := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	ts.Model.OnDocument("full.txt", project.Candidate{
		Name:         "Full",
		Description:  strp("Complete record"),
		Priority:     intp(6),
		Urgency:      intp(6),
		Sentiment:    sentimentp(project.SentimentConcerned),
		Deadline:     &deadline,
		Notes:        strp("notes"),
		Risks:        []string{"vendor"},
		Dependencies: []string{"Atlas"},
	})

	var out mcp.IngestOutput
	ts.Call(t, "ingest_documents", nil, &out)
	require.Equal(t, 100, out.QualityScore)

	var refreshed mcp.QualityScoreOutput
	ts.Call(t, "quality_score", map[string]any{"refresh": true}, &refreshed)
	require.Equal(t, out.QualityScore, refreshed.Score)
}

func TestGetProject_NotFound(t *testing.T) {
	ts := testserver.New(t)
	msg := ts.CallError(t, "get_project", map[string]any{"ref": "nothing"})
	require.Contains(t, msg, "PROJECT_NOT_FOUND")
}

func TestActivity_BatchRecorded(t *testing.T) {
	ts := testserver.New(t)
	ts.WriteInbox(t, "a.txt", "alpha")
	ts.Model.OnDocument("a.txt", project.Candidate{Name: "Alpha"})
	ts.Call(t, "ingest_documents", nil, nil)

	var out mcp.ActivityOutput
	ts.Call(t, "get_recent_activity", nil, &out)
	var kinds []activity.ActivityType
	for _, e := range out.Entries {
		kinds = append(kinds, e.ActivityType)
	}
	require.Contains(t, kinds, activity.TypeProjectCreated)
	require.Contains(t, kinds, activity.TypeBatchCompleted)
}

func TestSearchProjects(t *testing.T) {
	ts := testserver.New(t)
	ts.WriteInbox(t, "portfolio.md", "two projects")
	ts.Model.OnDocument("portfolio.md",
		project.Candidate{Name: "Phoenix", Description: strp("Billing platform rewrite"), Risks: []string{"payment vendor lock-in"}},
		project.Candidate{Name: "Atlas", Description: strp("Warehouse automation")},
	)
	ts.Call(t, "ingest_documents", nil, nil)

	var out mcp.SearchProjectsOutput
	ts.Call(t, "search_projects", map[string]any{"query": "vendor"}, &out)
	require.Len(t, out.Results, 1)
	require.Equal(t, "Phoenix", out.Results[0].Project.Name)
	require.Equal(t, 1, out.Results[0].Project.RiskCount)

	ts.Call(t, "search_projects", map[string]any{"query": "ware"}, &out)
	require.Len(t, out.Results, 1)
	require.Equal(t, "Atlas", out.Results[0].Project.Name)

	msg := ts.CallError(t, "search_projects", map[string]any{"query": "  "})
	require.Contains(t, msg, "INVALID_INPUT")
}
