// Package testserver wires the full nexus stack on an in-memory SQLite
// database behind an MCP client session, with a scripted language model.
package testserver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/nexus/internal/domain/activity"
	"github.com/rpggio/nexus/internal/domain/capture"
	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/ingest"
	"github.com/rpggio/nexus/internal/domain/merge"
	"github.com/rpggio/nexus/internal/domain/project"
	"github.com/rpggio/nexus/internal/domain/quality"
	"github.com/rpggio/nexus/internal/mcp"
	"github.com/rpggio/nexus/internal/sqlite"
	"github.com/rpggio/nexus/internal/state"
)

// TestServer is a running stack and a connected client.
type TestServer struct {
	Session *sdkmcp.ClientSession
	DB      *sqlite.DB
	Store   *state.Store
	Model   *ScriptedModel
	Inbox   string
	Clock   *Clock
}

// New builds the stack. Every service shares one clock so tests can move
// time across the conflict look-back window.
func New(t *testing.T) *TestServer {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	clock := &Clock{now: time.Now().UTC()}
	model := NewScriptedModel()

	store := state.NewStore(sqlite.NewDocumentRepository(db), state.Options{}, nil)
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	detector := conflict.NewDetector(model, nil)
	engine := merge.NewEngine(nil, detector, nil, merge.Options{Now: clock.Now}, nil)
	orchestrator := ingest.NewOrchestrator(model, engine, ingest.Options{}, nil)

	inbox := t.TempDir()
	server := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects:  project.NewService(store, nil, sqlite.NewSearchRepository(db), nil),
			Ingest:    ingest.NewService(orchestrator, store, activitySvc, nil),
			Capture:   capture.NewHandler(model, engine, store, activitySvc, nil),
			Conflicts: store,
			Quality:   quality.NewService(store, nil),
			Activity:  activitySvc,
		},
		Inbox: inbox,
	})

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "testserver", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()
		_ = serverSession.Close()
		_ = db.Close()
	})

	return &TestServer{
		Session: session,
		DB:      db,
		Store:   store,
		Model:   model,
		Inbox:   inbox,
		Clock:   clock,
	}
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ScriptedModel answers extraction and note parsing from fixed scripts and
// explains every conflict with a fixed sentence.
type ScriptedModel struct {
	mu          sync.Mutex
	documents   map[string][]project.Candidate
	failures    map[string]error
	notes       map[string]capture.ParsedNote
	Explanation string
}

func NewScriptedModel() *ScriptedModel {
	return &ScriptedModel{
		documents:   map[string][]project.Candidate{},
		failures:    map[string]error{},
		notes:       map[string]capture.ParsedNote{},
		Explanation: conflict.NoConflictRationale,
	}
}

// OnDocument scripts the candidates extracted from a document label.
func (m *ScriptedModel) OnDocument(label string, candidates ...project.Candidate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[label] = candidates
}

// FailDocument makes extraction of label fail with err.
func (m *ScriptedModel) FailDocument(label string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[label] = err
}

// OnNote scripts the parse of a note text.
func (m *ScriptedModel) OnNote(text string, note capture.ParsedNote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[text] = note
}

func (m *ScriptedModel) Extract(_ context.Context, _ string, label string) ([]project.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[label]; err != nil {
		return nil, err
	}
	return m.documents[label], nil
}

func (m *ScriptedModel) ParseNote(_ context.Context, text string, _ []string) (*capture.ParsedNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	note, ok := m.notes[text]
	if !ok {
		return nil, fmt.Errorf("no scripted note for %q", text)
	}
	return &note, nil
}

func (m *ScriptedModel) Explain(context.Context, conflict.ExplainRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Explanation, nil
}
