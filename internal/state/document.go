package state

import (
	"slices"
	"time"

	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/project"
)

// SchemaVersion is the document version written by this package.
const SchemaVersion = "1.0"

// Metadata holds aggregate ingestion figures.
type Metadata struct {
	LastIngestion       *time.Time `json:"lastIngestion,omitempty"`
	TotalFilesProcessed int        `json:"totalFilesProcessed"`
	QualityScore        int        `json:"qualityScore"`
}

// Document is the whole persisted portfolio: projects, conflict alerts and
// metadata. It is loaded, mutated in memory and saved back wholesale.
type Document struct {
	Version   string             `json:"version"`
	Projects  []*project.Project `json:"projects"`
	Conflicts []conflict.Alert   `json:"conflicts"`
	Metadata  Metadata           `json:"metadata"`
}

// NewDocument returns an empty document at the current schema version.
func NewDocument() *Document {
	return &Document{
		Version:   SchemaVersion,
		Projects:  []*project.Project{},
		Conflicts: []conflict.Alert{},
		Metadata:  Metadata{QualityScore: 100},
	}
}

// Project returns the project with the given id, or nil.
func (d *Document) Project(id string) *project.Project {
	for _, p := range d.Projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PutProject stores p, replacing any project with the same id.
func (d *Document) PutProject(p *project.Project) {
	for i, existing := range d.Projects {
		if existing.ID == p.ID {
			d.Projects[i] = p
			return
		}
	}
	d.Projects = append(d.Projects, p)
}

// Reconcile writes every record into the document, last writer wins by id.
func (d *Document) Reconcile(records []*project.Project) {
	for _, p := range records {
		d.PutProject(p)
	}
}

// AddConflicts appends alerts to the conflict list.
func (d *Document) AddConflicts(alerts ...conflict.Alert) {
	d.Conflicts = append(d.Conflicts, alerts...)
}

// Names returns project names in document order.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Projects))
	for _, p := range d.Projects {
		names = append(names, p.Name)
	}
	return names
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := &Document{
		Version:   d.Version,
		Projects:  make([]*project.Project, 0, len(d.Projects)),
		Conflicts: slices.Clone(d.Conflicts),
		Metadata:  d.Metadata,
	}
	if c.Conflicts == nil {
		c.Conflicts = []conflict.Alert{}
	}
	for _, p := range d.Projects {
		c.Projects = append(c.Projects, p.Clone())
	}
	if d.Metadata.LastIngestion != nil {
		t := *d.Metadata.LastIngestion
		c.Metadata.LastIngestion = &t
	}
	return c
}
