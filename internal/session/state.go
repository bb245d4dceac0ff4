package session

import (
	"errors"
	"sync"

	"github.com/bryanwahyu/contract-sentinel/internal/domain/contract"
	"github.com/bryanwahyu/contract-sentinel/internal/domain/tasks"
)

var (
	// ErrNoDocument means analysis was requested before a document upload.
	ErrNoDocument = errors.New("no structured document loaded")
	// ErrNoTable means analysis was requested before a table upload.
	ErrNoTable = errors.New("no task table loaded")
	// ErrRunInProgress means another analysis run currently owns the session.
	ErrRunInProgress = errors.New("analysis run already in progress")
)

// Manager holds the process-wide session state: exactly one structured
// document and one task table, each overwritten wholesale by a successful
// upload. It also owns the single-flight guard that keeps concurrent
// analysis runs from interleaving over the shared state.
type Manager struct {
	mu      sync.Mutex
	doc     *contract.StructuredDocument
	table   []tasks.Row
	running bool
}

func NewManager() *Manager {
	return &Manager{}
}

// SetDocument installs the structured document from a successful upload.
func (m *Manager) SetDocument(doc *contract.StructuredDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = doc
}

// SetTable installs the task table from a successful upload.
func (m *Manager) SetTable(rows []tasks.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table = rows
}

// Snapshot returns the current document and table for an analysis run.
func (m *Manager) Snapshot() (*contract.StructuredDocument, []tasks.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return nil, nil, ErrNoDocument
	}
	if m.table == nil {
		return nil, nil, ErrNoTable
	}
	return m.doc, m.table, nil
}

// BeginRun acquires the single-flight guard. Callers must pair it with
// EndRun once the run finishes.
func (m *Manager) BeginRun() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return ErrRunInProgress
	}
	m.running = true
	return nil
}

// EndRun releases the single-flight guard.
func (m *Manager) EndRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
}
