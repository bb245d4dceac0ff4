package tables

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/bryanwahyu/contract-sentinel/internal/application/contracts"
	"github.com/bryanwahyu/contract-sentinel/internal/domain/tasks"
	"github.com/bryanwahyu/contract-sentinel/internal/session"
)

// Service implements the task-table upload use-case.
type Service struct {
	Parser    tasks.TableParser
	Session   *session.Manager
	Artifacts contracts.ArtifactStore // optional; nil disables archiving
}

// UploadTable parses an uploaded table and installs it as the session's
// current table, replacing any previous one wholesale. A failed parse leaves
// the session unchanged.
func (s *Service) UploadTable(ctx context.Context, r io.Reader) ([]tasks.Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	rows, err := s.Parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	s.Session.SetTable(rows)
	if s.Artifacts != nil {
		key := fmt.Sprintf("tables/%s.csv", uuid.New().String())
		if _, err := s.Artifacts.UploadBytes(ctx, key, data, "text/csv"); err != nil {
			log.Printf("warning: failed to archive table upload: %v", err)
		}
	}
	return rows, nil
}
