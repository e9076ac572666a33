package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/store"
)

// Save stores r for sessionID and returns the saved record.
func Save(ctx context.Context, repo store.ReportRepo, sessionID string, r collab.Report) (*store.Report, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	rec := &store.Report{SessionID: sessionID, Title: Headline(r), Body: body}
	if err := repo.SaveReport(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Decode reads a stored report body.
func Decode(rec store.Report) (collab.Report, error) {
	var r collab.Report
	if err := json.Unmarshal(rec.Body, &r); err != nil {
		return collab.Report{}, fmt.Errorf("decode report %d: %w", rec.ID, err)
	}
	return r, nil
}
