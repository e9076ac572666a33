package session

import (
	"context"
	"fmt"

	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/convlog"
	"github.com/abhisek/parley/internal/report"
	"github.com/abhisek/parley/internal/store"
)

// Report generates and stores the report for the running session.
func (c *Controller) Report(ctx context.Context) (collab.Report, error) {
	var out collab.Report
	err := c.run(ctx, "report", func(ctx context.Context, s *Context) error {
		r, err := c.opts.Backend.Report(ctx, collab.ReportRequest{
			Lines:    s.Log.Lines(),
			Scenario: s.Topic,
			Mode:     string(s.Mode),
		})
		if err != nil {
			return err
		}
		out = r
		if c.opts.Store != nil {
			if _, err := report.Save(ctx, c.opts.Store.ReportRepo(), s.ID, r); err != nil {
				c.logger.Warn("report not saved", "session", s.ID, "error", err)
			}
		}
		return nil
	})
	return out, err
}

// ReportFor generates and stores a report for a stored session, including
// one that was interrupted.
func ReportFor(ctx context.Context, reporter collab.Reporter, st *store.Store, sessionID string) (collab.Report, *store.Report, error) {
	sess, err := st.SessionRepo().GetSession(ctx, sessionID)
	if err != nil {
		return collab.Report{}, nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	log, err := convlog.Resume(ctx, sessionID, st.SessionRepo(), nil)
	if err != nil {
		return collab.Report{}, nil, err
	}
	r, err := reporter.Report(ctx, collab.ReportRequest{
		Lines:    log.Lines(),
		Scenario: sess.Topic,
		Mode:     sess.Mode,
	})
	if err != nil {
		return collab.Report{}, nil, err
	}
	rec, err := report.Save(ctx, st.ReportRepo(), sessionID, r)
	if err != nil {
		return r, nil, err
	}
	return r, rec, nil
}
