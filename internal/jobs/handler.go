package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/domain"
	"github.com/dvloznov/financeiro/internal/importer"
	"github.com/dvloznov/financeiro/internal/llm"
	"github.com/dvloznov/financeiro/internal/logger"
	"github.com/dvloznov/financeiro/internal/reducer"
)

// StateStore reads and commits the shared state.
type StateStore interface {
	Snapshot() domain.State
	Update(ctx context.Context, action string, fn func(domain.State) domain.State) error
}

// StatementParser turns a statement document into import rows.
type StatementParser interface {
	Parse(ctx context.Context, doc llm.Image, accountID string, state domain.State) ([]importer.Row, map[int]string, error)
}

// NewImportHandler applies import jobs through state with r. Statement jobs
// are parsed with parser first, which may be nil when no model is configured.
// The report is stored on the job. Parse failures are retried; applying is
// not idempotent, so apply failures are not.
func NewImportHandler(state StateStore, r *importer.Reconciler, parser StatementParser, log zerolog.Logger) JobHandler {
	return func(ctx context.Context, job Job) error {
		imp, ok := job.(*ImportJob)
		if !ok {
			return Permanent(fmt.Errorf("import handler: unexpected job type %s", job.GetType()))
		}
		log := logger.FromContextOr(ctx, logger.WithFields(log, map[string]interface{}{
			"job_id":   imp.JobID,
			"job_type": string(imp.GetType()),
		}))

		if imp.Document != nil {
			if parser == nil {
				return Permanent(errors.New("import handler: statement parsing is not configured"))
			}
			rows, parseErrs, err := parser.Parse(ctx, *imp.Document, imp.AccountID, state.Snapshot())
			if err != nil {
				return fmt.Errorf("import handler: %w", err)
			}
			imp.Rows, imp.ParseErrors, imp.Document = rows, parseErrs, nil
		}

		var report importer.Report
		err := state.Update(ctx, string(reducer.KindBatchImport), func(s domain.State) domain.State {
			next, rep := r.Apply(s, imp.Rows)
			report = rep
			return next
		})
		imp.Report = &report
		if err != nil {
			log.Error().Err(err).Msg("Import applied but state was not saved")
			return Permanent(fmt.Errorf("import handler: %w", err))
		}
		log.Info().Int("rows", len(imp.Rows)).Int("imported", report.Imported).Int("skipped", report.Skipped).Msg("Import job finished")
		return nil
	}
}
