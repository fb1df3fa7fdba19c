package bigquery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/dvloznov/financeiro/internal/domain"
)

// insertBatchSize keeps each streaming insert well under the request limit.
const insertBatchSize = 500

// ExportResult describes one export run.
type ExportResult struct {
	ExportID string    `json:"exportId"`
	Rows     int       `json:"rows"`
	Exported time.Time `json:"exported"`
}

// Exporter streams ledger snapshots into a BigQuery table.
type Exporter struct {
	client  *bigquery.Client
	project string
	dataset string
	table   string
	log     zerolog.Logger
}

// NewExporter creates the BigQuery client. Without a credentials file
// Application Default Credentials are used.
func NewExporter(ctx context.Context, project, dataset, table, credentialsFile string, log zerolog.Logger) (*Exporter, error) {
	if project == "" || dataset == "" || table == "" {
		return nil, errors.New("NewExporter: project, dataset and table are required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewExporter: creating client: %w", err)
	}
	return &Exporter{
		client:  client,
		project: project,
		dataset: dataset,
		table:   table,
		log:     log.With().Str("table", dataset+"."+table).Logger(),
	}, nil
}

func (e *Exporter) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

func (e *Exporter) qualified() string {
	return fmt.Sprintf("%s.%s.%s", e.project, e.dataset, e.table)
}

// EnsureTable creates the export table if it does not exist.
func (e *Exporter) EnsureTable(ctx context.Context) error {
	job, err := e.client.Query(fmt.Sprintf(TransactionsDDL, e.qualified())).Run(ctx)
	if err != nil {
		return fmt.Errorf("EnsureTable: running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("EnsureTable: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("EnsureTable: job error: %w", err)
	}
	return nil
}

// Export inserts every transaction of state under a fresh export id.
// Insert ids make a retried batch idempotent.
func (e *Exporter) Export(ctx context.Context, state domain.State) (ExportResult, error) {
	res := ExportResult{ExportID: uuid.NewString(), Exported: time.Now().UTC()}
	rows := RowsFromState(state, res.ExportID, res.Exported)

	inserter := e.client.DatasetInProject(e.project, e.dataset).Table(e.table).Inserter()
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		savers := make([]*bigquery.StructSaver, 0, end-start)
		for _, r := range rows[start:end] {
			savers = append(savers, &bigquery.StructSaver{
				Struct:   r,
				InsertID: r.ExportID + ":" + r.TransactionID,
			})
		}
		if err := inserter.Put(ctx, savers); err != nil {
			return res, fmt.Errorf("Export: inserting rows %d-%d: %w", start, end, err)
		}
		res.Rows = end
	}

	e.log.Info().Str("export_id", res.ExportID).Int("rows", res.Rows).Msg("Ledger exported to BigQuery")
	return res, nil
}

// CountRows returns how many rows an export run wrote.
func (e *Exporter) CountRows(ctx context.Context, exportID string) (int64, error) {
	q := e.client.Query(fmt.Sprintf("SELECT COUNT(*) AS n FROM `%s` WHERE export_id = @export_id", e.qualified()))
	q.Parameters = []bigquery.QueryParameter{{Name: "export_id", Value: exportID}}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("CountRows: query read: %w", err)
	}
	var row struct {
		N int64 `bigquery:"n"`
	}
	err = it.Next(&row)
	if err == iterator.Done {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("CountRows: iter next: %w", err)
	}
	return row.N, nil
}
