package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/api/middleware"
	"github.com/dvloznov/financeiro/internal/importer"
	"github.com/dvloznov/financeiro/internal/jobs"
	"github.com/dvloznov/financeiro/internal/statement"
)

// statementRetries bounds model retries for a statement upload.
const statementRetries = 2

// TransferHandler handles spreadsheet export, sheet and statement import,
// and import job status.
type TransferHandler struct {
	session   Session
	publisher jobs.Publisher
	jobs      jobs.JobStore
	now       func() time.Time
	log       zerolog.Logger
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(session Session, publisher jobs.Publisher, store jobs.JobStore, log zerolog.Logger) *TransferHandler {
	return &TransferHandler{session: session, publisher: publisher, jobs: store, now: time.Now, log: log}
}

func attachment(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
}

// ExportCSV handles GET /api/export/csv
func (h *TransferHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	attachment(w, fmt.Sprintf("financeiro-%s.csv", h.now().Format(dateLayout)))
	if err := importer.WriteCSV(w, h.session.Snapshot()); err != nil {
		log := requestLog(r, h.log)
		log.Error().Err(err).Msg("Failed to write export")
	}
}

// ExportTemplate handles GET /api/export/template
func (h *TransferHandler) ExportTemplate(w http.ResponseWriter, r *http.Request) {
	attachment(w, "financeiro-modelo.csv")
	if err := importer.WriteTemplate(w, h.session.Snapshot(), h.now()); err != nil {
		log := requestLog(r, h.log)
		log.Error().Err(err).Msg("Failed to write template")
	}
}

// Import handles POST /api/import
// The sheet is either the raw CSV body or a multipart upload in field "file".
// Rows are applied asynchronously; poll /api/jobs/{id} for the report.
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, middleware.MaxBodyBytes)

	var (
		src    io.Reader = r.Body
		source           = "upload.csv"
	)
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()
		src, source = file, header.Filename
	}

	rows, parseErrors, err := importer.ReadCSV(src, h.session.Snapshot())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := &jobs.ImportJob{
		Source:      source,
		Rows:        rows,
		ParseErrors: parseErrors,
	}
	if err := h.publisher.PublishImport(r.Context(), job); err != nil {
		log := requestLog(r, h.log)
		log.Error().Err(err).Msg("Failed to enqueue import job")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue import")
		return
	}

	log := requestLog(r, h.log)
	log.Info().Str("job_id", job.JobID).Int("rows", len(rows)).Int("rejected", len(parseErrors)).Msg("Import job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"jobId":       job.JobID,
		"rows":        len(rows),
		"parseErrors": parseErrors,
	})
}

// ImportStatement handles POST /api/import/statement
// Multipart fields: "file" (PDF or image, required) and "accountId". The
// document is parsed by the model in the background; poll /api/jobs/{id}.
func (h *TransferHandler) ImportStatement(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, middleware.MaxBodyBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read file")
		return
	}
	doc, err := statement.NewDocument(data)
	if err != nil {
		middleware.WriteError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	accountID := r.FormValue("accountId")
	if accountID != "" {
		if _, ok := h.session.Snapshot().FindAccount(accountID); !ok {
			middleware.WriteError(w, http.StatusBadRequest, "Account not found")
			return
		}
	}

	job := &jobs.ImportJob{
		Type:       jobs.JobTypeStatement,
		Source:     header.Filename,
		Document:   &doc,
		AccountID:  accountID,
		MaxRetries: statementRetries,
	}
	if err := h.publisher.PublishImport(r.Context(), job); err != nil {
		log := requestLog(r, h.log)
		log.Error().Err(err).Msg("Failed to enqueue statement job")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue import")
		return
	}

	log := requestLog(r, h.log)
	log.Info().Str("job_id", job.JobID).Str("mime_type", doc.MIMEType).Int("bytes", len(data)).Msg("Statement job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"jobId": job.JobID,
		"type":  job.Type,
	})
}

// ListJobs handles GET /api/jobs
// Query params: status, limit, offset
func (h *TransferHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := jobs.JobFilter{Status: jobs.JobStatus(q.Get("status"))}

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid offset")
			return
		}
		filter.Offset = n
	}

	list, err := h.jobs.ListJobs(r.Context(), filter)
	if err != nil {
		log := requestLog(r, h.log)
		log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// GetJob handles GET /api/jobs/{id}
func (h *TransferHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetJob(r.Context(), r.PathValue("id"))
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		log := requestLog(r, h.log)
		log.Error().Err(err).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}
