package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/safedata/safedata/internal/dataset"
	"github.com/safedata/safedata/internal/observability/metrics"
	"github.com/safedata/safedata/internal/privacy"
	"github.com/safedata/safedata/internal/storage"
	"github.com/safedata/safedata/pkg/constants"
	"github.com/safedata/safedata/pkg/errors"
	"github.com/safedata/safedata/pkg/models"
)

// Handlers contains all HTTP handlers for the Safe Data API
type Handlers struct {
	engine  *privacy.Engine
	store   storage.SessionStore
	metrics *metrics.Metrics
	logger  *logrus.Logger
	config  *Config
}

// NewHandlers creates a new handlers instance
func NewHandlers(engine *privacy.Engine, store storage.SessionStore, m *metrics.Metrics, logger *logrus.Logger, config *Config) *Handlers {
	return &Handlers{
		engine:  engine,
		store:   store,
		metrics: m,
		logger:  logger,
		config:  config,
	}
}

// riskRequest selects the quasi-identifier set and the table to assess
type riskRequest struct {
	QuasiIdentifiers []string `json:"quasi_identifiers"`
	UseAnonymized    bool     `json:"use_anonymized,omitempty"`
}

// compareRequest drives a full before/after comparison
type compareRequest struct {
	QuasiIdentifiers []string                   `json:"quasi_identifiers"`
	Config           models.AnonymizationConfig `json:"config"`
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := h.store.Health(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	h.writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"version":   constants.AppVersion,
	})
}

// Version handles GET /version
func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"name":    constants.AppName,
		"version": constants.AppVersion,
	})
}

// UploadDataset handles POST /api/v1/datasets. The request is a multipart
// form with a required "microdata" CSV file and an optional
// "true_identifiers" CSV file used only for linkage validation.
func (h *Handlers) UploadDataset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.config.MaxUploadSize); err != nil {
		h.writeError(w, r, errors.WrapError(err, errors.ErrorTypeConfig, errors.CodeInvalidInput,
			"request is not a valid multipart form"))
		return
	}

	microFile, _, err := r.FormFile(constants.FormFieldMicrodata)
	if err != nil {
		h.writeError(w, r, errors.NewConfigError(errors.CodeMissingField,
			fmt.Sprintf("multipart field %q is required", constants.FormFieldMicrodata)))
		return
	}
	defer microFile.Close()

	micro, err := dataset.Load(microFile)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	session := &storage.Session{
		ID:        uuid.New().String(),
		Microdata: micro,
		CreatedAt: time.Now().UTC(),
	}

	if trueFile, _, err := r.FormFile(constants.FormFieldTrueIDs); err == nil {
		defer trueFile.Close()
		trueIDs, err := dataset.Load(trueFile)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		session.TrueIDs = trueIDs
	}

	if err := h.store.Put(r.Context(), session); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.metrics.UploadedRows.Add(float64(micro.NumRows()))
	h.trackSessions(r)

	h.logger.WithFields(logrus.Fields{
		"dataset_id":   session.ID,
		"rows":         micro.NumRows(),
		"columns":      len(micro.Columns),
		"has_true_ids": session.TrueIDs != nil,
		"request_id":   getRequestID(r),
	}).Info("Dataset uploaded")

	h.writeJSON(w, http.StatusCreated, session.Summary())
}

// GetDataset handles GET /api/v1/datasets/{id}
func (h *Handlers) GetDataset(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, session.Summary())
}

// DeleteDataset handles DELETE /api/v1/datasets/{id}
func (h *Handlers) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.trackSessions(r)
	w.WriteHeader(http.StatusNoContent)
}

// AssessRisk handles POST /api/v1/datasets/{id}/risk
func (h *Handlers) AssessRisk(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req riskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.WrapError(err, errors.ErrorTypeConfig, errors.CodeInvalidInput,
			"request body is not valid JSON"))
		return
	}

	table := session.Microdata
	if req.UseAnonymized {
		if session.Anonymized == nil {
			h.writeError(w, r, errors.NewDataError(errors.CodeNoAnonymizedData,
				"no anonymized table exists for this dataset yet"))
			return
		}
		table = session.Anonymized
	}

	assessment, err := h.engine.AssessRisk(table, req.QuasiIdentifiers)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.metrics.RiskAssessments.Inc()
	h.writeJSON(w, http.StatusOK, assessment)
}

// Anonymize handles POST /api/v1/datasets/{id}/anonymize. The transformed
// table replaces any previous anonymized table in the session.
func (h *Handlers) Anonymize(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var cfg models.AnonymizationConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		h.writeError(w, r, errors.WrapError(err, errors.ErrorTypeConfig, errors.CodeInvalidInput,
			"request body is not valid JSON"))
		return
	}

	anonymized, drift, err := h.engine.Anonymize(session.Microdata, &cfg)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	session.Anonymized = anonymized
	if err := h.store.Put(r.Context(), session); err != nil {
		h.writeError(w, r, err)
		return
	}

	if len(cfg.NoiseColumns) > 0 {
		h.metrics.Anonymizations.WithLabelValues("noise").Inc()
	}
	if cfg.AgeColumn != "" {
		h.metrics.Anonymizations.WithLabelValues("generalize").Inc()
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"dataset": session.Summary(),
		"drift":   drift,
	})
}

// Compare handles POST /api/v1/datasets/{id}/compare
func (h *Handlers) Compare(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.WrapError(err, errors.ErrorTypeConfig, errors.CodeInvalidInput,
			"request body is not valid JSON"))
		return
	}

	report, err := h.engine.Compare(session.Microdata, req.QuasiIdentifiers, &req.Config)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.metrics.RiskAssessments.Add(2)
	h.writeJSON(w, http.StatusOK, report)
}

// Linkage handles POST /api/v1/datasets/{id}/linkage. The dataset must have
// been uploaded with a true-identifiers file.
func (h *Handlers) Linkage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	if session.TrueIDs == nil {
		h.writeError(w, r, errors.NewDataError(errors.CodeNoTrueIdentifiers,
			"dataset was uploaded without a true-identifiers table"))
		return
	}

	var req riskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.WrapError(err, errors.ErrorTypeConfig, errors.CodeInvalidInput,
			"request body is not valid JSON"))
		return
	}

	table := session.Microdata
	if req.UseAnonymized {
		if session.Anonymized == nil {
			h.writeError(w, r, errors.NewDataError(errors.CodeNoAnonymizedData,
				"no anonymized table exists for this dataset yet"))
			return
		}
		table = session.Anonymized
	}

	result, err := h.engine.LinkageRisk(table, session.TrueIDs, req.QuasiIdentifiers)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.metrics.LinkageChecks.Inc()
	h.writeJSON(w, http.StatusOK, result)
}

// ExportDataset handles GET /api/v1/datasets/{id}/export. It streams the
// anonymized table as a CSV download; pass ?table=microdata to export the
// original instead.
func (h *Handlers) ExportDataset(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	table := session.Anonymized
	filename := "anonymised_data.csv"
	if r.URL.Query().Get("table") == "microdata" {
		table = session.Microdata
		filename = "microdata.csv"
	}
	if table == nil {
		h.writeError(w, r, errors.NewDataError(errors.CodeNoAnonymizedData,
			"no anonymized table exists for this dataset yet"))
		return
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeCSV)
	w.Header().Set(constants.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

	if err := dataset.Export(r.Context(), w, table); err != nil {
		h.logger.WithFields(logrus.Fields{
			"dataset_id": session.ID,
			"request_id": getRequestID(r),
		}).WithError(err).Error("CSV export failed")
	}
}

// NotFound handles unmatched routes
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, `{"error": {"code": "NOT_FOUND", "message": "Resource not found"}}`)
}

// session loads the session for the {id} path variable, writing the error
// response itself when the lookup fails
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*storage.Session, bool) {
	id := mux.Vars(r)["id"]
	session, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return session, true
}

// trackSessions refreshes the active-session gauge
func (h *Handlers) trackSessions(r *http.Request) {
	if count, err := h.store.Count(r.Context()); err == nil {
		h.metrics.ActiveSessions.Set(float64(count))
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.NewInternalError(err.Error())
	}

	h.logger.WithFields(logrus.Fields{
		"error_type": appErr.Type,
		"error_code": appErr.Code,
		"path":       r.URL.Path,
		"request_id": getRequestID(r),
	}).Warn(appErr.Message)

	h.writeJSON(w, appErr.HTTPStatus, &errors.ErrorResponse{
		Error:     appErr,
		RequestID: getRequestID(r),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
	})
}
