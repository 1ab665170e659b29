package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safedata/safedata/internal/storage"
	"github.com/safedata/safedata/pkg/models"
)

const microdataCSV = `age,zip,income
34,10001,52000
34,10001,48000
40,10002,61000
41,10002,58000
99,10099,150000
`

const trueIDsCSV = `name,age,zip
alice,34,10001
bob,41,10002
`

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	store := storage.NewMemoryStore(time.Minute, logger)
	t.Cleanup(func() { store.Close() })

	config := DefaultConfig()
	config.EnableMetrics = false

	server, err := NewServer(config, store, logger)
	require.NoError(t, err)
	return server
}

func doRequest(t *testing.T, server *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func multipartUpload(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for field, content := range files {
		part, err := writer.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func uploadDataset(t *testing.T, server *Server, files map[string]string) string {
	t.Helper()

	body, contentType := multipartUpload(t, files)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(t, server, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var summary models.DatasetSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.NotEmpty(t, summary.ID)
	return summary.ID
}

func postJSON(t *testing.T, server *Server, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return doRequest(t, server, req)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestUploadDataset(t *testing.T) {
	server := newTestServer(t)

	body, contentType := multipartUpload(t, map[string]string{
		"microdata":        microdataCSV,
		"true_identifiers": trueIDsCSV,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(t, server, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var summary models.DatasetSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, []string{"age", "zip", "income"}, summary.Columns)
	assert.Equal(t, 5, summary.RowCount)
	assert.True(t, summary.HasTrueIDs)
	assert.False(t, summary.HasAnonymized)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestUploadDatasetMissingFile(t *testing.T) {
	server := newTestServer(t)

	body, contentType := multipartUpload(t, map[string]string{
		"true_identifiers": trueIDsCSV,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(t, server, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "microdata")
}

func TestUploadDatasetMalformedCSV(t *testing.T) {
	server := newTestServer(t)

	body, contentType := multipartUpload(t, map[string]string{
		"microdata": "age,zip\n34,10001\n41\n",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(t, server, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetAndDeleteDataset(t *testing.T) {
	server := newTestServer(t)
	id := uploadDataset(t, server, map[string]string{"microdata": microdataCSV})

	rec := doRequest(t, server, httptest.NewRequest(http.MethodGet, "/api/v1/datasets/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, server, httptest.NewRequest(http.MethodDelete, "/api/v1/datasets/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, server, httptest.NewRequest(http.MethodGet, "/api/v1/datasets/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssessRiskEndpoint(t *testing.T) {
	server := newTestServer(t)
	id := uploadDataset(t, server, map[string]string{"microdata": microdataCSV})

	rec := postJSON(t, server, fmt.Sprintf("/api/v1/datasets/%s/risk", id), map[string]interface{}{
		"quasi_identifiers": []string{"age", "zip"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var assessment models.RiskAssessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assessment))
	assert.InDelta(t, 60.0, assessment.Score, 1e-9)
	assert.Equal(t, 5, assessment.TotalRows)
	assert.Equal(t, 3, assessment.UniqueRows)
}

func TestAssessRiskUnknownColumn(t *testing.T) {
	server := newTestServer(t)
	id := uploadDataset(t, server, map[string]string{"microdata": microdataCSV})

	rec := postJSON(t, server, fmt.Sprintf("/api/v1/datasets/%s/risk", id), map[string]interface{}{
		"quasi_identifiers": []string{"age", "missing_col"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_col")
}

func TestAnonymizeAndExportFlow(t *testing.T) {
	server := newTestServer(t)
	id := uploadDataset(t, server, map[string]string{"microdata": microdataCSV})

	rec := postJSON(t, server, fmt.Sprintf("/api/v1/datasets/%s/anonymize", id), map[string]interface{}{
		"age_column":       "age",
		"age_bucket_width": 10,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Dataset models.DatasetSummary `json:"dataset"`
		Drift   []models.ColumnDrift  `json:"drift"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Dataset.HasAnonymized)

	// Risk against the anonymized table drops to one unique row out of five.
	rec = postJSON(t, server, fmt.Sprintf("/api/v1/datasets/%s/risk", id), map[string]interface{}{
		"quasi_identifiers": []string{"age", "zip"},
		"use_anonymized":    true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var assessment models.RiskAssessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assessment))
	assert.InDelta(t, 20.0, assessment.Score, 1e-9)

	rec = doRequest(t, server, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/v1/datasets/%s/export", id), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "anonymised_data.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "age,zip,income", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "30-39,"))
}

func TestAnonymizeInvalidConfig(t *testing.T) {
	server := newTestServer(t)
	id := uploadDataset(t, server, map[string]string{"microdata": microdataCSV})

	rec := postJSON(t, server, fmt.Sprintf("/api/v1/datasets/%s/anonymize", id), map[string]interface{}{
		"noise_columns": []string{"income"},
		"noise_scale":   -5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportWithoutAnonymizedTable(t *testing.T) {
	server := newTestServer(t)
	id := uploadDataset(t, server, map[string]string{"microdata": microdataCSV})

	rec := doRequest(t, server, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/v1/datasets/%s/export", id), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// The raw upload is still exportable.
	rec = doRequest(t, server, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/v1/datasets/%s/export?table=microdata", id), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "microdata.csv")
}

func TestCompareEndpoint(t *testing.T) {
	server := newTestServer(t)
	id := uploadDataset(t, server, map[string]string{"microdata": microdataCSV})

	rec := postJSON(t, server, fmt.Sprintf("/api/v1/datasets/%s/compare", id), map[string]interface{}{
		"quasi_identifiers": []string{"age", "zip"},
		"config": map[string]interface{}{
			"age_column":       "age",
			"age_bucket_width": 10,
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report models.ComparisonReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.InDelta(t, 60.0, report.Before.Score, 1e-9)
	assert.InDelta(t, 20.0, report.After.Score, 1e-9)
	assert.InDelta(t, -40.0, report.Delta, 1e-9)
}

func TestLinkageEndpoint(t *testing.T) {
	server := newTestServer(t)
	id := uploadDataset(t, server, map[string]string{
		"microdata":        microdataCSV,
		"true_identifiers": trueIDsCSV,
	})

	rec := postJSON(t, server, fmt.Sprintf("/api/v1/datasets/%s/linkage", id), map[string]interface{}{
		"quasi_identifiers": []string{"age", "zip"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result models.LinkageResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 5, result.TotalRecords)
	assert.Equal(t, 3, result.MatchedRecords)
	assert.InDelta(t, 60.0, result.Risk, 1e-9)
}

func TestLinkageWithoutTrueIDs(t *testing.T) {
	server := newTestServer(t)
	id := uploadDataset(t, server, map[string]string{"microdata": microdataCSV})

	rec := postJSON(t, server, fmt.Sprintf("/api/v1/datasets/%s/linkage", id), map[string]interface{}{
		"quasi_identifiers": []string{"age", "zip"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUnknownDataset(t *testing.T) {
	server := newTestServer(t)

	rec := postJSON(t, server, "/api/v1/datasets/no-such-id/risk", map[string]interface{}{
		"quasi_identifiers": []string{"age"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotFoundRoute(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.Validate())

	config.Port = 0
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.MaxUploadSize = 0
	assert.Error(t, config.Validate())
}
