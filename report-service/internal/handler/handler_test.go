package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinittippanawar/click-clean-waste-reporting/internal/logging"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/failure"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/model"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/repository"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubReports struct {
	created *model.CreateReportRequest
	err     error
	getErr  error
}

func (s *stubReports) CreateReport(ctx context.Context, req *model.CreateReportRequest) (*model.Report, error) {
	s.created = req
	if s.err != nil {
		return nil, s.err
	}
	return &model.Report{ReportID: "r-1", City: req.City}, nil
}

func (s *stubReports) GetReport(ctx context.Context, id string) (*model.Report, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if id != "r-1" {
		return nil, repository.ErrReportNotFound
	}
	return &model.Report{ReportID: "r-1", Status: model.StatusPending}, nil
}

type stubUploads struct{ err error }

func (s stubUploads) IssueUploadCredential(ctx context.Context, req *model.UploadURLRequest) (*model.UploadURLResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.UploadURLResponse{UploadURL: "https://s3/put", FileKey: "reports/k/" + req.FileName}, nil
}

func newTestRouter(reports ReportService, uploads UploadService, store ObjectStore) *gin.Engine {
	var uh *UploadHandler
	if store != nil {
		uh = NewUploadHandler(store, logging.Discard())
	}
	return NewRouter(NewReportHandler(reports, uploads, logging.Discard()), uh, nil)
}

func do(r http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestUploadURL(t *testing.T) {
	r := newTestRouter(&stubReports{}, stubUploads{}, nil)

	w := do(r, http.MethodPost, "/upload-url", strings.NewReader(`{"fileName":"a.jpg","contentType":"image/jpeg"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "https://s3/put", body["uploadUrl"])
	assert.Equal(t, "reports/k/a.jpg", body["fileKey"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUploadURL_Errors(t *testing.T) {
	r := newTestRouter(&stubReports{}, stubUploads{err: failure.ErrMissingUploadFields}, nil)
	w := do(r, http.MethodPost, "/upload-url", strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing fileName or contentType", decode(t, w)["error"])

	w = do(r, http.MethodPost, "/upload-url", strings.NewReader(`{not json`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r = newTestRouter(&stubReports{}, stubUploads{err: errors.New("credentials expired")}, nil)
	w = do(r, http.MethodPost, "/upload-url", strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", decode(t, w)["error"])
}

func TestCreateReport(t *testing.T) {
	reports := &stubReports{}
	r := newTestRouter(reports, stubUploads{}, nil)

	w := do(r, http.MethodPost, "/reports", strings.NewReader(`{"city":"Pune","lat":18.5,"source":"web"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "r-1", body["reportId"])
	assert.Equal(t, "Report submitted successfully", body["message"])
	require.NotNil(t, reports.created.Lat)
	assert.Equal(t, 18.5, *reports.created.Lat)
	assert.Nil(t, reports.created.Lng)
}

func TestCreateReport_MissingField(t *testing.T) {
	r := newTestRouter(&stubReports{err: failure.MissingField("area")}, stubUploads{}, nil)

	w := do(r, http.MethodPost, "/reports", strings.NewReader(`{"city":"Pune"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing field: area", decode(t, w)["error"])
}

func TestGetReport(t *testing.T) {
	r := newTestRouter(&stubReports{}, stubUploads{}, nil)

	w := do(r, http.MethodGet, "/reports/r-1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Pending", decode(t, w)["status"])

	w = do(r, http.MethodGet, "/reports/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetReport_StoreErrorIsGeneric(t *testing.T) {
	r := newTestRouter(&stubReports{getErr: errors.New(`pq: invalid input syntax for type uuid: "abc"`)}, stubUploads{}, nil)

	w := do(r, http.MethodGet, "/reports/abc", nil, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", decode(t, w)["error"])
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestGetReport_GeoJSON(t *testing.T) {
	r := newTestRouter(&stubReports{}, stubUploads{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/reports/r-1", nil)
	req.Header.Set("Accept", "application/geo+json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Feature", body["type"])
	assert.Equal(t, "r-1", body["id"])
	assert.Nil(t, body["geometry"])
}

func TestCORSPreflightAndHealth(t *testing.T) {
	r := newTestRouter(&stubReports{}, stubUploads{}, nil)

	w := do(r, http.MethodOptions, "/reports", nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Headers"))

	w = do(r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestRequestLoggerKeepsClientID(t *testing.T) {
	r := newTestRouter(&stubReports{}, stubUploads{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestLocalUploadRoundTrip(t *testing.T) {
	store := storage.NewLocalStore(t.TempDir(), []byte("secret"), "http://localhost:8081")
	r := newTestRouter(&stubReports{}, stubUploads{}, store)

	raw, err := store.PresignPut(context.Background(), "reports/abc/bin.jpg", "image/jpeg", time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	target := u.Path + "?" + u.RawQuery

	w := do(r, http.MethodPut, target, bytes.NewReader([]byte("jpeg-bytes")), "image/png")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPut, "/uploads/reports/abc/other.jpg?"+u.RawQuery, bytes.NewReader([]byte("x")), "image/jpeg")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPut, target, bytes.NewReader([]byte("jpeg-bytes")), "image/jpeg")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.Has("reports/abc/bin.jpg"))

	w = do(r, http.MethodGet, "/uploads/reports/abc/bin.jpg", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg-bytes", w.Body.String())

	w = do(r, http.MethodGet, "/uploads/reports/abc/none.jpg", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadsRejectKeysOutsideReports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("TOPSECRET"), 0o600))
	store := storage.NewLocalStore(filepath.Join(dir, "uploads"), []byte("secret"), "http://localhost:8081")
	r := newTestRouter(&stubReports{}, stubUploads{}, store)

	for _, target := range []string{
		"/uploads/..%2Fsecret.txt",
		"/uploads/../secret.txt",
		"/uploads/reports/..%2F..%2Fsecret.txt",
		"/uploads/secret.txt",
	} {
		t.Run(target, func(t *testing.T) {
			w := do(r, http.MethodGet, target, nil, "")
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.NotContains(t, w.Body.String(), "TOPSECRET")
		})
	}

	raw, err := store.PresignPut(context.Background(), "../evil.txt", "text/plain", time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	w := do(r, http.MethodPut, "/uploads/..%2Fevil.txt?"+u.RawQuery, strings.NewReader("x"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	_, err = os.Stat(filepath.Join(dir, "evil.txt"))
	assert.True(t, os.IsNotExist(err))
}

type stubOutbox struct{ err error }

func (s stubOutbox) Stats(ctx context.Context) (map[repository.OutboxStatus]int, error) {
	if s.err != nil {
		return nil, s.err
	}
	return map[repository.OutboxStatus]int{repository.OutboxPending: 2, repository.OutboxPublished: 10, repository.OutboxFailed: 0}, nil
}

func TestOutboxStats(t *testing.T) {
	h := NewReportHandler(&stubReports{}, stubUploads{}, logging.Discard())

	r := NewRouter(h, nil, NewAdminHandler(stubOutbox{}))
	w := do(r, http.MethodGet, "/admin/outbox/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"outbox":{"pending":2,"published":10,"failed":0}}`, w.Body.String())

	r = NewRouter(h, nil, NewAdminHandler(stubOutbox{err: errors.New("db down")}))
	w = do(r, http.MethodGet, "/admin/outbox/stats", nil, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")

	r = newTestRouter(&stubReports{}, stubUploads{}, nil)
	w = do(r, http.MethodGet, "/admin/outbox/stats", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
