package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinittippanawar/click-clean-waste-reporting/form-service/internal/client"
	"github.com/vinittippanawar/click-clean-waste-reporting/form-service/internal/controller"
	"github.com/vinittippanawar/click-clean-waste-reporting/form-service/internal/quote"
	"github.com/vinittippanawar/click-clean-waste-reporting/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type backend struct {
	srv           *httptest.Server
	uploadURLCode int
	uploadCode    int
	calls         atomic.Int32
	lastPayload   map[string]any
	block         chan struct{}
}

func newBackend(t *testing.T) *backend {
	b := &backend{uploadURLCode: http.StatusOK, uploadCode: http.StatusOK}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/upload-url":
			if b.uploadURLCode != http.StatusOK {
				w.WriteHeader(b.uploadURLCode)
				w.Write([]byte("no credential"))
				return
			}
			w.Write([]byte(`{"uploadUrl":"` + b.srv.URL + `/storage/reports/k/bin.jpg","fileKey":"reports/k/bin.jpg"}`))
		case r.Method == http.MethodPut:
			if b.block != nil {
				<-b.block
			}
			io.Copy(io.Discard, r.Body)
			w.WriteHeader(b.uploadCode)
		case r.Method == http.MethodPost && r.URL.Path == "/reports":
			json.NewDecoder(r.Body).Decode(&b.lastPayload)
			w.Write([]byte(`{"reportId":"r-7","message":"Report submitted successfully"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func newTestRouter(b *backend) *gin.Engine {
	ctrl := controller.NewFormController(client.NewAPIClient(b.srv.URL, nil), logging.Discard())
	h := NewFormHandler(ctrl, quote.NewRotator(quote.WasteQuotes, time.Hour), logging.Discard())
	return NewRouter(h)
}

func multipartBody(t *testing.T, fields map[string]string, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withFile {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="photo"; filename="bin.jpg"`)
		h.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		part.Write([]byte("jpeg-bytes"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"formId":      "f-1",
		"city":        "Pune",
		"area":        "Kothrud",
		"description": "Garbage pile near the market",
		"wasteType":   "household",
		"urgency":     "high",
		"lng":         "73.8",
	}
}

func TestSubmit_JSONSuccess(t *testing.T) {
	b := newBackend(t)
	r := newTestRouter(b)

	body, ct := multipartBody(t, validFields(), true)
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var out submitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "r-7", out.ReportID)
	assert.Equal(t, "success", string(out.Kind))
	assert.Equal(t, "Report submitted successfully! Your report ID is r-7.", out.Status)
	assert.Len(t, out.Progress, 5)

	assert.Equal(t, int32(3), b.calls.Load())
	assert.Equal(t, "reports/k/bin.jpg", b.lastPayload["photoKey"])
	assert.Equal(t, 73.8, b.lastPayload["lng"])
	assert.Equal(t, "web", b.lastPayload["source"])
	assert.Equal(t, "Pune", b.lastPayload["city"])
	assert.Equal(t, "Kothrud", b.lastPayload["area"])
	assert.Equal(t, "household", b.lastPayload["wasteType"])
	assert.Equal(t, "high", b.lastPayload["urgency"])
}

func TestSubmit_URLEncodedFormIsMapped(t *testing.T) {
	b := newBackend(t)
	r := newTestRouter(b)

	form := url.Values{}
	for k, v := range validFields() {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// No multipart body means no photo, so validation stops before any call.
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please select a photo or video to upload.")
	assert.Equal(t, int32(0), b.calls.Load())
}

func TestSubmit_MissingFileMakesNoCalls(t *testing.T) {
	b := newBackend(t)
	r := newTestRouter(b)

	body, ct := multipartBody(t, validFields(), false)
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please select a photo or video to upload.")
	assert.Equal(t, int32(0), b.calls.Load())
}

func TestSubmit_MissingFieldMakesNoCalls(t *testing.T) {
	b := newBackend(t)
	r := newTestRouter(b)

	fields := validFields()
	fields["area"] = "  "
	body, ct := multipartBody(t, fields, true)
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please fill in all required fields.")
	assert.Equal(t, int32(0), b.calls.Load())
}

func TestSubmit_UploadURLFailure(t *testing.T) {
	b := newBackend(t)
	b.uploadURLCode = http.StatusInternalServerError
	r := newTestRouter(b)

	body, ct := multipartBody(t, validFields(), true)
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to get upload URL: 500 no credential")
	assert.Equal(t, int32(1), b.calls.Load())
}

func TestSubmit_HTMLKeepsValuesOnFailure(t *testing.T) {
	b := newBackend(t)
	b.uploadCode = http.StatusForbidden
	r := newTestRouter(b)

	body, ct := multipartBody(t, validFields(), true)
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	page := w.Body.String()
	assert.Contains(t, page, "status-error")
	assert.Contains(t, page, "Upload to S3 failed: 403")
	assert.Contains(t, page, `value="Kothrud"`)
	assert.Contains(t, page, `value="f-1"`)
	assert.Equal(t, int32(2), b.calls.Load())
}

func TestSubmit_HTMLResetsOnSuccess(t *testing.T) {
	b := newBackend(t)
	r := newTestRouter(b)

	body, ct := multipartBody(t, validFields(), true)
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	page := w.Body.String()
	assert.Contains(t, page, "status-success")
	assert.Contains(t, page, "Your report ID is r-7.")
	assert.NotContains(t, page, `value="Kothrud"`)
}

func TestSubmit_EventStream(t *testing.T) {
	b := newBackend(t)
	r := newTestRouter(b)

	body, ct := multipartBody(t, validFields(), true)
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Accept", "text/event-stream")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	stream := w.Body.String()
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"))

	loadingOn := strings.Index(stream, `"loading":true`)
	requesting := strings.Index(stream, "Requesting upload URL...")
	saving := strings.Index(stream, "Saving report...")
	loadingOff := strings.Index(stream, `"loading":false`)
	result := strings.Index(stream, "event:result")

	require.True(t, loadingOn >= 0 && requesting >= 0 && saving >= 0 && loadingOff >= 0 && result >= 0, stream)
	assert.Less(t, loadingOn, requesting)
	assert.Less(t, requesting, saving)
	assert.Less(t, saving, loadingOff)
	assert.Less(t, loadingOff, result)
	assert.Contains(t, stream[result:], `"reportId":"r-7"`)
	assert.Contains(t, stream[result:], `"status":"Report submitted successfully! Your report ID is r-7."`)
	assert.Contains(t, stream[result:], `"kind":"success"`)
}

func TestSubmit_EventStreamError(t *testing.T) {
	b := newBackend(t)
	r := newTestRouter(b)

	body, ct := multipartBody(t, validFields(), false)
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Accept", "text/event-stream")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	stream := w.Body.String()
	result := strings.Index(stream, "event:result")
	require.True(t, result >= 0, stream)
	assert.Contains(t, stream[result:], `"status":"Please select a photo or video to upload."`)
	assert.Contains(t, stream[result:], `"kind":"error"`)
}

func TestShowForm(t *testing.T) {
	r := newTestRouter(newBackend(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	page := w.Body.String()
	assert.Contains(t, page, `id="reportForm"`)
	assert.Contains(t, page, `name="formId"`)
	assert.Contains(t, page, "Submit Report")
	assert.Contains(t, page, time.Now().Format("2006"))
}

func TestQuoteAndHealth(t *testing.T) {
	r := newTestRouter(newBackend(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quote", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var q map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.Contains(t, quote.WasteQuotes, q["quote"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestFormBusy(t *testing.T) {
	r := newTestRouter(newBackend(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/forms/form-9/busy", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"formId":"form-9","busy":false}`, w.Body.String())
}

func TestShowForm_BusyFormIsDisabled(t *testing.T) {
	b := newBackend(t)
	b.block = make(chan struct{})
	r := newTestRouter(b)

	fields := validFields()
	fields["formId"] = "f-busy"
	body, ct := multipartBody(t, fields, true)
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", ct)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}()

	busy := func() bool {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/forms/f-busy/busy", nil))
		return strings.Contains(w.Body.String(), `"busy":true`)
	}
	require.Eventually(t, busy, time.Second, 5*time.Millisecond)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?formId=f-busy", nil))
	page := w.Body.String()
	assert.Contains(t, page, `value="f-busy"`)
	assert.Contains(t, page, `id="submitBtn" type="submit" disabled`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?formId=f-other", nil))
	assert.NotContains(t, w.Body.String(), `type="submit" disabled`)

	close(b.block)
	<-done
	assert.False(t, busy())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?formId=f-busy", nil))
	assert.NotContains(t, w.Body.String(), `type="submit" disabled`)
}
