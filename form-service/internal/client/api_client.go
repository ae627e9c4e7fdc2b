package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/vinittippanawar/click-clean-waste-reporting/form-service/internal/model"
)

// Operation names, used as the APIError prefix shown to the user.
const (
	OpUploadURL    = "Failed to get upload URL"
	OpUpload       = "Upload to S3 failed"
	OpCreateReport = "Failed to create report"
)

// APIError is returned when the backend or storage answers with a non-2xx
// status.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, e.Body)
}

// APIClient talks to the report backend and to the storage URLs it hands out.
// It never retries and sets no timeout of its own.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// GetUploadCredential asks the backend for a presigned upload URL.
func (c *APIClient) GetUploadCredential(ctx context.Context, file *model.MediaFile) (*model.UploadCredential, error) {
	payload := model.UploadCredentialRequest{
		FileName:    file.Name,
		ContentType: file.Type(),
	}

	var cred model.UploadCredential
	if err := c.postJSON(ctx, OpUploadURL, "/upload-url", payload, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

// UploadFile sends the raw file bytes straight to the storage URL.
func (c *APIClient) UploadFile(ctx context.Context, cred *model.UploadCredential, file *model.MediaFile) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, cred.UploadURL, file.Content)
	if err != nil {
		return errors.Wrap(err, "build upload request")
	}
	req.Header.Set("Content-Type", file.Type())
	if file.Size > 0 {
		req.ContentLength = file.Size
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, OpUpload)
	}
	defer resp.Body.Close()

	if err := checkResponse(OpUpload, resp); err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// CreateReport submits the report metadata and returns the backend's answer.
func (c *APIClient) CreateReport(ctx context.Context, payload *model.ReportPayload) (*model.CreateReportResponse, error) {
	var out model.CreateReportResponse
	if err := c.postJSON(ctx, OpCreateReport, "/reports", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) postJSON(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "build request %s", path)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, op)
	}
	defer resp.Body.Close()

	if err := checkResponse(op, resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "%s: decode response", op)
	}
	return nil
}

func checkResponse(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	text, _ := io.ReadAll(resp.Body)
	return &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(text)}
}

// AsAPIError unwraps err to an *APIError if it is one.
func AsAPIError(err error) (*APIError, bool) {
	apiErr, ok := errors.Cause(err).(*APIError)
	return apiErr, ok
}
