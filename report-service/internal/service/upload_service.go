package service

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/failure"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/model"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/storage"
)

const (
	uploadURLTTL = time.Hour
	keyPrefix    = "reports"
)

type UploadService struct {
	presigner storage.Presigner
}

func NewUploadService(presigner storage.Presigner) *UploadService {
	return &UploadService{presigner: presigner}
}

// IssueUploadCredential returns a one hour presigned PUT for a fresh key
// under reports/.
func (s *UploadService) IssueUploadCredential(ctx context.Context, req *model.UploadURLRequest) (*model.UploadURLResponse, error) {
	if req.FileName == "" || req.ContentType == "" {
		return nil, failure.ErrMissingUploadFields
	}

	key := path.Join(keyPrefix, uuid.NewString(), cleanFileName(req.FileName))

	url, err := s.presigner.PresignPut(ctx, key, req.ContentType, uploadURLTTL)
	if err != nil {
		return nil, failure.Wrap(err, "presign upload")
	}

	return &model.UploadURLResponse{UploadURL: url, FileKey: key}, nil
}

// cleanFileName keeps only the last path element of a client file name.
func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return "upload"
	}
	return name
}
