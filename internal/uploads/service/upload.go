// Package service stores listing photos in GridFS. Files are sniffed
// server-side: only image content is accepted regardless of the declared
// content type.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/guard"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bucketName = "uploads"

type StoredFile struct {
	Data        []byte
	ContentType string
	Name        string
}

type UploadService interface {
	Store(ctx context.Context, principal guard.Principal, filename string, data []byte) (string, error)
	Fetch(ctx context.Context, id string) (*StoredFile, error)
}

type gridfsUploadService struct {
	bucket *gridfs.Bucket
	cfg    *config.Config
}

func NewUploadService(cfg *config.Config) (UploadService, error) {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload bucket: %w", err)
	}

	return &gridfsUploadService{
		bucket: bucket,
		cfg:    cfg,
	}, nil
}

// Store saves an image and returns the public URL it will be served from.
func (s *gridfsUploadService) Store(ctx context.Context, principal guard.Principal, filename string, data []byte) (string, error) {
	if principal.IsAnonymous() {
		return "", apperrors.Unauthorized("Unauthorized")
	}
	if len(data) == 0 {
		return "", apperrors.InvalidInput("No file provided")
	}
	if int64(len(data)) > s.cfg.MaxUploadSize {
		return "", apperrors.TooLarge("File exceeds the maximum upload size")
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperrors.InvalidInput("Only image uploads are allowed")
	}

	name := fmt.Sprintf("%s-%s-%s", principal.UserID, uuid.NewString(), sanitizeFilename(filename))

	opts := options.GridFSUpload().SetMetadata(bson.M{
		"content_type": contentType,
		"owner_id":     principal.UserID,
	})
	fileID, err := s.bucket.UploadFromStream(name, bytes.NewReader(data), opts)
	if err != nil {
		s.cfg.Log.Error("Failed to store upload", "name", name, "error", err)
		return "", apperrors.Internal("Failed to store file", err)
	}

	s.cfg.Log.Info("File uploaded",
		"id", fileID.Hex(),
		"owner_id", principal.UserID,
		"content_type", contentType,
		"size", len(data),
	)
	return "/api/v1/files/" + fileID.Hex(), nil
}

func (s *gridfsUploadService) Fetch(ctx context.Context, id string) (*StoredFile, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.NotFound("File")
	}

	var buf bytes.Buffer
	if _, err := s.bucket.DownloadToStream(objectID, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, apperrors.NotFound("File")
		}
		s.cfg.Log.Error("Failed to read upload", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to read file", err)
	}

	data := buf.Bytes()
	return &StoredFile{
		Data:        data,
		ContentType: http.DetectContentType(data),
		Name:        id,
	}, nil
}

// sanitizeFilename strips any path component and whitespace from the
// client-supplied name.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "upload"
	}
	return strings.ReplaceAll(name, " ", "_")
}
