// Package archive keeps copies of decision documents found by the crawler.
package archive

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Storage is where archived documents live.
type Storage interface {
	// Upload stores data and returns the object key
	Upload(ctx context.Context, fileID uuid.UUID, filename, contentType string, data io.Reader) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Kind() string
}

type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

type StorageConfig struct {
	Type         StorageType
	LocalPath    string
	S3Bucket     string
	S3Region     string
	S3Endpoint   string // optional, for S3-compatible stores
	AWSAccessKey string
	AWSSecretKey string
}

func NewStorage(ctx context.Context, cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// objectKey spreads files over two-char prefixes of the id.
func objectKey(fileID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	id := fileID.String()
	return fmt.Sprintf("decisions/%s/%s%s", id[:2], id, ext)
}

// ContentTypeFor guesses a document type from its extension.
func ContentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".rtf":
		return "application/rtf"
	case ".txt":
		return "text/plain"
	}
	if t := mime.TypeByExtension(path.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}
