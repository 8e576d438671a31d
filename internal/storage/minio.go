package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"resume-agent/internal/config"
)

type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinIOArchive guarda los archivos subidos tal cual, bajo <session_id>/<filename>.
type MinIOArchive struct {
	client objectPutter
	bucket string
}

// NewMinIOArchive conecta con MinIO/S3 y crea el bucket si no existe.
func NewMinIOArchive(ctx context.Context, cfg *config.Config) (*MinIOArchive, error) {
	client, err := minio.New(cfg.ArchiveEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.ArchiveAccessKey, cfg.ArchiveSecretKey, ""),
		Secure: cfg.ArchiveUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.ArchiveBucket)
	if err != nil {
		return nil, fmt.Errorf("bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.ArchiveBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket: %w", err)
		}
	}
	return &MinIOArchive{client: client, bucket: cfg.ArchiveBucket}, nil
}

// Archive sube el contenido y devuelve la key del objeto.
func (a *MinIOArchive) Archive(ctx context.Context, sessionID, filename string, content []byte) (string, error) {
	key := ObjectKey(sessionID, filename)
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return key, nil
}

// ObjectKey arma la key descartando cualquier directorio que venga en el nombre del archivo.
func ObjectKey(sessionID, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == ".." || base == "" {
		base = "upload"
	}
	return sessionID + "/" + base
}
