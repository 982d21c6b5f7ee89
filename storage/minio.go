package storage

import (
	"context"
	"fmt"
	"time"

	"soundvault/config"
	"soundvault/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	minioClient *minio.Client
	bucketName  string
)

// InitMinio initializes the MinIO client and ensures the configured
// bucket exists.
func InitMinio(cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created object storage bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	bucketName = cfg.MinioBucket
	return nil
}

// GetMinioClient returns the shared client, or nil before InitMinio.
func GetMinioClient() *minio.Client {
	return minioClient
}

// ArchiveConvertedAudio uploads a converted audio file under the given
// object name.
func ArchiveConvertedAudio(ctx context.Context, objectName, filePath, contentType string) error {
	if minioClient == nil {
		return fmt.Errorf("object storage not initialized")
	}
	_, err := minioClient.FPutObject(ctx, bucketName, objectName, filePath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", objectName, err)
	}
	return nil
}

// HasConvertedAudio reports whether an archived object exists.
func HasConvertedAudio(ctx context.Context, objectName string) bool {
	if minioClient == nil {
		return false
	}
	_, err := minioClient.StatObject(ctx, bucketName, objectName, minio.StatObjectOptions{})
	return err == nil
}

// GetConvertedAudio opens an archived object for streaming. The caller
// must close the returned object.
func GetConvertedAudio(ctx context.Context, objectName string) (*minio.Object, error) {
	if minioClient == nil {
		return nil, fmt.Errorf("object storage not initialized")
	}
	object, err := minioClient.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open archived object %s: %w", objectName, err)
	}
	return object, nil
}
