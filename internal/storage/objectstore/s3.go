// s3.go — backend поверх S3-совместимого хранилища (AWS S3, MinIO).
package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bigkaa/teamchat/file-module/internal/config"
)

// S3Backend — Backend поверх AWS SDK v2.
type S3Backend struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	endpoint  string
	region    string
	logger    *slog.Logger
}

// NewS3Backend создаёт S3 backend по конфигурации.
// При заданном FM_S3_ENDPOINT используется кастомный endpoint с
// path-style адресацией (MinIO и другие S3-совместимые хранилища).
// Без явных ключей доступа SDK использует стандартную цепочку
// провайдеров (env, IAM role и т.д.).
func NewS3Backend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*S3Backend, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("загрузка AWS конфигурации: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = &cfg.S3Endpoint
			o.UsePathStyle = true
		}
	})

	logger.Info("S3 backend инициализирован",
		slog.String("bucket", cfg.S3Bucket),
		slog.String("region", cfg.S3Region),
		slog.String("endpoint", cfg.S3Endpoint))

	return &S3Backend{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.S3Bucket,
		endpoint:  cfg.S3Endpoint,
		region:    cfg.S3Region,
		logger:    logger,
	}, nil
}

// Put записывает объект в bucket.
func (b *S3Backend) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &b.bucket,
		Key:           &key,
		Body:          body,
		ContentLength: &size,
		ContentType:   &contentType,
	})
	if err != nil {
		return fmt.Errorf("запись объекта %s: %w", key, err)
	}
	return nil
}

// Delete удаляет объект. S3 DeleteObject идемпотентен: удаление
// несуществующего ключа не возвращает ошибку.
func (b *S3Backend) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &b.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("удаление объекта %s: %w", key, err)
	}
	return nil
}

// PresignPut возвращает подписанный URL для прямой PUT-загрузки.
func (b *S3Backend) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	req, err := b.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      &b.bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign PUT %s: %w", key, err)
	}
	return req.URL, nil
}

// PresignGet возвращает подписанный URL скачивания.
func (b *S3Backend) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := b.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &b.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign GET %s: %w", key, err)
	}
	return req.URL, nil
}

// ObjectURL возвращает канонический URL объекта.
// Для кастомного endpoint — path-style, иначе virtual-hosted style AWS.
func (b *S3Backend) ObjectURL(key string) string {
	if b.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", b.endpoint, b.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", b.bucket, key)
}

// Kind возвращает тип backend.
func (b *S3Backend) Kind() string {
	return config.BackendS3
}
