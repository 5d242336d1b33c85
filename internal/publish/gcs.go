package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"docstack/internal/config"
)

// GCSSink 以 DoesNotExist 前置条件写入 GCS，重复上传不会覆盖
type GCSSink struct {
	bucket *storage.BucketHandle
}

// NewGCSSink 包装已有的 bucket 句柄
func NewGCSSink(bucket *storage.BucketHandle) *GCSSink {
	return &GCSSink{bucket: bucket}
}

// Put 写入对象；412 映射为 ErrObjectExists
func (s *GCSSink) Put(ctx context.Context, object string, r io.Reader) error {
	writer := s.bucket.Object(object).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)

	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return mapPreconditionErr(object, err)
	}
	if err := writer.Close(); err != nil {
		return mapPreconditionErr(object, err)
	}
	return nil
}

func mapPreconditionErr(object string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
		return fmt.Errorf("%s: %w", object, ErrObjectExists)
	}
	return fmt.Errorf("failed to write to GCS: %w", err)
}

// NewGCS 按配置创建 GCS Publisher；返回的 close 用于释放客户端
//
// Endpoint 非空时（本地模拟器）不做认证。
func NewGCS(ctx context.Context, cfg config.PublishConfig, logger *slog.Logger) (*Publisher, func() error, error) {
	if cfg.Bucket == "" {
		return nil, nil, fmt.Errorf("publish bucket is not configured")
	}

	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	p := New(NewGCSSink(client.Bucket(cfg.Bucket)), cfg.Bucket, cfg.Prefix, logger)
	return p, client.Close, nil
}
