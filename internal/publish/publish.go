package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ErrObjectExists 目标对象已存在（幂等重跑时视为成功）
var ErrObjectExists = errors.New("object already exists")

// ObjectSink 写入单个对象；对象已存在时返回 ErrObjectExists
type ObjectSink interface {
	Put(ctx context.Context, object string, r io.Reader) error
}

// Published 单个文件的上传结果
type Published struct {
	Path    string `json:"path"`
	URI     string `json:"uri"`
	Skipped bool   `json:"skipped"` // 远端已存在
}

// Publisher 把任务产出上传到对象存储
type Publisher struct {
	sink    ObjectSink
	bucket  string
	prefix  string
	workers int
	logger  *slog.Logger
}

// New 创建 Publisher；bucket 只用于生成 gs:// 地址
func New(sink ObjectSink, bucket, prefix string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		sink:    sink,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		workers: 4,
		logger:  logger,
	}
}

// ObjectName "<prefix>/<run id>/<file>"
func ObjectName(prefix, runID, filePath string) string {
	return path.Join(strings.Trim(prefix, "/"), runID, filepath.Base(filePath))
}

// URI gs://bucket/object
func (p *Publisher) URI(object string) string {
	return fmt.Sprintf("gs://%s/%s", p.bucket, object)
}

// Publish 并行上传；任一文件失败时返回错误，已存在的对象记为 Skipped
func (p *Publisher) Publish(ctx context.Context, runID string, paths []string) ([]Published, error) {
	results := make([]Published, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, fp := range paths {
		g.Go(func() error {
			object := ObjectName(p.prefix, runID, fp)
			logCtx := p.logger.With("run_id", runID, "object", object)

			skipped, err := p.putFile(gctx, object, fp)
			if err != nil {
				logCtx.Error("upload failed", "error", err)
				return fmt.Errorf("upload %s: %w", filepath.Base(fp), err)
			}
			if skipped {
				logCtx.Info("object already exists, skipping")
			} else {
				logCtx.Info("object uploaded")
			}
			results[i] = Published{Path: fp, URI: p.URI(object), Skipped: skipped}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Publisher) putFile(ctx context.Context, object, fp string) (bool, error) {
	f, err := os.Open(fp)
	if err != nil {
		return false, err
	}
	defer f.Close()

	err = p.sink.Put(ctx, object, f)
	if errors.Is(err, ErrObjectExists) {
		return true, nil
	}
	return false, err
}
