// Package blob stores uploaded case files in named buckets on the local
// filesystem and hands out signed, time-limited links to them.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go-case-records/internal/config"
	"go-case-records/internal/model"
	"go-case-records/internal/util"
)

type bucket struct {
	cfg      config.BucketConfig
	resolver *resolver

	mu   sync.Mutex
	used int64
}

type Store struct {
	buckets map[string]*bucket
	signer  *Signer
}

// New opens every configured bucket under root, creating directories as
// needed, and measures current usage for quota accounting.
func New(root string, buckets []config.BucketConfig, signer *Signer) (*Store, error) {
	if signer == nil {
		return nil, fmt.Errorf("blob signer is required")
	}

	s := &Store{buckets: make(map[string]*bucket, len(buckets)), signer: signer}
	for _, cfg := range buckets {
		dir := filepath.Join(root, cfg.Name)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.Name, err)
		}

		res, err := newResolver(dir)
		if err != nil {
			return nil, err
		}

		used, err := usage(res.rootAbs)
		if err != nil {
			return nil, fmt.Errorf("measure bucket %q: %w", cfg.Name, err)
		}

		s.buckets[cfg.Name] = &bucket{cfg: cfg, resolver: res, used: used}
		slog.Info("blob bucket ready", "bucket", cfg.Name, "used_bytes", used, "quota_bytes", cfg.QuotaBytes)
	}

	return s, nil
}

func usage(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

func (s *Store) bucket(name string) (*bucket, error) {
	b, ok := s.buckets[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown bucket %q", model.ErrInvalidPath, name)
	}
	return b, nil
}

// Upload writes body to bucket/object. It fails with ErrQuotaExceeded when
// the object is larger than the bucket allows or would push the bucket past
// its quota, and never overwrites an existing object.
func (s *Store) Upload(ctx context.Context, bucketName string, object string, body io.Reader) (int64, error) {
	b, err := s.bucket(bucketName)
	if err != nil {
		return 0, err
	}

	target, err := b.resolver.resolve(object)
	if err != nil {
		return 0, err
	}

	mimeType, body, err := util.SniffMIME(body)
	if err != nil {
		return 0, fmt.Errorf("read upload: %w", err)
	}
	if !util.MIMEAllowed(mimeType, b.cfg.AllowedMimeTypes) {
		return 0, fmt.Errorf("%w: content type %q is not accepted by bucket %q", model.ErrValidationFailed, mimeType, bucketName)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return 0, fmt.Errorf("create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp object: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmp.Name())
		}
	}()

	src := io.Reader(&contextReader{ctx: ctx, r: body})
	if b.cfg.MaxObjectSize > 0 {
		src = io.LimitReader(src, b.cfg.MaxObjectSize+1)
	}

	written, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("write object: %w", err)
	}
	if b.cfg.MaxObjectSize > 0 && written > b.cfg.MaxObjectSize {
		return 0, fmt.Errorf("%w: object exceeds %d bytes", model.ErrQuotaExceeded, b.cfg.MaxObjectSize)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := os.Stat(target); err == nil {
		return 0, fmt.Errorf("%w: object %q already exists", model.ErrInvalidPath, object)
	}
	if b.cfg.QuotaBytes > 0 && b.used+written > b.cfg.QuotaBytes {
		return 0, fmt.Errorf("%w: bucket %q is full", model.ErrQuotaExceeded, bucketName)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return 0, fmt.Errorf("commit object: %w", err)
	}
	committed = true
	b.used += written

	return written, nil
}

// Open returns the object for reading. The caller closes it.
func (s *Store) Open(bucketName string, object string) (*os.File, fs.FileInfo, error) {
	b, err := s.bucket(bucketName)
	if err != nil {
		return nil, nil, err
	}

	target, err := b.resolver.resolve(object)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: object %s/%s", model.ErrNotFound, bucketName, object)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open object: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("stat object: %w", err)
	}
	return file, info, nil
}

func (s *Store) Remove(_ context.Context, bucketName string, object string) error {
	b, err := s.bucket(bucketName)
	if err != nil {
		return err
	}

	target, err := b.resolver.resolve(object)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	info, err := os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: object %s/%s", model.ErrNotFound, bucketName, object)
	}
	if err != nil {
		return fmt.Errorf("stat object: %w", err)
	}

	if err := os.Remove(target); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	b.used -= info.Size()
	return nil
}

// SignedURL returns a link to an existing object valid for ttl.
func (s *Store) SignedURL(_ context.Context, bucketName string, object string, ttl time.Duration) (string, error) {
	b, err := s.bucket(bucketName)
	if err != nil {
		return "", err
	}

	target, err := b.resolver.resolve(object)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: object %s/%s", model.ErrNotFound, bucketName, object)
		}
		return "", fmt.Errorf("stat object: %w", err)
	}

	return s.signer.Sign(bucketName, object, ttl)
}

func (s *Store) VerifySigned(token string, bucketName string, object string) error {
	return s.signer.Verify(token, bucketName, object)
}

// Usage reports bytes stored and the quota (0 for none) of every bucket.
func (s *Store) Usage() map[string][2]int64 {
	out := make(map[string][2]int64, len(s.buckets))
	for name, b := range s.buckets {
		b.mu.Lock()
		out[name] = [2]int64{b.used, b.cfg.QuotaBytes}
		b.mu.Unlock()
	}
	return out
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
