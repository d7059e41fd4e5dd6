package store

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"

	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
)

// BlobStore reads a dataset from a gocloud bucket.
type BlobStore struct {
	bucket *blob.Bucket
	url    string
	logger *log.Logger
}

// NewBlobStore wraps an open bucket. The bucket is rooted at the dataset;
// rawURL is what URL reports.
func NewBlobStore(bucket *blob.Bucket, rawURL string, logger *log.Logger) *BlobStore {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &BlobStore{bucket: bucket, url: strings.TrimRight(rawURL, "/"), logger: logger}
}

// OpenBlobStore opens the bucket behind rawURL.
//
// Accepted forms:
//
//	/abs/path or rel/path    local directory
//	file:///abs/path         local directory
//	mem://                   empty in-memory bucket
//	gs://bucket/prefix       Google Cloud Storage
//	s3://bucket/prefix?region=us-east-2
//
// For gs:// and s3:// the path after the bucket name becomes a key prefix.
func OpenBlobStore(ctx context.Context, rawURL string, logger *log.Logger) (*BlobStore, error) {
	if !strings.Contains(rawURL, "://") {
		abs, err := filepath.Abs(rawURL)
		if err != nil {
			return nil, zerrors.Wrap(zerrors.ErrCodeInvalidPath, err, "resolve %s", rawURL)
		}
		bucket, err := blob.OpenBucket(ctx, "file://"+filepath.ToSlash(abs))
		if err != nil {
			return nil, openError(rawURL, err)
		}
		return NewBlobStore(bucket, rawURL, logger), nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, zerrors.Wrap(zerrors.ErrCodeInvalidInput, err, "invalid dataset URL %q", rawURL)
	}

	switch u.Scheme {
	case "gs", "s3":
		prefix := strings.Trim(u.Path, "/")
		u.Path = ""
		bucket, err := blob.OpenBucket(ctx, u.String())
		if err != nil {
			return nil, openError(rawURL, err)
		}
		if prefix != "" {
			bucket = blob.PrefixedBucket(bucket, prefix+"/")
		}
		return NewBlobStore(bucket, rawURL, logger), nil
	default:
		bucket, err := blob.OpenBucket(ctx, rawURL)
		if err != nil {
			return nil, openError(rawURL, err)
		}
		return NewBlobStore(bucket, rawURL, logger), nil
	}
}

func openError(rawURL string, err error) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return zerrors.Wrap(zerrors.ErrCodeNotFound, err, "open %s", rawURL)
	}
	return zerrors.Wrap(zerrors.ErrCodeNetwork, err, "open %s", rawURL)
}

// URL returns the dataset root as given to the constructor.
func (s *BlobStore) URL() string { return s.url }

// Get reads key.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, s.mapError(key, err)
	}
	s.logger.Debug("read", "url", s.url, "key", key, "bytes", len(data))
	return data, nil
}

// Size returns the object size from its attributes.
func (s *BlobStore) Size(ctx context.Context, key string) (int64, error) {
	if err := checkKey(key); err != nil {
		return 0, err
	}
	attrs, err := s.bucket.Attributes(ctx, key)
	if err != nil {
		return 0, s.mapError(key, err)
	}
	return attrs.Size, nil
}

// List returns the sorted names of the folders directly below prefix.
func (s *BlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		if err := checkKey(prefix); err != nil {
			return nil, err
		}
		prefix += "/"
	}

	var names []string
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, s.mapError(prefix, err)
		}
		if !obj.IsDir {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(obj.Key, prefix), "/")
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close releases the bucket.
func (s *BlobStore) Close() error {
	return s.bucket.Close()
}

func (s *BlobStore) mapError(key string, err error) error {
	switch gcerrors.Code(err) {
	case gcerrors.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	case gcerrors.Canceled, gcerrors.DeadlineExceeded:
		return err
	default:
		return fmt.Errorf("%w: %s: %v", ErrNetwork, key, err)
	}
}
