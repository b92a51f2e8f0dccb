// Package storage reads and writes catalog files at a location: a local path
// or a blob URL (file://, gs://, s3://). Locations ending in .gz or .zst are
// transparently (de)compressed.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // GCS driver
	_ "gocloud.dev/blob/s3blob"   // S3 driver
	"gocloud.dev/gcerrors"
)

// ErrNotFound is returned when a location does not exist.
var ErrNotFound = errors.New("location not found")

// IsRemote reports whether location is a blob URL rather than a local path.
func IsRemote(location string) bool {
	return strings.Contains(location, "://")
}

// splitBlobURL separates a blob URL into the bucket URL understood by
// blob.OpenBucket and the object key.
func splitBlobURL(location string) (bucketURL, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("parse location %q: %w", location, err)
	}
	switch u.Scheme {
	case "file":
		dir, name := path.Split(u.Path)
		if name == "" {
			return "", "", fmt.Errorf("location %q has no object name", location)
		}
		q := u.Query()
		if !q.Has("metadata") {
			// Skip the .attrs sidecar files fileblob writes by default.
			q.Set("metadata", "skip")
		}
		bucket := url.URL{Scheme: "file", Path: strings.TrimSuffix(dir, "/"), RawQuery: q.Encode()}
		return bucket.String(), name, nil
	case "gs", "s3":
		key = strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return "", "", fmt.Errorf("location %q must name a bucket and an object", location)
		}
		bucket := url.URL{Scheme: u.Scheme, Host: u.Host, RawQuery: u.RawQuery}
		return bucket.String(), key, nil
	default:
		return "", "", fmt.Errorf("unsupported location scheme %q", u.Scheme)
	}
}

// Open returns a reader over the decompressed contents of location.
func Open(ctx context.Context, location string) (io.ReadCloser, error) {
	var raw io.ReadCloser
	if IsRemote(location) {
		bucketURL, key, err := splitBlobURL(location)
		if err != nil {
			return nil, err
		}
		bucket, err := blob.OpenBucket(ctx, bucketURL)
		if err != nil {
			return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
		}
		r, err := bucket.NewReader(ctx, key, nil)
		if err != nil {
			bucket.Close()
			if isNotExist(err) {
				return nil, fmt.Errorf("%s: %w", location, ErrNotFound)
			}
			return nil, fmt.Errorf("open %s: %w", location, err)
		}
		raw = &bucketReader{Reader: r, bucket: bucket}
	} else {
		f, err := os.Open(location)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%s: %w", location, ErrNotFound)
			}
			return nil, err
		}
		raw = f
	}

	rc, err := decompress(location, raw)
	if err != nil {
		raw.Close()
		return nil, err
	}
	return rc, nil
}

// Write stores data at location, compressing it first when the location
// carries a compression extension. Local writes are atomic.
func Write(ctx context.Context, location string, data []byte) error {
	data, err := compress(location, data)
	if err != nil {
		return err
	}
	if IsRemote(location) {
		return writeBlob(ctx, location, data)
	}
	return writeLocal(location, data)
}

// writeLocal writes through a temp file and renames it into place.
func writeLocal(location string, data []byte) error {
	dir := filepath.Dir(location)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tempPath := location + ".tmp." + uuid.New().String()
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, location); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename %s to %s: %w", tempPath, location, err)
	}
	return nil
}

func writeBlob(ctx context.Context, location string, data []byte) error {
	bucketURL, key, err := splitBlobURL(location)
	if err != nil {
		return err
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	defer bucket.Close()

	w, err := bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("create writer for %s: %w", key, err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write data to %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", key, err)
	}
	return nil
}

// bucketReader closes the bucket together with the object reader.
type bucketReader struct {
	*blob.Reader
	bucket *blob.Bucket
}

func (r *bucketReader) Close() error {
	err := r.Reader.Close()
	if cerr := r.bucket.Close(); err == nil {
		err = cerr
	}
	return err
}

func isNotExist(err error) bool {
	return gcerrors.Code(err) == gcerrors.NotFound
}
