// Package storage reads and writes the files exchanged with a RushDB
// deployment: CSV and JSON imports, record exports and snapshot archives.
// It abstracts the backend so that the same command can target a local
// directory or an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

// ErrInvalidPath is returned for paths that are absolute or escape the
// store root.
var ErrInvalidPath = errors.New("storage: invalid path")

// Store is a minimal interface for file-oriented storage.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type Store interface {
	// Read opens the named file for reading.
	// The caller must close the returned ReadCloser when done.
	// If the file does not exist, an error wrapping os.ErrNotExist is returned.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write opens the named file for writing.
	// If the file already exists it is truncated.
	// Parent directories are created automatically.
	// The caller must close the returned WriteCloser to flush data.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes the named file.
	// If the file does not exist, Delete returns nil (idempotent).
	Delete(ctx context.Context, path string) error

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns the sorted paths of all files under prefix. An empty
	// prefix lists the whole store.
	List(ctx context.Context, prefix string) ([]string, error)
}

// cleanPath validates a store path and returns its cleaned form.
func cleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return clean, nil
}

// Open returns the store addressed by uri:
//
//	s3://bucket/prefix    S3 bucket, optional key prefix
//	file:///abs/dir       local directory
//	./dir, /abs/dir       local directory
//
// S3 credentials, region and endpoint come from the standard AWS_*
// environment variables.
func Open(ctx context.Context, uri string) (Store, error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Bare paths, including Windows drive letters.
		return NewLocal(uri)
	}
	switch u.Scheme {
	case "file":
		return NewLocal(u.Path)
	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("storage: %q has no bucket", uri)
		}
		client, err := newS3ClientFromEnv(ctx)
		if err != nil {
			return nil, err
		}
		return NewS3(client, u.Host, strings.Trim(u.Path, "/")), nil
	}
	return nil, fmt.Errorf("storage: unsupported scheme %q", u.Scheme)
}

// OpenFile splits uri into the store holding the file and the file name,
// e.g. "s3://bucket/exports/users.json" opens s3://bucket/exports and
// returns "users.json".
func OpenFile(ctx context.Context, uri string) (Store, string, error) {
	i := strings.LastIndex(uri, "/")
	dir, name := ".", uri
	if i >= 0 {
		dir, name = uri[:i], uri[i+1:]
		if dir == "" || strings.HasSuffix(dir, "://") {
			dir += "/"
		}
	}
	if name == "" {
		return nil, "", fmt.Errorf("%w: %q names a directory", ErrInvalidPath, uri)
	}
	s, err := Open(ctx, dir)
	if err != nil {
		return nil, "", err
	}
	return s, name, nil
}
