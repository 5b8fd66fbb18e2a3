package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"a.json", "a.json", false},
		{"exports/./a.json", "exports/a.json", false},
		{"a/b/../c", "a/c", false},
		{"", "", true},
		{"/abs", "", true},
		{"..", "", true},
		{"../x", "", true},
		{"a/../..", "", true},
	}
	for _, tt := range tests {
		got, err := cleanPath(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidPath, "cleanPath(%q)", tt.in)
			continue
		}
		if assert.NoError(t, err, "cleanPath(%q)", tt.in) {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestOpenLocal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, uri := range []string{dir, "file://" + filepath.ToSlash(dir)} {
		s, err := Open(ctx, uri)
		require.NoError(t, err, uri)
		require.IsType(t, &Local{}, s)
		assert.Equal(t, dir, s.(*Local).Root())
	}
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, "ftp://host/dir")
	assert.ErrorContains(t, err, "unsupported scheme")
	_, err = Open(ctx, "s3:///no-bucket")
	assert.Error(t, err, "s3 uri without a bucket")

	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	_, err = Open(ctx, "s3://bucket/prefix")
	assert.Error(t, err, "no AWS credentials")
}

func TestOpenS3FromEnv(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_ENDPOINT_URL_S3", "http://127.0.0.1:9000")

	s, err := Open(context.Background(), "s3://bucket/exports/")
	require.NoError(t, err)
	require.IsType(t, &S3Store{}, s)
	s3s := s.(*S3Store)
	assert.Equal(t, "bucket", s3s.bucket)
	assert.Equal(t, "exports", s3s.prefix)
}

func TestOpenFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, name, err := OpenFile(ctx, filepath.Join(dir, "users.json"))
	require.NoError(t, err)
	assert.Equal(t, "users.json", name)
	assert.Equal(t, dir, s.(*Local).Root())

	_, _, err = OpenFile(ctx, dir+"/")
	assert.ErrorIs(t, err, ErrInvalidPath)
}
