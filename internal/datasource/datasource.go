// Package datasource opens the already-retrieved raw input of a run. Any
// failure to open it is reported as *UnavailableError so callers can tell a
// missing source apart from bad data.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"ecomdw/internal/datasource/file"
	"ecomdw/internal/datasource/s3"
)

// Source is a readable input.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}

// UnavailableError reports that a source could not be opened.
type UnavailableError struct {
	Source string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("source unavailable: %s: %v", e.Source, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Open opens src, wrapping any failure other than cancellation in
// *UnavailableError.
func Open(ctx context.Context, src Source) (io.ReadCloser, error) {
	rc, err := src.Open(ctx)
	if err == nil {
		return rc, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	return nil, &UnavailableError{Source: src.Name(), Err: err}
}

// Resolve returns the Source for uri: "s3://bucket/key" or a local path
// (optionally prefixed with "file://").
func Resolve(ctx context.Context, uri string, opts ResolveOptions) (Source, error) {
	switch {
	case strings.HasPrefix(uri, "s3://"):
		obj, err := s3.NewFromURI(ctx, uri, opts.S3Region)
		if err != nil {
			return nil, &UnavailableError{Source: uri, Err: err}
		}
		return obj, nil
	case strings.TrimSpace(uri) == "":
		return nil, &UnavailableError{Source: "(none)", Err: errors.New("no source path configured")}
	default:
		return file.NewLocal(strings.TrimPrefix(uri, "file://")), nil
	}
}

// ResolveOptions tunes Resolve.
type ResolveOptions struct {
	S3Region string
}
