package datasource

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecomdw/internal/datasource/file"
)

type failingSource struct{ err error }

func (f failingSource) Open(context.Context) (io.ReadCloser, error) { return nil, f.err }
func (f failingSource) Name() string                                { return "broken" }

func TestOpenWrapsFailuresAsUnavailable(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), file.NewLocal(filepath.Join(t.TempDir(), "nope.csv")))
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UnavailableError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("UnavailableError should unwrap to os.ErrNotExist: %v", err)
	}
	if !strings.Contains(ue.Error(), "source unavailable") {
		t.Fatalf("Error() = %q", ue.Error())
	}
}

func TestOpenPassesCancellationThrough(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), failingSource{err: context.Canceled})
	var ue *UnavailableError
	if errors.As(err, &ue) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want bare context.Canceled", err)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	src, err := Resolve(context.Background(), "file:///tmp/raw.csv", ResolveOptions{})
	if err != nil || src.Name() != "/tmp/raw.csv" {
		t.Fatalf("Resolve(file://) = %v, %v", src, err)
	}
	_, err = Resolve(context.Background(), " ", ResolveOptions{})
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("empty uri err = %v", err)
	}
	_, err = Resolve(context.Background(), "s3://bucket-only", ResolveOptions{})
	if !errors.As(err, &ue) {
		t.Fatalf("bad s3 uri err = %v", err)
	}
}
