package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLocalOpen covers success, missing file, directory and pre-canceled
// context.
func TestLocalOpen(t *testing.T) {
	t.Parallel()

	const extract = "InvoiceNo,StockCode\n536365,85123A\n"

	writeExtract := func(t *testing.T) string {
		t.Helper()
		p := filepath.Join(t.TempDir(), "online_retail.csv")
		if err := os.WriteFile(p, []byte(extract), 0o644); err != nil {
			t.Fatalf("write test file: %v", err)
		}
		return p
	}

	cases := []struct {
		name            string
		prepare         func(t *testing.T) string
		canceled        bool
		wantErrIs       error
		wantErrContains string
		wantContent     string
	}{
		{name: "success_reads_content", prepare: writeExtract, wantContent: extract},
		{
			name:            "missing_file_errors_with_wrapping",
			prepare:         func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.csv") },
			wantErrIs:       os.ErrNotExist,
			wantErrContains: "open ",
		},
		{
			name:            "directory_is_rejected",
			prepare:         func(t *testing.T) string { return t.TempDir() },
			wantErrContains: "is a directory",
		},
		{name: "pre_canceled_context_short_circuits", prepare: writeExtract, canceled: true, wantErrIs: context.Canceled},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if c.canceled {
				cancel()
			}

			src := NewLocal(c.prepare(t))
			rc, err := src.Open(ctx)

			if c.wantErrIs != nil || c.wantErrContains != "" {
				if err == nil {
					rc.Close()
					t.Fatalf("expected error, got nil")
				}
				if c.wantErrIs != nil && !errors.Is(err, c.wantErrIs) {
					t.Fatalf("errors.Is(%v, %v) = false", err, c.wantErrIs)
				}
				if c.wantErrContains != "" && !strings.Contains(err.Error(), c.wantErrContains) {
					t.Fatalf("error %q does not contain %q", err, c.wantErrContains)
				}
				return
			}

			if err != nil {
				t.Fatalf("Open() unexpected error: %v", err)
			}
			defer rc.Close()
			got, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("reading: %v", err)
			}
			if string(got) != c.wantContent {
				t.Fatalf("content = %q, want %q", got, c.wantContent)
			}
			if src.Name() == "" {
				t.Fatal("Name() is empty")
			}
		})
	}
}

// BenchmarkLocalOpen_Success measures the steady-state cost of opening a small file.
func BenchmarkLocalOpen_Success(b *testing.B) {
	p := filepath.Join(b.TempDir(), "data.csv")
	if err := os.WriteFile(p, []byte("payload"), 0o644); err != nil {
		b.Fatalf("write test file: %v", err)
	}
	src := NewLocal(p)
	ctx := context.Background()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rc, err := src.Open(ctx)
		if err != nil {
			b.Fatal(err)
		}
		if err := rc.Close(); err != nil {
			b.Fatal(err)
		}
	}
}
