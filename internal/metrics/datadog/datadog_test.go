package datadog

import (
	"reflect"
	"testing"

	"ecomdw/internal/metrics"

	"github.com/DataDog/datadog-go/v5/statsd"
)

type sent struct {
	kind  string
	name  string
	value float64
	tags  []string
}

// fakeClient records Count and Histogram calls; other methods panic through
// the nil embedded interface.
type fakeClient struct {
	statsd.ClientInterface
	calls   []sent
	flushed int
}

func (f *fakeClient) Count(name string, value int64, tags []string, rate float64) error {
	f.calls = append(f.calls, sent{"count", name, float64(value), tags})
	return nil
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, rate float64) error {
	f.calls = append(f.calls, sent{"histogram", name, value, tags})
	return nil
}

func (f *fakeClient) Flush() error {
	f.flushed++
	return nil
}

func TestBackendSendsTaggedMetrics(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	b := &Backend{client: fc}

	b.IncCounter(metrics.TableRows, 12, metrics.Labels{"table": "fact_sales", "status": "success"})
	b.ObserveHistogram(metrics.StageDuration, 0.25, metrics.Labels{"stage": "load"})
	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}

	want := []sent{
		{"count", metrics.TableRows, 12, []string{"status:success", "table:fact_sales"}},
		{"histogram", metrics.StageDuration, 0.25, []string{"stage:load"}},
	}
	if !reflect.DeepEqual(fc.calls, want) {
		t.Fatalf("calls = %#v, want %#v", fc.calls, want)
	}
	if fc.flushed != 1 {
		t.Fatalf("flushed = %d, want 1", fc.flushed)
	}
}

func TestNewBackendRequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatal("expected error for empty Addr")
	}
}

func TestNilClientIsNoop(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter("x", 1, nil)
	b.ObserveHistogram("x", 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}
	if labelsToTags(nil) != nil {
		t.Fatal("labelsToTags(nil) should be nil")
	}
}
