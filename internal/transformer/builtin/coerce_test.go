package builtin

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestParseInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{" -3 ", -3, false},
		{"2.0", 2, false},
		{"2.5", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"1e3", 1000, false},
		{"1e30", 0, true},
		{"-1e30", 0, true},
		{"9.3e18", 0, true},
		{"-9.223372036854775808e18", math.MinInt64, false},
	}
	for _, tt := range tests {
		got, err := ParseInt(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseInt(%q) err=%v wantErr=%v", tt.in, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if _, err := ParseInt("  "); !errors.Is(err, ErrEmpty) {
		t.Fatalf("blank cell should be ErrEmpty, got %v", err)
	}
}

func TestParseDecimalIsExact(t *testing.T) {
	t.Parallel()

	d, err := ParseDecimal("0.1")
	if err != nil {
		t.Fatal(err)
	}
	sum := d.Add(d).Add(d)
	if sum.String() != "0.3" {
		t.Fatalf("0.1*3 = %s, want 0.3", sum)
	}
	if _, err := ParseDecimal("1,5"); err == nil {
		t.Fatal("expected error for comma decimal")
	}
}

func TestParseTimeLayouts(t *testing.T) {
	t.Parallel()

	layouts := []string{"2006-01-02 15:04:05", "1/2/2006 15:04"}
	got, err := ParseTime("12/1/2010 8:26", layouts)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if _, err := ParseTime("not a date", layouts); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseBool(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]bool{"true": true, "Y": true, "0": false, "no": false} {
		got, err := ParseBool(in)
		if err != nil || got != want {
			t.Errorf("ParseBool(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseBool("maybe"); err == nil {
		t.Fatal("expected error")
	}
}
