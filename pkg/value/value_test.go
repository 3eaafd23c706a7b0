// ABOUTME: Tests for scalar value formatting and parsing
// ABOUTME: Covers every kind and the type-incompatible parse failures

package value

import (
	"math"
	"testing"
	"time"
)

func TestFormatParseRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 30, 5, 123456789, time.UTC)

	cases := []struct {
		name string
		val  Value
		raw  string
	}{
		{"string", String("hello world"), "hello world"},
		{"empty string", String(""), ""},
		{"int64", Int64(-42), "-42"},
		{"int64 max", Int64(math.MaxInt64), "9223372036854775807"},
		{"uint64", Uint64(7), "7"},
		{"float64", Float64(3.25), "3.25"},
		{"bool", Bool(true), "true"},
		{"time", Time(ts), "2024-03-09T14:30:05.123456789Z"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := tc.val.Format()
			if raw != tc.raw {
				t.Fatalf("Format() = %q, want %q", raw, tc.raw)
			}

			parsed, err := Parse(tc.val.Kind, raw)
			if err != nil {
				t.Fatalf("Parse(%s, %q) failed: %v", tc.val.Kind, raw, err)
			}
			if parsed.Kind != tc.val.Kind {
				t.Fatalf("kind = %s, want %s", parsed.Kind, tc.val.Kind)
			}
			if parsed.Format() != raw {
				t.Errorf("re-formatted %q, want %q", parsed.Format(), raw)
			}
		})
	}
}

func TestParseTimeKeepsOffset(t *testing.T) {
	zone := time.FixedZone("UTC+3", 3*60*60)
	ts := time.Date(2023, 12, 31, 23, 59, 59, 0, zone)

	parsed, err := Parse(KindTime, Time(ts).Format())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !parsed.Time.Equal(ts) {
		t.Errorf("parsed %v, want %v", parsed.Time, ts)
	}
	if _, off := parsed.Time.Zone(); off != 3*60*60 {
		t.Errorf("offset = %d, want %d", off, 3*60*60)
	}
}

func TestParseIncompatible(t *testing.T) {
	cases := []struct {
		kind Kind
		raw  string
	}{
		{KindInt64, "abc"},
		{KindInt64, "1.5"},
		{KindUint64, "-1"},
		{KindFloat64, "one"},
		{KindBool, "maybe"},
		{KindTime, "yesterday"},
		{Kind(99), "x"},
	}

	for _, tc := range cases {
		if _, err := Parse(tc.kind, tc.raw); err == nil {
			t.Errorf("Parse(%s, %q) succeeded, want error", tc.kind, tc.raw)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindTime.String() != "time" {
		t.Errorf("KindTime.String() = %q", KindTime.String())
	}
	if Kind(42).String() != "kind(42)" {
		t.Errorf("Kind(42).String() = %q", Kind(42).String())
	}
}
