package main

import (
	"reflect"
	"testing"
)

func TestParseSettingValue(t *testing.T) {
	cases := []struct {
		raw  string
		want any
	}{
		{"true", true},
		{"FALSE", false},
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"0.65", 0.65},
		{`{"a": 1}`, map[string]any{"a": float64(1)}},
		{`["x", "y"]`, []any{"x", "y"}},
		{"station-7", "station-7"},
		{"{not json", "{not json"},
	}
	for _, tc := range cases {
		got := parseSettingValue(tc.raw)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseSettingValue(%q) = %#v, want %#v", tc.raw, got, tc.want)
		}
	}
}

func TestFormatSettingValue(t *testing.T) {
	cases := []struct {
		value any
		want  string
	}{
		{nil, ""},
		{"plain", "plain"},
		{true, "true"},
		{int64(42), "42"},
		{0.65, "0.65"},
		{map[string]any{"a": float64(1)}, `{"a":1}`},
	}
	for _, tc := range cases {
		if got := formatSettingValue(tc.value); got != tc.want {
			t.Errorf("formatSettingValue(%#v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}
