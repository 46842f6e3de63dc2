package datavalue_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-ehrform/pkg/datavalue"
	"github.com/goliatone/go-ehrform/pkg/testsupport"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

func TestPartsFor(t *testing.T) {
	tmpl := testsupport.Template(t, testsupport.GCSEvents)

	cases := []struct {
		idPath string
		parts  []string
		kind   datavalue.Kind
	}{
		{idPath: "context/setting", parts: []string{"code", "value"}, kind: datavalue.KindCodedText},
		{idPath: "context/start_time", parts: []string{""}, kind: datavalue.KindTemporal},
		{idPath: "glasgow_coma_scale_gcs/any_event/best_eye_response_e/ordinal_value", parts: []string{"code", "value", "ordinal"}, kind: datavalue.KindCodedText},
		{idPath: "glasgow_coma_scale_gcs/any_event/total_score", parts: []string{""}, kind: datavalue.KindCount},
		{idPath: "glasgow_coma_scale_gcs/language", parts: []string{"code", "terminology"}, kind: datavalue.KindCodedText},
		{idPath: "glasgow_coma_scale_gcs/subject", parts: []string{"name", "id"}, kind: datavalue.KindParty},
		{idPath: "pulse_heart_beat/any_event/rate", parts: []string{"magnitude", "unit"}, kind: datavalue.KindQuantity},
		{idPath: "category", parts: []string{"code"}, kind: datavalue.KindCodedText},
	}

	for _, tc := range cases {
		t.Run(tc.idPath, func(t *testing.T) {
			node := testsupport.MustLookup(t, tmpl, tc.idPath)
			if diff := cmp.Diff(tc.parts, datavalue.PartsFor(node)); diff != "" {
				t.Fatalf("parts mismatch (-want +got):\n%s", diff)
			}
			if got := datavalue.KindFor(node); got != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, got)
			}
		})
	}
}

func TestKindFor_FallsBackToPartsForUnknownSuffixes(t *testing.T) {
	node := &webtemplate.Node{
		ID:     "duration",
		RMType: webtemplate.RMDuration,
		Inputs: []webtemplate.Input{{Type: "INTEGER", Suffix: "year"}, {Type: "INTEGER", Suffix: "month"}},
	}
	if got := datavalue.KindFor(node); got != datavalue.KindParts {
		t.Fatalf("expected parts kind, got %s", got)
	}

	custom := &webtemplate.Node{ID: "thing", RMType: "DV_EHR_URI"}
	if got := datavalue.KindFor(custom); got != datavalue.KindParts {
		t.Fatalf("expected parts kind for unknown rmType, got %s", got)
	}
}

func TestSplitAndFromParts_RoundTrip(t *testing.T) {
	ordinal := 3
	cases := []struct {
		name  string
		kind  datavalue.Kind
		parts []string
		value datavalue.Value
		want  []datavalue.Part
	}{
		{
			name:  "coded text",
			kind:  datavalue.KindCodedText,
			parts: []string{"code", "value"},
			value: datavalue.CodedText{Code: "at0010", Value: "None"},
			want:  []datavalue.Part{{Suffix: "code", Value: "at0010"}, {Suffix: "value", Value: "None"}},
		},
		{
			name:  "ordinal",
			kind:  datavalue.KindCodedText,
			parts: []string{"code", "value", "ordinal"},
			value: datavalue.CodedText{Code: "at0012", Value: "To sound", Ordinal: &ordinal},
			want: []datavalue.Part{
				{Suffix: "code", Value: "at0012"},
				{Suffix: "value", Value: "To sound"},
				{Suffix: "ordinal", Value: json.Number("3")},
			},
		},
		{
			name:  "quantity keeps literal magnitude",
			kind:  datavalue.KindQuantity,
			parts: []string{"magnitude", "unit"},
			value: datavalue.Quantity{Magnitude: "7.30", Unit: "g/dl"},
			want:  []datavalue.Part{{Suffix: "magnitude", Value: json.Number("7.30")}, {Suffix: "unit", Value: "g/dl"}},
		},
		{
			name:  "partial quantity",
			kind:  datavalue.KindQuantity,
			parts: []string{"magnitude", "unit"},
			value: datavalue.Quantity{Magnitude: "8.1"},
			want:  []datavalue.Part{{Suffix: "magnitude", Value: json.Number("8.1")}},
		},
		{
			name:  "boolean false",
			kind:  datavalue.KindBoolean,
			parts: []string{""},
			value: datavalue.Boolean{Value: false},
			want:  []datavalue.Part{{Suffix: "", Value: false}},
		},
		{
			name:  "party",
			kind:  datavalue.KindParty,
			parts: []string{"name", "id"},
			value: datavalue.Party{Name: "Dr. Who"},
			want:  []datavalue.Part{{Suffix: "name", Value: "Dr. Who"}},
		},
		{
			name:  "generic parts",
			kind:  datavalue.KindParts,
			parts: []string{"year", "month"},
			value: datavalue.Parts{"year": json.Number("1"), "month": json.Number("6")},
			want:  []datavalue.Part{{Suffix: "year", Value: json.Number("1")}, {Suffix: "month", Value: json.Number("6")}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			split := datavalue.Split(tc.value, tc.parts)
			if diff := cmp.Diff(tc.want, split); diff != "" {
				t.Fatalf("split mismatch (-want +got):\n%s", diff)
			}

			raw := make(map[string]any, len(split))
			for _, part := range split {
				raw[part.Suffix] = part.Value
			}
			joined, err := datavalue.FromParts(tc.kind, raw)
			if err != nil {
				t.Fatalf("FromParts: %v", err)
			}
			if diff := cmp.Diff(tc.value, joined); diff != "" {
				t.Fatalf("recombined value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplit_EmptyValues(t *testing.T) {
	if parts := datavalue.Split(nil, []string{""}); len(parts) != 0 {
		t.Fatalf("expected nil value to split into nothing, got %v", parts)
	}
	if parts := datavalue.Split(datavalue.CodedText{}, []string{"code", "value"}); len(parts) != 0 {
		t.Fatalf("expected empty coded text to split into nothing, got %v", parts)
	}
	value, err := datavalue.FromParts(datavalue.KindText, map[string]any{"": ""})
	if err != nil || value != nil {
		t.Fatalf("expected empty parts to yield nil, got %v (%v)", value, err)
	}
}

func TestFromParts_Errors(t *testing.T) {
	cases := []struct {
		name   string
		kind   datavalue.Kind
		parts  map[string]any
		suffix string
	}{
		{name: "non numeric magnitude", kind: datavalue.KindQuantity, parts: map[string]any{"magnitude": "lots"}, suffix: "magnitude"},
		{name: "fractional ordinal", kind: datavalue.KindCodedText, parts: map[string]any{"code": "at1", "ordinal": json.Number("1.5")}, suffix: "ordinal"},
		{name: "non boolean", kind: datavalue.KindBoolean, parts: map[string]any{"": "maybe"}, suffix: ""},
		{name: "fractional count", kind: datavalue.KindCount, parts: map[string]any{"": json.Number("2.5")}, suffix: ""},
		{name: "text given a number", kind: datavalue.KindText, parts: map[string]any{"": json.Number("4")}, suffix: ""},
		{name: "unsupported suffix", kind: datavalue.KindCodedText, parts: map[string]any{"code": "at1", "magnitude": json.Number("1")}, suffix: "magnitude"},
		{name: "unsuffixed part on quantity", kind: datavalue.KindQuantity, parts: map[string]any{"magnitude": json.Number("1"), "": "x"}, suffix: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := datavalue.FromParts(tc.kind, tc.parts)
			var partErr *datavalue.PartError
			if !errors.As(err, &partErr) {
				t.Fatalf("expected PartError, got %v", err)
			}
			if partErr.Suffix != tc.suffix {
				t.Fatalf("expected suffix %q, got %q", tc.suffix, partErr.Suffix)
			}
		})
	}
}

func TestToNumber(t *testing.T) {
	cases := []struct {
		in   any
		want json.Number
		ok   bool
	}{
		{in: json.Number("7.3"), want: "7.3", ok: true},
		{in: 8.1, want: "8.1", ok: true},
		{in: 42, want: "42", ok: true},
		{in: " 12 ", want: "12", ok: true},
		{in: "abc", ok: false},
		{in: true, ok: false},
	}
	for _, tc := range cases {
		got, ok := datavalue.ToNumber(tc.in)
		if ok != tc.ok {
			t.Fatalf("ToNumber(%v): expected ok=%v, got %v", tc.in, tc.ok, ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ToNumber(%v): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := datavalue.Format(datavalue.CodedText{Code: "at0010", Value: "None"}); got != "None (at0010)" {
		t.Fatalf("unexpected coded text format %q", got)
	}
	if got := datavalue.Format(datavalue.Quantity{Magnitude: "72", Unit: "/min"}); got != "72 /min" {
		t.Fatalf("unexpected quantity format %q", got)
	}
	if got := datavalue.Format(nil); got != "" {
		t.Fatalf("expected empty format for nil, got %q", got)
	}
}
