package render_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-ehrform/pkg/flat"
	"github.com/goliatone/go-ehrform/pkg/form"
	"github.com/goliatone/go-ehrform/pkg/render"
	"github.com/goliatone/go-ehrform/pkg/testsupport"
	"github.com/goliatone/go-ehrform/pkg/validation"
)

const (
	gcsEvent   = "/content[openEHR-EHR-OBSERVATION.glasgow_coma_scale.v1]/data[at0001]/events[at0002]:0"
	totalScore = gcsEvent + "/data[at0003]/items[at0026]/value"
	pulseRate  = "/content[openEHR-EHR-OBSERVATION.pulse.v2]/data[at0002]/events[at0003]:0/data[at0001]/items[at0004]/value"
)

func newForm(t *testing.T) *form.Form {
	t.Helper()
	f, err := form.New(testsupport.Template(t, testsupport.GCSEvents))
	if err != nil {
		t.Fatalf("form.New: %v", err)
	}
	return f
}

func TestMapErrorPayload(t *testing.T) {
	f := newForm(t)
	if report := f.Hydrate(flat.Document{totalScore: json.Number("12")}); !report.OK() {
		t.Fatalf("hydrate: %v", report.Err())
	}

	payload := map[string][]string{
		totalScore:               {" Score too low ", "Score too low"},
		"/category|code":         {"Category is fixed"},
		gcsEvent:                 {"Event incomplete"},
		"/content[x]:4/value":    {"Should fall back to form errors"},
		"non_field_errors":       {"Form level error"},
		"":                       {"Unscoped form error"},
		"/context/setting|value": {"  "},
	}

	mapped := render.MapErrorPayload(f, payload)

	wantFields := map[string][]string{
		totalScore:  {"Score too low"},
		"/category": {"Category is fixed"},
		gcsEvent:    {"Event incomplete"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantForm := []string{"Form level error", "Should fall back to form errors", "Unscoped form error"}
	if diff := cmp.Diff(wantForm, mapped.Form, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMapIssues(t *testing.T) {
	f := newForm(t)
	mapped := render.MapIssues(f, validation.Validate(f).Issues)

	if _, ok := mapped.Fields["/category"]; !ok {
		t.Fatalf("expected required issue on /category, got %v", mapped.Fields)
	}
	if len(mapped.Form) != 0 {
		t.Fatalf("expected no form-level messages, got %v", mapped.Form)
	}
}

func TestMapHydrateReport(t *testing.T) {
	f := newForm(t)
	report := f.Hydrate(flat.Document{
		pulseRate + "|magnitude":  "fast",
		pulseRate + "|unit":       "/min",
		"/content[unknown]/value": "x",
	})

	mapped := render.MapHydrateReport(f, report)
	if len(mapped.Fields[pulseRate]) != 1 {
		t.Fatalf("expected field error on %s, got %v", pulseRate, mapped.Fields)
	}
	if diff := cmp.Diff([]string{"unknown key /content[unknown]/value"}, mapped.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}
