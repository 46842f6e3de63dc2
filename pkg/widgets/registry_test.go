package widgets

import (
	"testing"

	"github.com/goliatone/go-ehrform/pkg/testsupport"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

func TestResolve_ExplicitWidgetWins(t *testing.T) {
	reg := NewRegistry()
	node := &webtemplate.Node{
		ID:          "flag",
		RMType:      webtemplate.RMBoolean,
		Annotations: map[string]string{"widget": "custom-toggle"},
	}

	if got, ok := reg.Resolve(node); !ok || got != "custom-toggle" {
		t.Fatalf("expected explicit widget to win, got %q (ok=%v)", got, ok)
	}
}

func TestResolve_Builtins(t *testing.T) {
	reg := NewRegistry()
	tmpl := testsupport.Template(t, testsupport.GCSEvents)

	cases := []struct {
		idPath string
		expect string
	}{
		{idPath: "glasgow_coma_scale_gcs/any_event/best_eye_response_e/ordinal_value", expect: WidgetButtons},
		{idPath: "glasgow_coma_scale_gcs/any_event/best_motor_response_m/ordinal_value", expect: WidgetSelect},
		{idPath: "glasgow_coma_scale_gcs/any_event/total_score", expect: WidgetCount},
		{idPath: "glasgow_coma_scale_gcs/any_event/time", expect: WidgetContext},
		{idPath: "pulse_heart_beat/any_event/rate", expect: WidgetQuantity},
		{idPath: "pulse_heart_beat/any_event/presence", expect: WidgetButtons},
		{idPath: "context/setting", expect: WidgetContext},
	}

	for _, tc := range cases {
		t.Run(tc.idPath, func(t *testing.T) {
			node := testsupport.MustLookup(t, tmpl, tc.idPath)
			got, ok := reg.Resolve(node)
			if !ok {
				t.Fatalf("expected widget for %s", tc.idPath)
			}
			if got != tc.expect {
				t.Fatalf("expected %s, got %s", tc.expect, got)
			}
		})
	}
}

func TestResolve_SearchAndContext(t *testing.T) {
	reg := NewRegistry()

	search := &webtemplate.Node{
		ID:     "diagnosis",
		RMType: webtemplate.RMCodedText,
		Inputs: []webtemplate.Input{{Type: "CODED_TEXT", Terminology: "SNOMED-CT"}},
	}
	if got, _ := reg.Resolve(search); got != WidgetSearch {
		t.Fatalf("expected search widget, got %q", got)
	}

	date := &webtemplate.Node{ID: "onset", RMType: webtemplate.RMDateTime}
	if got, _ := reg.Resolve(date); got != WidgetDate {
		t.Fatalf("expected date widget, got %q", got)
	}

	ctx := &webtemplate.Node{ID: "language", RMType: webtemplate.RMCodePhrase, InContext: true}
	if got, _ := reg.Resolve(ctx); got != WidgetContext {
		t.Fatalf("expected context widget, got %q", got)
	}
}

func TestRegister_PriorityAndOrder(t *testing.T) {
	reg := &Registry{}
	if _, ok := reg.Resolve(&webtemplate.Node{ID: "x"}); ok {
		t.Fatalf("empty registry must not resolve")
	}

	reg.Register("low", 1, func(*webtemplate.Node) bool { return true })
	reg.Register("high-a", 5, func(*webtemplate.Node) bool { return true })
	reg.Register("high-b", 5, func(*webtemplate.Node) bool { return true })

	if got, _ := reg.Resolve(&webtemplate.Node{ID: "x"}); got != "high-a" {
		t.Fatalf("expected first high priority rule, got %q", got)
	}
}

func TestAssign(t *testing.T) {
	tmpl := testsupport.Template(t, testsupport.CBCReport)
	assigned := NewRegistry().Assign(tmpl.Tree)

	if got := assigned["medblocks_ui.cbc_report.v0/laboratory_test_result/hb/analyte_result"]; got != WidgetQuantity {
		t.Fatalf("expected quantity widget, got %q", got)
	}
	if _, ok := assigned["medblocks_ui.cbc_report.v0/laboratory_test_result/hb"]; ok {
		t.Fatalf("structural nodes must not get widgets")
	}
}
