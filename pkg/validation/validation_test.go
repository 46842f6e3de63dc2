package validation_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-ehrform/pkg/datavalue"
	"github.com/goliatone/go-ehrform/pkg/form"
	"github.com/goliatone/go-ehrform/pkg/testsupport"
	"github.com/goliatone/go-ehrform/pkg/validation"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

func TestRules_Quantity(t *testing.T) {
	tmpl := testsupport.Template(t, testsupport.GCSEvents)
	rate := testsupport.MustLookup(t, tmpl, "pulse_heart_beat/any_event/rate")

	want := []validation.Rule{
		{Kind: validation.RuleMin, Params: map[string]string{"suffix": "magnitude", "value": "0.0"}},
		{Kind: validation.RuleMax, Params: map[string]string{"suffix": "magnitude", "value": "1000.0", "exclusive": "true"}},
		{Kind: validation.RulePrecision, Params: map[string]string{"suffix": "magnitude", "max": "0"}},
		{Kind: validation.RuleEnum, Params: map[string]string{"suffix": "unit", "values": "/min"}},
		{Kind: validation.RuleMin, Params: map[string]string{"suffix": "magnitude", "value": "0.0", "unit": "/min"}},
		{Kind: validation.RuleMax, Params: map[string]string{"suffix": "magnitude", "value": "1000.0", "exclusive": "true", "unit": "/min"}},
	}
	if diff := cmp.Diff(want, validation.Rules(rate)); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
}

func TestRules_RequiredAndOccurrences(t *testing.T) {
	tmpl := testsupport.Template(t, testsupport.GCSEvents)

	category := testsupport.MustLookup(t, tmpl, "category")
	rules := validation.Rules(category)
	if len(rules) == 0 || rules[0].Kind != validation.RuleRequired {
		t.Fatalf("expected required rule first, got %+v", rules)
	}

	event := testsupport.MustLookup(t, tmpl, "glasgow_coma_scale_gcs/any_event")
	want := []validation.Rule{{Kind: validation.RuleOccurrences, Params: map[string]string{"min": "0", "max": "-1"}}}
	if diff := cmp.Diff(want, validation.Rules(event)); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckValue(t *testing.T) {
	tmpl := testsupport.Template(t, testsupport.GCSEvents)
	rate := testsupport.MustLookup(t, tmpl, "pulse_heart_beat/any_event/rate")
	score := testsupport.MustLookup(t, tmpl, "glasgow_coma_scale_gcs/any_event/total_score")
	eye := testsupport.MustLookup(t, tmpl, "glasgow_coma_scale_gcs/any_event/best_eye_response_e/ordinal_value")

	cases := []struct {
		name  string
		node  *webtemplate.Node
		value datavalue.Value
		rules []string
	}{
		{name: "valid rate", node: rate, value: datavalue.Quantity{Magnitude: "72", Unit: "/min"}},
		{name: "fractional rate", node: rate, value: datavalue.Quantity{Magnitude: "72.5", Unit: "/min"}, rules: []string{validation.RulePrecision}},
		{name: "exclusive max", node: rate, value: datavalue.Quantity{Magnitude: "1000", Unit: "/min"}, rules: []string{validation.RuleMax, validation.RuleMax}},
		{name: "unknown unit", node: rate, value: datavalue.Quantity{Magnitude: "60", Unit: "/h"}, rules: []string{validation.RuleEnum}},
		{name: "score below range", node: score, value: datavalue.Count{Value: "2"}, rules: []string{validation.RuleMin}},
		{name: "score in range", node: score, value: datavalue.Count{Value: "15"}},
		{name: "unknown ordinal code", node: eye, value: datavalue.CodedText{Code: "at9999"}, rules: []string{validation.RuleEnum}},
		{name: "known ordinal code", node: eye, value: datavalue.CodedText{Code: "at0010", Value: "None"}},
		{name: "empty value", node: rate, value: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got []string
			for _, issue := range validation.CheckValue(tc.node, tc.value) {
				got = append(got, issue.Rule)
			}
			if diff := cmp.Diff(tc.rules, got); diff != "" {
				t.Fatalf("issues mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCheckValue_Pattern(t *testing.T) {
	node := &webtemplate.Node{
		ID:     "mrn",
		RMType: webtemplate.RMText,
		Inputs: []webtemplate.Input{{Type: "TEXT", Validation: &webtemplate.Validation{Pattern: `^[0-9]{6}$`}}},
	}
	if issues := validation.CheckValue(node, datavalue.Text{Value: "123456"}); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	issues := validation.CheckValue(node, datavalue.Text{Value: "12-34"})
	if len(issues) != 1 || issues[0].Rule != validation.RulePattern {
		t.Fatalf("expected pattern issue, got %v", issues)
	}
}

func TestValidate_EmptyFormOnlyReportsRequiredTopLevel(t *testing.T) {
	f, err := form.New(testsupport.Template(t, testsupport.GCSEvents))
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	result := validation.Validate(f)
	if result.Valid {
		t.Fatalf("expected empty form to be invalid")
	}
	want := []validation.Issue{{
		Path:    "/category",
		Node:    "initial_assessment/category",
		Rule:    validation.RuleRequired,
		Message: "a value is required",
	}}
	if diff := cmp.Diff(want, result.Issues); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_PopulatedForm(t *testing.T) {
	f, err := form.New(testsupport.Template(t, testsupport.GCSEvents))
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	root := f.Root()
	gcs, _ := root.Group("glasgow_coma_scale_gcs")
	events, _ := gcs.Instances()[0].Group("any_event")
	if _, err := events.Add(); err != nil {
		t.Fatalf("add: %v", err)
	}
	pulse, _ := root.Group("pulse_heart_beat")
	pulseEvents, _ := pulse.Instances()[0].Group("any_event")
	if _, err := pulseEvents.Add(); err != nil {
		t.Fatalf("add pulse: %v", err)
	}

	setFirstOption := func(idPath string) {
		inst, err := f.Find(idPath, 0)
		if err != nil {
			t.Fatalf("find %s: %v", idPath, err)
		}
		item := inst.Node().Inputs[0].List[0]
		if err := inst.SetValue(datavalue.CodedText{Code: item.Value, Value: item.Label, Ordinal: item.Ordinal}); err != nil {
			t.Fatalf("set %s: %v", idPath, err)
		}
	}
	setFirstOption("glasgow_coma_scale_gcs/any_event/best_eye_response_e/ordinal_value")
	setFirstOption("glasgow_coma_scale_gcs/any_event/best_verbal_response_v/ordinal_value")

	score, _ := f.Find("glasgow_coma_scale_gcs/any_event/total_score", 0)
	_ = score.SetValue(datavalue.Count{Value: "2"})
	rate, _ := f.Find("pulse_heart_beat/any_event/rate", 0)
	_ = rate.SetValue(datavalue.Quantity{Magnitude: "72.5", Unit: "/min"})
	category, _ := f.Find("category")
	_ = category.SetValue(datavalue.CodedText{Code: "433"})

	type finding struct {
		Rule string
		Node string
	}
	var got []finding
	for _, issue := range validation.Validate(f).Issues {
		got = append(got, finding{Rule: issue.Rule, Node: issue.Node})
	}
	// eye, verbal and total_score make 3 of 4, so the cardinality group is met
	// even though the score itself is out of range.
	want := []finding{
		{Rule: validation.RuleRequired, Node: "initial_assessment/glasgow_coma_scale_gcs/any_event/best_motor_response_m"},
		{Rule: validation.RuleMin, Node: "initial_assessment/glasgow_coma_scale_gcs/any_event/total_score"},
		{Rule: validation.RulePrecision, Node: "initial_assessment/pulse_heart_beat/any_event/rate"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_CardinalityUnmet(t *testing.T) {
	f, err := form.New(testsupport.Template(t, testsupport.GCSEvents))
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	gcs, _ := f.Root().Group("glasgow_coma_scale_gcs")
	events, _ := gcs.Instances()[0].Group("any_event")
	if _, err := events.Add(); err != nil {
		t.Fatalf("add: %v", err)
	}
	for _, idPath := range []string{
		"glasgow_coma_scale_gcs/any_event/best_eye_response_e/ordinal_value",
		"glasgow_coma_scale_gcs/any_event/best_verbal_response_v/ordinal_value",
	} {
		inst, err := f.Find(idPath, 0)
		if err != nil {
			t.Fatalf("find %s: %v", idPath, err)
		}
		item := inst.Node().Inputs[0].List[0]
		if err := inst.SetValue(datavalue.CodedText{Code: item.Value, Value: item.Label, Ordinal: item.Ordinal}); err != nil {
			t.Fatalf("set %s: %v", idPath, err)
		}
	}

	const event = "initial_assessment/glasgow_coma_scale_gcs/any_event"
	for _, issue := range validation.Validate(f).Issues {
		if issue.Rule == validation.RuleCardinality && issue.Node == event {
			return
		}
	}
	t.Fatalf("expected a cardinality issue on %s with 2 of 4 populated", event)
}

func TestValidate_Occurrences(t *testing.T) {
	raw := []byte(`{"templateId":"t","tree":{"id":"root","rmType":"COMPOSITION","min":1,"max":1,"aqlPath":"","children":[
		{"id":"note","rmType":"DV_TEXT","min":1,"max":2,"aqlPath":"/note","inputs":[{"type":"TEXT"}]}]}}`)
	tmpl, err := webtemplate.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f, err := form.New(tmpl)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	notes, _ := f.Root().Group("note")
	for i := 0; i < 2; i++ {
		inst, err := notes.Add()
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		_ = inst.SetValue(datavalue.Text{Value: "n"})
	}
	first, _ := notes.Instance(0)
	_ = first.SetValue(datavalue.Text{Value: "first"})

	result := validation.Validate(f)
	if len(result.Issues) != 1 || result.Issues[0].Rule != validation.RuleOccurrences {
		t.Fatalf("expected a single occurrences issue, got %+v", result.Issues)
	}
}
