package orchestrator_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	internalLoader "github.com/goliatone/go-ehrform/internal/webtemplate/loader"
	"github.com/goliatone/go-ehrform/pkg/flat"
	"github.com/goliatone/go-ehrform/pkg/form"
	"github.com/goliatone/go-ehrform/pkg/orchestrator"
	"github.com/goliatone/go-ehrform/pkg/render"
	"github.com/goliatone/go-ehrform/pkg/testsupport"
	"github.com/goliatone/go-ehrform/pkg/uischema"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

const (
	gcsEvent   = "/content[openEHR-EHR-OBSERVATION.glasgow_coma_scale.v1]/data[at0001]/events[at0002]:0"
	totalScore = gcsEvent + "/data[at0003]/items[at0026]/value"
)

type stubRenderer struct {
	name    string
	form    *form.Form
	options render.RenderOptions
	calls   int
}

func (s *stubRenderer) Name() string {
	if s.name == "" {
		return "stub"
	}
	return s.name
}

func (s *stubRenderer) ContentType() string { return "text/plain" }

func (s *stubRenderer) Render(_ context.Context, f *form.Form, options render.RenderOptions) ([]byte, error) {
	s.calls++
	s.form = f
	s.options = options
	return []byte("rendered:" + f.Template().TemplateID), nil
}

func TestOrchestrator_GenerateDefaultsToMarkup(t *testing.T) {
	orch := orchestrator.New()
	out, err := orch.Generate(context.Background(), orchestrator.Request{
		Template: testsupport.Template(t, testsupport.GCSEvents),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(string(out), "<mb-form") {
		t.Fatalf("expected markup output, got %.80s", out)
	}
}

func TestOrchestrator_GenerateLoadsSource(t *testing.T) {
	loader := internalLoader.New(webtemplate.NewLoaderOptions(
		webtemplate.WithFileSystem(testsupport.TemplatesFS()),
	))
	renderer := &stubRenderer{}
	orch := orchestrator.New(
		orchestrator.WithLoader(loader),
		orchestrator.WithRegistry(render.NewRegistry(renderer)),
		orchestrator.WithDefaultRenderer(renderer.Name()),
	)

	out, err := orch.Generate(context.Background(), orchestrator.Request{
		Source: webtemplate.SourceFromFS("gcs_events.json"),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(out) != "rendered:medblocks-ui.example.v0" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestOrchestrator_GenerateSurfacesHydrateProblems(t *testing.T) {
	renderer := &stubRenderer{}
	orch := orchestrator.New(orchestrator.WithRegistry(render.NewRegistry(renderer)))

	_, err := orch.Generate(context.Background(), orchestrator.Request{
		Template: testsupport.Template(t, testsupport.GCSEvents),
		Document: flat.Document{
			totalScore:       json.Number("12"),
			"/unknown":       "x",
			"/category|code": json.Number("433"),
		},
		RenderOptions: render.RenderOptions{FormErrors: []string{"Session expired"}},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if renderer.calls != 1 {
		t.Fatalf("expected fallback to the only registered renderer")
	}
	want := []string{"Session expired", "unknown key /unknown"}
	if diff := cmp.Diff(want, renderer.options.FormErrors); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if len(renderer.options.Errors["/category"]) != 1 {
		t.Fatalf("expected field error on /category, got %v", renderer.options.Errors)
	}
	if got := renderer.form.Collect()[totalScore]; got != json.Number("12") {
		t.Fatalf("expected hydrated total score, got %v", got)
	}
}

func TestOrchestrator_Errors(t *testing.T) {
	orch := orchestrator.New(orchestrator.WithRegistry(render.NewRegistry(&stubRenderer{})))

	if _, err := orch.Generate(context.Background(), orchestrator.Request{}); err == nil {
		t.Fatalf("expected error without source or template")
	}
	_, err := orch.Generate(context.Background(), orchestrator.Request{
		Template: testsupport.Template(t, testsupport.GCSEvents),
		Renderer: "missing",
	})
	if err == nil || !strings.Contains(err.Error(), `renderer "missing"`) {
		t.Fatalf("expected unknown renderer error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := orch.Generate(ctx, orchestrator.Request{Template: testsupport.Template(t, testsupport.GCSEvents)}); err == nil {
		t.Fatalf("expected cancelled context error")
	}
}

func TestOrchestrator_AppliesTransformer(t *testing.T) {
	renderer := &stubRenderer{}
	called := false
	orch := orchestrator.New(
		orchestrator.WithRegistry(render.NewRegistry(renderer)),
		orchestrator.WithTransformer(orchestrator.TransformerFunc(func(ctx context.Context, f *form.Form) error {
			called = true
			events, err := f.Find("initial_assessment/glasgow_coma_scale_gcs")
			if err != nil {
				return err
			}
			g, ok := events.Group("any_event")
			if !ok {
				t.Fatalf("missing any_event group")
			}
			_, err = g.Add()
			return err
		})),
	)

	if _, err := orch.Generate(context.Background(), orchestrator.Request{
		Template: testsupport.Template(t, testsupport.GCSEvents),
	}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !called {
		t.Fatalf("expected transformer to run")
	}
	instances, err := renderer.form.Instances("initial_assessment/glasgow_coma_scale_gcs/any_event")
	if err != nil {
		t.Fatalf("instances: %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("expected one event, got %d", len(instances))
	}
}

func TestOrchestrator_AppliesUISchema(t *testing.T) {
	store, err := uischema.LoadFS(fstest.MapFS{
		"gcs.yaml": {Data: []byte(`
templates:
  medblocks-ui.example.v0:
    fields:
      glasgow_coma_scale_gcs/any_event/total_score:
        label: GCS total
`)},
	})
	if err != nil {
		t.Fatalf("load ui schema: %v", err)
	}

	renderer := &stubRenderer{}
	tmpl := testsupport.Template(t, testsupport.GCSEvents)
	orch := orchestrator.New(
		orchestrator.WithRegistry(render.NewRegistry(renderer)),
		orchestrator.WithUISchema(store),
	)
	if _, err := orch.Generate(context.Background(), orchestrator.Request{Template: tmpl}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	const path = "glasgow_coma_scale_gcs/any_event/total_score"
	if got := testsupport.MustLookup(t, renderer.form.Template(), path).Label("en"); got != "GCS total" {
		t.Fatalf("label = %q", got)
	}
	if got := testsupport.MustLookup(t, tmpl, path).Label("en"); got == "GCS total" {
		t.Fatalf("request template was modified")
	}
}

func TestPresetTransformer_DefaultsUnderDocument(t *testing.T) {
	files := fstest.MapFS{
		"preset.yaml": &fstest.MapFile{Data: []byte(`"/category|code": "433"
"` + totalScore + `": 3
`)},
	}
	preset, err := orchestrator.NewPresetTransformerFromFS(files, "preset.yaml")
	if err != nil {
		t.Fatalf("preset: %v", err)
	}

	orch := orchestrator.New(orchestrator.WithTransformer(preset))
	prepared, err := orch.Prepare(context.Background(), orchestrator.Request{
		Template: testsupport.Template(t, testsupport.GCSEvents),
		Document: flat.Document{totalScore: json.Number("12")},
	})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	want := flat.Document{
		"/category|code": "433",
		totalScore:       json.Number("12"),
	}
	if diff := cmp.Diff(want, prepared.Form.Collect()); diff != "" {
		t.Fatalf("collected mismatch (-want +got):\n%s", diff)
	}
}

func TestPresetTransformer_Errors(t *testing.T) {
	if _, err := orchestrator.NewPresetTransformer([]byte("  ")); err == nil {
		t.Fatalf("expected empty document error")
	}
	if _, err := orchestrator.NewPresetTransformerFromFS(fstest.MapFS{}, "missing.json"); err == nil {
		t.Fatalf("expected read error")
	}

	preset, err := orchestrator.NewPresetTransformer([]byte(`{"/nowhere": "x"}`))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	f, err := form.New(testsupport.Template(t, testsupport.GCSEvents))
	if err != nil {
		t.Fatalf("form.New: %v", err)
	}
	if err := preset.Transform(context.Background(), f); err == nil || !strings.Contains(err.Error(), "/nowhere") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

const noteTemplate = `{"templateId":"note","defaultLanguage":"en","tree":{"id":"note","rmType":"COMPOSITION","min":1,"max":1,"aqlPath":"","children":[
	{"id":"text","name":"Text","rmType":"DV_TEXT","min":1,"max":1,
	 "aqlPath":"/content[openEHR-EHR-EVALUATION.note.v1]/data[at0001]/items[at0002]/value",
	 "inputs":[{"type":"TEXT"}]},
	{"id":"score","name":"Score","rmType":"DV_COUNT","min":0,"max":1,
	 "aqlPath":"/content[openEHR-EHR-EVALUATION.note.v1]/data[at0001]/items[at0003]/value",
	 "inputs":[{"type":"INTEGER"}]}]}}`

const (
	noteText  = "/content[openEHR-EHR-EVALUATION.note.v1]/data[at0001]/items[at0002]/value"
	noteScore = "/content[openEHR-EHR-EVALUATION.note.v1]/data[at0001]/items[at0003]/value"
)

func TestCheck_CleanDocument(t *testing.T) {
	tmpl := webtemplate.MustParse([]byte(noteTemplate))
	doc := flat.Document{noteText: "stable", noteScore: json.Number("3")}

	report, err := orchestrator.New().Check(context.Background(), orchestrator.Request{Template: tmpl, Document: doc})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !report.OK() {
		t.Fatalf("expected clean report, got %v", report.Err())
	}
	if diff := cmp.Diff(doc, report.Collected); diff != "" {
		t.Fatalf("collected mismatch (-want +got):\n%s", diff)
	}
}

func TestCheck_ReportsProblems(t *testing.T) {
	tmpl := webtemplate.MustParse([]byte(noteTemplate))
	doc := flat.Document{
		noteScore:  "3",
		"/missing": "x",
	}

	report, err := orchestrator.New().Check(context.Background(), orchestrator.Request{Template: tmpl, Document: doc})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if report.OK() {
		t.Fatalf("expected problems")
	}
	if len(report.Unknown) != 1 || report.Unknown[0].Key != "/missing" {
		t.Fatalf("unexpected unknown keys %+v", report.Unknown)
	}
	if diff := cmp.Diff([]string{noteScore}, report.Changed); diff != "" {
		t.Fatalf("changed mismatch (-want +got):\n%s", diff)
	}
	if len(report.Issues) == 0 {
		t.Fatalf("expected the missing required text to be reported")
	}
	if err := report.Err(); err == nil || !strings.Contains(err.Error(), "changed on round trip") {
		t.Fatalf("unexpected joined error %v", err)
	}
}

func TestCheck_RequiresDocument(t *testing.T) {
	tmpl := webtemplate.MustParse([]byte(noteTemplate))
	if _, err := orchestrator.New().Check(context.Background(), orchestrator.Request{Template: tmpl}); err == nil {
		t.Fatalf("expected missing document error")
	}
}
