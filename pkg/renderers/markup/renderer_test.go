package markup_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-ehrform/pkg/datavalue"
	"github.com/goliatone/go-ehrform/pkg/form"
	"github.com/goliatone/go-ehrform/pkg/render"
	"github.com/goliatone/go-ehrform/pkg/renderers/markup"
	"github.com/goliatone/go-ehrform/pkg/testsupport"
)

const (
	gcsEvent = "/content[openEHR-EHR-OBSERVATION.glasgow_coma_scale.v1]/data[at0001]/events[at0002]:0"
	eyePath  = gcsEvent + "/data[at0003]/items[at0009]/value"
)

func newForm(t *testing.T) *form.Form {
	t.Helper()
	f, err := form.New(testsupport.Template(t, testsupport.GCSEvents))
	if err != nil {
		t.Fatalf("form.New: %v", err)
	}
	return f
}

func addEvent(t *testing.T, f *form.Form, observation string) {
	t.Helper()
	owner, err := f.Find(observation)
	if err != nil {
		t.Fatalf("find %s: %v", observation, err)
	}
	group, ok := owner.Group("any_event")
	if !ok {
		t.Fatalf("no any_event group under %s", observation)
	}
	if _, err := group.Add(); err != nil {
		t.Fatalf("add event: %v", err)
	}
}

func renderForm(t *testing.T, f *form.Form, opts render.RenderOptions, options ...markup.Option) string {
	t.Helper()
	r, err := markup.New(options...)
	if err != nil {
		t.Fatalf("markup.New: %v", err)
	}
	out, err := r.Render(context.Background(), f, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func assertContains(t *testing.T, out string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected output to contain %q\n%s", fragment, out)
		}
	}
}

func TestRender_EmptyForm(t *testing.T) {
	out := renderForm(t, newForm(t), render.RenderOptions{})

	assertContains(t, out,
		`<mb-form template-id="medblocks-ui.example.v0" language="en">`,
		`<input type="hidden" name="_templateId" value="medblocks-ui.example.v0">`,
		`<mb-context path="/context/start_time"`,
		`<div class="mb-repeat" data-node="initial_assessment/glasgow_coma_scale_gcs/any_event" data-min="0" data-count="0">`,
		`<mb-submit label="Submit"></mb-submit>`,
	)
	if strings.Contains(out, "/events[at0002]:0") {
		t.Fatalf("expected no event instances before one is added\n%s", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "</mb-form>") {
		t.Fatalf("expected closing mb-form tag\n%s", out)
	}
}

func TestRender_InstancesValuesAndErrors(t *testing.T) {
	f := newForm(t)
	addEvent(t, f, "glasgow_coma_scale_gcs")
	addEvent(t, f, "pulse_heart_beat")

	eye, err := f.Find("glasgow_coma_scale_gcs/any_event/best_eye_response_e/ordinal_value", 0)
	if err != nil {
		t.Fatalf("find eye: %v", err)
	}
	three := 3
	if err := eye.SetValue(datavalue.CodedText{Code: "at0012", Value: "To sound", Ordinal: &three}); err != nil {
		t.Fatalf("set eye: %v", err)
	}

	out := renderForm(t, f, render.RenderOptions{
		Errors:     map[string][]string{eyePath: {"pick one", "check again"}},
		FormErrors: []string{"Incomplete <assessment>"},
		Hidden:     map[string]string{"_csrf": "token"},
	})

	assertContains(t, out,
		`<section class="mb-group" data-node="initial_assessment/glasgow_coma_scale_gcs/any_event" data-path="`+gcsEvent+`" data-index="0">`,
		`<mb-buttons path="`+eyePath+`" label="Best eye response (E)"`,
		`value="To sound (at0012)"`,
		`data-error="pick one; check again"`,
		`<mb-option value="at0012" label="To sound" ordinal="3"></mb-option>`,
		`<mb-select path="`+gcsEvent+`/data[at0003]/items[at0008]/value"`,
		`<mb-count path="`+gcsEvent+`/data[at0003]/items[at0026]/value"`,
		`<mb-unit unit="/min" label="/min" min="0.0" max="1000.0"></mb-unit>`,
		`<p class="mb-error" role="alert">Incomplete &lt;assessment&gt;</p>`,
		`<input type="hidden" name="_csrf" value="token">`,
		`data-count="1"`,
	)
}

func TestRender_CustomTemplates(t *testing.T) {
	files := fstest.MapFS{
		"form.tpl": {Data: []byte(`{% for item in items %}{% if item.kind != "close" %}{{ item.tag }};{% endif %}{% endfor %}`)},
	}
	out := renderForm(t, newForm(t), render.RenderOptions{}, markup.WithTemplatesFS(files))
	if !strings.HasPrefix(out, "mb-form;input;input;") {
		t.Fatalf("unexpected custom output %q", out)
	}
}

func TestRender_RegistryLookup(t *testing.T) {
	r, err := markup.New()
	if err != nil {
		t.Fatalf("markup.New: %v", err)
	}
	registry := render.NewRegistry(r)
	got, err := registry.Get(markup.Name)
	if err != nil {
		t.Fatalf("registry get: %v", err)
	}
	if got.ContentType() != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", got.ContentType())
	}
	if _, err := registry.Get("tui"); err == nil {
		t.Fatalf("expected unknown renderer error")
	}
}
