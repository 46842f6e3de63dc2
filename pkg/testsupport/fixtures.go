package testsupport

import (
	"embed"
	"io/fs"
	"testing"

	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

// Template fixture names. The fixtures are real Web Templates exported from
// an openEHR server and cover the shapes the engine has to support.
const (
	// InitialAssessment is an encounter with a repeating GCS observation
	// (max -1), a non-repeating pulse observation and composition context.
	InitialAssessment = "initial_assessment"
	// CBCReport is a lab report whose analyte results repeat (max -1) and
	// carry magnitude/unit inputs.
	CBCReport = "cbc_report"
	// GCSEvents nests a repeating any_event with a cardinality group under a
	// non-repeating GCS observation.
	GCSEvents = "gcs_events"
)

//go:embed testdata/templates/*.json
var templates embed.FS

// TemplatesFS exposes the embedded fixture templates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(templates, "testdata/templates")
	if err != nil {
		return templates
	}
	return sub
}

// TemplateBytes returns the raw JSON of a fixture template.
func TemplateBytes(t testing.TB, name string) []byte {
	t.Helper()

	data, err := fs.ReadFile(TemplatesFS(), name+".json")
	if err != nil {
		t.Fatalf("read template fixture %q: %v", name, err)
	}
	return data
}

// Template parses a fixture template, failing the test on error.
func Template(t testing.TB, name string) *webtemplate.Template {
	t.Helper()

	tmpl, err := webtemplate.Parse(TemplateBytes(t, name))
	if err != nil {
		t.Fatalf("parse template fixture %q: %v", name, err)
	}
	return tmpl
}

// MustLookup resolves an id path inside tmpl, failing the test on error.
func MustLookup(t testing.TB, tmpl *webtemplate.Template, idPath string) *webtemplate.Node {
	t.Helper()

	node, err := webtemplate.Lookup(tmpl.Tree, idPath)
	if err != nil {
		t.Fatalf("lookup %q: %v", idPath, err)
	}
	return node
}
