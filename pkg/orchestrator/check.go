package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-ehrform/pkg/flat"
	"github.com/goliatone/go-ehrform/pkg/flatpath"
	"github.com/goliatone/go-ehrform/pkg/validation"
)

// KeyProblem is a FLAT key that could not be applied.
type KeyProblem struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// CheckReport is the outcome of Check.
type CheckReport struct {
	TemplateID string             `json:"templateId"`
	Unknown    []KeyProblem       `json:"unknown,omitempty"`
	Fields     []KeyProblem       `json:"fields,omitempty"`
	Issues     []validation.Issue `json:"issues,omitempty"`
	// Dropped lists accepted keys that did not survive a hydrate/collect
	// round trip; Changed lists keys that came back with another value.
	Dropped []string `json:"dropped,omitempty"`
	Changed []string `json:"changed,omitempty"`
	// Collected is the document the form produces after hydration.
	Collected flat.Document `json:"collected"`
}

// OK reports whether the document hydrated, validated and round-tripped
// cleanly.
func (r *CheckReport) OK() bool {
	return r != nil &&
		len(r.Unknown) == 0 &&
		len(r.Fields) == 0 &&
		len(r.Issues) == 0 &&
		len(r.Dropped) == 0 &&
		len(r.Changed) == 0
}

// Err joins the problems into one error, or nil.
func (r *CheckReport) Err() error {
	if r.OK() {
		return nil
	}
	var errs []error
	for _, p := range r.Unknown {
		errs = append(errs, fmt.Errorf("unknown key %s: %s", p.Key, p.Message))
	}
	for _, p := range r.Fields {
		errs = append(errs, fmt.Errorf("field %s: %s", p.Key, p.Message))
	}
	for _, issue := range r.Issues {
		errs = append(errs, errors.New(issue.String()))
	}
	for _, key := range r.Dropped {
		errs = append(errs, fmt.Errorf("dropped on round trip: %s", key))
	}
	for _, key := range r.Changed {
		errs = append(errs, fmt.Errorf("changed on round trip: %s", key))
	}
	return errors.Join(errs...)
}

// Check hydrates req.Document into a fresh form, validates it and verifies
// that collecting the form reproduces every accepted key.
func (o *Orchestrator) Check(ctx context.Context, req Request) (*CheckReport, error) {
	if req.Document == nil {
		return nil, errors.New("orchestrator: document is required")
	}
	prepared, err := o.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	f := prepared.Form
	report := &CheckReport{
		TemplateID: f.Template().TemplateID,
		Collected:  f.Collect(),
	}

	rejected := make(map[string]struct{})
	if hr := prepared.Report; hr != nil {
		for _, u := range hr.Unknown {
			report.Unknown = append(report.Unknown, KeyProblem{Key: u.Key, Message: unknownMessage(u.Reason, u.Err)})
			rejected[u.Key] = struct{}{}
		}
		for _, fe := range hr.Fields {
			report.Fields = append(report.Fields, KeyProblem{Key: fe.Path, Message: fe.Err.Error()})
			rejected[fe.Path] = struct{}{}
		}
	}

	report.Issues = validation.Validate(f).Issues

	for _, key := range req.Document.Diff(report.Collected) {
		if _, sent := req.Document[key]; !sent || isRejected(rejected, key) {
			continue
		}
		if _, ok := report.Collected[key]; ok {
			report.Changed = append(report.Changed, key)
		} else {
			report.Dropped = append(report.Dropped, key)
		}
	}

	o.logger.Debug().
		Str("template", report.TemplateID).
		Bool("ok", report.OK()).
		Int("issues", len(report.Issues)).
		Msg("document checked")
	return report, nil
}

func unknownMessage(reason string, err error) string {
	switch {
	case reason != "" && err != nil:
		return reason + ": " + err.Error()
	case err != nil:
		return err.Error()
	case reason != "":
		return reason
	}
	return "matches no node"
}

func isRejected(rejected map[string]struct{}, key string) bool {
	if _, ok := rejected[key]; ok {
		return true
	}
	parsed, err := flatpath.ParseKey(key)
	if err != nil {
		return false
	}
	_, ok := rejected[parsed.Base()]
	return ok
}
