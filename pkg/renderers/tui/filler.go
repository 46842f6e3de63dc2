package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-ehrform/pkg/datavalue"
	"github.com/goliatone/go-ehrform/pkg/flat"
	"github.com/goliatone/go-ehrform/pkg/form"
	"github.com/goliatone/go-ehrform/pkg/render"
	"github.com/goliatone/go-ehrform/pkg/terminology"
	"github.com/goliatone/go-ehrform/pkg/validation"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

// Name is the registry name of the terminal renderer.
const Name = "tui"

const skipOption = "(skip)"

var errRequired = errors.New("a value is required")

// Filler collects values for a form by prompting on a terminal. It binds
// fields through the form's own factory and returns the collected FLAT
// document.
type Filler struct {
	driver   PromptDriver
	searcher terminology.Searcher
	hits     int
	lang     string
	format   OutputFormat
	logger   zerolog.Logger
}

var _ render.Renderer = (*Filler)(nil)

// New constructs a Filler with defaults (survey driver, JSON output).
func New(options ...Option) *Filler {
	f := &Filler{
		hits:   terminology.DefaultHits,
		format: OutputFormatJSON,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver(nil)
	}
	return f
}

func (f *Filler) Name() string { return Name }

func (f *Filler) ContentType() string {
	if f.format == OutputFormatPrettyText {
		return "text/plain"
	}
	return "application/json"
}

// Render fills fm interactively and serializes the collected document.
func (f *Filler) Render(ctx context.Context, fm *form.Form, opts render.RenderOptions) ([]byte, error) {
	lang := opts.Language
	if lang == "" {
		lang = f.lang
	}
	doc, err := f.fill(ctx, fm, lang)
	if err != nil {
		return nil, err
	}
	if f.format == OutputFormatPrettyText {
		var b strings.Builder
		for _, key := range doc.Keys() {
			fmt.Fprintf(&b, "%s = %v\n", key, doc[key])
		}
		return []byte(b.String()), nil
	}
	var b strings.Builder
	if err := doc.Encode(&b); err != nil {
		return nil, fmt.Errorf("tui: encode: %w", err)
	}
	return []byte(b.String()), nil
}

// Fill walks fm, prompting for every field, and returns fm.Collect().
func (f *Filler) Fill(ctx context.Context, fm *form.Form) (flat.Document, error) {
	return f.fill(ctx, fm, f.lang)
}

func (f *Filler) fill(ctx context.Context, fm *form.Form, lang string) (flat.Document, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if fm == nil {
		return nil, errors.New("tui: form is nil")
	}
	if lang == "" {
		lang = fm.Template().Language()
	}
	p := &pass{Filler: f, lang: lang}
	for _, group := range fm.Root().Groups() {
		if err := p.group(ctx, group); err != nil {
			return nil, err
		}
	}
	doc := fm.Collect()
	f.logger.Debug().Int("keys", len(doc)).Msg("terminal entry complete")
	return doc, nil
}

// pass holds the state of one Fill call.
type pass struct {
	*Filler
	lang string
}

func (p *pass) label(node *webtemplate.Node) string {
	return node.Label(p.lang)
}

func (p *pass) group(ctx context.Context, g *form.Group) error {
	for _, inst := range g.Instances() {
		if err := p.instance(ctx, inst); err != nil {
			return err
		}
	}
	node := g.Node()
	if !node.IsRepeating() || !promptable(node) {
		return nil
	}
	for node.Max == webtemplate.Unbounded || g.Len() < node.Max {
		message := fmt.Sprintf("Add %s?", p.label(node))
		if g.Len() > 0 {
			message = fmt.Sprintf("Add another %s?", p.label(node))
		}
		add, err := p.driver.Confirm(ctx, ConfirmConfig{Message: message})
		if err != nil {
			return err
		}
		if !add {
			return nil
		}
		inst, err := g.Add()
		if err != nil {
			return err
		}
		if err := p.instance(ctx, inst); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) instance(ctx context.Context, inst *form.Instance) error {
	if inst.Field() != nil {
		return p.field(ctx, inst)
	}
	node := inst.Node()
	if node.Min == 0 && !node.IsRepeating() && node.RMType != webtemplate.RMElement && promptable(node) {
		fill, err := p.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Fill in %s?", p.label(node))})
		if err != nil {
			return err
		}
		if !fill {
			return nil
		}
	}
	for _, group := range inst.Groups() {
		if err := p.group(ctx, group); err != nil {
			return err
		}
	}
	return nil
}

// promptable reports whether node or a descendant is a bound field the user
// is asked for. Context fields are filled by the context provider instead.
func promptable(node *webtemplate.Node) bool {
	if node.InContext {
		return false
	}
	if node.IsBound() {
		return true
	}
	for _, child := range node.Children {
		if promptable(child) {
			return true
		}
	}
	return false
}

func (p *pass) field(ctx context.Context, inst *form.Instance) error {
	node := inst.Node()
	if node.InContext {
		return p.context(inst)
	}
	switch datavalue.KindFor(node) {
	case datavalue.KindCodedText:
		return p.coded(ctx, inst)
	case datavalue.KindText:
		if options := listOptions(node); len(options) > 0 {
			return p.choose(ctx, inst, options, func(li webtemplate.ListItem) datavalue.Value {
				return datavalue.Text{Value: li.Value}
			})
		}
		return p.ask(ctx, inst, textDefault(inst), func(raw string) (datavalue.Value, error) {
			return datavalue.Text{Value: raw}, nil
		})
	case datavalue.KindQuantity:
		return p.quantity(ctx, inst)
	case datavalue.KindCount:
		return p.ask(ctx, inst, datavalue.Format(inst.Value()), func(raw string) (datavalue.Value, error) {
			n, err := number(raw)
			if err != nil {
				return nil, err
			}
			if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
				return nil, errors.New("expected a whole number")
			}
			return datavalue.Count{Value: n}, nil
		})
	case datavalue.KindProportion:
		return p.ask(ctx, inst, datavalue.Format(inst.Value()), func(raw string) (datavalue.Value, error) {
			num, den, ok := strings.Cut(raw, "/")
			if !ok {
				return nil, errors.New("expected numerator/denominator")
			}
			n, err := number(num)
			if err != nil {
				return nil, err
			}
			d, err := number(den)
			if err != nil {
				return nil, err
			}
			return datavalue.Proportion{Numerator: n, Denominator: d}, nil
		})
	case datavalue.KindBoolean:
		return p.boolean(ctx, inst)
	case datavalue.KindTemporal:
		return p.ask(ctx, inst, textDefault(inst), func(raw string) (datavalue.Value, error) {
			return datavalue.Temporal{Value: raw}, nil
		})
	case datavalue.KindParty:
		return p.ask(ctx, inst, textDefault(inst), func(raw string) (datavalue.Value, error) {
			return datavalue.Party{Name: raw}, nil
		})
	}
	p.logger.Debug().Str("node", node.IDPath()).Msg("no terminal prompt for field")
	return p.driver.Info(ctx, fmt.Sprintf("Skipping %s: not supported in the terminal", p.label(node)))
}

// context fills a context field only when the template leaves a single
// choice.
func (p *pass) context(inst *form.Instance) error {
	options := listOptions(inst.Node())
	if len(options) != 1 || inst.Populated() {
		return nil
	}
	li := options[0]
	return inst.SetValue(datavalue.CodedText{
		Code:        li.Value,
		Value:       li.ItemLabel(p.lang),
		Terminology: inst.Node().Terminology(),
		Ordinal:     li.Ordinal,
	})
}

func (p *pass) coded(ctx context.Context, inst *form.Instance) error {
	node := inst.Node()
	if options := listOptions(node); len(options) > 0 {
		return p.choose(ctx, inst, options, func(li webtemplate.ListItem) datavalue.Value {
			return datavalue.CodedText{
				Code:        li.Value,
				Value:       li.ItemLabel(p.lang),
				Terminology: node.Terminology(),
				Ordinal:     li.Ordinal,
			}
		})
	}
	if p.searcher != nil {
		return p.search(ctx, inst)
	}
	return p.ask(ctx, inst, textDefault(inst), func(raw string) (datavalue.Value, error) {
		return datavalue.CodedText{Code: raw, Value: raw, Terminology: node.Terminology()}, nil
	})
}

// choose offers the list items of a node, plus a skip entry when the field
// is optional.
func (p *pass) choose(ctx context.Context, inst *form.Instance, items []webtemplate.ListItem, build func(webtemplate.ListItem) datavalue.Value) error {
	node := inst.Node()
	options := make([]string, 0, len(items)+1)
	current := ""
	if v, ok := inst.Value().(datavalue.CodedText); ok {
		current = v.Code
	} else if v, ok := inst.Value().(datavalue.Text); ok {
		current = v.Value
	}
	defaultIdx := -1
	for i, li := range items {
		label := li.ItemLabel(p.lang)
		if li.Ordinal != nil {
			label = fmt.Sprintf("%d - %s", *li.Ordinal, label)
		}
		options = append(options, label)
		if li.Value == current {
			defaultIdx = i
		}
	}
	required := node.Min >= 1
	if !required {
		options = append(options, skipOption)
	}

	for {
		idx, err := p.driver.Select(ctx, SelectConfig{
			Message:      p.label(node),
			Options:      options,
			DefaultIndex: defaultIdx,
			Help:         node.Description(p.lang),
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(options) {
			_ = p.driver.Info(ctx, fmt.Sprintf("Invalid %s selection", p.label(node)))
			continue
		}
		if idx == len(items) {
			return nil
		}
		return inst.SetValue(build(items[idx]))
	}
}

func (p *pass) search(ctx context.Context, inst *form.Instance) error {
	node := inst.Node()
	session := terminology.NewSession(p.searcher,
		terminology.WithHits(p.hits),
		terminology.WithSessionTerminology(node.Terminology()),
	)
	for {
		text, err := p.driver.Input(ctx, InputConfig{
			Message: fmt.Sprintf("Search %s", p.label(node)),
			Help:    "leave empty to skip",
		})
		if err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil
		}
		result, err := session.Search(ctx, text)
		if err != nil {
			p.logger.Warn().Err(err).Str("node", node.IDPath()).Msg("terminology search failed")
			_ = p.driver.Info(ctx, fmt.Sprintf("Search failed: %v", err))
			continue
		}
		if len(result.Candidates) == 0 {
			_ = p.driver.Info(ctx, fmt.Sprintf("No matches for %q", text))
			continue
		}
		options := make([]string, 0, len(result.Candidates)+1)
		for _, c := range result.Candidates {
			label := c.Term
			if c.Star || label == "" {
				label = c.Label
			}
			options = append(options, fmt.Sprintf("%s [%s]", label, c.Value))
		}
		options = append(options, "(search again)")
		idx, err := p.driver.Select(ctx, SelectConfig{Message: p.label(node), Options: options, DefaultIndex: -1})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(result.Candidates) {
			continue
		}
		return inst.SetValue(session.Select(result.Candidates[idx]))
	}
}

func (p *pass) quantity(ctx context.Context, inst *form.Instance) error {
	node := inst.Node()
	current, _ := inst.Value().(datavalue.Quantity)

	unit := current.Unit
	if units := unitOptions(node); len(units) == 1 {
		unit = units[0].Value
	} else if len(units) > 1 {
		options := make([]string, len(units))
		defaultIdx := -1
		for i, li := range units {
			options[i] = li.ItemLabel(p.lang)
			if li.Value == current.Unit {
				defaultIdx = i
			}
		}
		idx, err := p.driver.Select(ctx, SelectConfig{
			Message:      fmt.Sprintf("%s unit", p.label(node)),
			Options:      options,
			DefaultIndex: defaultIdx,
		})
		if err != nil {
			return err
		}
		if idx >= 0 && idx < len(units) {
			unit = units[idx].Value
		}
	}

	message := p.label(node)
	if unit != "" {
		message = fmt.Sprintf("%s (%s)", message, unit)
	}
	return p.askAs(ctx, inst, message, current.Magnitude.String(), func(raw string) (datavalue.Value, error) {
		n, err := number(raw)
		if err != nil {
			return nil, err
		}
		return datavalue.Quantity{Magnitude: n, Unit: unit}, nil
	})
}

func (p *pass) boolean(ctx context.Context, inst *form.Instance) error {
	node := inst.Node()
	current, populated := inst.Value().(datavalue.Boolean)
	if node.Min >= 1 {
		yes, err := p.driver.Confirm(ctx, ConfirmConfig{
			Message: p.label(node),
			Default: current.Value,
			Help:    node.Description(p.lang),
		})
		if err != nil {
			return err
		}
		return inst.SetValue(datavalue.Boolean{Value: yes})
	}

	defaultIdx := -1
	if populated {
		defaultIdx = 1
		if current.Value {
			defaultIdx = 0
		}
	}
	idx, err := p.driver.Select(ctx, SelectConfig{
		Message:      p.label(node),
		Options:      []string{"yes", "no", skipOption},
		DefaultIndex: defaultIdx,
		Help:         node.Description(p.lang),
	})
	if err != nil {
		return err
	}
	switch idx {
	case 0, 1:
		return inst.SetValue(datavalue.Boolean{Value: idx == 0})
	}
	return nil
}

func (p *pass) ask(ctx context.Context, inst *form.Instance, def string, build func(string) (datavalue.Value, error)) error {
	return p.askAs(ctx, inst, p.label(inst.Node()), def, build)
}

// askAs prompts until the answer builds a value that passes the node's
// value rules. An empty answer leaves optional fields untouched.
func (p *pass) askAs(ctx context.Context, inst *form.Instance, message, def string, build func(string) (datavalue.Value, error)) error {
	node := inst.Node()
	required := node.Min >= 1
	validate := func(raw string) error {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			if required {
				return errRequired
			}
			return nil
		}
		v, err := build(raw)
		if err != nil {
			return err
		}
		return issuesError(validation.CheckValue(node, v))
	}

	for {
		raw, err := p.driver.Input(ctx, InputConfig{
			Message:   message,
			Default:   def,
			Help:      node.Description(p.lang),
			Validator: validate,
		})
		if err != nil {
			return err
		}
		if err := validate(raw); err != nil {
			_ = p.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", p.label(node), err))
			continue
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		v, _ := build(raw)
		return inst.SetValue(v)
	}
}

func issuesError(issues []validation.Issue) error {
	if len(issues) == 0 {
		return nil
	}
	messages := make([]string, len(issues))
	for i, issue := range issues {
		messages[i] = issue.Message
	}
	return errors.New(strings.Join(messages, "; "))
}

func number(raw string) (json.Number, error) {
	n, ok := datavalue.ToNumber(raw)
	if !ok {
		return "", fmt.Errorf("%q is not a number", strings.TrimSpace(raw))
	}
	return n, nil
}

func textDefault(inst *form.Instance) string {
	switch v := inst.Value().(type) {
	case datavalue.Text:
		return v.Value
	case datavalue.Temporal:
		return v.Value
	case datavalue.Party:
		return v.Name
	case datavalue.CodedText:
		return v.Code
	}
	return ""
}

// listOptions returns the coded choices of node: the list of the unsuffixed
// or code input.
func listOptions(node *webtemplate.Node) []webtemplate.ListItem {
	for _, in := range node.Inputs {
		if (in.Suffix == datavalue.SuffixNone || in.Suffix == datavalue.SuffixCode) && len(in.List) > 0 {
			return in.List
		}
	}
	return nil
}

func unitOptions(node *webtemplate.Node) []webtemplate.ListItem {
	if in, ok := node.Input(datavalue.SuffixUnit); ok {
		return in.List
	}
	return nil
}
