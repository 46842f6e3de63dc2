package markup

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-ehrform/pkg/datavalue"
	"github.com/goliatone/go-ehrform/pkg/form"
	"github.com/goliatone/go-ehrform/pkg/render"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
	"github.com/goliatone/go-ehrform/pkg/widgets"
)

const (
	kindOpen    = "open"
	kindClose   = "close"
	kindElement = "element"
	kindVoid    = "void"
)

type attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// item is one line of output. The form tree is flattened into open/close
// pairs so the template needs no recursion.
type item struct {
	Kind  string `json:"kind"`
	Depth int    `json:"depth"`
	Tag   string `json:"tag"`
	Attrs []attr `json:"attrs,omitempty"`
	Text  string `json:"text,omitempty"`
}

type view struct {
	Items []item `json:"items"`
}

type builder struct {
	lang    string
	widgets *widgets.Registry
	errors  map[string][]string
	items   []item
}

func (b *builder) open(depth int, tag string, attrs ...attr) {
	b.items = append(b.items, item{Kind: kindOpen, Depth: depth, Tag: tag, Attrs: compact(attrs)})
}

func (b *builder) close(depth int, tag string) {
	b.items = append(b.items, item{Kind: kindClose, Depth: depth, Tag: tag})
}

func (b *builder) element(depth int, tag, text string, attrs ...attr) {
	b.items = append(b.items, item{Kind: kindElement, Depth: depth, Tag: tag, Text: text, Attrs: compact(attrs)})
}

// compact drops attributes without a value unless they are flags.
func compact(attrs []attr) []attr {
	out := attrs[:0]
	for _, a := range attrs {
		if a.Value == "" && !isFlag(a.Name) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func isFlag(name string) bool {
	return name == "required"
}

func (b *builder) build(f *form.Form, opts render.RenderOptions) view {
	tmpl := f.Template()
	b.open(0, "mb-form",
		attr{"template-id", tmpl.TemplateID},
		attr{"language", b.lang},
		attr{"action", opts.Action},
	)
	hidden := render.MergeHiddenFields(opts.Hidden,
		render.Hidden(render.HiddenTemplateID, tmpl.TemplateID),
		render.Hidden(render.HiddenLanguage, b.lang),
	)
	for _, h := range render.SortedHiddenFields(hidden) {
		b.items = append(b.items, item{Kind: kindVoid, Depth: 1, Tag: "input", Attrs: compact([]attr{
			{"type", "hidden"}, {"name", h.Name}, {"value", h.Value},
		})})
	}
	for _, msg := range opts.FormErrors {
		b.element(1, "p", msg, attr{"class", "mb-error"}, attr{"role", "alert"})
	}

	for _, group := range f.Root().Groups() {
		b.group(group, 1)
	}

	b.element(1, "mb-submit", "", attr{"label", "Submit"})
	b.close(0, "mb-form")
	return view{Items: b.items}
}

func (b *builder) group(g *form.Group, depth int) {
	node := g.Node()
	if !node.IsRepeating() {
		for _, inst := range g.Instances() {
			b.instance(inst, depth)
		}
		return
	}

	attrs := []attr{
		{"class", "mb-repeat"},
		{"data-node", node.IDPath()},
		{"data-min", strconv.Itoa(node.Min)},
		{"data-count", strconv.Itoa(g.Len())},
	}
	if node.Max != webtemplate.Unbounded {
		attrs = append(attrs, attr{"data-max", strconv.Itoa(node.Max)})
	}
	b.open(depth, "div", attrs...)
	b.element(depth+1, "p", plainText(node.Label(b.lang)), attr{"class", "mb-heading"})
	for _, inst := range g.Instances() {
		b.instance(inst, depth+1)
	}
	b.close(depth, "div")
}

func (b *builder) instance(inst *form.Instance, depth int) {
	if inst.Field() != nil {
		b.field(inst, depth)
		return
	}

	node := inst.Node()
	path, _ := inst.Path()
	attrs := []attr{
		{"class", "mb-group"},
		{"data-node", node.IDPath()},
		{"data-path", path},
		{"data-error", strings.Join(b.errors[path], "; ")},
	}
	if node.IsRepeating() {
		attrs = append(attrs, attr{"data-index", strconv.Itoa(inst.Index())})
	}
	b.open(depth, "section", attrs...)
	if !node.IsRepeating() {
		b.element(depth+1, "p", plainText(node.Label(b.lang)), attr{"class", "mb-heading"})
	}
	for _, group := range inst.Groups() {
		b.group(group, depth+1)
	}
	b.close(depth, "section")
}

func (b *builder) field(inst *form.Instance, depth int) {
	node := inst.Node()
	path, _ := inst.Path()

	tag, ok := b.widgets.Resolve(node)
	if !ok {
		tag = widgets.WidgetInput
	}

	attrs := []attr{
		{"path", path},
		{"label", plainText(node.Label(b.lang))},
		{"description", plainText(node.Description(b.lang))},
		{"type", string(datavalue.KindFor(node))},
		{"value", datavalue.Format(inst.Value())},
		{"data-error", strings.Join(b.errors[path], "; ")},
	}
	if node.Min >= 1 {
		attrs = append(attrs, attr{Name: "required"})
	}
	if node.IsRepeating() {
		attrs = append(attrs, attr{"data-index", strconv.Itoa(inst.Index())})
	}
	if tag == widgets.WidgetSearch {
		attrs = append(attrs, attr{"terminology", node.Terminology()})
	}

	children := b.options(node, depth+1)
	if len(children) == 0 {
		b.element(depth, tag, "", attrs...)
		return
	}
	b.open(depth, tag, attrs...)
	b.items = append(b.items, children...)
	b.close(depth, tag)
}

// options lists the coded choices and units of node as child elements.
func (b *builder) options(node *webtemplate.Node, depth int) []item {
	var out []item
	for _, in := range node.Inputs {
		switch in.Suffix {
		case datavalue.SuffixUnit:
			for _, li := range in.List {
				attrs := []attr{{"unit", li.Value}, {"label", plainText(li.ItemLabel(b.lang))}}
				if li.Validation != nil && li.Validation.Range != nil {
					if r := li.Validation.Range; r.Min != nil {
						attrs = append(attrs, attr{"min", r.Min.String()})
					}
					if r := li.Validation.Range; r.Max != nil {
						attrs = append(attrs, attr{"max", r.Max.String()})
					}
				}
				out = append(out, item{Kind: kindElement, Depth: depth, Tag: "mb-unit", Attrs: compact(attrs)})
			}
		case datavalue.SuffixNone, datavalue.SuffixCode, datavalue.SuffixValue:
			if in.ListOpen && in.Suffix == datavalue.SuffixValue {
				continue
			}
			for _, li := range in.List {
				attrs := []attr{{"value", li.Value}, {"label", plainText(li.ItemLabel(b.lang))}}
				if li.Ordinal != nil {
					attrs = append(attrs, attr{"ordinal", strconv.Itoa(*li.Ordinal)})
				}
				out = append(out, item{Kind: kindElement, Depth: depth, Tag: "mb-option", Attrs: compact(attrs)})
			}
		}
	}
	return out
}
