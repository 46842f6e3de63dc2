package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-ehrform/pkg/datavalue"
	"github.com/goliatone/go-ehrform/pkg/flatpath"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
	"github.com/goliatone/go-ehrform/pkg/widgets"
)

type inspectEntry struct {
	IDPath   string   `json:"idPath"`
	Depth    int      `json:"-"`
	Label    string   `json:"label"`
	RMType   string   `json:"rmType"`
	Min      int      `json:"min"`
	Max      int      `json:"max"`
	Widget   string   `json:"widget,omitempty"`
	Path     string   `json:"path,omitempty"`
	Suffixes []string `json:"suffixes,omitempty"`
}

func newInspectCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "inspect TEMPLATE",
		Short: "Print the template tree with cardinality, widget and FLAT path",
		Example: `  ehrform inspect vitals.json
  ehrform inspect vitals.json -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := a.loadTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			entries, err := inspectTemplate(tmpl, widgets.NewRegistry(), a.cfg.Language)
			if err != nil {
				return err
			}
			switch output {
			case "json":
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(entries)
			case "text", "":
				for _, e := range entries {
					fmt.Fprintf(a.out, "%s%s  %s [%s]", strings.Repeat("  ", e.Depth), e.IDPath[strings.LastIndex(e.IDPath, "/")+1:], e.RMType, cardinality(e.Min, e.Max))
					if e.Widget != "" {
						fmt.Fprintf(a.out, "  <%s>", e.Widget)
					}
					if e.Path != "" {
						fmt.Fprintf(a.out, "  %s", e.Path)
						if len(e.Suffixes) > 0 && e.Suffixes[0] != "" {
							fmt.Fprintf(a.out, "|{%s}", strings.Join(e.Suffixes, ","))
						}
					}
					fmt.Fprintln(a.out)
				}
				return nil
			}
			return fmt.Errorf("unknown output format %q", output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")
	return cmd
}

func inspectTemplate(tmpl *webtemplate.Template, registry *widgets.Registry, lang string) ([]inspectEntry, error) {
	if lang == "" {
		lang = tmpl.Language()
	}
	var entries []inspectEntry
	err := webtemplate.Walk(tmpl.Tree, func(node *webtemplate.Node) error {
		entry := inspectEntry{
			IDPath: node.IDPath(),
			Depth:  len(node.Ancestors()) - 1,
			Label:  node.Label(lang),
			RMType: string(node.RMType),
			Min:    node.Min,
			Max:    node.Max,
		}
		if node.IsBound() {
			path, err := pathTemplate(node)
			if err != nil {
				return err
			}
			entry.Path = path
			entry.Suffixes = datavalue.PartsFor(node)
			entry.Widget, _ = registry.Resolve(node)
		}
		entries = append(entries, entry)
		return nil
	})
	return entries, err
}

// pathTemplate renders the FLAT path of node with ":<n>" after every
// repeating segment.
func pathTemplate(node *webtemplate.Node) (string, error) {
	var indices []flatpath.Index
	for _, ancestor := range node.Ancestors() {
		if ancestor.IsRepeating() {
			indices = append(indices, flatpath.Index{ID: ancestor.ID})
		}
	}
	resolved, err := flatpath.Resolve(node, indices)
	if err != nil {
		return "", err
	}
	parsed, err := flatpath.ParseKey(resolved)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	last := 0
	for _, mark := range parsed.Marks {
		b.WriteString(parsed.Path[last:len(mark.Prefix)])
		b.WriteString(":<n>")
		last = len(mark.Prefix)
	}
	b.WriteString(parsed.Path[last:])
	return b.String(), nil
}

func cardinality(lo, hi int) string {
	if hi == webtemplate.Unbounded {
		return fmt.Sprintf("%d..*", lo)
	}
	return fmt.Sprintf("%d..%d", lo, hi)
}
