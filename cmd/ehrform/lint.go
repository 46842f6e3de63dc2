package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-ehrform/pkg/datavalue"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
	"github.com/goliatone/go-ehrform/pkg/widgets"
)

type violation struct {
	file     string
	location string
	message  string
	warning  bool
}

func newLintCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "lint TEMPLATE...",
		Short: "Report template nodes the form engine cannot bind or render",
		Long: `Lint checks every bound node for a widget, a FLAT path and a known value
shape. Ids shared by several nodes are reported as warnings; --strict turns
them into failures.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := widgets.NewRegistry()
			var violations []violation
			for _, path := range args {
				tmpl, err := a.loadTemplate(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("lint %s: %w", path, err)
				}
				violations = append(violations, lintTemplate(path, tmpl, registry)...)
			}

			sort.Slice(violations, func(i, j int) bool {
				if violations[i].file == violations[j].file {
					if violations[i].location == violations[j].location {
						return violations[i].message < violations[j].message
					}
					return violations[i].location < violations[j].location
				}
				return violations[i].file < violations[j].file
			})

			failed := false
			for _, v := range violations {
				level := "error"
				if v.warning && !strict {
					level = "warning"
				} else {
					failed = true
				}
				fmt.Fprintf(a.errOut, "%s: %s -> %s: %s\n", v.file, v.location, level, v.message)
			}
			if failed {
				return errProblems
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return cmd
}

func lintTemplate(file string, tmpl *webtemplate.Template, registry *widgets.Registry) []violation {
	var result []violation
	seen := make(map[string]int)
	_ = webtemplate.Walk(tmpl.Tree, func(node *webtemplate.Node) error {
		seen[node.ID]++
		if !node.IsBound() {
			return nil
		}
		location := node.IDPath()
		if _, err := pathTemplate(node); err != nil {
			result = append(result, violation{file: file, location: location, message: err.Error()})
		}
		if _, ok := registry.Resolve(node); !ok {
			result = append(result, violation{file: file, location: location, message: fmt.Sprintf("no widget for %s", node.RMType)})
		}
		if datavalue.KindFor(node) == datavalue.KindParts {
			result = append(result, violation{
				file:     file,
				location: location,
				message:  fmt.Sprintf("%s is bound as raw parts %v", node.RMType, datavalue.PartsFor(node)),
				warning:  true,
			})
		}
		return nil
	})
	for id, count := range seen {
		if count < 2 {
			continue
		}
		result = append(result, violation{
			file:     file,
			location: id,
			message:  fmt.Sprintf("id used by %d nodes; address it by id path", count),
			warning:  true,
		})
	}
	return result
}
