package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-ehrform/pkg/flat"
	"github.com/goliatone/go-ehrform/pkg/orchestrator"
	"github.com/goliatone/go-ehrform/pkg/render"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		output   string
		document string
		action   string
	)
	cmd := &cobra.Command{
		Use:   "render TEMPLATE",
		Short: "Render the template as form markup",
		Example: `  ehrform render vitals.json > form.html
  ehrform render vitals.json --document saved.json --output form.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := a.loadTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var doc flat.Document
			if document != "" {
				if doc, err = a.loadDocument(document); err != nil {
					return err
				}
			}

			orch := orchestrator.New(
				orchestrator.WithFormOptions(a.formOptions()...),
				orchestrator.WithLogger(a.logger),
			)
			out, err := orch.Generate(cmd.Context(), orchestrator.Request{
				Template: tmpl,
				Document: doc,
				RenderOptions: render.RenderOptions{
					Language: a.cfg.Language,
					Action:   action,
				},
			})
			if err != nil {
				return err
			}
			return a.writeOutput(output, append(out, '\n'))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&document, "document", "d", "", "FLAT document to prefill (- for stdin)")
	cmd.Flags().StringVar(&action, "action", "", "form action URL")
	return cmd
}
