package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-ehrform/pkg/form"
	"github.com/goliatone/go-ehrform/pkg/render"
	"github.com/goliatone/go-ehrform/pkg/renderers/tui"
)

func newFillCmd(a *app) *cobra.Command {
	var (
		output   string
		document string
		format   string
	)
	cmd := &cobra.Command{
		Use:   "fill TEMPLATE",
		Short: "Enter data for the template interactively and print the FLAT document",
		Example: `  ehrform fill vitals.json > composition.json
  ehrform fill vitals.json --document draft.json --format pretty`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := a.loadTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			f, err := form.New(tmpl, a.formOptions()...)
			if err != nil {
				return err
			}
			if document != "" {
				doc, err := a.loadDocument(document)
				if err != nil {
					return err
				}
				if err := f.Hydrate(doc).Err(); err != nil {
					a.logger.Warn().Err(err).Msg("draft did not hydrate cleanly")
				}
			}

			options := []tui.Option{
				tui.WithPromptDriver(tui.NewSurveyDriver(a.errOut)),
				tui.WithSearchHits(a.cfg.SearchHits),
				tui.WithOutputFormat(tui.OutputFormat(format)),
				tui.WithLogger(a.logger),
			}
			if searcher := a.searcher(); searcher != nil {
				options = append(options, tui.WithSearcher(searcher))
			}
			out, err := tui.New(options...).Render(cmd.Context(), f, render.RenderOptions{Language: a.cfg.Language})
			if err != nil {
				return err
			}
			return a.writeOutput(output, out)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&document, "document", "d", "", "FLAT draft to start from")
	cmd.Flags().StringVar(&format, "format", string(tui.OutputFormatJSON), "output format (json, pretty)")
	return cmd
}
