package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-ehrform/pkg/orchestrator"
)

func newCheckCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "check TEMPLATE DOCUMENT",
		Short: "Hydrate a FLAT document, validate it and verify the round trip",
		Long: `Check loads DOCUMENT (a path, or - for stdin) into a form built from
TEMPLATE. It reports keys that match no node, values that cannot be bound,
validation issues and keys that do not survive a hydrate/collect round trip.
The exit status is non-zero when anything is reported.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := a.loadTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			doc, err := a.loadDocument(args[1])
			if err != nil {
				return err
			}

			orch := orchestrator.New(
				orchestrator.WithFormOptions(a.formOptions()...),
				orchestrator.WithLogger(a.logger),
			)
			report, err := orch.Check(cmd.Context(), orchestrator.Request{Template: tmpl, Document: doc})
			if err != nil {
				return err
			}

			switch output {
			case "json":
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				if err := enc.Encode(report); err != nil {
					return err
				}
			case "text", "":
				printReport(a, report)
			default:
				return fmt.Errorf("unknown output format %q", output)
			}
			if !report.OK() {
				return errProblems
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")
	return cmd
}

func printReport(a *app, report *orchestrator.CheckReport) {
	for _, p := range report.Unknown {
		fmt.Fprintf(a.out, "unknown  %s: %s\n", p.Key, p.Message)
	}
	for _, p := range report.Fields {
		fmt.Fprintf(a.out, "field    %s: %s\n", p.Key, p.Message)
	}
	for _, issue := range report.Issues {
		fmt.Fprintf(a.out, "invalid  %s\n", issue)
	}
	for _, key := range report.Dropped {
		fmt.Fprintf(a.out, "dropped  %s\n", key)
	}
	for _, key := range report.Changed {
		fmt.Fprintf(a.out, "changed  %s\n", key)
	}
	if report.OK() {
		fmt.Fprintf(a.out, "ok: %d keys round-trip for %s\n", len(report.Collected), report.TemplateID)
	}
}
