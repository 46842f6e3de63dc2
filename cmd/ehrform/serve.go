package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-ehrform/internal/config"
	"github.com/goliatone/go-ehrform/internal/devserver"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve TEMPLATE",
		Short: "Serve the form, FLAT checks and terminology search over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := a.loadTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			options := []devserver.Option{
				devserver.WithLogger(a.logger),
				devserver.WithLanguage(a.cfg.Language),
				devserver.WithFormOptions(a.formOptions()...),
			}
			if searcher := a.searcher(); searcher != nil {
				options = append(options, devserver.WithSearcher(searcher))
			}
			srv, err := devserver.New(tmpl, options...)
			if err != nil {
				return err
			}
			return srv.Start(cmd.Context(), a.cfg.Addr)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	_ = a.v.BindPFlag(config.KeyAddr, cmd.Flags().Lookup("addr"))
	return cmd
}
