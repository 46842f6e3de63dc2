package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-ehrform/internal/config"
	internalLoader "github.com/goliatone/go-ehrform/internal/webtemplate/loader"
	"github.com/goliatone/go-ehrform/pkg/flat"
	"github.com/goliatone/go-ehrform/pkg/form"
	"github.com/goliatone/go-ehrform/pkg/terminology"
	"github.com/goliatone/go-ehrform/pkg/uischema"
	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

// errProblems marks a run that completed but found problems; the details are
// already printed.
var errProblems = errors.New("problems found")

type app struct {
	in         io.Reader
	out        io.Writer
	errOut     io.Writer
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logger     zerolog.Logger
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut, v: config.NewViper(), logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "ehrform",
		Short:         "Render and bind openEHR Web Templates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (YAML or JSON)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("language", "", "label language (defaults to the template language)")
	flags.String("terminology-url", "", "base URL of the terminology search service")
	flags.Int("search-hits", 10, "terminology results per page")
	flags.Duration("http-timeout", 0, "timeout for template and terminology requests")
	flags.Bool("include-context", true, "include context fields in forms")
	flags.String("ui-schema", "", "directory of UI overlay files (YAML or JSON)")
	for key, flag := range map[string]string{
		config.KeyLogLevel:       "log-level",
		config.KeyLanguage:       "language",
		config.KeyTerminologyURL: "terminology-url",
		config.KeySearchHits:     "search-hits",
		config.KeyHTTPTimeout:    "http-timeout",
		config.KeyIncludeContext: "include-context",
		config.KeyUISchema:       "ui-schema",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		newInspectCmd(a),
		newLintCmd(a),
		newRenderCmd(a),
		newFillCmd(a),
		newCheckCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: a.errOut, TimeFormat: "15:04:05"}).
		Level(cfg.Level()).
		With().Timestamp().Logger()
	return nil
}

// loadTemplate reads a template from a path or an http(s) URL.
func (a *app) loadTemplate(ctx context.Context, location string) (*webtemplate.Template, error) {
	loader := internalLoader.New(webtemplate.NewLoaderOptions(
		webtemplate.WithHTTPFallback(a.cfg.HTTPTimeout),
	))

	var src webtemplate.Source
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		if _, err := url.ParseRequestURI(location); err != nil {
			return nil, fmt.Errorf("template URL: %w", err)
		}
		src = webtemplate.SourceFromURL(location)
	} else {
		src = webtemplate.SourceFromFile(location)
	}
	tmpl, err := loader.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("template", tmpl.TemplateID).Str("source", location).Msg("template loaded")

	if a.cfg.UISchema == "" {
		return tmpl, nil
	}
	store, err := uischema.LoadFS(os.DirFS(a.cfg.UISchema))
	if err != nil {
		return nil, err
	}
	return store.Apply(tmpl)
}

// loadDocument reads a FLAT document from path, or stdin for "-".
func (a *app) loadDocument(path string) (flat.Document, error) {
	if path == "-" {
		return flat.Decode(a.in)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	return flat.Decode(f)
}

func (a *app) formOptions() []form.Option {
	options := []form.Option{form.WithLogger(a.logger)}
	if !a.cfg.IncludeContext {
		options = append(options, form.WithoutContext())
	}
	return options
}

func (a *app) searcher() terminology.Searcher {
	if a.cfg.TerminologyURL == "" {
		return nil
	}
	return terminology.NewHTTPSearcher(a.cfg.TerminologyURL, terminology.WithTimeout(a.cfg.HTTPTimeout))
}

// writeOutput writes data to path, or the command output when path is empty.
func (a *app) writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := a.out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	a.logger.Info().Str("path", path).Msg("output written")
	return nil
}
