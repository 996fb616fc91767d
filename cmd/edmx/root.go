package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/syssam/edmx/builder"
	"github.com/syssam/edmx/dialect"
	"github.com/syssam/edmx/edm"
	"github.com/syssam/edmx/load"
	"github.com/syssam/edmx/modelstore"
	"github.com/syssam/edmx/resolver"
)

// rootOptions holds the global flags of all commands.
type rootOptions struct {
	Verbose  bool
	Provider string
	DSN      string
	Store    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "edmx",
		Short:         "Build entity data models and derive their store artifacts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			name, err := dialect.Normalize(opts.Provider)
			if err != nil {
				return err
			}
			opts.Provider = name
			return nil
		},
	}
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log build progress to stderr")
	cmd.PersistentFlags().StringVarP(&opts.Provider, "provider", "p", dialect.Postgres, "store provider (postgres|mysql|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "data source used to read the manifest token of the server")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "directory the built model snapshot is saved to")

	cmd.AddCommand(newInspectCommand(opts))
	cmd.AddCommand(newDDLCommand(opts))
	cmd.AddCommand(newGenCommand(opts))
	return cmd
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// build loads the declarations in path and builds their model.
func (o *rootOptions) build(ctx context.Context, cmd *cobra.Command, path string) (*edm.DbModel, error) {
	s, err := load.File(path)
	if err != nil {
		return nil, err
	}
	opts := []builder.Option{builder.WithLogger(o.logger(cmd.ErrOrStderr()))}
	if o.Store != "" {
		fs, err := modelstore.NewFileStore(o.Store)
		if err != nil {
			return nil, err
		}
		opts = append(opts, builder.WithResolver(resolver.Singleton[modelstore.Store](fs, nil)))
	}
	b, err := s.Builder(opts...)
	if err != nil {
		return nil, err
	}
	if o.DSN != "" {
		return b.BuildConnection(ctx, o.Provider, o.DSN)
	}
	return b.Build(ctx, o.Provider)
}
