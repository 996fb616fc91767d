package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/edmx/interception"
	"github.com/syssam/edmx/provider"
	"github.com/syssam/edmx/resolver"
)

type ddlOptions struct {
	*rootOptions
	Output string
	Apply  bool
}

func newDDLCommand(root *rootOptions) *cobra.Command {
	opts := &ddlOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "ddl FILE",
		Short: "Print or apply the CREATE statements of the store model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDDL(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the script to a file")
	cmd.Flags().BoolVar(&opts.Apply, "apply", false, "execute the script against --dsn")
	return cmd
}

func runDDL(cmd *cobra.Command, opts *ddlOptions, path string) error {
	if opts.Apply && opts.DSN == "" {
		return errors.New("--apply requires --dsn")
	}
	ctx := cmd.Context()
	m, err := opts.build(ctx, cmd, path)
	if err != nil {
		return err
	}
	svc, err := provider.Lookup(opts.Provider)
	if err != nil {
		return err
	}
	script, err := svc.CreateDatabaseScript(ctx, m)
	if err != nil {
		return err
	}
	switch {
	case opts.Apply:
		return apply(ctx, cmd, opts.rootOptions, script)
	case opts.Output != "":
		return os.WriteFile(opts.Output, []byte(script), 0o644)
	default:
		_, err := fmt.Fprint(cmd.OutOrStdout(), script)
		return err
	}
}

// apply executes the statements of script in one transaction.
func apply(ctx context.Context, cmd *cobra.Command, opts *rootOptions, script string) error {
	db, err := provider.NewConnectionFactory().Open(ctx, opts.Provider, opts.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	log := opts.logger(cmd.ErrOrStderr()).With("provider", opts.Provider)
	stats := interception.NewStats(interception.WithSlowCommandLog(log))
	deps, err := resolver.NewConfig()
	if err != nil {
		return err
	}
	if err := deps.AddDependencyResolver(resolver.Singleton[interception.Interceptor](stats, nil), false); err != nil {
		return err
	}
	if err := deps.AddDependencyResolver(resolver.Singleton[interception.Interceptor](interception.NewLogger(log), nil), false); err != nil {
		return err
	}
	idb, err := interception.New(db, deps, opts.Provider)
	if err != nil {
		return err
	}
	tx, err := idb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range statements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = errors.Join(err, rerr)
			}
			return fmt.Errorf("apply %q: %w", stmt, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	snap := stats.Snapshot()
	log.InfoContext(ctx, "script applied", "stats", snap.String())
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "applied %d statements\n", snap.Execs)
	return err
}

// statements splits a script rendered by the provider into statements.
func statements(script string) []string {
	var stmts []string
	for _, s := range strings.Split(script, ";\n") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
