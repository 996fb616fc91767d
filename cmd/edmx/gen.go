package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/syssam/edmx/gen"
)

type genOptions struct {
	*rootOptions
	Out     string
	Package string
	Header  string
	Watch   bool
}

func newGenCommand(root *rootOptions) *cobra.Command {
	opts := &genOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "gen FILE",
		Short: "Generate Go constants for the tables, columns and procedures of the model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output directory")
	cmd.Flags().StringVar(&opts.Package, "package", "", "package name (default: base name of --out)")
	cmd.Flags().StringVar(&opts.Header, "header", "", "header comment of generated files")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "regenerate when FILE changes")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runGen(cmd *cobra.Command, opts *genOptions, path string) error {
	generate := func(ctx context.Context) error {
		m, err := opts.build(ctx, cmd, path)
		if err != nil {
			return err
		}
		var gopts []gen.Option
		if opts.Header != "" {
			gopts = append(gopts, gen.WithHeader(opts.Header))
		}
		if err := gen.Generate(ctx, m, opts.Out, opts.pkg(), gopts...); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "generated %s\n", opts.Out)
		return err
	}
	ctx := cmd.Context()
	if err := generate(ctx); err != nil {
		if !opts.Watch {
			return err
		}
		// Keep watching, the next change may fix the file.
		fmt.Fprintln(cmd.ErrOrStderr(), "edmx:", err)
	}
	if !opts.Watch {
		return nil
	}
	w, err := newWatcher(path, opts.logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Run(ctx, func(ctx context.Context) {
		if err := generate(ctx); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "edmx:", err)
		}
	})
}

func (o *genOptions) pkg() string {
	if o.Package != "" {
		return o.Package
	}
	return strings.ToLower(strings.NewReplacer("-", "", ".", "").Replace(filepath.Base(o.Out)))
}

// watcher reports changes of one file. The parent directory is watched, as
// editors often replace files instead of writing them in place.
type watcher struct {
	fs    *fsnotify.Watcher
	file  string
	log   *slog.Logger
	delay time.Duration
}

func newWatcher(path string, log *slog.Logger) (*watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, err
	}
	return &watcher{fs: fs, file: abs, log: log, delay: 100 * time.Millisecond}, nil
}

// Run calls fn after every burst of changes to the file, until ctx is done.
func (w *watcher) Run(ctx context.Context, fn func(context.Context)) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.file || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			w.log.DebugContext(ctx, "schema changed", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.WarnContext(ctx, "watch failed", "file", w.file, "error", err)
		case <-fire:
			fire = nil
			fn(ctx)
		}
	}
}

// Close stops watching.
func (w *watcher) Close() error { return w.fs.Close() }
