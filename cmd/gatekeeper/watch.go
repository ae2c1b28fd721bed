package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/parity/internal/cmdutil"
	"github.com/fyrsmithlabs/parity/internal/gate"
	"github.com/fyrsmithlabs/parity/internal/workspace"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Evaluate every artifact write in the workspace as it happens",
		Long: `Watch the workspace tree and evaluate a write event for each file that
changes, once it has been quiet for the debounce interval. Decisions are
printed as one JSON object per line and recorded in the audit trail.

Hidden files and the .parity directory are ignored. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, debounce)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "quiet period before a changed file is evaluated (default from config)")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *rootOptions, debounce time.Duration) error {
	if debounce < 0 {
		return cmdutil.Usagef("--debounce must not be negative, got %s", debounce)
	}
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.close()

	if !cmd.Flags().Changed("debounce") {
		debounce = a.env.Config.Watch.Debounce.Duration()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = a.ws.Attach(ctx)

	if err := addTree(fsw, a.ws.Root); err != nil {
		return fmt.Errorf("watch %s: %w", a.ws.Root, err)
	}
	a.ws.Log.Info(ctx, "watching workspace", zap.Duration("debounce", debounce))

	w := newDebouncer(a, debounce, cmd.OutOrStdout())
	tick := debounce / 2
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.flush(ctx, time.Time{})
			a.ws.Log.Info(ctx, "watch stopped")
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && isDir(ev.Name) && !skipped(a.ws.Rel(ev.Name)) {
				if err := addTree(fsw, ev.Name); err != nil {
					a.ws.Log.Warn(ctx, "cannot watch new directory", zap.String("path", ev.Name), zap.Error(err))
				}
				continue
			}
			w.observe(ev, a.now())
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			a.ws.Log.Warn(ctx, "watcher error", zap.Error(err))
		case <-ticker.C:
			w.flush(ctx, a.now())
		}
	}
}

// debouncer collects changed paths and evaluates each once it settles.
// It is driven from a single goroutine.
type debouncer struct {
	app      *app
	debounce time.Duration
	pending  map[string]time.Time
	out      io.Writer
}

func newDebouncer(a *app, debounce time.Duration, out io.Writer) *debouncer {
	return &debouncer{app: a, debounce: debounce, pending: map[string]time.Time{}, out: out}
}

// observe records a filesystem event. It reports whether the path is now
// pending.
func (d *debouncer) observe(ev fsnotify.Event, now time.Time) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	rel := d.app.ws.Rel(ev.Name)
	if skipped(rel) {
		return false
	}
	d.pending[rel] = now
	return true
}

// flush evaluates every pending path quiet since before now minus the
// debounce interval. A zero now flushes everything.
func (d *debouncer) flush(ctx context.Context, now time.Time) []gate.Decision {
	var ready []string
	for rel, seen := range d.pending {
		if now.IsZero() || now.Sub(seen) >= d.debounce {
			ready = append(ready, rel)
		}
	}
	sort.Strings(ready)

	var out []gate.Decision
	for _, rel := range ready {
		delete(d.pending, rel)
		if !workspace.RegularFile(d.app.ws.Abs(rel)) {
			continue
		}
		dec := d.app.evaluate(ctx, gate.Event{Type: gate.EventWrite, TargetPath: rel})
		out = append(out, dec)
		line, err := json.Marshal(dec)
		if err != nil {
			d.app.ws.Log.Error(ctx, "encode decision", zap.String("target", rel), zap.Error(err))
			continue
		}
		fmt.Fprintln(d.out, string(line))
	}
	return out
}

// skipped reports whether a root-relative path is outside the watched set.
func skipped(rel string) bool {
	if rel == "." {
		return false
	}
	if workspace.Outside(rel) {
		return true
	}
	for _, seg := range strings.Split(path.Clean(rel), "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// addTree watches dir and every directory below it that is not skipped.
func addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !de.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(de.Name(), ".") {
			return filepath.SkipDir
		}
		return fsw.Add(p)
	})
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
