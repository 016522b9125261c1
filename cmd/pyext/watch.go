package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const watchDebounce = 300 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild whenever a declared source changes",
	Long: `Builds once, then watches every declared source and rebuilds on
change. Stops on Ctrl-C. Build flags are the same as for "pyext build".`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().AddFlagSet(buildCmd.Flags())
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	p, err := loadProject(ctx)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	sources := watchedSources(p)
	dirs := make(map[string]struct{})
	for src := range sources {
		dirs[filepath.Dir(src)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	rebuild := func() {
		if err := buildProject(ctx, cmd.OutOrStdout(), p, buildFlagsConfig(cmd, p)); err != nil {
			logger.Warn("build failed", zap.Error(err))
		}
	}

	rebuild()
	logger.Info("watching sources", zap.Int("files", len(sources)))

	return watchLoop(ctx, watcher.Events, watcher.Errors, sources, watchDebounce, rebuild)
}

// watchedSources returns the absolute paths of every declared source.
func watchedSources(p *project) map[string]struct{} {
	sources := make(map[string]struct{})
	for _, ext := range p.Package.Extensions {
		for _, src := range ext.Sources {
			if !filepath.IsAbs(src) {
				src = filepath.Join(p.Dir, src)
			}
			sources[filepath.Clean(src)] = struct{}{}
		}
	}
	return sources
}

// watchLoop calls rebuild once per burst of write/create events on a
// watched source. It returns nil when ctx is done.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, sources map[string]struct{}, debounce time.Duration, rebuild func()) error {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if _, watched := sources[filepath.Clean(ev.Name)]; !watched {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("source changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))

		case <-fire:
			fire = nil
			rebuild()
		}
	}
}
