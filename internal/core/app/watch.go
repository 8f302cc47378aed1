package app

import (
	"context"

	"modcheck/internal/core/ports"
	"modcheck/internal/core/watcher"
)

// Watch analyzes path once, then again after every change to it, until ctx
// is done. Every outcome, including failures, goes to onResult.
func (a *App) Watch(ctx context.Context, path string, onResult func(ports.AnalyzeResult, error)) error {
	runs := make(chan struct{}, 1)
	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, func([]string) {
		select {
		case runs <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Watch([]string{path}); err != nil {
		return err
	}

	onResult(a.Analyze(ctx, path))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-runs:
			onResult(a.Analyze(ctx, path))
		}
	}
}
