package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"perpscan/internal/logger"
)

// Watch reloads the config file on change and hands the parsed result to
// apply. Only tunables should be consumed from reloads; credentials and the
// testnet flag are construction-time only. Editor save patterns often emit
// several events in a burst, so reloads are debounced.
func Watch(ctx context.Context, path string, apply func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var pending *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(300*time.Millisecond, func() {
					cfg, err := Load(abs)
					if err != nil {
						logger.Warnf("config reload skipped: %v", err)
						return
					}
					logger.Infof("config reloaded from %s", abs)
					apply(cfg)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("config watcher error: %v", err)
			}
		}
	}()
	return nil
}
