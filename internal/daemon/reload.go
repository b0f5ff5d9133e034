package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/edgedock/internal/config"
)

// Reload re-reads the configuration and applies it to dockers and drags
// started from now on. On error the running configuration is kept.
// Interval and hotkey changes take effect on the next daemon start.
func (d *Daemon) Reload() error {
	res, err := config.LoadFromPath(d.configPath)
	if err != nil {
		d.logger.Warn("config reload failed, keeping current config", "error", err)
		return err
	}
	dockOpts, err := dockOptions(res.Config, d.logger)
	if err != nil {
		d.logger.Warn("config reload failed, keeping current config", "error", err)
		return err
	}

	d.mu.Lock()
	d.cfg = res.Config
	d.files = res.Files
	d.mu.Unlock()

	d.manager.SetOptions(dockOpts)
	d.dragger.SetConfig(dragConfig(res.Config, d.logger))
	if d.opts.Level != nil {
		d.opts.Level.Set(res.Config.SlogLevel())
	}
	d.logger.Info("config reloaded", "path", d.configPath, "files", len(res.Files))
	return nil
}

func (d *Daemon) watchedFiles() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string{d.configPath}, d.files...)
}

// watch reloads on SIGHUP and, unless disabled, when a config file changes.
// It returns when ctx is cancelled.
func (d *Daemon) watch(ctx context.Context) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var (
		w         *config.Watcher
		changes   <-chan config.Change
		watchErrs <-chan error
	)
	if !d.opts.DisableWatch {
		var err error
		w, err = config.NewWatcher(config.DefaultWatcherConfig())
		if err != nil {
			d.logger.Warn("config watcher unavailable", "error", err)
			w = nil
		} else {
			defer w.Close()
			if err := w.Watch(d.watchedFiles()...); err != nil {
				d.logger.Warn("failed to watch config files", "error", err)
			}
			changes = w.Changes()
			watchErrs = w.Errors()
		}
	}

	reload := func() {
		if d.Reload() != nil || w == nil {
			return
		}
		// Includes may have changed.
		if err := w.Watch(d.watchedFiles()...); err != nil {
			d.logger.Warn("failed to watch config files", "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			d.logger.Info("SIGHUP received, reloading config")
			reload()
		case ch, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			d.logger.Info("config file changed, reloading", "path", ch.Path, "change", ch.Type)
			reload()
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			d.logger.Warn("config watcher error", "error", err)
		}
	}
}
