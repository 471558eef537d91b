package main

import (
	"github.com/vyrodovalexey/webfunc/internal/config"
	"github.com/vyrodovalexey/webfunc/internal/observability"
)

// applyReload swaps in a pipeline built from a reloaded configuration.
// Settings that need a restart are only reported. On failure the running
// pipeline stays in place.
func (a *application) applyReload(r config.Reload) error {
	for _, setting := range r.Change.Restart {
		a.logger.Warn("setting changed; restart to apply it",
			observability.String("setting", setting),
		)
	}

	if !r.Change.Pipeline {
		a.metrics.RecordConfigReload(true)
		return nil
	}

	pipeline, err := a.buildPipeline(r.Current)
	if err != nil {
		a.metrics.RecordConfigReload(false)
		a.logger.Error("failed to apply reloaded configuration", observability.Error(err))
		return err
	}

	a.mu.Lock()
	a.config = r.Current
	a.pipeline = pipeline
	a.mu.Unlock()

	if a.server != nil {
		a.server.Swap(pipeline)
	}
	a.metrics.RecordConfigReload(true)

	a.logger.Info("pipeline reloaded",
		observability.String("params_mode", r.Current.ParamsMode),
	)
	return nil
}

// reloadConfig applies cfg as a reload of the configuration in effect.
func (a *application) reloadConfig(cfg *config.Config) error {
	prev := a.currentConfig()
	return a.applyReload(config.Reload{
		Previous: prev,
		Current:  cfg,
		Change:   config.Compare(prev, cfg),
	})
}
