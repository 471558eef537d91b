// Package config provides configuration types and loading for webfunc.
//
// Configuration is read from a YAML file (JSON documents are accepted as
// well) with ${VAR} and ${VAR:-default} environment substitution, merged
// over Default, and validated with struct tags plus cross-field checks.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("webconfig.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # File Watching
//
//	watcher, err := config.NewWatcher(path, func(r config.Reload) error {
//	    if !r.Change.Pipeline {
//	        return nil
//	    }
//	    return swapPipeline(r.Current)
//	}, config.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = watcher.Start(ctx)
package config
