package preflight

import (
	"context"
	"fmt"

	"embyscan/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	for i, root := range cfg.Watcher.Roots {
		results = append(results, CheckDirectoryAccess(fmt.Sprintf("Root %d", i+1), root, false))
	}
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir, true))
	results = append(results, CheckEmby(ctx, cfg.Emby.URL, cfg.Emby.APIKey))

	return results
}
