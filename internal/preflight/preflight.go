package preflight

import (
	"context"
	"fmt"
	"strings"

	"wheelhouse/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks that must pass before a bootstrap
// touches the cache. Checks are only run when the corresponding feature is
// enabled. A cancelled context stops the remaining checks and is reported as
// a failed result.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	checks := []func() Result{
		func() Result { return CheckDirectoryAccess("State directory", cfg.Paths.StateDir) },
	}
	if cfg.Drive.RequireMount {
		checks = append(checks, func() Result { return CheckDriveMount(cfg.Drive.MountPoint) })
	}
	if cfg.CacheEnabled() {
		checks = append(checks, func() Result { return CheckDirectoryAccess("Wheel cache", cfg.Paths.CacheDir) })
	}

	results := make([]Result, 0, len(checks))
	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			return append(results, Result{Name: "Preflight", Detail: fmt.Sprintf("interrupted: %v", err)})
		}
		results = append(results, check())
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summary joins the details of failed results into one line.
func Summary(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range Failed(results) {
		parts = append(parts, r.Name+": "+r.Detail)
	}
	return strings.Join(parts, "; ")
}
