package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"scribe/internal/config"
	"scribe/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func directoryChecks(cfg *config.Config) []Result {
	return []Result{
		CheckDirectoryAccess("Staging directory", cfg.Paths.TempDir),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Transcripts directory", cfg.Paths.TranscriptsDir),
	}
}

func binaryChecks(cfg *config.Config) []Result {
	statuses := CheckBinaries(SystemRequirements(cfg))
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		detail := status.Detail
		if status.Available {
			detail = status.Command
		}
		results = append(results, Result{
			Name:   status.Name,
			Passed: status.Available || status.Optional,
			Detail: detail,
		})
	}
	return results
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return append(directoryChecks(cfg), binaryChecks(cfg)...)
}

// Verify runs all checks and returns an error naming the first failure.
// The pipeline calls this before touching the network.
func Verify(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "", "configuration is nil", nil)
	}
	for _, result := range directoryChecks(cfg) {
		if !result.Passed {
			return services.Wrap(services.ErrConfiguration, "preflight", result.Name, result.Detail, nil)
		}
	}
	for _, result := range binaryChecks(cfg) {
		if !result.Passed {
			return services.Wrap(services.ErrExternalTool, "preflight", result.Name, result.Detail, nil)
		}
	}
	return nil
}
