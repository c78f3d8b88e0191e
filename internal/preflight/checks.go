package preflight

import (
	"fmt"
	"os"

	"autosplit/internal/config"
	"autosplit/internal/deps"
	"autosplit/internal/volume"
)

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
	if err := checkAccess(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps resolves the external programs the configuration needs.
// Tools given as paths must exist; bare names are searched like ResolveTool.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Tool:        cfg.Tools.FFmpeg,
			Fallback:    "ffmpeg",
			Description: "Required for encoding, cutting and silence detection",
		},
		{
			Name:        "FFprobe",
			Tool:        cfg.Tools.FFprobe,
			Fallback:    "ffprobe",
			Description: "Verifies written tracks",
			Optional:    !cfg.Extraction.VerifyOutputs,
		},
		{
			Name:        "sacd_extract",
			Tool:        cfg.Tools.SACDExtract,
			Fallback:    "sacd_extract",
			Description: "Legacy extraction of high-density disc images",
			Optional:    true,
		},
	}
	switch volume.EffectiveBackend(cfg.Mount.Backend) {
	case volume.BackendUdisks:
		requirements = append(requirements, deps.Requirement{
			Name:        "udisksctl",
			Fallback:    "udisksctl",
			Description: "Mounts disc images without root",
			Optional:    true,
		})
	case volume.BackendPowerShell:
		requirements = append(requirements, deps.Requirement{
			Name:        "PowerShell",
			Fallback:    "powershell",
			Description: "Mounts disc images through Mount-DiskImage",
			Optional:    true,
		})
	}
	return deps.CheckBinaries(requirements)
}
