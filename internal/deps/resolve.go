package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"autosplit/internal/services"
)

// executableDir locates the directory holding the running binary.
var executableDir = func() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// ResolveTool turns a configured tool value into an executable path.
//
// A value containing a path separator must point at an executable file. A bare
// name (or the fallback name when nothing is configured) is looked up in the
// bin/ directory next to the autosplit executable and then on PATH.
func ResolveTool(configured, fallback string) (string, error) {
	value := strings.TrimSpace(configured)
	if value == "" {
		value = strings.TrimSpace(fallback)
	}
	if value == "" {
		return "", services.Wrap(services.ErrConfiguration, "deps", "resolve tool", "no tool name configured", nil)
	}

	if strings.ContainsAny(value, `/\`) {
		info, err := os.Stat(value)
		if err != nil {
			return "", services.Wrap(services.ErrExternalTool, "deps", "resolve tool", fmt.Sprintf("%s not found", value), err)
		}
		if !isExecutable(info) {
			return "", services.Wrap(services.ErrExternalTool, "deps", "resolve tool", value+" is not executable", nil)
		}
		return value, nil
	}

	if dir, err := executableDir(); err == nil {
		candidate := filepath.Join(dir, "bin", executableName(value))
		if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
			return candidate, nil
		}
	}
	resolved, err := exec.LookPath(value)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "deps", "resolve tool", fmt.Sprintf("binary %q not found", value), err)
	}
	return resolved, nil
}

func executableName(name string) string {
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
