//go:build !unix

package preflight

import "os"

// checkAccess probes writability by creating and removing a temporary file.
func checkAccess(path string) error {
	probe, err := os.CreateTemp(path, ".autosplit-probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}
