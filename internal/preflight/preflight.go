package preflight

import "autosplit/internal/config"

// Result is the outcome of one check. Detail is printable either way.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks every directory a batch writing into outputDir touches:
// the output itself, temp_dir when configured and the state directory
// holding the journal.
func RunAll(cfg *config.Config, outputDir string) []Result {
	if cfg == nil {
		return nil
	}
	dirs := [][2]string{{"Output directory", outputDir}}
	if cfg.Paths.TempDir != "" {
		dirs = append(dirs, [2]string{"Temp directory", cfg.Paths.TempDir})
	}
	dirs = append(dirs, [2]string{"State directory", cfg.Paths.StateDir})

	results := make([]Result, len(dirs))
	for i, d := range dirs {
		results[i] = CheckDirectoryAccess(d[0], d[1])
	}
	return results
}

// Failed filters results down to those that did not pass.
func Failed(results []Result) (failed []Result) {
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
