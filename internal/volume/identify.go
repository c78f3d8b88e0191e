package volume

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
)

// DiscType classifies mounted volume contents.
type DiscType int

const (
	Unknown DiscType = iota
	Data
	AudioCD
	SACD
)

func (t DiscType) String() string {
	switch t {
	case SACD:
		return "sacd"
	case AudioCD:
		return "audio_cd"
	case Data:
		return "data"
	default:
		return "unknown"
	}
}

// Root entry names that mark a high-density audio layout.
var sacdRootNames = []string{"2ch", "stereo", "master"}

var errStopWalk = errors.New("stop walk")

// Identify classifies the volume rooted at fsys. A root that cannot be listed
// yields Unknown.
func Identify(fsys fs.FS) DiscType {
	if fsys == nil {
		return Unknown
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return Unknown
	}
	for _, entry := range entries {
		if slices.Contains(sacdRootNames, strings.ToLower(entry.Name())) {
			return SACD
		}
	}
	for _, entry := range entries {
		if isTrackDescriptor(entry) {
			return AudioCD
		}
	}

	found := false
	_ = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped; the root already listed fine.
			if d != nil && d.IsDir() && p != "." {
				return fs.SkipDir
			}
			return nil
		}
		name := strings.ToLower(d.Name())
		if d.IsDir() {
			if name == "2ch" {
				found = true
				return errStopWalk
			}
			return nil
		}
		if ext := path.Ext(name); ext == ".dsf" || ext == ".dff" {
			found = true
			return errStopWalk
		}
		return nil
	})
	if found {
		return SACD
	}
	return Data
}

// IdentifyPath classifies a volume mounted at root on the host filesystem.
func IdentifyPath(root string) DiscType {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return Unknown
	}
	return Identify(os.DirFS(root))
}

// TrackFiles lists the root track descriptor files sorted by name.
func TrackFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if isTrackDescriptor(entry) {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func isTrackDescriptor(entry fs.DirEntry) bool {
	return !entry.IsDir() && strings.EqualFold(path.Ext(entry.Name()), ".cda")
}
