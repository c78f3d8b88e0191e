package extract

import (
	"os"
	"path/filepath"
	"strings"

	"autosplit/internal/nrg"
)

// Kind is the input category that selects the first strategy.
type Kind int

const (
	KindUnknown Kind = iota
	KindSheet
	KindContainer
	KindImage
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindSheet:
		return "sheet"
	case KindContainer:
		return "container"
	case KindImage:
		return "image"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

var audioExtensions = map[string]bool{
	".flac": true,
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".ape":  true,
	".wv":   true,
	".ogg":  true,
}

// Classify maps path to a Kind by extension. Unfamiliar extensions are
// sniffed for an NER5 footer.
func Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".cue":
		return KindSheet
	case ext == ".nrg":
		return KindContainer
	case ext == ".iso" || ext == ".img":
		return KindImage
	case audioExtensions[ext]:
		return KindAudio
	}
	if sniffContainer(path) {
		return KindContainer
	}
	return KindUnknown
}

func sniffContainer(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return nrg.IsContainer(f, info.Size())
}
