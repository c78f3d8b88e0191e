package volume

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"

	"autosplit/internal/logging"
	"autosplit/internal/services"
)

// diskfsMounter reads ISO9660 images in-process. It needs no privileges and
// works on every OS, at the cost of copying files out for external tools.
type diskfsMounter struct {
	logger *slog.Logger

	mu    sync.Mutex
	disks map[string]*disk.Disk
}

func newDiskfsMounter(logger *slog.Logger) *diskfsMounter {
	return &diskfsMounter{
		logger: logging.NewComponentLogger(logger, "volume"),
		disks:  make(map[string]*disk.Disk),
	}
}

func (m *diskfsMounter) Mount(_ context.Context, image string) (*Volume, error) {
	image = absImage(image)
	d, err := diskfs.Open(image, diskfs.WithOpenMode(diskfs.ReadOnly))
	if err != nil {
		return nil, services.Wrap(services.ErrMount, "diskfs", "open", "", err)
	}
	fsys, err := d.GetFilesystem(0)
	if err != nil {
		_ = d.Close()
		return nil, services.Wrap(services.ErrMount, "diskfs", "read filesystem", "", err)
	}

	m.mu.Lock()
	if prev, ok := m.disks[image]; ok {
		_ = prev.Close()
	}
	m.disks[image] = d
	m.mu.Unlock()

	m.logger.Info("image opened in-process", logging.Path("image", image))
	return &Volume{Image: image, FS: newImageFS(diskfsSource{fs: fsys}), Backend: BackendDiskfs}, nil
}

func (m *diskfsMounter) Unmount(_ context.Context, image string) {
	image = absImage(image)
	m.mu.Lock()
	d, ok := m.disks[image]
	delete(m.disks, image)
	m.mu.Unlock()
	if !ok {
		return
	}
	if err := d.Close(); err != nil {
		logging.WarnWithContext(m.logger, "failed to close image", "unmount_failed",
			logging.Path("image", image),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "file handle leaks until the process exits"),
			logging.String(logging.FieldImpact, "none for outputs"),
		)
	}
}

// imageSource is the slice of a diskfs filesystem the fs.FS adapter needs.
type imageSource interface {
	ReadDir(pathname string) ([]os.FileInfo, error)
	Open(pathname string) (io.ReadSeekCloser, error)
}

type diskfsSource struct {
	fs filesystem.FileSystem
}

func (s diskfsSource) ReadDir(pathname string) ([]os.FileInfo, error) {
	return s.fs.ReadDir(pathname)
}

func (s diskfsSource) Open(pathname string) (io.ReadSeekCloser, error) {
	return s.fs.OpenFile(pathname, os.O_RDONLY)
}

// imageFS adapts an imageSource to fs.FS and fs.ReadDirFS.
type imageFS struct {
	src imageSource
}

func newImageFS(src imageSource) *imageFS {
	return &imageFS{src: src}
}

func imagePath(name string) string {
	if name == "." {
		return "/"
	}
	return "/" + name
}

func (f *imageFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	infos, err := f.src.ReadDir(imagePath(name))
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	entries := make([]fs.DirEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return entries, nil
}

func (f *imageFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	info, err := f.stat(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	if info.IsDir() {
		entries, err := f.ReadDir(name)
		if err != nil {
			return nil, err
		}
		return &imageDir{info: info, entries: entries}, nil
	}
	rc, err := f.src.Open(imagePath(name))
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &imageFile{ReadSeekCloser: rc, info: info}, nil
}

func (f *imageFS) stat(name string) (fs.FileInfo, error) {
	if name == "." {
		return dirInfo{name: "."}, nil
	}
	parent, base := path.Split(name)
	parent = path.Clean(parent)
	if parent == "" {
		parent = "."
	}
	infos, err := f.src.ReadDir(imagePath(parent))
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Name() == base {
			return info, nil
		}
	}
	return nil, fs.ErrNotExist
}

type imageFile struct {
	io.ReadSeekCloser
	info fs.FileInfo
}

func (f *imageFile) Stat() (fs.FileInfo, error) { return f.info, nil }

type imageDir struct {
	info    fs.FileInfo
	entries []fs.DirEntry
	offset  int
}

func (d *imageDir) Stat() (fs.FileInfo, error) { return d.info, nil }

func (d *imageDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.info.Name(), Err: errors.New("is a directory")}
}

func (d *imageDir) Close() error { return nil }

func (d *imageDir) ReadDir(n int) ([]fs.DirEntry, error) {
	remaining := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return remaining, nil
	}
	if len(remaining) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(remaining))
	d.offset += n
	return remaining[:n], nil
}

type dirInfo struct {
	name string
}

func (i dirInfo) Name() string       { return i.name }
func (i dirInfo) Size() int64        { return 0 }
func (i dirInfo) Mode() fs.FileMode  { return fs.ModeDir | 0o555 }
func (i dirInfo) ModTime() time.Time { return time.Time{} }
func (i dirInfo) IsDir() bool        { return true }
func (i dirInfo) Sys() any           { return nil }
