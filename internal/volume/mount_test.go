package volume

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autosplit/internal/services"
)

type scriptedExecutor struct {
	replies map[string]reply
	calls   []services.Command
}

type reply struct {
	stdout string
	err    error
}

func (s *scriptedExecutor) Run(_ context.Context, cmd services.Command) (services.Output, error) {
	s.calls = append(s.calls, cmd)
	key := cmd.Binary
	if len(cmd.Args) > 0 {
		key += " " + cmd.Args[0]
	}
	if cmd.Binary == "powershell" {
		script := cmd.Args[len(cmd.Args)-1]
		key = "powershell " + strings.Fields(script)[0]
	}
	r := s.replies[key]
	return services.Output{Stdout: []byte(r.stdout)}, r.err
}

func (s *scriptedExecutor) Start(context.Context, services.Command) (services.Process, error) {
	return nil, errors.New("not supported")
}

func (s *scriptedExecutor) commands() []string {
	var out []string
	for _, c := range s.calls {
		out = append(out, c.Binary+" "+c.Args[0])
	}
	return out
}

func TestNewMounterBackends(t *testing.T) {
	for backend, want := range map[string]any{
		BackendUdisks:     &udisksMounter{},
		BackendPowerShell: &powerShellMounter{},
		BackendDiskfs:     &diskfsMounter{},
		BackendNone:       noneMounter{},
	} {
		m, err := NewMounter(Options{Backend: backend})
		require.NoError(t, err, backend)
		assert.IsType(t, want, m, backend)
	}

	_, err := NewMounter(Options{Backend: "fuse"})
	assert.ErrorIs(t, err, services.ErrConfiguration)

	assert.Equal(t, BackendPowerShell, autoBackend("windows"))
	assert.Equal(t, BackendUdisks, autoBackend("linux"))
}

func TestNoneMounterAlwaysFails(t *testing.T) {
	m, err := NewMounter(Options{Backend: BackendNone})
	require.NoError(t, err)
	_, err = m.Mount(context.Background(), "disc.iso")
	assert.ErrorIs(t, err, services.ErrMount)
	m.Unmount(context.Background(), "disc.iso")
}

func TestUdisksMountAndUnmount(t *testing.T) {
	mountPoint := t.TempDir()
	exec := &scriptedExecutor{replies: map[string]reply{
		"udisksctl loop-setup": {stdout: "Mapped file /tmp/disc.iso as /dev/loop7.\n"},
		"udisksctl mount":      {stdout: "Mounted /dev/loop7 at " + mountPoint + ".\n"},
	}}
	m := newUdisksMounter(exec, time.Second, nil)

	vol, err := m.Mount(context.Background(), "disc.iso")
	require.NoError(t, err)
	assert.Equal(t, mountPoint, vol.Root)
	assert.Equal(t, BackendUdisks, vol.Backend)
	assert.True(t, filepath.IsAbs(vol.Image))

	m.Unmount(context.Background(), "disc.iso")
	m.Unmount(context.Background(), "disc.iso")
	assert.Equal(t, []string{
		"udisksctl loop-setup",
		"udisksctl mount",
		"udisksctl unmount",
		"udisksctl loop-delete",
	}, exec.commands())
}

func TestUdisksFallsBackToMountTable(t *testing.T) {
	mounts := filepath.Join(t.TempDir(), "mounts")
	require.NoError(t, os.WriteFile(mounts, []byte(
		"/dev/sda1 / ext4 rw 0 0\n/dev/loop3 /media/user/MY\\040DISC iso9660 ro 0 0\n"), 0o644))
	prev := mountsPath
	mountsPath = mounts
	t.Cleanup(func() { mountsPath = prev })

	exec := &scriptedExecutor{replies: map[string]reply{
		"udisksctl loop-setup": {stdout: "Mapped file disc.iso as /dev/loop3."},
		"udisksctl mount":      {err: errors.New("already mounted")},
	}}
	vol, err := newUdisksMounter(exec, 0, nil).Mount(context.Background(), "disc.iso")
	require.NoError(t, err)
	assert.Equal(t, "/media/user/MY DISC", vol.Root)
}

func TestUdisksMountFailureReleasesLoop(t *testing.T) {
	prev := mountsPath
	mountsPath = filepath.Join(t.TempDir(), "absent")
	t.Cleanup(func() { mountsPath = prev })

	exec := &scriptedExecutor{replies: map[string]reply{
		"udisksctl loop-setup": {stdout: "Mapped file disc.iso as /dev/loop9."},
		"udisksctl mount":      {err: errors.New("wrong fs type")},
	}}
	_, err := newUdisksMounter(exec, 0, nil).Mount(context.Background(), "disc.iso")
	assert.ErrorIs(t, err, services.ErrMount)
	assert.Equal(t, []string{"udisksctl loop-setup", "udisksctl mount", "udisksctl loop-delete"}, exec.commands())
}

func TestUdisksLoopSetupFailure(t *testing.T) {
	exec := &scriptedExecutor{replies: map[string]reply{
		"udisksctl loop-setup": {err: errors.New("not authorized")},
	}}
	_, err := newUdisksMounter(exec, 0, nil).Mount(context.Background(), "disc.iso")
	assert.ErrorIs(t, err, services.ErrMount)
}

func TestPowerShellMount(t *testing.T) {
	exec := &scriptedExecutor{replies: map[string]reply{
		"powershell Mount-DiskImage": {stdout: "\r\nE\r\n"},
	}}
	m := newPowerShellMounter(exec, 0, nil)
	vol, err := m.Mount(context.Background(), "Best [Disc 1].iso")
	require.NoError(t, err)
	assert.Equal(t, `E:\`, vol.Root)

	script := exec.calls[0].Args[len(exec.calls[0].Args)-1]
	assert.Contains(t, script, "-LiteralPath '")
	assert.Contains(t, script, "Best [Disc 1].iso'")

	m.Unmount(context.Background(), "Best [Disc 1].iso")
	m.Unmount(context.Background(), "Best [Disc 1].iso")
	require.Len(t, exec.calls, 2)
	assert.Contains(t, exec.calls[1].Args[len(exec.calls[1].Args)-1], "Dismount-DiskImage")
}

func TestPowerShellMountWithoutDriveLetter(t *testing.T) {
	exec := &scriptedExecutor{replies: map[string]reply{
		"powershell Mount-DiskImage": {stdout: "\r\n"},
	}}
	_, err := newPowerShellMounter(exec, 0, nil).Mount(context.Background(), "disc.iso")
	assert.ErrorIs(t, err, services.ErrMount)
}

func TestPSQuote(t *testing.T) {
	assert.Equal(t, `'C:\it''s.iso'`, psQuote(`C:\it's.iso`))
}

func TestDiskfsMountRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.iso")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("not a filesystem"), 256), 0o644))
	m := newDiskfsMounter(nil)
	_, err := m.Mount(context.Background(), path)
	assert.ErrorIs(t, err, services.ErrMount)
	m.Unmount(context.Background(), path)

	_, err = m.Mount(context.Background(), filepath.Join(t.TempDir(), "missing.iso"))
	assert.ErrorIs(t, err, services.ErrMount)
}

// fakeImage is an in-memory imageSource keyed by absolute image paths.
type fakeImage struct {
	files map[string][]byte
	dirs  map[string]bool
}

func newFakeImage(files map[string]string) *fakeImage {
	img := &fakeImage{files: map[string][]byte{}, dirs: map[string]bool{"/": true}}
	for name, content := range files {
		p := "/" + name
		img.files[p] = []byte(content)
		for dir := path.Dir(p); dir != "/"; dir = path.Dir(dir) {
			img.dirs[dir] = true
		}
	}
	return img
}

func (f *fakeImage) ReadDir(pathname string) ([]os.FileInfo, error) {
	if !f.dirs[pathname] {
		return nil, fs.ErrNotExist
	}
	var infos []os.FileInfo
	for dir := range f.dirs {
		if dir != "/" && path.Dir(dir) == pathname {
			infos = append(infos, fakeInfo{name: path.Base(dir), dir: true})
		}
	}
	for file, data := range f.files {
		if path.Dir(file) == pathname {
			infos = append(infos, fakeInfo{name: path.Base(file), size: int64(len(data))})
		}
	}
	return infos, nil
}

func (f *fakeImage) Open(pathname string) (io.ReadSeekCloser, error) {
	data, ok := f.files[pathname]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return readSeekNopCloser{bytes.NewReader(data)}, nil
}

type readSeekNopCloser struct{ *bytes.Reader }

func (readSeekNopCloser) Close() error { return nil }

type fakeInfo struct {
	name string
	size int64
	dir  bool
}

func (i fakeInfo) Name() string { return i.name }
func (i fakeInfo) Size() int64  { return i.size }
func (i fakeInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}
func (i fakeInfo) ModTime() time.Time { return time.Time{} }
func (i fakeInfo) IsDir() bool        { return i.dir }
func (i fakeInfo) Sys() any           { return nil }

func TestImageFSConformance(t *testing.T) {
	fsys := newImageFS(newFakeImage(map[string]string{
		"TRACK01.CDA":        "RIFF01",
		"TRACK02.CDA":        "RIFF02",
		"DOCS/README.TXT":    "hello",
		"DOCS/SUB/NOTES.TXT": "nested",
	}))
	require.NoError(t, fstest.TestFS(fsys, "TRACK01.CDA", "TRACK02.CDA", "DOCS/README.TXT", "DOCS/SUB/NOTES.TXT"))
	assert.Equal(t, AudioCD, Identify(fsys))
}

func TestMaterializeCopiesFromInProcessVolume(t *testing.T) {
	vol := &Volume{
		Image:   "disc.iso",
		FS:      newImageFS(newFakeImage(map[string]string{"TRACK01.CDA": "RIFF01"})),
		Backend: BackendDiskfs,
	}
	dir := filepath.Join(t.TempDir(), "scratch")
	path, err := vol.Materialize("TRACK01.CDA", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "TRACK01.CDA"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF01", string(data))

	_, err = vol.Materialize("MISSING.CDA", dir)
	assert.Error(t, err)
}

func TestMaterializeHostVolumeReturnsPathInPlace(t *testing.T) {
	root := t.TempDir()
	vol := &Volume{Root: root, FS: os.DirFS(root)}
	path, err := vol.Materialize("Track01.cda", filepath.Join(root, "unused"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Track01.cda"), path)
	_, statErr := os.Stat(filepath.Join(root, "unused"))
	assert.True(t, errors.Is(statErr, fs.ErrNotExist))
}
