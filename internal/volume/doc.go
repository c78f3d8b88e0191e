// Package volume mounts disc images and classifies their contents.
//
// A Mounter exposes an image as a Volume: either a path on the host
// (udisks on Linux, Mount-DiskImage on Windows) or an in-process fs.FS backed
// by go-diskfs. Identify inspects a mounted volume and reports whether it
// holds a high-density audio layout, Red Book track descriptors, or plain
// data. Unmount is best-effort and never fails the caller.
package volume
