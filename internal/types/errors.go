// Package types holds the on-disk data model shared by every cpfile
// component: checkpoint numbers, entry and header layouts, flag bits,
// and the sentinel errors that stand in for the POSIX-style codes the
// spec names.
package types

import "errors"

// Sentinel errors standing in for the POSIX-style integer codes named
// throughout the design: -EINVAL, -ENOENT, -ENOMEM, -EIO, -EBUSY,
// -EROFS, -EALREADY. Callers compare with errors.Is, never by message.
var (
	ErrInval   = errors.New("cpfile: invalid argument")
	ErrNoEnt   = errors.New("cpfile: no such checkpoint")
	ErrNoMem   = errors.New("cpfile: out of memory")
	ErrIO      = errors.New("cpfile: metadata corruption")
	ErrBusy    = errors.New("cpfile: checkpoint busy")
	ErrROFS    = errors.New("cpfile: read-only filesystem")
	ErrAlready = errors.New("cpfile: already in requested state")
)
