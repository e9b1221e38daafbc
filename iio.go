package iio

import (
	"errors"
	"io"
)

// ErrWouldBlock is returned by a Stream read when the device has no more
// data buffered right now. It is the expected terminal condition of a
// drain loop, not a failure.
var ErrWouldBlock = errors.New("stream would block")

// Device is a read-only descriptor of a kernel-exposed device node.
type Device interface {
	// Subsystem returns the bus the device sits on, e.g. "iio".
	Subsystem() string
	// Attr returns the named sysfs attribute, or an empty string when the
	// device does not carry it.
	Attr(name string) string
	// Number returns the numeric index from the device name, -1 when the
	// name carries none.
	Number() int
	// SysfsPath returns the device directory under /sys.
	SysfsPath() string
	// DevNode returns the character-device node under /dev, or an empty
	// string when the device has none.
	DevNode() string
}

// Registry enumerates devices on a bus. A client is acquired per query and
// must be closed by the caller once the result is no longer needed.
type Registry interface {
	Devices(subsystem string) ([]Device, error)
	Close() error
}

// RegistryFactory opens a fresh registry client.
type RegistryFactory func() (Registry, error)

// BufferSession is the negotiated scan layout for a device+trigger pair.
// The core only consumes the record size and the channel decode operation;
// how the layout was negotiated is the session's business.
type BufferSession interface {
	// ScanSize returns the fixed number of bytes in one complete scan record.
	ScanSize() int
	// Decode extracts the named channel's raw value and scale from a
	// complete record.
	Decode(record []byte, channel string) (raw int64, scale float64, err error)
	Close() error
}

// SessionFactory negotiates a buffer session for a device and trigger name.
type SessionFactory func(dev Device, trigger string) (BufferSession, error)

// Stream is a nonblocking byte stream over a device node. Read returns
// ErrWouldBlock when no data is buffered.
type Stream interface {
	io.ReadCloser
	Fd() int
}

// StreamOpener opens the byte stream behind a device node path.
type StreamOpener func(path string) (Stream, error)

// Loop is the host event loop surface a driver registers with. AddReader
// watches fd for read readiness and returns a watch id (> 0); RemoveReader
// drops a watch and is a no-op for unknown ids.
type Loop interface {
	AddReader(fd int, fn func()) (int, error)
	RemoveReader(id int)
}
