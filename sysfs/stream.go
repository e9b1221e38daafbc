package sysfs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/mklimuk/iio"
)

// Stream is a nonblocking read handle on a buffered device node.
type Stream struct {
	fd   int
	path string
}

var _ iio.StreamOpener = OpenStream

// OpenStream opens the device node read-only and switches it to
// non-blocking mode. A node that refuses non-blocking mode is still usable;
// the failure is logged and reads fall back to whatever mode the node
// supports.
func OpenStream(path string) (iio.Stream, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		slog.Warn("could not switch stream to non-blocking mode", "path", path, "error", err)
	}
	return &Stream{fd: fd, path: path}, nil
}

// Read returns iio.ErrWouldBlock once the device has no more buffered data.
func (s *Stream) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(s.fd, p)
		switch {
		case err == nil:
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, iio.ErrWouldBlock
		default:
			return 0, fmt.Errorf("read %s: %w", s.path, err)
		}
	}
}

func (s *Stream) Fd() int {
	return s.fd
}

func (s *Stream) Close() error {
	return unix.Close(s.fd)
}
