package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/mklimuk/iio"
)

var _ iio.Loop = &Loop{}

// Loop is a minimal epoll readiness loop. Drivers register a callback per
// file descriptor for "readable" events; callbacks run one at a time on the
// goroutine executing Run.
type Loop struct {
	epfd int

	mx     sync.Mutex
	byID   map[int]*watch
	byFD   map[int]*watch
	nextID int
}

type watch struct {
	id int
	fd int
	fn func()
}

func New() (*Loop, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("could not create epoll instance: %w", err)
	}
	return &Loop{
		epfd: epfd,
		byID: make(map[int]*watch),
		byFD: make(map[int]*watch),
	}, nil
}

// AddReader watches fd for read readiness and returns a watch id (> 0).
func (l *Loop) AddReader(fd int, fn func()) (int, error) {
	l.mx.Lock()
	defer l.mx.Unlock()
	if _, ok := l.byFD[fd]; ok {
		return 0, fmt.Errorf("fd %d is already watched", fd)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return 0, fmt.Errorf("could not watch fd %d: %w", fd, err)
	}
	l.nextID++
	w := &watch{id: l.nextID, fd: fd, fn: fn}
	l.byID[w.id] = w
	l.byFD[fd] = w
	return w.id, nil
}

// RemoveReader drops a watch; unknown ids are ignored.
func (l *Loop) RemoveReader(id int) {
	l.mx.Lock()
	defer l.mx.Unlock()
	w, ok := l.byID[id]
	if !ok {
		return
	}
	_ = unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, w.fd, nil)
	delete(l.byID, id)
	delete(l.byFD, w.fd)
}

// Run dispatches readiness callbacks until the context is done.
func (l *Loop) Run(ctx context.Context) error {
	events := make([]unix.EpollEvent, 16)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		// short wait so context cancellation is honored promptly
		n, err := unix.EpollWait(l.epfd, events, 200)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("epoll wait failed: %w", err)
		}
		for i := 0; i < n; i++ {
			l.mx.Lock()
			w := l.byFD[int(events[i].Fd)]
			l.mx.Unlock()
			if w != nil {
				w.fn()
			}
		}
	}
}

func (l *Loop) Close() error {
	return unix.Close(l.epfd)
}
