package accel

import (
	"fmt"

	"github.com/mklimuk/iio"
)

// Mock collaborators for exercising the buffered driver without hardware.
// They implement the module-root contracts and keep simple counters so
// tests can assert on acquisition/release balance.

// MockDevice is a static iio.Device descriptor.
type MockDevice struct {
	Bus   string
	Attrs map[string]string
	Num   int
	Path  string
	Node  string
}

func (m *MockDevice) Subsystem() string { return m.Bus }
func (m *MockDevice) Attr(name string) string {
	if m.Attrs == nil {
		return ""
	}
	return m.Attrs[name]
}
func (m *MockDevice) Number() int       { return m.Num }
func (m *MockDevice) SysfsPath() string { return m.Path }
func (m *MockDevice) DevNode() string   { return m.Node }

// NewMockAccel returns a device descriptor the buffered driver discovers.
func NewMockAccel(num int) *MockDevice {
	return &MockDevice{
		Bus:   "iio",
		Attrs: map[string]string{"name": "accel_3d"},
		Num:   num,
		Path:  fmt.Sprintf("/sys/bus/iio/devices/iio:device%d", num),
		Node:  fmt.Sprintf("/dev/iio:device%d", num),
	}
}

// MockRegistry serves a fixed device list and counts client acquisitions
// and releases.
type MockRegistry struct {
	Devs    []iio.Device
	ListErr error
	OpenErr error
	Opened  int
	Closed  int
	Listed  int
}

// Factory returns a registry factory handing out this instance as the
// client for every query.
func (m *MockRegistry) Factory() iio.RegistryFactory {
	return func() (iio.Registry, error) {
		if m.OpenErr != nil {
			return nil, m.OpenErr
		}
		m.Opened++
		return m, nil
	}
}

func (m *MockRegistry) Devices(subsystem string) ([]iio.Device, error) {
	m.Listed++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Devs, nil
}

func (m *MockRegistry) Close() error {
	m.Closed++
	return nil
}

// MockSession is a fixed-layout buffer session decoding from a channel map.
type MockSession struct {
	Size     int
	Channels map[string]int64
	Scale    float64
	Trigger  string
	Closed   int
	Err      error
}

// Factory returns a session factory recording the negotiated trigger name.
func (m *MockSession) Factory() iio.SessionFactory {
	return func(dev iio.Device, trigger string) (iio.BufferSession, error) {
		if m.Err != nil {
			return nil, m.Err
		}
		m.Trigger = trigger
		return m, nil
	}
}

func (m *MockSession) ScanSize() int { return m.Size }

func (m *MockSession) Decode(record []byte, channel string) (int64, float64, error) {
	raw, ok := m.Channels[channel]
	if !ok {
		return 0, 0, fmt.Errorf("channel %s not present in scan", channel)
	}
	return raw, m.Scale, nil
}

func (m *MockSession) Close() error {
	m.Closed++
	return nil
}

// MockStream replays scripted chunks and then reports would-block. A chunk
// larger than the read buffer is split, the remainder served by the next
// read.
type MockStream struct {
	FD     int
	Chunks [][]byte
	Err    error // returned once instead of would-block after the chunks drain
	Closed int
	Reads  int
}

// Opener returns a stream opener recording the requested path.
func (m *MockStream) Opener() iio.StreamOpener {
	return func(path string) (iio.Stream, error) {
		return m, nil
	}
}

// Push appends chunks to replay on subsequent reads.
func (m *MockStream) Push(chunks ...[]byte) {
	m.Chunks = append(m.Chunks, chunks...)
}

func (m *MockStream) Read(p []byte) (int, error) {
	m.Reads++
	if len(m.Chunks) == 0 {
		if m.Err != nil {
			err := m.Err
			m.Err = nil
			return 0, err
		}
		return 0, iio.ErrWouldBlock
	}
	c := m.Chunks[0]
	n := copy(p, c)
	if n < len(c) {
		m.Chunks[0] = c[n:]
	} else {
		m.Chunks = m.Chunks[1:]
	}
	return n, nil
}

func (m *MockStream) Fd() int { return m.FD }

func (m *MockStream) Close() error {
	m.Closed++
	return nil
}

// MockLoop is an in-process readiness loop; Fire simulates a readable
// notification for every active watch.
type MockLoop struct {
	AddErr  error
	watches map[int]func()
	nextID  int
}

func (m *MockLoop) AddReader(fd int, fn func()) (int, error) {
	if m.AddErr != nil {
		return 0, m.AddErr
	}
	if m.watches == nil {
		m.watches = make(map[int]func())
	}
	m.nextID++
	m.watches[m.nextID] = fn
	return m.nextID, nil
}

func (m *MockLoop) RemoveReader(id int) {
	delete(m.watches, id)
}

// Active returns the number of registered watches.
func (m *MockLoop) Active() int { return len(m.watches) }

// Fire invokes every registered watch callback once.
func (m *MockLoop) Fire() {
	for _, fn := range m.watches {
		fn()
	}
}
