package accel

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mklimuk/iio"
)

// Kind tags readings produced by the buffered driver.
const Kind = iio.Kind("buffer-accel")

const (
	busName    = "iio"
	sensorName = "accel_3d"

	chanX = "in_accel_x"
	chanY = "in_accel_y"
	chanZ = "in_accel_z"
)

var ErrNoTrigger = errors.New("no matching trigger")
var ErrNegotiation = errors.New("buffer negotiation failed")

var _ iio.Driver = &Buffered{}

// Buffered reads accel_3d scan records from the kernel's buffered sensor
// interface. The device stream is drained on every readiness notification
// from the host loop, complete records are reassembled from whatever chunk
// sizes the kernel hands out, and converted readings are delivered through
// the callback installed at Open.
//
// A Buffered value owns at most one session at a time and none of its
// methods may be called concurrently.
type Buffered struct {
	registry iio.RegistryFactory
	sessions iio.SessionFactory
	streams  iio.StreamOpener
	loop     iio.Loop

	sess *session
}

// session holds everything a successful Open acquired, including the
// reassembly state that has to survive between readiness notifications.
type session struct {
	dev    iio.Device
	buffer iio.BufferSession
	stream iio.Stream
	cb     iio.ReadingsFunc
	fault  iio.FaultFunc
	watch  int // loop watch id, 0 when not polling

	record []byte // in-progress scan record
	fill   int    // bytes accumulated toward record
}

func NewBuffered(registry iio.RegistryFactory, sessions iio.SessionFactory, streams iio.StreamOpener, loop iio.Loop) *Buffered {
	return &Buffered{
		registry: registry,
		sessions: sessions,
		streams:  streams,
		loop:     loop,
	}
}

func (d *Buffered) Name() string {
	return "IIO buffered accelerometer"
}

// Discover reports whether the device is an accel_3d sensor on the iio bus.
func (d *Buffered) Discover(dev iio.Device) bool {
	if dev == nil {
		return false
	}
	if dev.Subsystem() != busName {
		return false
	}
	if dev.Attr("name") != sensorName {
		return false
	}
	slog.Debug("found accel_3d", "path", dev.SysfsPath())
	return true
}

// Open resolves the device trigger, negotiates a buffer session and opens
// the device stream. On any failure everything acquired so far is released
// and no session exists afterwards.
func (d *Buffered) Open(dev iio.Device, cb iio.ReadingsFunc, fault iio.FaultFunc) error {
	trigger, err := d.triggerName(dev)
	if err != nil {
		return err
	}
	buffer, err := d.sessions(dev, trigger)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNegotiation, err)
	}
	if buffer.ScanSize() <= 0 {
		_ = buffer.Close()
		return fmt.Errorf("%w: scan size %d", ErrNegotiation, buffer.ScanSize())
	}
	stream, err := d.streams(dev.DevNode())
	if err != nil {
		_ = buffer.Close()
		return fmt.Errorf("could not open stream %s: %w", dev.DevNode(), err)
	}
	d.sess = &session{
		dev:    dev,
		buffer: buffer,
		stream: stream,
		cb:     cb,
		fault:  fault,
		record: make([]byte, buffer.ScanSize()),
	}
	return nil
}

// SetPolling idempotently attaches or detaches the scan reader on the host
// loop. Registration failures are logged, never returned; they surface as
// the absence of readings.
func (d *Buffered) SetPolling(enabled bool) {
	s := d.sess
	if s == nil {
		return
	}
	if enabled == (s.watch != 0) {
		return
	}
	if s.watch != 0 {
		d.loop.RemoveReader(s.watch)
		s.watch = 0
	}
	if enabled {
		id, err := d.loop.AddReader(s.stream.Fd(), func() { d.readScan(s) })
		if err != nil {
			slog.Warn("could not register readiness watch", "device", s.dev.SysfsPath(), "error", err)
			return
		}
		s.watch = id
	}
}

// Close stops polling, then releases the buffer session, the stream and the
// device reference, in that order. Must be balanced with a successful Open.
func (d *Buffered) Close() {
	s := d.sess
	if s == nil {
		return
	}
	d.SetPolling(false)
	if err := s.buffer.Close(); err != nil {
		slog.Warn("could not release buffer session", "device", s.dev.SysfsPath(), "error", err)
	}
	if err := s.stream.Close(); err != nil {
		slog.Warn("could not close stream", "device", s.dev.SysfsPath(), "error", err)
	}
	d.sess = nil
}

// readScan runs once per readiness notification. It drains the stream until
// it would block, completing at most one in-progress record per read. When a
// burst delivers several complete records in one wakeup only the freshest is
// decoded and delivered; the host asked for the current attitude, not a
// backlog.
func (d *Buffered) readScan(s *session) {
	var latest []byte
	for {
		n, err := s.stream.Read(s.record[s.fill:])
		if err != nil {
			if errors.Is(err, iio.ErrWouldBlock) {
				break
			}
			// anything else means the stream is gone or corrupt;
			// stop polling instead of spinning on a dead fd
			d.SetPolling(false)
			slog.Error("scan read failed", "device", s.dev.SysfsPath(), "error", err)
			if s.fault != nil {
				s.fault(Kind, fmt.Errorf("scan read failed: %w", err))
			}
			return
		}
		if n == 0 {
			break
		}
		s.fill += n
		if s.fill < len(s.record) {
			continue
		}
		latest = s.record
		s.record = make([]byte, s.buffer.ScanSize())
		s.fill = 0
	}
	if latest == nil {
		return
	}
	r, err := s.decode(latest)
	if err != nil {
		slog.Warn("scan decode failed", "device", s.dev.SysfsPath(), "error", err)
		if s.fault != nil {
			s.fault(Kind, err)
		}
		return
	}
	s.cb(Kind, r)
}

// decode converts one complete record into a physical-unit reading. The x
// and y axes are inverted to keep the axis convention of the legacy polled
// accelerometer driver.
func (s *session) decode(record []byte) (iio.Reading, error) {
	x, scale, err := s.buffer.Decode(record, chanX)
	if err != nil {
		return iio.Reading{}, fmt.Errorf("channel %s: %w", chanX, err)
	}
	y, _, err := s.buffer.Decode(record, chanY)
	if err != nil {
		return iio.Reading{}, fmt.Errorf("channel %s: %w", chanY, err)
	}
	z, _, err := s.buffer.Decode(record, chanZ)
	if err != nil {
		return iio.Reading{}, fmt.Errorf("channel %s: %w", chanZ, err)
	}
	slog.Debug("read from IIO", "x", x, "y", y, "z", z)
	return iio.Reading{
		X: float64(-x) * scale,
		Y: float64(-y) * scale,
		Z: float64(z) * scale,
	}, nil
}
