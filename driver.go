package iio

import "sync"

// Kind tags the readings a driver produces so a host consuming several
// drivers can tell samples apart.
type Kind string

// Reading is one converted accelerometer sample in m/s².
type Reading struct {
	X float64
	Y float64
	Z float64
}

// ReadingsFunc receives converted samples from a driver.
type ReadingsFunc func(kind Kind, r Reading)

// FaultFunc receives runtime driver faults: terminal read failures and
// per-sample decode errors. A fault does not imply the session was closed.
type FaultFunc func(kind Kind, err error)

// Driver is the pluggable contract a sensor driver exposes to the host
// daemon. A driver value owns at most one open session at a time; Open and
// Close must be balanced. None of the operations may be invoked
// concurrently.
type Driver interface {
	Name() string
	// Discover reports whether the candidate device is handled by this
	// driver. Pure predicate, safe on arbitrary devices.
	Discover(dev Device) bool
	// Open claims the device and installs the callbacks. fault may be nil.
	Open(dev Device, cb ReadingsFunc, fault FaultFunc) error
	// SetPolling idempotently starts or stops delivery of readings.
	SetPolling(enabled bool)
	// Close stops polling and releases everything Open acquired.
	Close()
}

var (
	driversMx sync.Mutex
	drivers   []Driver
)

// Register adds a driver to the host-visible driver table.
func Register(d Driver) {
	driversMx.Lock()
	defer driversMx.Unlock()
	drivers = append(drivers, d)
}

// Drivers returns the registered drivers in registration order.
func Drivers() []Driver {
	driversMx.Lock()
	defer driversMx.Unlock()
	out := make([]Driver, len(drivers))
	copy(out, drivers)
	return out
}

// For returns the first registered driver claiming the device, or nil.
func For(dev Device) Driver {
	for _, d := range Drivers() {
		if d.Discover(dev) {
			return d
		}
	}
	return nil
}
