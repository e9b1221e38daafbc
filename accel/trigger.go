package accel

import (
	"fmt"
	"log/slog"

	"github.com/mklimuk/iio"
)

// triggerName finds the hardware trigger associated with the device. The
// expected trigger is named after the device's numeric index; every device
// on the bus is checked for a matching name attribute. The registry client
// and its device list are released on every exit path.
func (d *Buffered) triggerName(dev iio.Device) (string, error) {
	reg, err := d.registry()
	if err != nil {
		return "", fmt.Errorf("could not open device registry: %w", err)
	}
	defer func() { _ = reg.Close() }()

	devices, err := reg.Devices(busName)
	if err != nil {
		return "", fmt.Errorf("could not enumerate %s devices: %w", busName, err)
	}
	want := fmt.Sprintf("%s-dev%d", sensorName, dev.Number())
	for _, cand := range devices {
		if cand.Attr("name") == want {
			slog.Debug("found associated trigger", "path", cand.SysfsPath())
			return want, nil
		}
	}
	slog.Warn("could not find trigger associated with device", "device", dev.SysfsPath(), "trigger", want)
	return "", fmt.Errorf("%w: %s", ErrNoTrigger, want)
}
