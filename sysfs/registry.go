package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mklimuk/iio"
)

const (
	DefaultSysRoot = "/sys"
	DefaultDevRoot = "/dev"
)

// Registry enumerates kernel devices under <sysRoot>/bus/<subsystem>/devices.
type Registry struct {
	sysRoot string
	devRoot string
}

var _ iio.Registry = &Registry{}

// OpenRegistry opens a registry client rooted at sysRoot. devRoot is where
// character-device nodes are derived from.
func OpenRegistry(sysRoot, devRoot string) (*Registry, error) {
	if _, err := os.Stat(sysRoot); err != nil {
		return nil, fmt.Errorf("could not access sysfs root: %w", err)
	}
	return &Registry{sysRoot: sysRoot, devRoot: devRoot}, nil
}

// Factory adapts OpenRegistry to the driver's registry factory contract.
func Factory(sysRoot, devRoot string) iio.RegistryFactory {
	return func() (iio.Registry, error) {
		return OpenRegistry(sysRoot, devRoot)
	}
}

// Devices lists every device on the bus. Devices without readable
// attributes are still listed; their attributes read as empty.
func (r *Registry) Devices(subsystem string) ([]iio.Device, error) {
	dir := filepath.Join(r.sysRoot, "bus", subsystem, "devices")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not enumerate %s devices: %w", subsystem, err)
	}
	devices := make([]iio.Device, 0, len(entries))
	for _, entry := range entries {
		devices = append(devices, &device{
			subsystem: subsystem,
			path:      filepath.Join(dir, entry.Name()),
			devRoot:   r.devRoot,
		})
	}
	return devices, nil
}

func (r *Registry) Close() error {
	return nil
}

type device struct {
	subsystem string
	path      string
	devRoot   string
}

func (d *device) Subsystem() string {
	return d.subsystem
}

func (d *device) Attr(name string) string {
	b, err := os.ReadFile(filepath.Join(d.path, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// Number extracts the trailing numeric index from the device name,
// e.g. 3 for iio:device3, -1 when the name carries none.
func (d *device) Number() int {
	base := filepath.Base(d.path)
	i := len(base)
	for i > 0 && base[i-1] >= '0' && base[i-1] <= '9' {
		i--
	}
	if i == len(base) {
		return -1
	}
	num := 0
	for _, c := range base[i:] {
		num = num*10 + int(c-'0')
	}
	return num
}

func (d *device) SysfsPath() string {
	return d.path
}

// DevNode derives the character-device node for buffered devices; other
// bus entries (triggers among them) have none.
func (d *device) DevNode() string {
	base := filepath.Base(d.path)
	if !strings.HasPrefix(base, "iio:device") {
		return ""
	}
	return filepath.Join(d.devRoot, base)
}
