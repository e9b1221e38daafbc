package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mklimuk/iio"
)

// Session is the negotiated buffer layout for a device+trigger pair: the
// enabled scan elements, their resolved offsets and the resulting record
// size. Creating a session attaches the trigger and switches the kernel
// ring buffer on; Close reverts both.
type Session struct {
	devDir   string
	channels []channel
	scanSize int
}

var _ iio.BufferSession = &Session{}

// Sessions adapts NewSession to the driver's session factory contract.
func Sessions() iio.SessionFactory {
	return func(dev iio.Device, trigger string) (iio.BufferSession, error) {
		return NewSession(dev, trigger)
	}
}

func NewSession(dev iio.Device, trigger string) (*Session, error) {
	s := &Session{devDir: dev.SysfsPath()}
	// scan elements may only change while the buffer is off
	if err := writeAttr(filepath.Join(s.devDir, "buffer", "enable"), "0"); err != nil {
		return nil, fmt.Errorf("could not disable buffer: %w", err)
	}
	if err := s.buildChannels(); err != nil {
		return nil, err
	}
	if len(s.channels) == 0 {
		return nil, fmt.Errorf("no scan elements enabled for %s", s.devDir)
	}
	if err := writeAttr(filepath.Join(s.devDir, "trigger", "current_trigger"), trigger); err != nil {
		return nil, fmt.Errorf("could not set trigger %s: %w", trigger, err)
	}
	if err := writeAttr(filepath.Join(s.devDir, "buffer", "enable"), "1"); err != nil {
		_ = writeAttr(filepath.Join(s.devDir, "trigger", "current_trigger"), "")
		return nil, fmt.Errorf("could not enable buffer: %w", err)
	}
	return s, nil
}

// buildChannels switches the accelerometer scan elements on, then resolves
// the layout of everything enabled: index order, storage-aligned offsets
// and per-channel scale.
func (s *Session) buildChannels() error {
	dir := filepath.Join(s.devDir, "scan_elements")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("could not read scan elements: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "in_accel_") || !strings.HasSuffix(name, "_en") {
			continue
		}
		if err := writeAttr(filepath.Join(dir, name), "1"); err != nil {
			return fmt.Errorf("could not enable %s: %w", name, err)
		}
	}
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), "_en") {
			continue
		}
		enabled, err := readAttr(filepath.Join(dir, entry.Name()))
		if err != nil || enabled != "1" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), "_en")
		idx, err := readAttr(filepath.Join(dir, name+"_index"))
		if err != nil {
			return fmt.Errorf("could not read %s index: %w", name, err)
		}
		index, err := strconv.Atoi(idx)
		if err != nil {
			return fmt.Errorf("malformed index for %s: %w", name, err)
		}
		desc, err := readAttr(filepath.Join(dir, name+"_type"))
		if err != nil {
			return fmt.Errorf("could not read %s type: %w", name, err)
		}
		typ, err := parseChannelType(desc)
		if err != nil {
			return err
		}
		s.channels = append(s.channels, channel{
			name:  name,
			index: index,
			typ:   typ,
			scale: s.channelScale(name),
		})
	}
	sort.Slice(s.channels, func(i, j int) bool { return s.channels[i].index < s.channels[j].index })
	off := 0
	for i := range s.channels {
		n := s.channels[i].typ.bytes()
		if off%n != 0 {
			off += n - off%n
		}
		s.channels[i].offset = off
		off += n
	}
	s.scanSize = off
	return nil
}

// channelScale resolves the channel multiplier: a per-channel scale wins
// over the one shared across the axes.
func (s *Session) channelScale(name string) float64 {
	shared := name[:strings.LastIndex(name, "_")] + "_scale"
	for _, attr := range []string{name + "_scale", shared} {
		v, err := readAttr(filepath.Join(s.devDir, attr))
		if err != nil {
			continue
		}
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		return scale
	}
	return 1.0
}

// ScanSize returns the fixed record size in bytes.
func (s *Session) ScanSize() int {
	return s.scanSize
}

// Decode extracts the named channel's raw value and scale from a complete
// record.
func (s *Session) Decode(record []byte, name string) (int64, float64, error) {
	if len(record) < s.scanSize {
		return 0, 0, fmt.Errorf("record too short: %d of %d bytes", len(record), s.scanSize)
	}
	for _, ch := range s.channels {
		if ch.name != name {
			continue
		}
		word := record[ch.offset : ch.offset+ch.typ.bytes()]
		return ch.typ.extract(word), ch.scale, nil
	}
	return 0, 0, fmt.Errorf("channel %s not present in scan", name)
}

// Close switches the ring buffer off and detaches the trigger.
func (s *Session) Close() error {
	err := writeAttr(filepath.Join(s.devDir, "buffer", "enable"), "0")
	_ = writeAttr(filepath.Join(s.devDir, "trigger", "current_trigger"), "")
	if err != nil {
		return fmt.Errorf("could not disable buffer: %w", err)
	}
	return nil
}

func readAttr(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func writeAttr(path, value string) error {
	return os.WriteFile(path, []byte(value), 0o644)
}
