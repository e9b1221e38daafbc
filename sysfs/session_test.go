package sysfs

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	path string
}

func (d *fakeDevice) Subsystem() string       { return "iio" }
func (d *fakeDevice) Attr(name string) string { return "" }
func (d *fakeDevice) Number() int             { return 0 }
func (d *fakeDevice) SysfsPath() string       { return d.path }
func (d *fakeDevice) DevNode() string         { return "" }

// writeAccelDevice lays out a minimal accel_3d sysfs directory: buffer and
// trigger controls plus x/y/z scan elements with a shared scale.
func writeAccelDevice(t *testing.T) *fakeDevice {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "iio:device0")
	for _, sub := range []string{"buffer", "trigger", "scan_elements"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
	}
	files := map[string]string{
		"buffer/enable":           "0",
		"trigger/current_trigger": "",
		"name":                    "accel_3d",
		"in_accel_scale":          "0.1",
	}
	for i, axis := range []string{"x", "y", "z"} {
		files["scan_elements/in_accel_"+axis+"_en"] = "0"
		files["scan_elements/in_accel_"+axis+"_index"] = string(rune('0' + i))
		files["scan_elements/in_accel_"+axis+"_type"] = "le:s16/16"
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return &fakeDevice{path: dir}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestSession_Negotiation(t *testing.T) {
	dev := writeAccelDevice(t)
	s, err := NewSession(dev, "accel_3d-dev0")
	require.NoError(t, err)

	assert.Equal(t, 6, s.ScanSize(), "three s16 channels, no padding")
	assert.Equal(t, "accel_3d-dev0", readFile(t, filepath.Join(dev.path, "trigger", "current_trigger")))
	assert.Equal(t, "1", readFile(t, filepath.Join(dev.path, "buffer", "enable")))
	for _, axis := range []string{"x", "y", "z"} {
		assert.Equal(t, "1", readFile(t, filepath.Join(dev.path, "scan_elements", "in_accel_"+axis+"_en")))
	}
}

func TestSession_TimestampAlignment(t *testing.T) {
	dev := writeAccelDevice(t)
	dir := filepath.Join(dev.path, "scan_elements")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in_timestamp_en"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in_timestamp_index"), []byte("3"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in_timestamp_type"), []byte("le:s64/64"), 0o644))

	s, err := NewSession(dev, "accel_3d-dev0")
	require.NoError(t, err)
	// 3 x s16 then the timestamp padded out to its 8-byte boundary
	assert.Equal(t, 16, s.ScanSize())
}

func TestSession_Decode(t *testing.T) {
	dev := writeAccelDevice(t)
	s, err := NewSession(dev, "accel_3d-dev0")
	require.NoError(t, err)

	record := make([]byte, s.ScanSize())
	binary.LittleEndian.PutUint16(record[0:2], uint16(10))
	binary.LittleEndian.PutUint16(record[2:4], uint16(20))
	binary.LittleEndian.PutUint16(record[4:6], 0xFFE2) // -30

	for _, test := range []struct {
		channel  string
		expected int64
	}{
		{"in_accel_x", 10},
		{"in_accel_y", 20},
		{"in_accel_z", -30},
	} {
		raw, scale, err := s.Decode(record, test.channel)
		require.NoError(t, err)
		assert.Equal(t, test.expected, raw)
		assert.InDelta(t, 0.1, scale, 1e-9)
	}

	_, _, err = s.Decode(record, "in_accel_w")
	assert.Error(t, err)
	_, _, err = s.Decode(record[:3], "in_accel_x")
	assert.Error(t, err)
}

func TestSession_PerChannelScaleWins(t *testing.T) {
	dev := writeAccelDevice(t)
	require.NoError(t, os.WriteFile(filepath.Join(dev.path, "in_accel_x_scale"), []byte("0.5"), 0o644))

	s, err := NewSession(dev, "accel_3d-dev0")
	require.NoError(t, err)
	record := make([]byte, s.ScanSize())
	_, scale, err := s.Decode(record, "in_accel_x")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, scale, 1e-9)
	_, scale, err = s.Decode(record, "in_accel_y")
	require.NoError(t, err)
	assert.InDelta(t, 0.1, scale, 1e-9)
}

func TestSession_NoTriggerControl(t *testing.T) {
	dev := writeAccelDevice(t)
	require.NoError(t, os.RemoveAll(filepath.Join(dev.path, "trigger")))

	_, err := NewSession(dev, "accel_3d-dev0")
	assert.Error(t, err)
	assert.Equal(t, "0", readFile(t, filepath.Join(dev.path, "buffer", "enable")), "buffer left off on failure")
}

func TestSession_Close(t *testing.T) {
	dev := writeAccelDevice(t)
	s, err := NewSession(dev, "accel_3d-dev0")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.Equal(t, "0", readFile(t, filepath.Join(dev.path, "buffer", "enable")))
	assert.Equal(t, "", readFile(t, filepath.Join(dev.path, "trigger", "current_trigger")))
}
