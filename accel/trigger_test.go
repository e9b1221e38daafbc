package accel

import (
	"errors"
	"testing"

	"github.com/mklimuk/iio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerName_Found(t *testing.T) {
	dev := NewMockAccel(3)
	trigger := &MockDevice{Bus: "iio", Attrs: map[string]string{"name": "accel_3d-dev3"}}
	registry := &MockRegistry{Devs: []iio.Device{dev, trigger}}
	d := NewBuffered(registry.Factory(), nil, nil, nil)

	name, err := d.triggerName(dev)
	require.NoError(t, err)
	assert.Equal(t, "accel_3d-dev3", name)
	assert.Equal(t, registry.Opened, registry.Closed, "registry client released")
}

func TestTriggerName_Absent(t *testing.T) {
	dev := NewMockAccel(3)
	other := &MockDevice{Bus: "iio", Attrs: map[string]string{"name": "accel_3d-dev7"}}
	registry := &MockRegistry{Devs: []iio.Device{dev, other}}
	d := NewBuffered(registry.Factory(), nil, nil, nil)

	_, err := d.triggerName(dev)
	assert.ErrorIs(t, err, ErrNoTrigger)
	assert.Equal(t, 1, registry.Opened)
	assert.Equal(t, 1, registry.Closed, "no leaked registry client on a miss")
}

func TestTriggerName_EnumerationFailure(t *testing.T) {
	dev := NewMockAccel(0)
	registry := &MockRegistry{ListErr: errors.New("bus gone")}
	d := NewBuffered(registry.Factory(), nil, nil, nil)

	_, err := d.triggerName(dev)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoTrigger)
	assert.Equal(t, registry.Opened, registry.Closed, "client released on enumeration failure")
}

func TestTriggerName_RegistryUnavailable(t *testing.T) {
	dev := NewMockAccel(0)
	registry := &MockRegistry{OpenErr: errors.New("no registry")}
	d := NewBuffered(registry.Factory(), nil, nil, nil)

	_, err := d.triggerName(dev)
	assert.Error(t, err)
	assert.Zero(t, registry.Closed)
}
