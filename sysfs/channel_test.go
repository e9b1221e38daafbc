package sysfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannelType(t *testing.T) {
	tests := []struct {
		given    string
		expected channelType
	}{
		{"le:s12/16>>4", channelType{signed: true, realBits: 12, storageBits: 16, shift: 4}},
		{"be:u10/16>>6", channelType{bigEndian: true, realBits: 10, storageBits: 16, shift: 6}},
		{"le:s16/16", channelType{signed: true, realBits: 16, storageBits: 16}},
		{"le:s64/64", channelType{signed: true, realBits: 64, storageBits: 64}},
		{"le:u8/8", channelType{realBits: 8, storageBits: 8}},
	}
	for _, test := range tests {
		t.Run(test.given, func(t *testing.T) {
			typ, err := parseChannelType(test.given)
			require.NoError(t, err)
			assert.Equal(t, test.expected, typ)
		})
	}
}

func TestParseChannelType_Malformed(t *testing.T) {
	for _, given := range []string{
		"",
		"s12/16",
		"xx:s12/16",
		"le:q12/16",
		"le:s12/12",
		"le:s20/16",
		"le:s8/16>>16",
		"le:sab/16",
	} {
		t.Run(given, func(t *testing.T) {
			_, err := parseChannelType(given)
			assert.Error(t, err)
		})
	}
}

func TestChannelType_Extract(t *testing.T) {
	tests := []struct {
		name     string
		typ      string
		word     []byte
		expected int64
	}{
		{"shifted signed negative", "le:s12/16>>4", []byte{0xF0, 0xFF}, -1},
		{"shifted signed positive", "le:s12/16>>4", []byte{0x40, 0x06}, 100},
		{"plain signed", "le:s16/16", []byte{0xFE, 0xFF}, -2},
		{"big endian unsigned", "be:u10/16>>6", []byte{0xFF, 0xC0}, 1023},
		{"unsigned byte", "le:u8/8", []byte{0x80}, 128},
		{"sign bit masked by real bits", "le:s12/16", []byte{0xFF, 0x0F}, -1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			typ, err := parseChannelType(test.typ)
			require.NoError(t, err)
			assert.Equal(t, test.expected, typ.extract(test.word))
		})
	}
}
