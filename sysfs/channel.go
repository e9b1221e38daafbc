package sysfs

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// channelType describes how one channel's sample sits inside a scan record,
// parsed from the sysfs type descriptor, e.g. "le:s12/16>>4".
type channelType struct {
	bigEndian   bool
	signed      bool
	realBits    int
	storageBits int
	shift       int
}

func parseChannelType(s string) (channelType, error) {
	var t channelType
	endian, rest, ok := strings.Cut(s, ":")
	if !ok {
		return t, fmt.Errorf("malformed channel type %q", s)
	}
	switch endian {
	case "le":
	case "be":
		t.bigEndian = true
	default:
		return t, fmt.Errorf("unknown endianness in channel type %q", s)
	}
	if rest == "" {
		return t, fmt.Errorf("malformed channel type %q", s)
	}
	switch rest[0] {
	case 's':
		t.signed = true
	case 'u':
	default:
		return t, fmt.Errorf("unknown sign in channel type %q", s)
	}
	bits, rest, ok := strings.Cut(rest[1:], "/")
	if !ok {
		return t, fmt.Errorf("malformed channel type %q", s)
	}
	var err error
	if t.realBits, err = strconv.Atoi(bits); err != nil {
		return t, fmt.Errorf("malformed channel type %q: %w", s, err)
	}
	storage, shift, shifted := strings.Cut(rest, ">>")
	if t.storageBits, err = strconv.Atoi(storage); err != nil {
		return t, fmt.Errorf("malformed channel type %q: %w", s, err)
	}
	if shifted {
		if t.shift, err = strconv.Atoi(shift); err != nil {
			return t, fmt.Errorf("malformed channel type %q: %w", s, err)
		}
	}
	switch t.storageBits {
	case 8, 16, 32, 64:
	default:
		return t, fmt.Errorf("unsupported storage size in channel type %q", s)
	}
	if t.realBits <= 0 || t.realBits > t.storageBits || t.shift >= t.storageBits {
		return t, fmt.Errorf("inconsistent channel type %q", s)
	}
	return t, nil
}

// bytes returns the channel's storage footprint in the record.
func (t channelType) bytes() int {
	return t.storageBits / 8
}

// extract pulls the channel's raw value out of its storage word: endianness,
// shift, real-bits mask, then sign extension.
func (t channelType) extract(word []byte) int64 {
	var raw uint64
	switch t.storageBits {
	case 8:
		raw = uint64(word[0])
	case 16:
		if t.bigEndian {
			raw = uint64(binary.BigEndian.Uint16(word))
		} else {
			raw = uint64(binary.LittleEndian.Uint16(word))
		}
	case 32:
		if t.bigEndian {
			raw = uint64(binary.BigEndian.Uint32(word))
		} else {
			raw = uint64(binary.LittleEndian.Uint32(word))
		}
	case 64:
		if t.bigEndian {
			raw = binary.BigEndian.Uint64(word)
		} else {
			raw = binary.LittleEndian.Uint64(word)
		}
	}
	raw >>= uint(t.shift)
	if t.realBits < 64 {
		raw &= (1 << uint(t.realBits)) - 1
	}
	if t.signed && t.realBits < 64 && raw&(1<<uint(t.realBits-1)) != 0 {
		return int64(raw) - (1 << uint(t.realBits))
	}
	return int64(raw)
}

// channel is one enabled scan element with its resolved position.
type channel struct {
	name   string
	index  int
	typ    channelType
	offset int
	scale  float64
}
