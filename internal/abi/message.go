package abi

import (
	"bytes"
	"math"
	"unsafe"
)

// MessageSize is the size of the message buffer including the NUL.
const MessageSize = 200

// messageBuffer is a fixed, NUL-terminated message whose address is
// handed to the caller. It must not be copied once its address is out.
type messageBuffer struct {
	buf [MessageSize]byte
}

// set stores msg, truncated to MessageSize-1 bytes, and returns the
// buffer address encoded in the bits of a float64.
func (m *messageBuffer) set(msg string) float64 {
	n := copy(m.buf[:MessageSize-1], msg)
	clear(m.buf[n:])
	return m.slot()
}

func (m *messageBuffer) slot() float64 {
	return math.Float64frombits(uint64(uintptr(unsafe.Pointer(&m.buf[0]))))
}

func (m *messageBuffer) String() string {
	if i := bytes.IndexByte(m.buf[:], 0); i >= 0 {
		return string(m.buf[:i])
	}
	return string(m.buf[:])
}
