package frame

import (
	"encoding/binary"
	"errors"
	"io"
)

// Each frame on the wire is [u32 little-endian length][payload bytes].
const headerLen = 4

var (
	ErrPayloadTooLarge = errors.New("frame: payload too large")
	ErrEmptyFrame      = errors.New("frame: empty payload")
)

// Limits constrains frame decode/encode memory use. Inbound lengths come
// from an untrusted peer and must never drive the allocation on their own.
type Limits struct {
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes: 16 * 1024 * 1024, // screenshots travel in-band
	}
}

// Read blocks until one full frame is available and returns its payload.
// Partial reads are expected on a stream socket and are not errors;
// io.ReadFull accumulates until the declared length has arrived. A clean
// EOF before the first header byte surfaces as io.EOF so the caller can
// distinguish orderly shutdown from a torn frame.
func Read(r io.Reader, limits Limits) ([]byte, error) {
	var header [headerLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	length := binary.LittleEndian.Uint32(header[:])
	if length == 0 {
		return nil, ErrEmptyFrame
	}
	if length > limits.MaxPayloadBytes {
		// Drain the declared body so the stream stays framed; the caller can
		// treat this as a per-message error and keep reading.
		if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, ErrPayloadTooLarge
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

// Write emits one frame. The caller serializes Write calls per connection so
// a frame's length and body are never interleaved with another frame.
func Write(w io.Writer, payload []byte, limits Limits) error {
	if len(payload) == 0 {
		return ErrEmptyFrame
	}
	if uint64(len(payload)) > uint64(limits.MaxPayloadBytes) {
		return ErrPayloadTooLarge
	}
	buf := make([]byte, headerLen+len(payload))
	binary.LittleEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[headerLen:], payload)
	// One Write call keeps header and body contiguous on the wire.
	_, err := w.Write(buf)
	return err
}
