package variant

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// Wire type tags. Every encoded Value starts with a 4-byte little-endian
// header: the low byte selects the tag, bit 16 selects 64-bit storage for
// numeric types. The encoder always picks the smallest width that represents
// the value exactly; this is part of the wire contract, not an optimization
// to revisit.
const (
	TagNil   uint32 = 0
	TagBool  uint32 = 1
	TagInt   uint32 = 2
	TagFloat uint32 = 3
	TagText  uint32 = 4
	TagVec2  uint32 = 5
	TagVec3  uint32 = 6
	TagColor uint32 = 7
	TagList  uint32 = 8
	TagMap   uint32 = 9
	TagBytes uint32 = 10

	Flag64 uint32 = 1 << 16

	headerLen = 4
	tagMask   = 0xFF
)

// maxDepth bounds container recursion so hostile input cannot exhaust the
// stack. Real payloads are a handful of levels deep.
const maxDepth = 64

var ErrMalformed = errors.New("variant: malformed data")

// Encode serializes a Value to its wire form.
func Encode(v Value) []byte {
	return Append(nil, v)
}

// Append serializes a Value onto dst and returns the extended slice.
func Append(dst []byte, v Value) []byte {
	switch v.kind {
	case KindNil:
		return appendHeader(dst, TagNil)
	case KindBool:
		dst = appendHeader(dst, TagBool)
		b := uint32(0)
		if v.boolv {
			b = 1
		}
		return binary.LittleEndian.AppendUint32(dst, b)
	case KindInt:
		if v.intv >= math.MinInt32 && v.intv <= math.MaxInt32 {
			dst = appendHeader(dst, TagInt)
			return binary.LittleEndian.AppendUint32(dst, uint32(int32(v.intv)))
		}
		dst = appendHeader(dst, TagInt|Flag64)
		return binary.LittleEndian.AppendUint64(dst, uint64(v.intv))
	case KindFloat:
		if f32 := float32(v.f64); float64(f32) == v.f64 {
			dst = appendHeader(dst, TagFloat)
			return binary.LittleEndian.AppendUint32(dst, math.Float32bits(f32))
		}
		dst = appendHeader(dst, TagFloat|Flag64)
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v.f64))
	case KindText:
		dst = appendHeader(dst, TagText)
		return appendPadded(dst, []byte(v.str))
	case KindVec2:
		dst = appendHeader(dst, TagVec2)
		return appendF32s(dst, v.f32s[:2])
	case KindVec3:
		dst = appendHeader(dst, TagVec3)
		return appendF32s(dst, v.f32s[:3])
	case KindColor:
		dst = appendHeader(dst, TagColor)
		return appendF32s(dst, v.f32s[:4])
	case KindList:
		dst = appendHeader(dst, TagList)
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v.list)))
		for _, e := range v.list {
			dst = Append(dst, e)
		}
		return dst
	case KindMap:
		dst = appendHeader(dst, TagMap)
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v.pairs)))
		for _, p := range v.pairs {
			dst = Append(dst, p.Key)
			dst = Append(dst, p.Val)
		}
		return dst
	case KindBytes:
		dst = appendHeader(dst, TagBytes)
		dst = binary.LittleEndian.AppendUint32(dst, uint32(len(v.raw)))
		return append(dst, v.raw...)
	}
	// Zero Value encodes as Nil.
	return appendHeader(dst, TagNil)
}

// Decode reads one Value from the head of b and returns it together with the
// number of bytes consumed. It is total over arbitrary input: malformed bytes
// produce an error wrapping ErrMalformed, never a panic. Inbound bytes come
// from a separate process that may crash mid-write.
func Decode(b []byte) (Value, int, error) {
	v, n, err := decode(b, 0)
	if err != nil {
		return Value{}, 0, err
	}
	return v, n, nil
}

func decode(b []byte, depth int) (Value, int, error) {
	if depth > maxDepth {
		return Value{}, 0, fmt.Errorf("%w: container nesting exceeds %d levels", ErrMalformed, maxDepth)
	}
	if len(b) < headerLen {
		return Value{}, 0, fmt.Errorf("%w: truncated header", ErrMalformed)
	}
	header := binary.LittleEndian.Uint32(b)
	tag := header & tagMask
	wide := header&Flag64 != 0
	rest := b[headerLen:]

	switch tag {
	case TagNil:
		return Nil(), headerLen, nil

	case TagBool:
		if len(rest) < 4 {
			return Value{}, 0, fmt.Errorf("%w: truncated bool", ErrMalformed)
		}
		return Bool(binary.LittleEndian.Uint32(rest) != 0), headerLen + 4, nil

	case TagInt:
		if wide {
			if len(rest) < 8 {
				return Value{}, 0, fmt.Errorf("%w: truncated int64", ErrMalformed)
			}
			return Int(int64(binary.LittleEndian.Uint64(rest))), headerLen + 8, nil
		}
		if len(rest) < 4 {
			return Value{}, 0, fmt.Errorf("%w: truncated int32", ErrMalformed)
		}
		return Int(int64(int32(binary.LittleEndian.Uint32(rest)))), headerLen + 4, nil

	case TagFloat:
		if wide {
			if len(rest) < 8 {
				return Value{}, 0, fmt.Errorf("%w: truncated float64", ErrMalformed)
			}
			return Float(math.Float64frombits(binary.LittleEndian.Uint64(rest))), headerLen + 8, nil
		}
		if len(rest) < 4 {
			return Value{}, 0, fmt.Errorf("%w: truncated float32", ErrMalformed)
		}
		return Float(float64(math.Float32frombits(binary.LittleEndian.Uint32(rest)))), headerLen + 4, nil

	case TagText:
		if len(rest) < 4 {
			return Value{}, 0, fmt.Errorf("%w: truncated text length", ErrMalformed)
		}
		n := binary.LittleEndian.Uint32(rest)
		padded := (uint64(n) + 3) &^ 3
		if uint64(len(rest)-4) < padded {
			return Value{}, 0, fmt.Errorf("%w: text length %d exceeds buffer", ErrMalformed, n)
		}
		raw := rest[4 : 4+n]
		if !utf8.Valid(raw) {
			return Value{}, 0, fmt.Errorf("%w: text is not valid UTF-8", ErrMalformed)
		}
		return Text(string(raw)), headerLen + 4 + int(padded), nil

	case TagVec2:
		fs, n, err := readF32s(rest, 2)
		if err != nil {
			return Value{}, 0, err
		}
		return Vec2(fs[0], fs[1]), headerLen + n, nil

	case TagVec3:
		fs, n, err := readF32s(rest, 3)
		if err != nil {
			return Value{}, 0, err
		}
		return Vec3(fs[0], fs[1], fs[2]), headerLen + n, nil

	case TagColor:
		fs, n, err := readF32s(rest, 4)
		if err != nil {
			return Value{}, 0, err
		}
		return Color(fs[0], fs[1], fs[2], fs[3]), headerLen + n, nil

	case TagList:
		if len(rest) < 4 {
			return Value{}, 0, fmt.Errorf("%w: truncated list count", ErrMalformed)
		}
		count := binary.LittleEndian.Uint32(rest)
		// Every element costs at least one header.
		if uint64(count)*headerLen > uint64(len(rest)-4) {
			return Value{}, 0, fmt.Errorf("%w: list count %d exceeds buffer", ErrMalformed, count)
		}
		off := headerLen + 4
		elems := make([]Value, 0, count)
		for i := uint32(0); i < count; i++ {
			e, n, err := decode(b[off:], depth+1)
			if err != nil {
				return Value{}, 0, err
			}
			elems = append(elems, e)
			off += n
		}
		return List(elems...), off, nil

	case TagMap:
		if len(rest) < 4 {
			return Value{}, 0, fmt.Errorf("%w: truncated map count", ErrMalformed)
		}
		count := binary.LittleEndian.Uint32(rest)
		if uint64(count)*2*headerLen > uint64(len(rest)-4) {
			return Value{}, 0, fmt.Errorf("%w: map count %d exceeds buffer", ErrMalformed, count)
		}
		off := headerLen + 4
		pairs := make([]Pair, 0, count)
		for i := uint32(0); i < count; i++ {
			// The wire format does not force Text keys; decode accepts any
			// key Kind and leaves the semantic check to the caller.
			key, n, err := decode(b[off:], depth+1)
			if err != nil {
				return Value{}, 0, err
			}
			off += n
			val, n, err := decode(b[off:], depth+1)
			if err != nil {
				return Value{}, 0, err
			}
			off += n
			pairs = append(pairs, Pair{Key: key, Val: val})
		}
		return NewMap(pairs...), off, nil

	case TagBytes:
		if len(rest) < 4 {
			return Value{}, 0, fmt.Errorf("%w: truncated bytes length", ErrMalformed)
		}
		n := binary.LittleEndian.Uint32(rest)
		if uint64(len(rest)-4) < uint64(n) {
			return Value{}, 0, fmt.Errorf("%w: bytes length %d exceeds buffer", ErrMalformed, n)
		}
		raw := make([]byte, n)
		copy(raw, rest[4:4+n])
		return Bytes(raw), headerLen + 4 + int(n), nil
	}

	return Value{}, 0, fmt.Errorf("%w: unknown type tag %d", ErrMalformed, tag)
}

func appendHeader(dst []byte, header uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, header)
}

// appendPadded writes a u32 length, the payload, and zero padding up to the
// next 4-byte boundary.
func appendPadded(dst, raw []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(raw)))
	dst = append(dst, raw...)
	for i := len(raw); i%4 != 0; i++ {
		dst = append(dst, 0)
	}
	return dst
}

func appendF32s(dst []byte, fs []float32) []byte {
	for _, f := range fs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

func readF32s(b []byte, count int) ([4]float32, int, error) {
	var fs [4]float32
	if len(b) < 4*count {
		return fs, 0, fmt.Errorf("%w: truncated vector", ErrMalformed)
	}
	for i := 0; i < count; i++ {
		fs[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return fs, 4 * count, nil
}

