package variant

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant a Value holds.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindVec2
	KindVec3
	KindColor
	KindList
	KindMap
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindVec2:
		return "vec2"
	case KindVec3:
		return "vec3"
	case KindColor:
		return "color"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindBytes:
		return "bytes"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is the closed dynamically-typed wire value. A Value owns its nested
// Values; the wire format is a finite tree, so no sharing and no cycles.
type Value struct {
	kind  Kind
	boolv bool
	intv  int64
	f64   float64
	str   string
	f32s  [4]float32
	list  []Value
	pairs []Pair
	raw   []byte
}

// Pair is one Map entry. Keys are Text at the API boundary, but decoded
// Maps may carry non-Text keys; callers check Key.Kind() before trusting it.
type Pair struct {
	Key Value
	Val Value
}

func Nil() Value                 { return Value{kind: KindNil} }
func Bool(b bool) Value          { return Value{kind: KindBool, boolv: b} }
func Int(i int64) Value          { return Value{kind: KindInt, intv: i} }
func Float(f float64) Value      { return Value{kind: KindFloat, f64: f} }
func Text(s string) Value        { return Value{kind: KindText, str: s} }
func Bytes(b []byte) Value       { return Value{kind: KindBytes, raw: b} }
func List(vs ...Value) Value     { return Value{kind: KindList, list: vs} }
func NewMap(ps ...Pair) Value    { return Value{kind: KindMap, pairs: ps} }
func Vec2(x, y float32) Value    { return Value{kind: KindVec2, f32s: [4]float32{x, y}} }
func Vec3(x, y, z float32) Value { return Value{kind: KindVec3, f32s: [4]float32{x, y, z}} }

func Color(r, g, b, a float32) Value {
	return Value{kind: KindColor, f32s: [4]float32{r, g, b, a}}
}

// Entry builds a Map pair with a Text key.
func Entry(key string, val Value) Pair {
	return Pair{Key: Text(key), Val: val}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool { return v.kind == KindNil }

// Accessors return the zero value when the Kind does not match. Payloads
// arrive from another process, so call sites switch on Kind first.

func (v Value) Bool() bool { return v.kind == KindBool && v.boolv }

func (v Value) Int() int64 {
	if v.kind != KindInt {
		return 0
	}
	return v.intv
}

func (v Value) Float() float64 {
	if v.kind != KindFloat {
		return 0
	}
	return v.f64
}

func (v Value) Text() string {
	if v.kind != KindText {
		return ""
	}
	return v.str
}

func (v Value) Bytes() []byte {
	if v.kind != KindBytes {
		return nil
	}
	return v.raw
}

func (v Value) List() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

func (v Value) Pairs() []Pair {
	if v.kind != KindMap {
		return nil
	}
	return v.pairs
}

func (v Value) Vec2() (x, y float32) {
	if v.kind != KindVec2 {
		return 0, 0
	}
	return v.f32s[0], v.f32s[1]
}

func (v Value) Vec3() (x, y, z float32) {
	if v.kind != KindVec3 {
		return 0, 0, 0
	}
	return v.f32s[0], v.f32s[1], v.f32s[2]
}

func (v Value) Color() (r, g, b, a float32) {
	if v.kind != KindColor {
		return 0, 0, 0, 0
	}
	return v.f32s[0], v.f32s[1], v.f32s[2], v.f32s[3]
}

// MapIndex looks up a Text key in a Map value. The first matching pair wins.
func (v Value) MapIndex(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	for _, p := range v.pairs {
		if p.Key.kind == KindText && p.Key.str == key {
			return p.Val, true
		}
	}
	return Value{}, false
}

// Equal reports semantic equality. Numeric width chosen by the encoder does
// not affect equality; float comparison is exact bit-for-bit on the stored
// float64.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.boolv == o.boolv
	case KindInt:
		return v.intv == o.intv
	case KindFloat:
		return v.f64 == o.f64
	case KindText:
		return v.str == o.str
	case KindVec2, KindVec3, KindColor:
		return v.f32s == o.f32s
	case KindBytes:
		return string(v.raw) == string(o.raw)
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.pairs) != len(o.pairs) {
			return false
		}
		for i := range v.pairs {
			if !v.pairs[i].Key.Equal(o.pairs[i].Key) || !v.pairs[i].Val.Equal(o.pairs[i].Val) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders a debug form, not the wire form.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return strconv.FormatBool(v.boolv)
	case KindInt:
		return strconv.FormatInt(v.intv, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f64, 'g', -1, 64)
	case KindText:
		return strconv.Quote(v.str)
	case KindVec2:
		return fmt.Sprintf("vec2(%g, %g)", v.f32s[0], v.f32s[1])
	case KindVec3:
		return fmt.Sprintf("vec3(%g, %g, %g)", v.f32s[0], v.f32s[1], v.f32s[2])
	case KindColor:
		return fmt.Sprintf("color(%g, %g, %g, %g)", v.f32s[0], v.f32s[1], v.f32s[2], v.f32s[3])
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.raw))
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, len(v.pairs))
		for i, p := range v.pairs {
			parts[i] = p.Key.String() + ": " + p.Val.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return v.kind.String()
}
