package gamectl

import "github.com/gamectl/gamectl/internal/protocol/variant"

// Value is the dynamic tagged value exchanged with the controlled
// process. See the constructors below and the accessor methods on the
// type itself.
type Value = variant.Value

// Pair is one key/value entry of a Map Value.
type Pair = variant.Pair

// Kind identifies a Value's runtime type.
type Kind = variant.Kind

const (
	KindNil   = variant.KindNil
	KindBool  = variant.KindBool
	KindInt   = variant.KindInt
	KindFloat = variant.KindFloat
	KindText  = variant.KindText
	KindVec2  = variant.KindVec2
	KindVec3  = variant.KindVec3
	KindColor = variant.KindColor
	KindList  = variant.KindList
	KindMap   = variant.KindMap
	KindBytes = variant.KindBytes
)

func Nil() Value                 { return variant.Nil() }
func Bool(b bool) Value          { return variant.Bool(b) }
func Int(i int64) Value          { return variant.Int(i) }
func Float(f float64) Value      { return variant.Float(f) }
func Text(s string) Value        { return variant.Text(s) }
func Bytes(b []byte) Value       { return variant.Bytes(b) }
func List(vs ...Value) Value     { return variant.List(vs...) }
func Map(ps ...Pair) Value       { return variant.NewMap(ps...) }
func Vec2(x, y float32) Value    { return variant.Vec2(x, y) }
func Vec3(x, y, z float32) Value { return variant.Vec3(x, y, z) }

func Color(r, g, b, a float32) Value { return variant.Color(r, g, b, a) }

// Entry builds one Map pair with a Text key.
func Entry(key string, val Value) Pair { return variant.Entry(key, val) }
