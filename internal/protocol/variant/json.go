package variant

import (
	"encoding/base64"
	"fmt"

	json "github.com/goccy/go-json"
)

// JSON form of a Value, used by the websocket transport. Same closed tag set
// as the binary form; the "t" discriminator mirrors Kind.String().
type jsonShape struct {
	T string          `json:"t"`
	V json.RawMessage `json:"v,omitempty"`
	X *float32        `json:"x,omitempty"`
	Y *float32        `json:"y,omitempty"`
	Z *float32        `json:"z,omitempty"`
	R *float32        `json:"r,omitempty"`
	G *float32        `json:"g,omitempty"`
	B *float32        `json:"b,omitempty"`
	A *float32        `json:"a,omitempty"`
}

type jsonPair struct {
	K json.RawMessage `json:"k"`
	V json.RawMessage `json:"v"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	shape := jsonShape{T: v.kind.String()}
	switch v.kind {
	case KindNil:
	case KindBool:
		raw, err := json.Marshal(v.boolv)
		if err != nil {
			return nil, err
		}
		shape.V = raw
	case KindInt:
		raw, err := json.Marshal(v.intv)
		if err != nil {
			return nil, err
		}
		shape.V = raw
	case KindFloat:
		raw, err := json.Marshal(v.f64)
		if err != nil {
			return nil, err
		}
		shape.V = raw
	case KindText:
		raw, err := json.Marshal(v.str)
		if err != nil {
			return nil, err
		}
		shape.V = raw
	case KindVec2:
		shape.X, shape.Y = &v.f32s[0], &v.f32s[1]
	case KindVec3:
		shape.X, shape.Y, shape.Z = &v.f32s[0], &v.f32s[1], &v.f32s[2]
	case KindColor:
		shape.R, shape.G, shape.B, shape.A = &v.f32s[0], &v.f32s[1], &v.f32s[2], &v.f32s[3]
	case KindList:
		raw, err := json.Marshal(v.list)
		if err != nil {
			return nil, err
		}
		shape.V = raw
	case KindMap:
		pairs := make([]jsonPair, len(v.pairs))
		for i, p := range v.pairs {
			k, err := json.Marshal(p.Key)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(p.Val)
			if err != nil {
				return nil, err
			}
			pairs[i] = jsonPair{K: k, V: val}
		}
		raw, err := json.Marshal(pairs)
		if err != nil {
			return nil, err
		}
		shape.V = raw
	case KindBytes:
		raw, err := json.Marshal(base64.StdEncoding.EncodeToString(v.raw))
		if err != nil {
			return nil, err
		}
		shape.V = raw
	default:
		return nil, fmt.Errorf("%w: cannot marshal kind %s", ErrMalformed, v.kind)
	}
	return json.Marshal(shape)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var shape jsonShape
	if err := json.Unmarshal(data, &shape); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch shape.T {
	case "nil":
		*v = Nil()
	case "bool":
		var b bool
		if err := json.Unmarshal(shape.V, &b); err != nil {
			return fmt.Errorf("%w: bad bool: %v", ErrMalformed, err)
		}
		*v = Bool(b)
	case "int":
		var i int64
		if err := json.Unmarshal(shape.V, &i); err != nil {
			return fmt.Errorf("%w: bad int: %v", ErrMalformed, err)
		}
		*v = Int(i)
	case "float":
		var f float64
		if err := json.Unmarshal(shape.V, &f); err != nil {
			return fmt.Errorf("%w: bad float: %v", ErrMalformed, err)
		}
		*v = Float(f)
	case "text":
		var s string
		if err := json.Unmarshal(shape.V, &s); err != nil {
			return fmt.Errorf("%w: bad text: %v", ErrMalformed, err)
		}
		*v = Text(s)
	case "vec2":
		*v = Vec2(deref(shape.X), deref(shape.Y))
	case "vec3":
		*v = Vec3(deref(shape.X), deref(shape.Y), deref(shape.Z))
	case "color":
		*v = Color(deref(shape.R), deref(shape.G), deref(shape.B), deref(shape.A))
	case "list":
		var elems []Value
		if len(shape.V) > 0 {
			if err := json.Unmarshal(shape.V, &elems); err != nil {
				return fmt.Errorf("%w: bad list: %v", ErrMalformed, err)
			}
		}
		*v = List(elems...)
	case "map":
		var rawPairs []jsonPair
		if len(shape.V) > 0 {
			if err := json.Unmarshal(shape.V, &rawPairs); err != nil {
				return fmt.Errorf("%w: bad map: %v", ErrMalformed, err)
			}
		}
		pairs := make([]Pair, len(rawPairs))
		for i, rp := range rawPairs {
			var key, val Value
			if err := json.Unmarshal(rp.K, &key); err != nil {
				return fmt.Errorf("%w: bad map key: %v", ErrMalformed, err)
			}
			if err := json.Unmarshal(rp.V, &val); err != nil {
				return fmt.Errorf("%w: bad map value: %v", ErrMalformed, err)
			}
			pairs[i] = Pair{Key: key, Val: val}
		}
		*v = NewMap(pairs...)
	case "bytes":
		var enc string
		if err := json.Unmarshal(shape.V, &enc); err != nil {
			return fmt.Errorf("%w: bad bytes: %v", ErrMalformed, err)
		}
		raw, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return fmt.Errorf("%w: bad bytes encoding: %v", ErrMalformed, err)
		}
		*v = Bytes(raw)
	default:
		return fmt.Errorf("%w: unknown type tag %q", ErrMalformed, shape.T)
	}
	return nil
}

func deref(f *float32) float32 {
	if f == nil {
		return 0
	}
	return *f
}
