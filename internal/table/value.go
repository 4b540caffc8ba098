package table

import (
	"fmt"
	"math"
	"strconv"
)

// Kind tags the dynamic type held by a Value.
type Kind int

const (
	KindMissing Kind = iota
	KindInt
	KindFloat
	KindText
	KindBool
	// KindMixed is only reported by schemas for columns holding several kinds.
	KindMixed
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindMixed:
		return "mixed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Numeric reports whether values of this kind convert to float64.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat || k == KindBool
}

// Value is a single cell. The zero Value is Missing.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

func Missing() Value      { return Value{} }
func Int(v int64) Value   { return Value{kind: KindInt, i: v} }
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Float returns a float Value; NaN is stored as Missing so that there is a
// single missing representation.
func Float(v float64) Value {
	if math.IsNaN(v) {
		return Value{}
	}
	return Value{kind: KindFloat, f: v}
}

func Bool(v bool) Value {
	if v {
		return Value{kind: KindBool, i: 1}
	}
	return Value{kind: KindBool}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float converts numeric kinds (bool as 0/1) to float64.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInt, KindBool:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Int returns the integer payload; floats are accepted only when integral.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case KindInt, KindBool:
		return v.i, true
	case KindFloat:
		if v.f == math.Trunc(v.f) && !math.IsInf(v.f, 0) {
			return int64(v.f), true
		}
	}
	return 0, false
}

// Str returns the payload of a Text value.
func (v Value) Str() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.s, true
}

func (v Value) BoolValue() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.i == 1, true
}

// String renders the value for previews and category labels. Missing is "NA".
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	case KindBool:
		if v.i == 1 {
			return "true"
		}
		return "false"
	default:
		return "NA"
	}
}

// Equal is exact equality of kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindMissing:
		return true
	case KindFloat:
		return v.f == o.f
	case KindText:
		return v.s == o.s
	default:
		return v.i == o.i
	}
}

// Compare orders two non-missing values: numbers numerically (Int and Float
// mix), text lexicographically, false before true. Other pairings are a
// type mismatch.
func (v Value) Compare(o Value) (int, error) {
	if v.kind == KindText && o.kind == KindText {
		switch {
		case v.s < o.s:
			return -1, nil
		case v.s > o.s:
			return 1, nil
		}
		return 0, nil
	}
	if v.kind == KindBool && o.kind == KindBool {
		return cmpInt(v.i, o.i), nil
	}
	if v.kind == KindInt && o.kind == KindInt {
		return cmpInt(v.i, o.i), nil
	}
	if (v.kind == KindInt || v.kind == KindFloat) && (o.kind == KindInt || o.kind == KindFloat) {
		a, _ := v.Float()
		b, _ := o.Float()
		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("compare %s with %s: %w", v.kind, o.kind, ErrTypeMismatch)
}

// key is a hashable identity used by joins, grouping and category lookup.
// Int and integral Float values share a key so 3 and 3.0 join.
type key struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

func (v Value) key() key {
	switch v.kind {
	case KindFloat:
		if n, ok := v.Int(); ok {
			return key{kind: KindInt, i: n}
		}
		return key{kind: KindFloat, f: v.f}
	case KindText:
		return key{kind: KindText, s: v.s}
	case KindMissing:
		return key{}
	default:
		return key{kind: v.kind, i: v.i}
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
