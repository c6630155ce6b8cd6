package hyperspace

import (
	"fmt"
	"math"
	"strconv"
)

// Number is a scalar tagged as integer or real. The tag decides how a range
// over it is sampled and how the value is printed.
type Number struct {
	Value   float64
	Integer bool
}

// String formats integers without a fractional part.
func (n Number) String() string {
	if n.Integer {
		return strconv.FormatInt(int64(n.Value), 10)
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// Value is one entry of a dimension: a fixed scalar or a (min, max) range
// that is sampled once per grid point.
type Value struct {
	isRange bool
	scalar  Number
	min     Number
	max     Number
}

// Int returns an integer scalar.
func Int(v int) Value { return Value{scalar: Number{Value: float64(v), Integer: true}} }

// Real returns a real scalar.
func Real(v float64) Value { return Value{scalar: Number{Value: v}} }

// IntRange returns an inclusive integer range.
func IntRange(lo, hi int) Value {
	return Value{isRange: true, min: Number{Value: float64(lo), Integer: true}, max: Number{Value: float64(hi), Integer: true}}
}

// RealRange returns a real range.
func RealRange(lo, hi float64) Value {
	return Value{isRange: true, min: Number{Value: lo}, max: Number{Value: hi}}
}

// Range returns a range with independently tagged bounds. Use Validate to
// reject mixed or inverted bounds.
func Range(lo, hi Number) Value {
	return Value{isRange: true, min: lo, max: hi}
}

// IsRange reports whether v needs a random draw.
func (v Value) IsRange() bool { return v.isRange }

// Scalar returns the fixed number of a scalar value.
func (v Value) Scalar() Number { return v.scalar }

// Bounds returns the range bounds.
func (v Value) Bounds() (Number, Number) { return v.min, v.max }

// MaxInteger is the largest integer magnitude a Number represents exactly.
const MaxInteger = 1 << 53

// Validate rejects ranges with mixed integer/real bounds, inverted bounds,
// non-finite numbers, or integers beyond MaxInteger.
func (v Value) Validate() error {
	if !v.isRange {
		if !finite(v.scalar.Value) {
			return fmt.Errorf("%w: non-finite value %v", ErrInvalidRange, v.scalar.Value)
		}
		if v.scalar.Integer && math.Abs(v.scalar.Value) > MaxInteger {
			return fmt.Errorf("%w: integer %v exceeds %d in magnitude", ErrInvalidRange, v.scalar.Value, int64(MaxInteger))
		}
		return nil
	}
	if v.min.Integer != v.max.Integer {
		return fmt.Errorf("%w: mixed integer and real bounds (%s, %s)", ErrInvalidRange, v.min, v.max)
	}
	if !finite(v.min.Value) || !finite(v.max.Value) {
		return fmt.Errorf("%w: non-finite bounds (%s, %s)", ErrInvalidRange, v.min, v.max)
	}
	if v.min.Integer && (math.Abs(v.min.Value) > MaxInteger || math.Abs(v.max.Value) > MaxInteger) {
		return fmt.Errorf("%w: integer bounds (%v, %v) exceed %d in magnitude", ErrInvalidRange, v.min.Value, v.max.Value, int64(MaxInteger))
	}
	if v.min.Value > v.max.Value {
		return fmt.Errorf("%w: min %s greater than max %s", ErrInvalidRange, v.min, v.max)
	}
	return nil
}

func (v Value) String() string {
	if v.isRange {
		return "(" + v.min.String() + ", " + v.max.String() + ")"
	}
	return v.scalar.String()
}

// ParseValue converts a decoded YAML/JSON entry into a Value. Integers stay
// integers and floats stay reals, so `[2.2, 5]` is a mixed range and is
// rejected.
func ParseValue(raw any) (Value, error) {
	if list, ok := raw.([]any); ok {
		if len(list) != 2 {
			return Value{}, fmt.Errorf("%w: range needs exactly 2 bounds, got %d", ErrInvalidRange, len(list))
		}
		lo, err := parseNumber(list[0])
		if err != nil {
			return Value{}, err
		}
		hi, err := parseNumber(list[1])
		if err != nil {
			return Value{}, err
		}
		v := Range(lo, hi)
		return v, v.Validate()
	}

	n, err := parseNumber(raw)
	if err != nil {
		return Value{}, err
	}
	v := Value{scalar: n}
	return v, v.Validate()
}

func parseNumber(raw any) (Number, error) {
	switch n := raw.(type) {
	case int:
		return Number{Value: float64(n), Integer: true}, nil
	case int64:
		return Number{Value: float64(n), Integer: true}, nil
	case uint64:
		return Number{Value: float64(n), Integer: true}, nil
	case float64:
		return Number{Value: n}, nil
	case float32:
		return Number{Value: float64(n)}, nil
	default:
		return Number{}, fmt.Errorf("%w: %v (%T) is not a number", ErrInvalidRange, raw, raw)
	}
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
