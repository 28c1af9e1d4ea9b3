// Package primitive implements the built-in value ladder: the numeric
// tower (Number, Integer, Float and their eight/two concrete widths),
// Boolean, Character, String and Vector. Every concrete numeric class installs
// its behavior as override layers targeting its ancestor levels (see
// package class), rather than declaring its own Base vtable — an I64
// contributes nothing at its own depth; it supplies the Number-level
// arithmetic and Object-level equals/to_string/order for the Number and
// Object nodes of its own instance chain.
package primitive

import (
	"golang.org/x/exp/constraints"

	"github.com/sparklang/spark/pkg/object"
)

// truncate and narrow are the generic cast step setInt/setFloat dispatch
// to once they've picked the receiver's concrete Go type from its Kind:
// the same per-width reinterpretation every numeric class needs, written
// once with a type parameter instead of once per width.
func truncate[T constraints.Integer](n int64) T { return T(n) }

func narrow[T constraints.Float](f float64) T { return T(f) }

// rank places a numeric kind on a single tower so two operands can be
// compared regardless of signedness: all integer widths order below all
// float widths, and within each family wider ranks above narrower.
func rank(k object.Kind) int {
	switch k {
	case object.KindI8, object.KindU8:
		return 0
	case object.KindI16, object.KindU16:
		return 1
	case object.KindI32, object.KindU32:
		return 2
	case object.KindI64, object.KindU64:
		return 3
	case object.KindF32:
		return 4
	case object.KindF64:
		return 5
	default:
		return -1
	}
}

func isFloatKind(k object.Kind) bool { return k == object.KindF32 || k == object.KindF64 }

func isNumericKind(k object.Kind) bool { return rank(k) >= 0 }

// asInt reads any integer-kind payload as an int64.
func asInt(v *object.Value) int64 {
	switch n := v.Payload.(type) {
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	}
	return 0
}

// asFloat reads any numeric-kind payload as a float64.
func asFloat(v *object.Value) float64 {
	switch n := v.Payload.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return float64(asInt(v))
	}
}

// setInt writes n into v, truncating/reinterpreting to v's own integer
// width and signedness.
func setInt(v *object.Value, n int64) {
	switch v.Kind {
	case object.KindI8:
		v.Payload = truncate[int8](n)
	case object.KindI16:
		v.Payload = truncate[int16](n)
	case object.KindI32:
		v.Payload = truncate[int32](n)
	case object.KindI64:
		v.Payload = n
	case object.KindU8:
		v.Payload = truncate[uint8](n)
	case object.KindU16:
		v.Payload = truncate[uint16](n)
	case object.KindU32:
		v.Payload = truncate[uint32](n)
	case object.KindU64:
		v.Payload = truncate[uint64](n)
	}
}

// setFloat writes f into v, narrowing to float32 if v is F32.
func setFloat(v *object.Value, f float64) {
	if v.Kind == object.KindF32 {
		v.Payload = narrow[float32](f)
	} else {
		v.Payload = f
	}
}
