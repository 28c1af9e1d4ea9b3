package primitive

import (
	"strconv"

	"github.com/sparklang/spark/pkg/object"
)

func integerToString(v *object.Value) string {
	if v.Kind == object.KindU8 || v.Kind == object.KindU16 || v.Kind == object.KindU32 || v.Kind == object.KindU64 {
		return strconv.FormatUint(uint64(asInt(v)), 10)
	}
	return strconv.FormatInt(asInt(v), 10)
}

func floatToString(v *object.Value) string {
	bits := 64
	if v.Kind == object.KindF32 {
		bits = 32
	}
	return strconv.FormatFloat(asFloat(v), 'g', -1, bits)
}
