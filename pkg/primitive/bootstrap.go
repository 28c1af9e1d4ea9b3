package primitive

import "github.com/sparklang/spark/pkg/class"

// Bootstrap registers every built-in primitive class against r: the
// numeric tower (Number, Integer, Float and their concrete widths),
// Boolean, Char, String and Vector. Object itself is registered by
// class.Bootstrap, which callers must run first — every primitive class
// here declares "Object" as an ancestor and assumes it already exists.
func Bootstrap(r *class.Registry) {
	registerNumber(r)
	registerInteger(r)
	bootstrapIntegers(r)
	registerFloat(r)
	bootstrapFloats(r)
	bootstrapBoolean(r)
	bootstrapCharacter(r)
	bootstrapString(r)
	bootstrapVector(r)
}
