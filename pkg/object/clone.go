package object

// CloneValue deep-duplicates v's super chain and vtables, producing a new,
// independent instance graph. Fields are copied into a new slice but the
// field values themselves are shared (cloning does not recurse into
// fields), matching the shallow-copy semantics of every object system this
// one is patterned on: a clone of a point is a new point, not a new point
// whose coordinate objects are themselves freshly cloned.
func CloneValue(v *Value) *Value {
	if v == nil {
		return nil
	}
	clone := &Value{
		Class:   v.Class,
		Super:   CloneValue(v.Super),
		VTable:  v.VTable.Clone(),
		Fields:  append([]*Value(nil), v.Fields...),
		Kind:    v.Kind,
		Payload: v.Payload,
	}
	return clone
}

// Identity reports whether a and b are the exact same Value node.
func Identity(a, b *Value) bool { return a == b }
