// Package image implements the "SPK" binary image format: the on-disk
// encoding of a class table, a deduplicated string table, and a shared
// block table that a loader turns into a populated class.Registry plus
// an entry Block ready to run, and a writer turns back the other way.
//
// Layout (little-endian throughout):
//
//	header       := 'S' 'P' 'K' u8 u8 u8        // magic + 3-byte version
//	class_table  := u64:len (class_entry)*
//	string_table := u64:len (u64:n utf8{n})*
//	block_table  := u64:len (bytecode)*
//	class_entry  := u64:name_idx
//	                u8 :has_parent
//	                [u64:parent_idx if has_parent]
//	                u64:method_count (method)*
//	                u64:override_count (override)*
//	method       := u64:name_idx bytecode
//	override     := u64:method_count u64:depth (method)*
//	bytecode     := u64:len (instr)*
//
// class_table precedes string_table in the byte stream even though its
// entries reference string indices: the loader reads class_table into a
// staged, index-only representation first and resolves names only once
// string_table (and, for any block-literal reference inside a method
// body, block_table) have themselves been decoded. The writer is free to
// emit sections in this order because index assignment — the "first
// sight" walk described below — happens entirely in memory before any
// bytes are written.
package image

import (
	"fmt"

	"github.com/sparklang/spark/pkg/object"
)

// Magic is the three-byte signature every image begins with.
const Magic = "SPK"

// Version is the image format version this package reads and writes.
type Version struct {
	Major, Minor, Patch uint8
}

// CurrentVersion is stamped on every image Write produces.
var CurrentVersion = Version{Major: 0, Minor: 1, Patch: 0}

// Literal tags: 0 is a
// string-table reference, 1..10 are scalars in declared width order
// (I8, I16, I32, I64, U8, U16, U32, U64, F32, F64 — the same order
// package primitive's integerWidths/floatWidths tables use), 11 is a
// Boolean, 12 is Nil, 13 is a block-table reference.
const (
	litString byte = iota
	litI8
	litI16
	litI32
	litI64
	litU8
	litU16
	litU32
	litU64
	litF32
	litF64
	litBool
	litNil
	litBlockRef
)

// scalarClasses maps a scalar literal tag to the built-in class it
// constructs an instance of.
var scalarClasses = map[byte]string{
	litI8: "I8", litI16: "I16", litI32: "I32", litI64: "I64",
	litU8: "U8", litU16: "U16", litU32: "U32", litU64: "U64",
	litF32: "F32", litF64: "F64",
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// MethodDef is one named bytecode method, in the order it appears in the
// image. The loader hands these to the registry as vtable entries but also
// keeps the ordered form, since a map would lose the definition order the
// writer needs to reproduce the image byte for byte.
type MethodDef struct {
	Name string
	Code *object.Block
}

// OverrideDef is one override layer: a method list installed at Depth
// levels above the declaring class.
type OverrideDef struct {
	Depth   int
	Methods []MethodDef
}

// ClassDef is one class entry, in image order. HasParent distinguishes a
// root class from one whose parent happens to be the empty string (the
// format writes an explicit presence byte, so the loader preserves it).
type ClassDef struct {
	Name      string
	Parent    string
	HasParent bool
	Methods   []MethodDef
	Overrides []OverrideDef
}
