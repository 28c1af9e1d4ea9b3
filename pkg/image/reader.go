package image

import (
	"fmt"
	"io"

	"github.com/sparklang/spark/pkg/bytecode"
	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/vmerrors"
)

// Loaded is the result of reading an image: the registry it populated
// (in addition to whatever built-ins the caller had already registered),
// the program's entry block — the first entry in the block table, by
// convention the top-level block the host driver runs — and the class
// definitions in image order, which Write needs to reproduce the image.
type Loaded struct {
	Entry   *object.Block
	Blocks  []*object.Block
	Classes []ClassDef
}

// Load reads an image from r into registry. registry must already carry
// the built-in ladder (class.Bootstrap, primitive.Bootstrap and
// host.Bootstrap all run) since an image only ever defines additional,
// image-specific classes layered on top of those — the loader never
// redefines a built-in.
//
// Decoding happens in four steps, forced by the section order the
// format fixes (class_table before string_table before block_table):
// class_table is first read into a raw, index-only staging area since
// its method bodies may reference strings and blocks that have not been
// read yet; string_table is read in full; block_table is then decoded
// completely and eagerly,
// resolving string and block references as it goes; finally the
// staged class_table is resolved against both now-complete tables and
// registered.
func Load(r io.Reader, registry *class.Registry) (*Loaded, error) {
	if err := readHeader(r); err != nil {
		return nil, err
	}

	rawClasses, err := readRawClassTable(r)
	if err != nil {
		return nil, fmt.Errorf("image: class table: %w", err)
	}

	strings, err := readStringTable(r)
	if err != nil {
		return nil, fmt.Errorf("image: string table: %w", err)
	}

	blocks, err := readBlockTable(r, strings, registry)
	if err != nil {
		return nil, fmt.Errorf("image: block table: %w", err)
	}

	classes, err := resolveClassTable(registry, rawClasses, strings, blocks)
	if err != nil {
		return nil, fmt.Errorf("image: resolving class table: %w", err)
	}

	var entry *object.Block
	if len(blocks) > 0 {
		entry = blocks[0]
	}
	return &Loaded{Entry: entry, Blocks: blocks, Classes: classes}, nil
}

func readHeader(r io.Reader) error {
	var magic [3]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return fmt.Errorf("image: reading magic: %w", err)
	}
	if string(magic[:]) != Magic {
		return vmerrors.New(vmerrors.InvalidOperation, "image: bad magic %q, expected %q", magic, Magic)
	}
	var version [3]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return fmt.Errorf("image: reading version: %w", err)
	}
	return nil
}

func readRawClassTable(r io.Reader) ([]rawClassEntry, error) {
	count, err := readU64(r)
	if err != nil {
		return nil, err
	}
	entries := make([]rawClassEntry, count)
	for i := range entries {
		e, err := readRawClassEntry(r)
		if err != nil {
			return nil, fmt.Errorf("class %d: %w", i, err)
		}
		entries[i] = e
	}
	return entries, nil
}

func readStringTable(r io.Reader) ([]string, error) {
	count, err := readU64(r)
	if err != nil {
		return nil, err
	}
	out := make([]string, count)
	for i := range out {
		s, err := readRawString(r)
		if err != nil {
			return nil, fmt.Errorf("string %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// readBlockTable decodes the whole block table eagerly. Every Block is
// allocated up front so a block-ref literal may point at any table entry,
// forward or backward — the entry block sits at index 0 by convention, and
// it is the block most likely to reference nested blocks defined after it.
func readBlockTable(r io.Reader, strings []string, registry *class.Registry) ([]*object.Block, error) {
	count, err := readU64(r)
	if err != nil {
		return nil, err
	}
	raws := make([]rawBlock, count)
	for i := range raws {
		raw, err := readRawBlockBody(r)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		raws[i] = raw
	}
	blocks := make([]*object.Block, count)
	for i := range blocks {
		blocks[i] = &object.Block{}
	}
	for i, raw := range raws {
		if err := resolveBlockInto(blocks[i], raw, strings, blocks, registry); err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
	}
	return blocks, nil
}

// resolveBlock turns a raw, index-only block body into a real Block.
func resolveBlock(raw rawBlock, strings []string, blocks []*object.Block, registry *class.Registry) (*object.Block, error) {
	blk := &object.Block{}
	if err := resolveBlockInto(blk, raw, strings, blocks, registry); err != nil {
		return nil, err
	}
	return blk, nil
}

// resolveBlockInto fills blk from a raw, index-only block body: it builds
// the block's own literal pool as it walks instructions, rewriting each
// PushLiteral's N to index into that pool, and resolves AccessClass/
// SendMsg/SendSuperMsg names through the string table. blocks is the full
// (pre-allocated) block table, so a block-ref literal may name any entry.
func resolveBlockInto(blk *object.Block, raw rawBlock, strings []string, blocks []*object.Block, registry *class.Registry) error {
	for idx, in := range raw.Instrs {
		instr := bytecode.Instruction{Op: in.Op, N: in.N}
		if in.HasName {
			name, err := lookupString(strings, in.NameIdx)
			if err != nil {
				return fmt.Errorf("instruction %d: %w", idx, err)
			}
			instr.Name = name
		}
		if in.Op == bytecode.PushLiteral {
			lit, err := resolveLiteral(in.Lit, strings, blocks, registry)
			if err != nil {
				return fmt.Errorf("instruction %d: %w", idx, err)
			}
			instr.N = len(blk.Literals)
			blk.Literals = append(blk.Literals, lit)
		}
		blk.Instructions = append(blk.Instructions, instr)
	}
	return nil
}

// resolveLiteral materializes a decoded literal as a fully initialized
// Value via registry.NewPrimitive, so a literal integer or string can
// answer the same messages any other instance of its class can — a
// hand-built Value with no Super chain or VTable would not. Nil stays a
// literal Go nil, matching how a missing field or out-of-range argument
// slot is represented everywhere else in this runtime.
func resolveLiteral(lit *rawLiteral, strings []string, blocks []*object.Block, registry *class.Registry) (*object.Value, error) {
	switch lit.Tag {
	case litString:
		s, err := lookupString(strings, lit.StrIdx)
		if err != nil {
			return nil, err
		}
		return registry.NewPrimitive("String", s)
	case litI8, litI16, litI32, litI64, litU8, litU16, litU32, litU64:
		return registry.NewPrimitive(scalarClasses[lit.Tag], truncatePayload(lit.Tag, lit.ScalarI))
	case litF32, litF64:
		return registry.NewPrimitive(scalarClasses[lit.Tag], narrowPayload(lit.Tag, lit.ScalarF))
	case litBool:
		return registry.NewPrimitive("Boolean", lit.BoolVal)
	case litNil:
		return nil, nil
	case litBlockRef:
		if lit.BlockIdx >= uint64(len(blocks)) {
			return nil, vmerrors.New(vmerrors.InvalidOperation, "block literal references undefined block %d", lit.BlockIdx)
		}
		return registry.NewPrimitive("Block", blocks[lit.BlockIdx])
	default:
		return nil, vmerrors.New(vmerrors.InvalidOperation, "unknown literal tag 0x%02x", lit.Tag)
	}
}

// truncatePayload reinterprets n at the scalar's declared integer width,
// mirroring what setInt does for a mutated receiver so a literal built
// from the image and one built at runtime carry identically shaped
// payloads.
func truncatePayload(tag byte, n int64) interface{} {
	switch tag {
	case litI8:
		return int8(n)
	case litI16:
		return int16(n)
	case litI32:
		return int32(n)
	case litI64:
		return n
	case litU8:
		return uint8(n)
	case litU16:
		return uint16(n)
	case litU32:
		return uint32(n)
	case litU64:
		return uint64(n)
	default:
		return n
	}
}

func narrowPayload(tag byte, f float64) interface{} {
	if tag == litF32 {
		return float32(f)
	}
	return f
}

func lookupString(strings []string, idx uint64) (string, error) {
	if idx >= uint64(len(strings)) {
		return "", vmerrors.New(vmerrors.InvalidOperation, "string index %d out of range", idx)
	}
	return strings[idx], nil
}

// resolveClassTable turns every staged rawClassEntry into an ordered
// ClassDef and registers it. Parents are declared for every class before
// any class is registered, so forward references in the file (a subclass
// listed before its parent) resolve the same way package class's own
// built-in bootstrap relies on: DeclareParent never requires the parent
// to exist yet.
func resolveClassTable(registry *class.Registry, raw []rawClassEntry, strings []string, blocks []*object.Block) ([]ClassDef, error) {
	out := make([]ClassDef, len(raw))
	for i, c := range raw {
		name, err := lookupString(strings, c.NameIdx)
		if err != nil {
			return nil, fmt.Errorf("class %d name: %w", i, err)
		}
		var parent string
		if c.HasParent {
			parent, err = lookupString(strings, c.ParentIdx)
			if err != nil {
				return nil, fmt.Errorf("class %d parent: %w", i, err)
			}
		}
		methods, err := resolveMethods(c.Methods, strings, blocks, registry)
		if err != nil {
			return nil, fmt.Errorf("class %q methods: %w", name, err)
		}
		overrides := make([]OverrideDef, len(c.Overrides))
		for j, ov := range c.Overrides {
			ms, err := resolveMethods(ov.Methods, strings, blocks, registry)
			if err != nil {
				return nil, fmt.Errorf("class %q override %d: %w", name, j, err)
			}
			overrides[j] = OverrideDef{Depth: ov.Depth, Methods: ms}
		}
		out[i] = ClassDef{Name: name, Parent: parent, HasParent: c.HasParent, Methods: methods, Overrides: overrides}
	}
	for _, c := range out {
		if c.HasParent {
			registry.DeclareParent(c.Name, c.Parent)
		}
	}
	for _, c := range out {
		registry.Register(c.toClass())
	}
	return out, nil
}

// toClass converts an ordered ClassDef into the map-keyed form the
// registry dispatches against.
func (c ClassDef) toClass() *class.Class {
	overrides := make([]class.Override, len(c.Overrides))
	for i, ov := range c.Overrides {
		overrides[i] = class.Override{Depth: ov.Depth, VTable: methodsToVTable(ov.Methods)}
	}
	return &class.Class{Name: c.Name, Parent: c.Parent, Base: methodsToVTable(c.Methods), Overrides: overrides}
}

func methodsToVTable(methods []MethodDef) object.VTable {
	vt := make(object.VTable, len(methods))
	for _, m := range methods {
		vt[m.Name] = object.NewBytecode(m.Code)
	}
	return vt
}

func resolveMethods(methods []rawMethod, strings []string, blocks []*object.Block, registry *class.Registry) ([]MethodDef, error) {
	out := make([]MethodDef, len(methods))
	for i, m := range methods {
		name, err := lookupString(strings, m.NameIdx)
		if err != nil {
			return nil, err
		}
		blk, err := resolveBlock(m.Code, strings, blocks, registry)
		if err != nil {
			return nil, fmt.Errorf("method %q: %w", name, err)
		}
		out[i] = MethodDef{Name: name, Code: blk}
	}
	return out, nil
}
