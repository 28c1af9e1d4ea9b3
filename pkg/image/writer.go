package image

import (
	"fmt"
	"io"

	"github.com/sparklang/spark/pkg/bytecode"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/vmerrors"
)

// Write emits classes and blocks as an image Load can read back.
//
// String indices are assigned on first sight during a single in-memory
// staging walk (classes first, in order: each class's name and parent,
// then for every method and override method the names and string
// literals inside its body followed by the method's own name; then the
// names and string literals of the block table, in table order) and are
// never remapped afterwards. Blocks are emitted in the order given; a block
// referenced by a block-ref literal but absent from the list is appended
// after it, so callers normally only need to list the entry block and any
// blocks whose table position matters — the entry must be first, since
// the loader treats index 0 as the program's entry point.
func Write(w io.Writer, classes []ClassDef, blocks []*object.Block) error {
	st := newStaging()

	allBlocks := st.collectBlocks(classes, blocks)

	rawClasses := make([]rawClassEntry, len(classes))
	for i, c := range classes {
		rc, err := st.stageClass(c)
		if err != nil {
			return fmt.Errorf("image: class %q: %w", c.Name, err)
		}
		rawClasses[i] = rc
	}

	rawBlocks := make([]rawBlock, len(allBlocks))
	for i, blk := range allBlocks {
		rb, err := st.stageBlock(blk)
		if err != nil {
			return fmt.Errorf("image: block %d: %w", i, err)
		}
		rawBlocks[i] = rb
	}

	if err := writeHeader(w); err != nil {
		return err
	}
	if err := writeU64(w, uint64(len(rawClasses))); err != nil {
		return err
	}
	for _, rc := range rawClasses {
		if err := writeRawClassEntry(w, rc); err != nil {
			return err
		}
	}
	if err := writeU64(w, uint64(len(st.strings))); err != nil {
		return err
	}
	for _, s := range st.strings {
		if err := writeRawString(w, s); err != nil {
			return err
		}
	}
	if err := writeU64(w, uint64(len(rawBlocks))); err != nil {
		return err
	}
	for _, rb := range rawBlocks {
		if err := writeRawBlock(w, rb); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(w io.Writer) error {
	if _, err := io.WriteString(w, Magic); err != nil {
		return err
	}
	v := CurrentVersion
	_, err := w.Write([]byte{v.Major, v.Minor, v.Patch})
	return err
}

// staging accumulates the string table and the block index map during the
// in-memory walk that precedes any byte being written.
type staging struct {
	strings   []string
	stringIdx map[string]uint64
	blockIdx  map[*object.Block]uint64
}

func newStaging() *staging {
	return &staging{
		stringIdx: make(map[string]uint64),
		blockIdx:  make(map[*object.Block]uint64),
	}
}

// intern returns s's table index, assigning the next free one on first
// sight. A name keeps its first-seen index for the life of the image.
func (st *staging) intern(s string) uint64 {
	if idx, ok := st.stringIdx[s]; ok {
		return idx
	}
	idx := uint64(len(st.strings))
	st.strings = append(st.strings, s)
	st.stringIdx[s] = idx
	return idx
}

// collectBlocks assigns table indices: the caller's blocks in given order
// first, then any block reachable only through a block-ref literal
// (walking nested literals depth-first), appended in discovery order.
// Method bodies are encoded inline in the class table, so only their
// nested block literals contribute table entries, not the bodies
// themselves.
func (st *staging) collectBlocks(classes []ClassDef, blocks []*object.Block) []*object.Block {
	var all []*object.Block
	add := func(blk *object.Block) {
		if _, ok := st.blockIdx[blk]; ok {
			return
		}
		st.blockIdx[blk] = uint64(len(all))
		all = append(all, blk)
	}
	for _, blk := range blocks {
		add(blk)
	}
	var nested func(blk *object.Block)
	nested = func(blk *object.Block) {
		for _, lit := range blk.Literals {
			if lit == nil || lit.Kind != object.KindBlock {
				continue
			}
			inner, _ := lit.Payload.(*object.Block)
			if inner == nil {
				continue
			}
			if _, ok := st.blockIdx[inner]; ok {
				continue
			}
			add(inner)
			nested(inner)
		}
	}
	for _, blk := range blocks {
		nested(blk)
	}
	for _, c := range classes {
		for _, m := range c.Methods {
			nested(m.Code)
		}
		for _, ov := range c.Overrides {
			for _, m := range ov.Methods {
				nested(m.Code)
			}
		}
	}
	return all
}

func (st *staging) stageClass(c ClassDef) (rawClassEntry, error) {
	rc := rawClassEntry{
		NameIdx:   st.intern(c.Name),
		HasParent: c.HasParent,
	}
	if c.HasParent {
		rc.ParentIdx = st.intern(c.Parent)
	}
	var err error
	rc.Methods, err = st.stageMethods(c.Methods)
	if err != nil {
		return rawClassEntry{}, err
	}
	rc.Overrides = make([]rawOverride, len(c.Overrides))
	for i, ov := range c.Overrides {
		methods, err := st.stageMethods(ov.Methods)
		if err != nil {
			return rawClassEntry{}, fmt.Errorf("override %d: %w", i, err)
		}
		rc.Overrides[i] = rawOverride{Depth: ov.Depth, Methods: methods}
	}
	return rc, nil
}

func (st *staging) stageMethods(methods []MethodDef) ([]rawMethod, error) {
	out := make([]rawMethod, len(methods))
	for i, m := range methods {
		code, err := st.stageBlock(m.Code)
		if err != nil {
			return nil, fmt.Errorf("method %q: %w", m.Name, err)
		}
		out[i] = rawMethod{NameIdx: st.intern(m.Name), Code: code}
	}
	return out, nil
}

func (st *staging) stageBlock(blk *object.Block) (rawBlock, error) {
	instrs := make([]rawInstr, len(blk.Instructions))
	for i, instr := range blk.Instructions {
		ri := rawInstr{Op: instr.Op, N: instr.N}
		switch instr.Op {
		case bytecode.AccessClass, bytecode.SendMsg, bytecode.SendSuperMsg:
			ri.HasName = true
			ri.NameIdx = st.intern(instr.Name)
		case bytecode.PushLiteral:
			if instr.N < 0 || instr.N >= len(blk.Literals) {
				return rawBlock{}, fmt.Errorf("instruction %d: literal index %d out of range", i, instr.N)
			}
			lit, err := st.stageLiteral(blk.Literals[instr.N])
			if err != nil {
				return rawBlock{}, fmt.Errorf("instruction %d: %w", i, err)
			}
			ri.Lit = lit
		}
		instrs[i] = ri
	}
	return rawBlock{Instrs: instrs}, nil
}

// stageLiteral maps a literal value back to its on-disk tag. Only the
// shapes the format names are encodable; a frame or user object reached
// here is a program construction error, not an I/O failure.
func (st *staging) stageLiteral(v *object.Value) (*rawLiteral, error) {
	if v == nil {
		return &rawLiteral{Tag: litNil}, nil
	}
	switch v.Kind {
	case object.KindString:
		s, _ := v.Payload.(string)
		return &rawLiteral{Tag: litString, StrIdx: st.intern(s)}, nil
	case object.KindBoolean:
		b, _ := v.Payload.(bool)
		return &rawLiteral{Tag: litBool, BoolVal: b}, nil
	case object.KindBlock:
		blk, _ := v.Payload.(*object.Block)
		idx, ok := st.blockIdx[blk]
		if !ok {
			return nil, vmerrors.New(vmerrors.InvalidOperation, "block literal not in block table")
		}
		return &rawLiteral{Tag: litBlockRef, BlockIdx: idx}, nil
	case object.KindF32:
		f, _ := v.Payload.(float32)
		return &rawLiteral{Tag: litF32, ScalarF: float64(f)}, nil
	case object.KindF64:
		f, _ := v.Payload.(float64)
		return &rawLiteral{Tag: litF64, ScalarF: f}, nil
	}
	if tag, ok := integerTag(v.Kind); ok {
		return &rawLiteral{Tag: tag, ScalarI: integerPayload(v.Payload)}, nil
	}
	return nil, vmerrors.New(vmerrors.InvalidType, "a %s cannot be an image literal", v.Class)
}

func integerTag(k object.Kind) (byte, bool) {
	switch k {
	case object.KindI8:
		return litI8, true
	case object.KindI16:
		return litI16, true
	case object.KindI32:
		return litI32, true
	case object.KindI64:
		return litI64, true
	case object.KindU8:
		return litU8, true
	case object.KindU16:
		return litU16, true
	case object.KindU32:
		return litU32, true
	case object.KindU64:
		return litU64, true
	}
	return 0, false
}

func integerPayload(p interface{}) int64 {
	switch n := p.(type) {
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
