package image

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/sparklang/spark/pkg/bytecode"
)

// rawLiteral is a literal exactly as it sits on disk: string and block
// references are left as raw table indices, scalars and Nil/Boolean
// carry their value directly.
type rawLiteral struct {
	Tag      byte
	ScalarI  int64
	ScalarF  float64
	BoolVal  bool
	StrIdx   uint64
	BlockIdx uint64
}

// rawInstr is one instruction exactly as it sits on disk: AccessClass,
// SendMsg and SendSuperMsg keep their selector/class name as a raw
// string-table index (hasName/nameIdx) rather than a resolved string,
// since string_table has not been read yet when class_table's method
// bodies are decoded.
type rawInstr struct {
	Op      bytecode.Op
	N       int
	HasName bool
	NameIdx uint64
	Lit     *rawLiteral
}

type rawBlock struct {
	Instrs []rawInstr
}

type rawMethod struct {
	NameIdx uint64
	Code    rawBlock
}

type rawOverride struct {
	Depth   int
	Methods []rawMethod
}

type rawClassEntry struct {
	NameIdx   uint64
	HasParent bool
	ParentIdx uint64
	Methods   []rawMethod
	Overrides []rawOverride
}

func writeU64(w io.Writer, n uint64) error {
	return binary.Write(w, binary.LittleEndian, n)
}

func readU64(r io.Reader) (uint64, error) {
	var n uint64
	err := binary.Read(r, binary.LittleEndian, &n)
	return n, err
}

func writeU8(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func readU8(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// writeRawString writes s as u64:n followed by n UTF-8 bytes.
func writeRawString(w io.Writer, s string) error {
	if err := writeU64(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// readRawString reads a length-prefixed string, replacing any invalid
// UTF-8 byte sequence with U+FFFD rather than failing the load outright.
func readRawString(r io.Reader) (string, error) {
	n, err := readU64(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return sanitizeUTF8(buf), nil
	}
	return string(buf), nil
}

func sanitizeUTF8(buf []byte) string {
	out := make([]rune, 0, len(buf))
	for len(buf) > 0 {
		r, size := utf8.DecodeRune(buf)
		out = append(out, r)
		buf = buf[size:]
	}
	return string(out)
}

func writeRawInstr(w io.Writer, in rawInstr) error {
	if err := writeU8(w, byte(in.Op)); err != nil {
		return err
	}
	if err := writeU64(w, uint64(int64(in.N))); err != nil {
		return err
	}
	hasName := byte(0)
	if in.HasName {
		hasName = 1
	}
	if err := writeU8(w, hasName); err != nil {
		return err
	}
	if in.HasName {
		if err := writeU64(w, in.NameIdx); err != nil {
			return err
		}
	}
	if in.Op == bytecode.PushLiteral {
		return writeRawLiteral(w, in.Lit)
	}
	return nil
}

func readRawInstr(r io.Reader) (rawInstr, error) {
	opByte, err := readU8(r)
	if err != nil {
		return rawInstr{}, err
	}
	nRaw, err := readU64(r)
	if err != nil {
		return rawInstr{}, err
	}
	hasNameByte, err := readU8(r)
	if err != nil {
		return rawInstr{}, err
	}
	in := rawInstr{Op: bytecode.Op(opByte), N: int(int64(nRaw)), HasName: hasNameByte != 0}
	if in.HasName {
		idx, err := readU64(r)
		if err != nil {
			return rawInstr{}, err
		}
		in.NameIdx = idx
	}
	if in.Op == bytecode.PushLiteral {
		lit, err := readRawLiteral(r)
		if err != nil {
			return rawInstr{}, err
		}
		in.Lit = lit
	}
	return in, nil
}

func writeRawLiteral(w io.Writer, lit *rawLiteral) error {
	if err := writeU8(w, lit.Tag); err != nil {
		return err
	}
	switch lit.Tag {
	case litString:
		return writeU64(w, lit.StrIdx)
	case litI8, litI16, litI32, litI64, litU8, litU16, litU32, litU64:
		return binary.Write(w, binary.LittleEndian, lit.ScalarI)
	case litF32, litF64:
		return binary.Write(w, binary.LittleEndian, lit.ScalarF)
	case litBool:
		b := byte(0)
		if lit.BoolVal {
			b = 1
		}
		return writeU8(w, b)
	case litNil:
		return nil
	case litBlockRef:
		return writeU64(w, lit.BlockIdx)
	default:
		return fmt.Errorf("image: unknown literal tag 0x%02x", lit.Tag)
	}
}

func readRawLiteral(r io.Reader) (*rawLiteral, error) {
	tag, err := readU8(r)
	if err != nil {
		return nil, err
	}
	lit := &rawLiteral{Tag: tag}
	switch tag {
	case litString:
		idx, err := readU64(r)
		if err != nil {
			return nil, err
		}
		lit.StrIdx = idx
	case litI8, litI16, litI32, litI64, litU8, litU16, litU32, litU64:
		if err := binary.Read(r, binary.LittleEndian, &lit.ScalarI); err != nil {
			return nil, err
		}
	case litF32, litF64:
		if err := binary.Read(r, binary.LittleEndian, &lit.ScalarF); err != nil {
			return nil, err
		}
	case litBool:
		b, err := readU8(r)
		if err != nil {
			return nil, err
		}
		lit.BoolVal = b != 0
	case litNil:
		// no payload
	case litBlockRef:
		idx, err := readU64(r)
		if err != nil {
			return nil, err
		}
		lit.BlockIdx = idx
	default:
		return nil, fmt.Errorf("image: unknown literal tag 0x%02x", tag)
	}
	return lit, nil
}

func writeRawBlock(w io.Writer, blk rawBlock) error {
	if err := writeU64(w, uint64(len(blk.Instrs))); err != nil {
		return err
	}
	for _, in := range blk.Instrs {
		if err := writeRawInstr(w, in); err != nil {
			return err
		}
	}
	return nil
}

func readRawBlockBody(r io.Reader) (rawBlock, error) {
	n, err := readU64(r)
	if err != nil {
		return rawBlock{}, err
	}
	instrs := make([]rawInstr, n)
	for i := range instrs {
		in, err := readRawInstr(r)
		if err != nil {
			return rawBlock{}, fmt.Errorf("image: instruction %d: %w", i, err)
		}
		instrs[i] = in
	}
	return rawBlock{Instrs: instrs}, nil
}

func writeRawMethod(w io.Writer, m rawMethod) error {
	if err := writeU64(w, m.NameIdx); err != nil {
		return err
	}
	return writeRawBlock(w, m.Code)
}

func readRawMethod(r io.Reader) (rawMethod, error) {
	nameIdx, err := readU64(r)
	if err != nil {
		return rawMethod{}, err
	}
	code, err := readRawBlockBody(r)
	if err != nil {
		return rawMethod{}, err
	}
	return rawMethod{NameIdx: nameIdx, Code: code}, nil
}

func writeRawOverride(w io.Writer, ov rawOverride) error {
	if err := writeU64(w, uint64(len(ov.Methods))); err != nil {
		return err
	}
	if err := writeU64(w, uint64(ov.Depth)); err != nil {
		return err
	}
	for _, m := range ov.Methods {
		if err := writeRawMethod(w, m); err != nil {
			return err
		}
	}
	return nil
}

func readRawOverride(r io.Reader) (rawOverride, error) {
	count, err := readU64(r)
	if err != nil {
		return rawOverride{}, err
	}
	depth, err := readU64(r)
	if err != nil {
		return rawOverride{}, err
	}
	methods := make([]rawMethod, count)
	for i := range methods {
		m, err := readRawMethod(r)
		if err != nil {
			return rawOverride{}, err
		}
		methods[i] = m
	}
	return rawOverride{Depth: int(depth), Methods: methods}, nil
}

func writeRawClassEntry(w io.Writer, c rawClassEntry) error {
	if err := writeU64(w, c.NameIdx); err != nil {
		return err
	}
	hasParent := byte(0)
	if c.HasParent {
		hasParent = 1
	}
	if err := writeU8(w, hasParent); err != nil {
		return err
	}
	if c.HasParent {
		if err := writeU64(w, c.ParentIdx); err != nil {
			return err
		}
	}
	if err := writeU64(w, uint64(len(c.Methods))); err != nil {
		return err
	}
	for _, m := range c.Methods {
		if err := writeRawMethod(w, m); err != nil {
			return err
		}
	}
	if err := writeU64(w, uint64(len(c.Overrides))); err != nil {
		return err
	}
	for _, ov := range c.Overrides {
		if err := writeRawOverride(w, ov); err != nil {
			return err
		}
	}
	return nil
}

func readRawClassEntry(r io.Reader) (rawClassEntry, error) {
	nameIdx, err := readU64(r)
	if err != nil {
		return rawClassEntry{}, err
	}
	hasParentByte, err := readU8(r)
	if err != nil {
		return rawClassEntry{}, err
	}
	c := rawClassEntry{NameIdx: nameIdx, HasParent: hasParentByte != 0}
	if c.HasParent {
		idx, err := readU64(r)
		if err != nil {
			return rawClassEntry{}, err
		}
		c.ParentIdx = idx
	}
	methodCount, err := readU64(r)
	if err != nil {
		return rawClassEntry{}, err
	}
	c.Methods = make([]rawMethod, methodCount)
	for i := range c.Methods {
		m, err := readRawMethod(r)
		if err != nil {
			return rawClassEntry{}, fmt.Errorf("image: class method %d: %w", i, err)
		}
		c.Methods[i] = m
	}
	overrideCount, err := readU64(r)
	if err != nil {
		return rawClassEntry{}, err
	}
	c.Overrides = make([]rawOverride, overrideCount)
	for i := range c.Overrides {
		ov, err := readRawOverride(r)
		if err != nil {
			return rawClassEntry{}, fmt.Errorf("image: class override %d: %w", i, err)
		}
		c.Overrides[i] = ov
	}
	return c, nil
}
