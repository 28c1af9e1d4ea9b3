// Package class builds Values from class definitions: it owns the
// name-to-parent predeclaration table the built-ins need (so "Integer"
// can name "Number" as its parent before Number itself is fully
// registered), the per-class vtable and override-layer bookkeeping, and
// the construction sequence that turns a class name and a set of
// constructor arguments into a fully initialized Value chain.
package class

import (
	"fmt"
	"sync"

	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/vmerrors"
)

// Override is a vtable installed at a fixed distance above the class that
// declares it. Depth 0 means the class's own level; depth 1 its immediate
// parent's level; and so on. Built-in primitives use this to let a
// concrete numeric class (I64, say) supply the Number-level arithmetic and
// Object-level equals/to_string/order for every instance built from it,
// without those ancestor classes knowing I64 exists.
type Override struct {
	Depth  int
	VTable object.VTable
}

// Class is one level of the inheritance ladder: a name, its parent's name,
// the vtable this class contributes at its own level, and any override
// layers it installs at ancestor levels when instantiated.
type Class struct {
	Name      string
	Parent    string
	Base      object.VTable
	Overrides []Override
	// Kind tags every Value built at this class's level with the payload
	// shape native code should expect. Zero (object.KindObject) for
	// ordinary classes; set by package primitive's built-ins.
	Kind object.Kind
}

// Registry is the set of known classes, keyed by name. A name may be
// declared (its parent known) before the Class itself is registered, which
// is how the built-in ladder is wired up: every built-in's parent name is
// declared up front, then each class is registered bottom-up.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
	parents map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]*Class),
		parents: make(map[string]string),
	}
}

// DeclareParent predeclares name's parent class name. Safe to call before
// either class is registered.
func (r *Registry) DeclareParent(name, parent string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parents[name] = parent
}

// Register installs a class definition. If c.Parent was already declared
// via DeclareParent with a different value, the declared value wins (the
// predeclaration table is the source of truth for the inheritance tree).
func (r *Registry) Register(c *Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.parents[c.Name]; ok {
		c.Parent = p
	} else if c.Parent != "" {
		r.parents[c.Name] = c.Parent
	}
	r.classes[c.Name] = c
}

// Lookup returns the registered class definition for name.
func (r *Registry) Lookup(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[name]
	return c, ok
}

// ParentOf returns the parent class name for name, or "" if name is a root
// class or unknown.
func (r *Registry) ParentOf(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.parents[name]
}

// chain returns name and each of its ancestor names, outermost first,
// ending at the root class.
func (r *Registry) chain(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for n := name; n != ""; n = r.parents[n] {
		out = append(out, n)
	}
	return out
}

// Construct builds a Value chain for name without running Initialize: one
// Value per ancestor, linked through Super, root innermost. Only the
// outermost (named) level receives fields, sized to len(fieldSeed) and
// populated from it; ancestor levels get no fields of their own. Callers
// that need to preload a primitive payload should set Payload on the
// returned Value before calling Initialize.
func (r *Registry) Construct(name string, fieldSeed []*object.Value) (*object.Value, error) {
	names := r.chain(name)
	if len(names) == 0 {
		return nil, vmerrors.New(vmerrors.InvalidType, "unknown class %q", name)
	}
	var super *object.Value
	for i := len(names) - 1; i >= 0; i-- {
		c, ok := r.Lookup(names[i])
		if !ok {
			return nil, vmerrors.New(vmerrors.InvalidType, "unknown class %q", names[i])
		}
		v := &object.Value{
			Class:  names[i],
			Super:  super,
			VTable: make(object.VTable),
			Kind:   c.Kind,
		}
		if i == 0 {
			v.Fields = append([]*object.Value(nil), fieldSeed...)
		}
		super = v
	}
	return super, nil
}

// Initialize walks v's super chain merging each level's own class vtable,
// plus any override layer the concrete class (v.Class) declared for that
// level's depth. Overrides declared by an intermediate ancestor class are
// shifted by that class's own distance from v, so a subclass automatically
// inherits the override positions its parent declared. Where two classes'
// overrides target the same absolute depth, the one declared by the class
// closer to v wins.
func (r *Registry) Initialize(v *object.Value) error {
	overrides, err := r.overridesByDepth(v.Class)
	if err != nil {
		return err
	}
	return r.initializeChain(v, overrides, 0)
}

func (r *Registry) overridesByDepth(name string) (map[int]object.VTable, error) {
	names := r.chain(name)
	out := make(map[int]object.VTable)
	for pos := len(names) - 1; pos >= 0; pos-- {
		c, ok := r.Lookup(names[pos])
		if !ok {
			return nil, vmerrors.New(vmerrors.InvalidType, "unknown class %q", names[pos])
		}
		for _, ov := range c.Overrides {
			abs := pos + ov.Depth
			dst, ok := out[abs]
			if !ok {
				dst = make(object.VTable)
				out[abs] = dst
			}
			dst.Extend(ov.VTable)
		}
	}
	return out, nil
}

func (r *Registry) initializeChain(v *object.Value, overrides map[int]object.VTable, depth int) error {
	c, ok := r.Lookup(v.Class)
	if !ok {
		return vmerrors.New(vmerrors.InvalidType, "unknown class %q", v.Class)
	}
	v.VTable.Extend(c.Base)
	if ov, ok := overrides[depth]; ok {
		v.VTable.Extend(ov)
	}
	if v.Super != nil {
		return r.initializeChain(v.Super, overrides, depth+1)
	}
	return nil
}

// New constructs and initializes an instance of name with the given
// constructor arguments copied into its outermost fields.
func (r *Registry) New(name string, args []*object.Value) (*object.Value, error) {
	v, err := r.Construct(name, args)
	if err != nil {
		return nil, err
	}
	if err := r.Initialize(v); err != nil {
		return nil, err
	}
	return v, nil
}

// NewPrimitive constructs an instance of name with no constructor
// arguments, preloads its Payload, and initializes it. This is how every
// built-in scalar (integers, floats, booleans, characters, strings,
// vectors) is built: the payload must be in place before Initialize runs
// so that, if a class's own vtable construction ever inspects it, it sees
// real data rather than a zero value.
func (r *Registry) NewPrimitive(name string, payload interface{}) (*object.Value, error) {
	v, err := r.Construct(name, nil)
	if err != nil {
		return nil, err
	}
	v.Payload = payload
	if err := r.Initialize(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Lookup walks v's own vtable then its super chain looking for selector.
func Lookup(v *object.Value, selector string) (*object.Method, *object.Value) {
	for node := v; node != nil; node = node.Super {
		if m, ok := node.VTable[selector]; ok {
			return m, node
		}
	}
	return nil, nil
}

// String describes a class for diagnostics.
func (c *Class) String() string {
	return fmt.Sprintf("Class(%s < %s)", c.Name, c.Parent)
}
