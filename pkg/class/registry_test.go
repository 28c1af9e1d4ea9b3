package class

import (
	"errors"
	"testing"

	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/vmerrors"
)

func nativeReturningNil() *object.Method {
	return object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
		return nil, nil
	})
}

// taggedNative builds a native whose identity the tests can recognize by
// comparing method pointers after a lookup.
func taggedNative() *object.Method {
	return nativeReturningNil()
}

func newTestRegistry() *Registry {
	r := NewRegistry()
	Bootstrap(r)
	return r
}

func TestConstructBuildsFullChain(t *testing.T) {
	r := newTestRegistry()
	r.DeclareParent("A", "Object")
	r.Register(&Class{Name: "A"})
	r.DeclareParent("B", "A")
	r.Register(&Class{Name: "B"})

	v, err := r.New("B", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	var classes []string
	for node := v; node != nil; node = node.Super {
		classes = append(classes, node.Class)
	}
	want := []string{"B", "A", "Object"}
	if len(classes) != len(want) {
		t.Fatalf("expected chain %v, got %v", want, classes)
	}
	for i := range want {
		if classes[i] != want[i] {
			t.Fatalf("expected chain %v, got %v", want, classes)
		}
	}
}

func TestNewCopiesConstructorArgumentsIntoFields(t *testing.T) {
	r := newTestRegistry()
	r.DeclareParent("Pair", "Object")
	r.Register(&Class{Name: "Pair"})

	a, _ := r.NewPrimitive("Object", nil)
	b, _ := r.NewPrimitive("Object", nil)
	v, err := r.New("Pair", []*object.Value{a, b})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if len(v.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(v.Fields))
	}
	if v.GetField(0) != a || v.GetField(1) != b {
		t.Error("constructor arguments were not copied into fields in order")
	}
	if v.Super == nil || len(v.Super.Fields) != 0 {
		t.Error("ancestor levels must not receive the constructor's fields")
	}
}

func TestUnknownClassIsInvalidType(t *testing.T) {
	r := newTestRegistry()
	_, err := r.New("NoSuchClass", nil)
	var re *vmerrors.RuntimeError
	if !errors.As(err, &re) || re.Kind != vmerrors.InvalidType {
		t.Fatalf("expected InvalidType, got %v", err)
	}
}

func TestLookupWalksSuperChain(t *testing.T) {
	r := newTestRegistry()
	m := taggedNative()
	r.DeclareParent("Animal", "Object")
	r.Register(&Class{Name: "Animal", Base: object.VTable{"speak": m}})
	r.DeclareParent("Dog", "Animal")
	r.Register(&Class{Name: "Dog"})

	v, err := r.New("Dog", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	found, owner := Lookup(v, "speak")
	if found != m {
		t.Fatal("lookup did not find the ancestor's method")
	}
	if owner.Class != "Animal" {
		t.Errorf("expected the Animal level to own the method, got %s", owner.Class)
	}
}

// TestLookupMatchesSimulatedClassWalk checks the lookup-consistency
// property: the vtable walk over a fresh instance agrees with a search
// over the class graph itself, for every selector any level declares.
func TestLookupMatchesSimulatedClassWalk(t *testing.T) {
	r := newTestRegistry()
	r.DeclareParent("Base", "Object")
	r.Register(&Class{Name: "Base", Base: object.VTable{
		"shared": taggedNative(),
		"base":   taggedNative(),
	}})
	r.DeclareParent("Mid", "Base")
	r.Register(&Class{Name: "Mid", Base: object.VTable{
		"shared": taggedNative(),
		"mid":    taggedNative(),
	}})
	r.DeclareParent("Leaf", "Mid")
	r.Register(&Class{Name: "Leaf", Base: object.VTable{
		"leaf": taggedNative(),
	}})

	v, err := r.New("Leaf", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Simulated search: walk the class graph from Leaf to the root,
	// answering the first class declaring the selector.
	simulate := func(selector string) *object.Method {
		for name := "Leaf"; name != ""; name = r.ParentOf(name) {
			c, ok := r.Lookup(name)
			if !ok {
				t.Fatalf("class %q missing", name)
			}
			if m, ok := c.Base[selector]; ok {
				return m
			}
		}
		return nil
	}

	for _, selector := range []string{"shared", "base", "mid", "leaf", "clone", "missing"} {
		walked, _ := Lookup(v, selector)
		if want := simulate(selector); walked != want {
			t.Errorf("selector %q: instance walk and class-graph walk disagree", selector)
		}
	}
}

func TestOverrideInstallsAtDeclaredDepth(t *testing.T) {
	r := newTestRegistry()
	base := taggedNative()
	override := taggedNative()
	r.DeclareParent("Parent", "Object")
	r.Register(&Class{Name: "Parent", Base: object.VTable{"greet": base}})
	r.DeclareParent("Child", "Parent")
	r.Register(&Class{
		Name: "Child",
		Overrides: []Override{
			{Depth: 1, VTable: object.VTable{"greet": override}},
		},
	})

	child, err := r.New("Child", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	// The override shadows the parent's base method at the parent's own
	// level of the child's chain...
	if m, owner := Lookup(child, "greet"); m != override || owner.Class != "Parent" {
		t.Error("override was not installed at the Parent level of a Child instance")
	}
	// ...but a plain Parent instance keeps its base behavior.
	parent, err := r.New("Parent", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if m, _ := Lookup(parent, "greet"); m != base {
		t.Error("a Parent instance must not see Child's override")
	}
}

// TestOverrideDepthShiftsForSubclasses checks that an override declared by
// an intermediate class lands at the same ancestor level when a deeper
// subclass is instantiated: the declared depth is relative to the
// declaring class, not to the concrete class being built.
func TestOverrideDepthShiftsForSubclasses(t *testing.T) {
	r := newTestRegistry()
	base := taggedNative()
	override := taggedNative()
	r.DeclareParent("Top", "Object")
	r.Register(&Class{Name: "Top", Base: object.VTable{"greet": base}})
	r.DeclareParent("Middle", "Top")
	r.Register(&Class{
		Name: "Middle",
		Overrides: []Override{
			{Depth: 1, VTable: object.VTable{"greet": override}},
		},
	})
	r.DeclareParent("Bottom", "Middle")
	r.Register(&Class{Name: "Bottom"})

	v, err := r.New("Bottom", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	m, owner := Lookup(v, "greet")
	if m != override {
		t.Fatal("Middle's override was lost when instantiating Bottom")
	}
	if owner.Class != "Top" {
		t.Errorf("expected the override at the Top level, found it at %s", owner.Class)
	}
}

func TestCloserOverrideWinsAtSameDepth(t *testing.T) {
	r := newTestRegistry()
	midOverride := taggedNative()
	leafOverride := taggedNative()
	r.DeclareParent("Root2", "Object")
	r.Register(&Class{Name: "Root2", Base: object.VTable{"greet": taggedNative()}})
	r.DeclareParent("Mid2", "Root2")
	r.Register(&Class{
		Name:      "Mid2",
		Overrides: []Override{{Depth: 1, VTable: object.VTable{"greet": midOverride}}},
	})
	r.DeclareParent("Leaf2", "Mid2")
	r.Register(&Class{
		Name:      "Leaf2",
		Overrides: []Override{{Depth: 2, VTable: object.VTable{"greet": leafOverride}}},
	})

	v, err := r.New("Leaf2", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	// Both overrides target the Root2 level; the one declared by the
	// class closer to the instance wins.
	if m, _ := Lookup(v, "greet"); m != leafOverride {
		t.Error("expected the override declared closest to the concrete class to win")
	}
}

func TestDeclaredParentWinsOverRegistration(t *testing.T) {
	r := newTestRegistry()
	r.DeclareParent("X", "Object")
	r.Register(&Class{Name: "X", Parent: "SomethingElse"})
	if got := r.ParentOf("X"); got != "Object" {
		t.Errorf("expected the predeclared parent to win, got %q", got)
	}
}

func TestObjectBaseMethods(t *testing.T) {
	r := newTestRegistry()
	// Object's equals answers a Boolean instance; the real Boolean class
	// arrives with package primitive's bootstrap, which this package
	// cannot import. A bare stand-in is enough for NewPrimitive.
	r.DeclareParent("Boolean", "Object")
	r.Register(&Class{Name: "Boolean"})

	v, err := r.New("Object", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for _, selector := range []string{"clone", "equals", "hash", "to_string", "order"} {
		if m, _ := Lookup(v, selector); m == nil {
			t.Errorf("every root object must answer %q", selector)
		}
	}

	ctx := object.NewContext(nil, nil, nil)
	ctx.Top().Arguments = []*object.Value{v}
	m, _ := Lookup(v, "equals")
	result, err := m.Native(v, ctx)
	if err != nil {
		t.Fatalf("equals failed: %v", err)
	}
	if eq, _ := result.Payload.(bool); !eq {
		t.Error("an object must equal itself by identity")
	}

	other, _ := r.New("Object", nil)
	ctx.Top().Arguments = []*object.Value{other}
	result, err = m.Native(v, ctx)
	if err != nil {
		t.Fatalf("equals failed: %v", err)
	}
	if eq, _ := result.Payload.(bool); eq {
		t.Error("distinct objects must not be identity-equal")
	}
}
