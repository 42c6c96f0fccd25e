package record

import (
	"testing"

	"github.com/google/uuid"
)

var (
	typeA = NewType("test.A")
	typeB = NewType("test.B")
	typeC = NewType("test.C")
	typeZ = NewType("test.Unrelated")
)

type recA struct {
	Header
	Value int
}

func (recA) StructType() uuid.UUID { return typeA }

type recB struct {
	Header
	Name string
}

func (recB) StructType() uuid.UUID { return typeB }

type recC struct {
	Header
}

func (recC) StructType() uuid.UUID { return typeC }

type recUnrelated struct {
	Header
}

func (recUnrelated) StructType() uuid.UUID { return typeZ }

// impostor shares typeB's tag with a different Go layout.
type impostor struct {
	Header
}

func (impostor) StructType() uuid.UUID { return typeB }

func newChain() (*recA, *recB, *recC) {
	a := &recA{Header: NewHeader(typeA, 1), Value: 1}
	b := &recB{Header: NewHeader(typeB, 1), Name: "b"}
	c := &recC{Header: NewHeader(typeC, 1)}
	Chain(a, b)
	Chain(b, c)
	return a, b, c
}

func TestFindReturnsMatchingNode(t *testing.T) {
	a, b, c := newChain()

	if got := Find[recB](a); got != b {
		t.Errorf("Find[recB] = %p, want %p", got, b)
	}
	if got := Find[recC](a); got != c {
		t.Errorf("Find[recC] = %p, want %p", got, c)
	}
	if got := Find[recA](a); got != a {
		t.Errorf("Find[recA] = %p, want head %p", got, a)
	}
}

func TestFindUnrelatedReturnsNil(t *testing.T) {
	a, _, _ := newChain()
	if got := Find[recUnrelated](a); got != nil {
		t.Errorf("Find[recUnrelated] = %v, want nil", got)
	}
}

func TestFindNilHead(t *testing.T) {
	if got := Find[recA](nil); got != nil {
		t.Errorf("Find on nil head = %v, want nil", got)
	}
	var typedNil *recA
	if got := Find[recA](typedNil); got != nil {
		t.Errorf("Find on typed nil head = %v, want nil", got)
	}
}

func TestFindTagMatchWrongGoType(t *testing.T) {
	a := &recA{Header: NewHeader(typeA, 1)}
	imp := &impostor{Header: NewHeader(typeB, 1)}
	Chain(a, imp)

	if got := Find[recB](a); got != nil {
		t.Errorf("Find[recB] = %v, want nil for impostor", got)
	}
	if got := FindType(a, typeB); got != imp {
		t.Errorf("FindType(typeB) = %v, want impostor", got)
	}
}

func TestFindStopsOnCycle(t *testing.T) {
	a := &recA{Header: NewHeader(typeA, 1)}
	b := &recB{Header: NewHeader(typeB, 1)}
	Chain(a, b)
	Chain(b, a)

	if got := Find[recC](a); got != nil {
		t.Errorf("Find on cyclic chain = %v, want nil", got)
	}
	if n := Len(a); n != MaxChainLength {
		t.Errorf("Len on cyclic chain = %d, want %d", n, MaxChainLength)
	}
}

func TestAppend(t *testing.T) {
	a := &recA{Header: NewHeader(typeA, 1)}
	b := &recB{Header: NewHeader(typeB, 1)}
	c := &recC{Header: NewHeader(typeC, 1)}
	c.Next = a // stale link must be cleared

	head := Append(a, nil, b, c)
	if head != a {
		t.Fatalf("Append head = %v, want a", head)
	}
	if n := Len(head); n != 3 {
		t.Errorf("Len = %d, want 3", n)
	}
	if c.Next != nil {
		t.Error("Append did not clear tail Next")
	}
	if Append() != nil {
		t.Error("Append() should return nil")
	}
}

func TestChainNilHead(t *testing.T) {
	b := &recB{Header: NewHeader(typeB, 1)}
	if got := Chain(nil, b); got != b {
		t.Errorf("Chain(nil, b) = %v, want b", got)
	}
}

func TestNewTypeDeterministic(t *testing.T) {
	if NewType("x") != NewType("x") {
		t.Error("NewType not deterministic")
	}
	if NewType("x") == NewType("y") {
		t.Error("NewType collision for distinct names")
	}
}

// gatedOptions reports version 1; Sharpness only exists from version 2.
type gatedOptions struct {
	Header
	Mode      int
	Sharpness func() float32
}

func readSharpness(o *gatedOptions) float32 {
	if o.AtLeast(2) {
		return o.Sharpness()
	}
	return 0
}

func TestVersionGating(t *testing.T) {
	v1 := &gatedOptions{
		Header: NewHeader(NewType("test.gated"), 1),
		Mode:   3,
		Sharpness: func() float32 {
			t.Fatal("v2 field read from a v1 record")
			return 0
		},
	}
	if got := readSharpness(v1); got != 0 {
		t.Errorf("readSharpness(v1) = %v, want 0", got)
	}

	v2 := &gatedOptions{
		Header:    NewHeader(NewType("test.gated"), 2),
		Sharpness: func() float32 { return 0.5 },
	}
	if got := readSharpness(v2); got != 0.5 {
		t.Errorf("readSharpness(v2) = %v, want 0.5", got)
	}
}

func TestWritable(t *testing.T) {
	r := &recA{Header: NewHeader(typeA, 2)}
	tests := []struct {
		field uint32
		want  bool
	}{
		{1, true},
		{2, true},
		{3, false},
	}
	for _, tt := range tests {
		if got := Writable(r, tt.field); got != tt.want {
			t.Errorf("Writable(v2, %d) = %v, want %v", tt.field, got, tt.want)
		}
	}
	if Writable(nil, 1) {
		t.Error("Writable(nil) = true")
	}
}
