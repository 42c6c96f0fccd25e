package record

import (
	"reflect"

	"github.com/google/uuid"
)

// MaxChainLength bounds every chain walk. Chains are caller-built and the
// protocol does not forbid cycles, so walkers stop after this many nodes.
const MaxChainLength = 256

// typeNamespace roots the deterministic tags produced by NewType.
var typeNamespace = uuid.MustParse("6b1f4a3e-2c59-4d0e-9a55-0f3e2f7d8c11")

// Header is the common prefix of every record.
type Header struct {
	// Next links to the following record in the chain. The pointee is
	// borrowed: its lifetime is the caller's responsibility.
	Next Record

	// Type identifies the logical record kind.
	Type uuid.UUID

	// Version is the layout revision of Type the producer filled in.
	Version uint32
}

// Record is implemented by every struct embedding a Header.
type Record interface {
	Base() *Header
}

// Typed is the constraint used by Find: a pointer to a record type that
// reports its own tag.
type Typed[T any] interface {
	*T
	Record
	StructType() uuid.UUID
}

// NewHeader returns a header for the given type and version.
func NewHeader(id uuid.UUID, version uint32) Header {
	return Header{Type: id, Version: version}
}

// NewType derives a stable type tag from a name. Two builds deriving a tag
// from the same name always agree.
func NewType(name string) uuid.UUID {
	return uuid.NewSHA1(typeNamespace, []byte(name))
}

// Base returns h itself so that embedding structs satisfy Record.
func (h *Header) Base() *Header { return h }

// AtLeast reports whether the record was produced with version v or newer.
// Fields introduced in version v may only be read when this returns true.
func (h *Header) AtLeast(v uint32) bool {
	return h != nil && h.Version >= v
}

// Is reports whether the header carries the given type tag.
func (h *Header) Is(id uuid.UUID) bool {
	return h != nil && h.Type == id
}

// Chain links b after a and returns a. Any previous a.Next is replaced.
// Passing a nil b terminates the chain at a.
func Chain(a, b Record) Record {
	if a == nil {
		return b
	}
	a.Base().Next = b
	return a
}

// Append links records in order and returns the head. Nil entries are
// skipped and the last record's Next is cleared.
func Append(records ...Record) Record {
	var head, tail Record
	for _, r := range records {
		if isNil(r) {
			continue
		}
		if head == nil {
			head = r
		} else {
			tail.Base().Next = r
		}
		tail = r
	}
	if tail != nil {
		tail.Base().Next = nil
	}
	return head
}

// Walk calls fn for each record in the chain starting at head until fn
// returns false or the chain ends.
func Walk(head Record, fn func(Record) bool) {
	r := head
	for i := 0; i < MaxChainLength && !isNil(r); i++ {
		if !fn(r) {
			return
		}
		r = r.Base().Next
	}
}

// Len returns the number of records reachable from head.
func Len(head Record) int {
	n := 0
	Walk(head, func(Record) bool {
		n++
		return true
	})
	return n
}

// FindType returns the first record in the chain whose tag equals id, or
// nil when none does.
func FindType(head Record, id uuid.UUID) Record {
	var found Record
	Walk(head, func(r Record) bool {
		if r.Base().Type == id {
			found = r
			return false
		}
		return true
	})
	return found
}

// Find returns the first record in the chain carrying the tag of T, typed
// as *T. It returns nil when no node matches or when the matching node is
// a different Go type that happens to share the tag.
func Find[T any, P Typed[T]](head Record) P {
	id := P(new(T)).StructType()
	if r := FindType(head, id); r != nil {
		if p, ok := r.(P); ok {
			return p
		}
	}
	return nil
}

// Writable reports whether a provider may write a field introduced in
// fieldVersion into the record r that the caller allocated.
func Writable(r Record, fieldVersion uint32) bool {
	if isNil(r) {
		return false
	}
	return r.Base().AtLeast(fieldVersion)
}

// isNil reports whether r is nil or a typed nil pointer.
func isNil(r Record) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
