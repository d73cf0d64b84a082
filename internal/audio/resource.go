package audio

import "io"

// Borrowed is a reference to a resource owned by someone else. It has no
// Close: holders may connect to it and disconnect from it, nothing more.
type Borrowed[T any] struct {
	v T
}

// Borrow wraps v as a non-owning reference
func Borrow[T any](v T) *Borrowed[T] {
	return &Borrowed[T]{v: v}
}

// Get returns the borrowed value
func (b *Borrowed[T]) Get() T {
	return b.v
}

// Owned is a resource whose lifetime ends with its holder's use of it
type Owned[T io.Closer] struct {
	v T
}

// Own takes ownership of v
func Own[T io.Closer](v T) *Owned[T] {
	return &Owned[T]{v: v}
}

// Get returns the owned value
func (o *Owned[T]) Get() T {
	return o.v
}

// Close releases the resource
func (o *Owned[T]) Close() error {
	return o.v.Close()
}
