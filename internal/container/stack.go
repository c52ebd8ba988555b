// Package container provides the array-backed stack and circular-buffer
// queue shared by the graph traversals and the report indexes.
//
// The two containers deliberately signal absence differently: Stack.Pop
// and Stack.Peek on an empty stack return ErrEmptyStack, while
// Queue.Dequeue reports absence with a false second return. Callers rely
// on both conventions, so they are kept distinct rather than unified.
package container

import "errors"

// ErrEmptyStack is returned by Pop and Peek when the stack holds no elements.
var ErrEmptyStack = errors.New("container: empty stack")

// Stack is an array-backed LIFO container. Push is amortized O(1) via
// capacity doubling on growth.
type Stack[T any] struct {
	items []T
}

// NewStack returns an empty stack.
func NewStack[T any]() *Stack[T] {
	return &Stack[T]{}
}

// Push places v on top of the stack.
func (s *Stack[T]) Push(v T) {
	if len(s.items) == cap(s.items) {
		s.grow()
	}
	s.items = append(s.items, v)
}

// Pop removes and returns the top element. It returns ErrEmptyStack when
// the stack is empty.
func (s *Stack[T]) Pop() (T, error) {
	var zero T
	if len(s.items) == 0 {
		return zero, ErrEmptyStack
	}
	top := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = zero
	s.items = s.items[:len(s.items)-1]
	return top, nil
}

// Peek returns the top element without removing it. It returns
// ErrEmptyStack when the stack is empty.
func (s *Stack[T]) Peek() (T, error) {
	var zero T
	if len(s.items) == 0 {
		return zero, ErrEmptyStack
	}
	return s.items[len(s.items)-1], nil
}

// Len returns the number of stacked elements.
func (s *Stack[T]) Len() int {
	return len(s.items)
}

func (s *Stack[T]) grow() {
	next := cap(s.items) * 2
	if next == 0 {
		next = 4
	}
	resized := make([]T, len(s.items), next)
	copy(resized, s.items)
	s.items = resized
}
