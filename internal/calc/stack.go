package calc

// stack is a slice backed LIFO used for both operands and operators.
type stack[T any] struct {
	items []T
}

func newStack[T any](capacity int) *stack[T] {
	return &stack[T]{items: make([]T, 0, capacity)}
}

func (s *stack[T]) push(v T) {
	s.items = append(s.items, v)
}

// pop removes the top element. ok is false on an empty stack.
func (s *stack[T]) pop() (v T, ok bool) {
	if len(s.items) == 0 {
		return v, false
	}
	last := len(s.items) - 1
	v = s.items[last]
	s.items = s.items[:last]
	return v, true
}

func (s *stack[T]) peek() (v T, ok bool) {
	if len(s.items) == 0 {
		return v, false
	}
	return s.items[len(s.items)-1], true
}

func (s *stack[T]) size() int {
	return len(s.items)
}
