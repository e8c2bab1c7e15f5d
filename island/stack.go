package island

// boundedStack is a LIFO with a fixed capacity. Push reports false instead of
// growing once the capacity is reached and the stack remembers it overflowed
// until the next Clear.
type boundedStack[T any] struct {
	data       []T
	overflowed bool
}

func newBoundedStack[T any](capacity int) *boundedStack[T] {
	return &boundedStack[T]{data: make([]T, 0, capacity)}
}

func (s *boundedStack[T]) Push(value T) bool {
	if len(s.data) == cap(s.data) {
		s.overflowed = true
		return false
	}
	s.data = append(s.data, value)
	return true
}

func (s *boundedStack[T]) Pop() T {
	e := s.data[len(s.data)-1]
	s.data = s.data[:len(s.data)-1]
	return e
}

func (s *boundedStack[T]) Len() int         { return len(s.data) }
func (s *boundedStack[T]) Cap() int         { return cap(s.data) }
func (s *boundedStack[T]) Empty() bool      { return len(s.data) == 0 }
func (s *boundedStack[T]) Overflowed() bool { return s.overflowed }

// Data exposes the live elements, bottom first.
func (s *boundedStack[T]) Data() []T {
	return s.data
}

func (s *boundedStack[T]) Clear() {
	s.data = s.data[:0]
	s.overflowed = false
}
