package queues

type Queue[T any] []T

func NewQueue[T any]() *Queue[T] {
	q := Queue[T]{}
	return &q
}

func (q *Queue[T]) Push(x ...T) {
	*q = append(*q, x...)
}

func (q *Queue[T]) Pop() T {
	x := (*q)[0]
	*q = (*q)[1:]
	return x
}

func (q *Queue[T]) IsEmpty() bool {
	return len(*q) == 0
}

func (q *Queue[T]) Len() int {
	return len(*q)
}

// Drain pops every element in FIFO order and leaves the queue empty.
func (q *Queue[T]) Drain() []T {
	out := make([]T, 0, len(*q))
	for !q.IsEmpty() {
		out = append(out, q.Pop())
	}
	return out
}
