package gesture

// window is a bounded FIFO: pushing onto a full window drops the oldest item.
type window[T any] struct {
	items []T
	start int
	size  int
}

func newWindow[T any](capacity int) *window[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &window[T]{items: make([]T, capacity)}
}

func (w *window[T]) push(v T) {
	if w.size < len(w.items) {
		w.items[(w.start+w.size)%len(w.items)] = v
		w.size++
		return
	}
	w.items[w.start] = v
	w.start = (w.start + 1) % len(w.items)
}

func (w *window[T]) len() int      { return w.size }
func (w *window[T]) capacity() int { return len(w.items) }
func (w *window[T]) full() bool    { return w.size == len(w.items) }

// at returns the i-th item, oldest first.
func (w *window[T]) at(i int) T {
	return w.items[(w.start+i)%len(w.items)]
}

func (w *window[T]) oldest() T { return w.at(0) }
func (w *window[T]) newest() T { return w.at(w.size - 1) }

// dropOldest removes the oldest item, if any.
func (w *window[T]) dropOldest() {
	if w.size == 0 {
		return
	}
	w.start = (w.start + 1) % len(w.items)
	w.size--
}

func (w *window[T]) count(match func(T) bool) int {
	n := 0
	for i := 0; i < w.size; i++ {
		if match(w.at(i)) {
			n++
		}
	}
	return n
}

func (w *window[T]) reset() {
	w.start, w.size = 0, 0
}

// majority returns the most frequent label in the window and its vote count.
// Ties go to the label seen first, scanning oldest to newest.
func majority(w *window[Label]) (Label, int) {
	var counts [numLabels]int
	order := make([]Label, 0, numLabels)

	for i := 0; i < w.len(); i++ {
		l := w.at(i)
		if l >= numLabels {
			continue
		}
		if counts[l] == 0 {
			order = append(order, l)
		}
		counts[l]++
	}

	best, votes := LabelUnknown, 0
	for _, l := range order {
		if counts[l] > votes {
			best, votes = l, counts[l]
		}
	}
	return best, votes
}
