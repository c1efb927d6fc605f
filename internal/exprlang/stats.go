package exprlang

// RollingWindow is a fixed-capacity rolling-window statistic over a
// stream of samples pushed once per state machine step. Ported from
// the original ExpressionStats ring buffer: a circular history buffer
// plus a scratch buffer used only by Median's insertion sort, an
// incrementally-maintained running sum for Mean, and a sample count
// that saturates at the window size rather than growing unbounded.
//
// A NaN sample is inserted as 0, so a stat reader never has to special
// case NaN propagating out of an upstream expression.
type RollingWindow struct {
	hist    []float64
	sorted  []float64
	size    int
	updates int
	count   int
	next    int
	sum     float64
}

// NewRollingWindow allocates a window holding up to size samples. size
// must be at least 1.
func NewRollingWindow(size int) *RollingWindow {
	if size < 1 {
		size = 1
	}
	return &RollingWindow{
		hist:   make([]float64, size),
		sorted: make([]float64, size),
		size:   size,
	}
}

// Push records one new sample, evicting the oldest sample once the
// window is full.
func (w *RollingWindow) Push(v float64) {
	if v != v { // NaN
		v = 0
	}
	if w.updates >= w.size {
		w.sum -= w.hist[w.next]
	}
	w.hist[w.next] = v
	w.sum += v
	w.next = (w.next + 1) % w.size
	w.updates++
	if w.count < w.size {
		w.count++
	}
}

// Eval reads the requested statistic over the current window contents.
func (w *RollingWindow) Eval(op StatOp) float64 {
	switch op {
	case StatAvg:
		return w.Mean()
	case StatMedian:
		return w.Median()
	case StatMin:
		return w.Min()
	case StatMax:
		return w.Max()
	case StatRange:
		return w.Max() - w.Min()
	}
	return 0
}

// Mean is O(1): the running sum divided by the saturating sample count.
func (w *RollingWindow) Mean() float64 {
	if w.count == 0 {
		return 0
	}
	return w.sum / float64(w.count)
}

// Min is an O(n) linear scan of the live samples.
func (w *RollingWindow) Min() float64 {
	if w.count == 0 {
		return 0
	}
	m := w.hist[0]
	for i := 1; i < w.count; i++ {
		if w.hist[i] < m {
			m = w.hist[i]
		}
	}
	return m
}

// Max is an O(n) linear scan of the live samples.
func (w *RollingWindow) Max() float64 {
	if w.count == 0 {
		return 0
	}
	m := w.hist[0]
	for i := 1; i < w.count; i++ {
		if w.hist[i] > m {
			m = w.hist[i]
		}
	}
	return m
}

// Median copies the live samples into the scratch buffer, insertion
// sorts it (O(n^2), fine at the small window sizes this operator is
// meant for), and averages the middle two elements on an even count.
func (w *RollingWindow) Median() float64 {
	if w.count == 0 {
		return 0
	}
	copy(w.sorted[:w.count], w.hist[:w.count])
	s := w.sorted[:w.count]
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j] > v {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
