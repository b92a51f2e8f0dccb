package tui

// sparkBlocks maps eight levels to Unicode block elements.
var sparkBlocks = [8]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RingBuffer keeps the most recent samples of a series.
type RingBuffer struct {
	data  []float64
	head  int
	count int
}

// NewRingBuffer creates a buffer holding up to capacity samples.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingBuffer{data: make([]float64, capacity)}
}

// Push appends a sample, dropping the oldest when full.
func (r *RingBuffer) Push(v float64) {
	r.data[r.head] = v
	r.head = (r.head + 1) % len(r.data)
	if r.count < len(r.data) {
		r.count++
	}
}

// Len returns the number of samples held.
func (r *RingBuffer) Len() int { return r.count }

// Last returns the newest sample, 0 when empty.
func (r *RingBuffer) Last() float64 {
	if r.count == 0 {
		return 0
	}
	return r.data[(r.head-1+len(r.data))%len(r.data)]
}

// Max returns the largest sample, 0 when empty.
func (r *RingBuffer) Max() float64 {
	m := 0.0
	for _, v := range r.Slice() {
		if v > m {
			m = v
		}
	}
	return m
}

// Slice returns the samples oldest first.
func (r *RingBuffer) Slice() []float64 {
	if r.count == 0 {
		return nil
	}
	out := make([]float64, r.count)
	start := (r.head - r.count + len(r.data)) % len(r.data)
	for i := range out {
		out[i] = r.data[(start+i)%len(r.data)]
	}
	return out
}

// Reset drops all samples.
func (r *RingBuffer) Reset() {
	r.head, r.count = 0, 0
}

// RenderSparkline draws values scaled to ceiling, one rune per value, keeping
// only the last width values. A non-positive ceiling draws a flat line.
func RenderSparkline(values []float64, ceiling float64, width int) string {
	if width <= 0 || len(values) == 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	runes := make([]rune, len(values))
	for i, v := range values {
		level := 0
		if ceiling > 0 {
			level = int(v / ceiling * float64(len(sparkBlocks)-1))
		}
		level = max(0, min(level, len(sparkBlocks)-1))
		runes[i] = sparkBlocks[level]
	}
	return string(runes)
}
