package glsl

import (
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/koturn/shaderview/clock"
)

// frameTimer measures GPU time per frame with GL_TIME_ELAPSED queries.
// Query results become available a few frames after submission, so finished
// queries are collected lazily and the objects recycled through a free list
// instead of being recreated every frame.
type frameTimer struct {
	avg      *clock.MovingAverage
	free     []uint32
	pending  []uint32 // submission order, oldest first
	active   uint32
	measured bool
}

func newFrameTimer(window int) (*frameTimer, error) {
	avg, err := clock.NewMovingAverage(window)
	if err != nil {
		return nil, err
	}
	return &frameTimer{avg: avg}, nil
}

// begin opens a TIME_ELAPSED query around the upcoming draw.
func (t *frameTimer) begin() {
	q := t.takeQuery()
	gl.BeginQuery(gl.TIME_ELAPSED, q)
	t.active = q
}

// end closes the active query and parks it until its result is available.
func (t *frameTimer) end() {
	gl.EndQuery(gl.TIME_ELAPSED)
	t.pending = append(t.pending, t.active)
	t.active = 0
}

// poll drains finished queries into the moving average. Queries complete in
// submission order, so polling stops at the first unfinished one.
func (t *frameTimer) poll() {
	for len(t.pending) > 0 {
		q := t.pending[0]
		var available int32
		gl.GetQueryObjectiv(q, gl.QUERY_RESULT_AVAILABLE, &available)
		if available == gl.FALSE {
			return
		}
		var ns uint64
		gl.GetQueryObjectui64v(q, gl.QUERY_RESULT, &ns)
		t.avg.Push(float64(ns))
		t.measured = true

		t.pending = t.pending[1:]
		t.free = append(t.free, q)
	}
}

// frameTime returns the smoothed GPU frame time, or -1 before the first
// completed measurement.
func (t *frameTimer) frameTime() time.Duration {
	if !t.measured {
		return -1
	}
	return time.Duration(t.avg.Average())
}

func (t *frameTimer) takeQuery() uint32 {
	if n := len(t.free); n > 0 {
		q := t.free[n-1]
		t.free = t.free[:n-1]
		return q
	}
	var q uint32
	gl.GenQueries(1, &q)
	return q
}

// release deletes all query objects.
func (t *frameTimer) release() {
	for _, q := range t.free {
		gl.DeleteQueries(1, &q)
	}
	for _, q := range t.pending {
		gl.DeleteQueries(1, &q)
	}
	t.free = nil
	t.pending = nil
}
