package event

import "testing"

type recorder struct {
	iarg int
	time int
}

func (r *recorder) record(step *int) Callback {
	return func(iarg int) {
		r.iarg = iarg
		r.time = *step
	}
}

func TestScheduleSingleEvent(t *testing.T) {
	q := New()
	var step int
	var a recorder
	q.Schedule(&a, a.record(&step), 10, 1)
	for range 20 {
		step++
		q.Advance(1)
	}
	if a.time != 10 || a.iarg != 1 {
		t.Fatalf("got time=%d iarg=%d, want time=10 iarg=1", a.time, a.iarg)
	}
}

func TestScheduleTwoDistinctTimes(t *testing.T) {
	q := New()
	var step int
	var a, b recorder
	q.Schedule(&a, a.record(&step), 10, 1)
	q.Schedule(&b, b.record(&step), 5, 2)
	for range 20 {
		step++
		q.Advance(1)
	}
	if a.time != 10 || a.iarg != 1 {
		t.Fatalf("A: got time=%d iarg=%d, want 10/1", a.time, a.iarg)
	}
	if b.time != 5 || b.iarg != 2 {
		t.Fatalf("B: got time=%d iarg=%d, want 5/2", b.time, b.iarg)
	}
}

func TestScheduleSameTime(t *testing.T) {
	q := New()
	var step int
	var a, b recorder
	q.Schedule(&a, a.record(&step), 10, 1)
	q.Schedule(&b, b.record(&step), 10, 2)
	for range 20 {
		step++
		q.Advance(1)
	}
	if a.time != 10 || b.time != 10 {
		t.Fatalf("both should fire at 10, got a=%d b=%d", a.time, b.time)
	}
}

// A callback that itself schedules a new event must see it fire at the
// right relative time.
func TestScheduleDuringCallback(t *testing.T) {
	q := New()
	var step int
	var a, c recorder
	cCallback := func(iarg int) {
		c.iarg = iarg
		c.time = step
		q.Schedule(&a, a.record(&step), iarg, iarg)
	}
	q.Schedule(&a, a.record(&step), 20, 5)
	q.Schedule(&c, cCallback, 10, 2)
	for range 30 {
		step++
		q.Advance(1)
	}
	if c.time != 10 || c.iarg != 2 {
		t.Fatalf("C: got time=%d iarg=%d, want 10/2", c.time, c.iarg)
	}
}

func TestCancelPendingEvent(t *testing.T) {
	q := New()
	var step int
	var a, b recorder
	q.Schedule(&a, a.record(&step), 10, 5)
	q.Schedule(&b, b.record(&step), 20, 2)
	for range 30 {
		step++
		q.Advance(1)
		if a.iarg == 5 {
			q.Cancel(&b, 2)
		}
	}
	if a.time != 10 || a.iarg != 5 {
		t.Fatalf("A should still fire, got time=%d iarg=%d", a.time, a.iarg)
	}
	if b.time != 0 || b.iarg != 0 {
		t.Fatalf("B should have been canceled, got time=%d iarg=%d", b.time, b.iarg)
	}
}

func TestCancelLeavesLaterEventIntact(t *testing.T) {
	q := New()
	var step int
	var a, b, d recorder
	q.Schedule(&a, a.record(&step), 10, 5)
	q.Schedule(&b, b.record(&step), 20, 2)
	q.Schedule(&d, d.record(&step), 30, 3)
	for range 30 {
		step++
		q.Advance(1)
		if a.iarg == 5 {
			q.Cancel(&b, 2)
		}
	}
	if b.time != 0 {
		t.Fatalf("B should have been canceled, got time=%d", b.time)
	}
	if d.time != 30 || d.iarg != 3 {
		t.Fatalf("D: got time=%d iarg=%d, want 30/3", d.time, d.iarg)
	}
}

func TestScheduleZeroCyclesFiresImmediately(t *testing.T) {
	q := New()
	var a recorder
	fired := false
	q.Schedule(&a, func(iarg int) { fired = true; a.iarg = iarg }, 0, 5)
	if !fired || a.iarg != 5 {
		t.Fatalf("zero-delay schedule should fire inline, fired=%v iarg=%d", fired, a.iarg)
	}
	if !q.Empty() {
		t.Fatalf("queue should remain empty after an inline fire")
	}
}
