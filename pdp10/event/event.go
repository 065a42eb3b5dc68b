/*
   PDP10 - Event scheduler: a delta queue of future callbacks.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

// Package event implements a delta-time event queue: each entry stores
// its gap from the entry before it, so advancing time is one subtraction
// on the head rather than a scan of the whole list. Owned as a value per
// Machine instead of the teacher's package-level list, per Design Notes
// §9, so independent machines (and tests) never share timers.
package event

// Callback runs when a scheduled event's time arrives; arg is the value
// passed to Schedule, letting one callback serve several owners (e.g. one
// clock-tick handler for several attached devices).
type Callback func(arg int)

type entry struct {
	delta int // cycles after the previous entry in the list
	owner any // identity used by Cancel; typically the device pointer
	cb    Callback
	arg   int
	prev  *entry
	next  *entry
}

// Queue is a delta-ordered list of pending events.
type Queue struct {
	head *entry
	tail *entry
}

// New returns an empty event queue.
func New() *Queue {
	return &Queue{}
}

// Schedule arranges for cb(arg) to run after the given number of cycles,
// tagging the entry with owner so Cancel can find it again. A zero or
// negative delay runs cb immediately rather than queuing it.
func (q *Queue) Schedule(owner any, cb Callback, cycles int, arg int) {
	if cycles <= 0 {
		cb(arg)
		return
	}

	ev := &entry{delta: cycles, owner: owner, cb: cb, arg: arg}

	cur := q.head
	if cur == nil {
		q.head = ev
		q.tail = ev
		return
	}

	for cur != nil {
		if ev.delta <= cur.delta {
			cur.delta -= ev.delta
			ev.prev = cur.prev
			ev.next = cur
			cur.prev = ev
			if ev.prev != nil {
				ev.prev.next = ev
			} else {
				q.head = ev
			}
			return
		}
		ev.delta -= cur.delta
		cur = cur.next
	}

	ev.prev = q.tail
	q.tail.next = ev
	q.tail = ev
}

// Cancel removes the first still-pending event matching owner and arg, if
// any, folding its remaining delay into the following entry.
func (q *Queue) Cancel(owner any, arg int) {
	for cur := q.head; cur != nil; cur = cur.next {
		if cur.owner != owner || cur.arg != arg {
			continue
		}
		if cur.next != nil {
			cur.next.delta += cur.delta
			cur.next.prev = cur.prev
		} else {
			q.tail = cur.prev
		}
		if cur.prev != nil {
			cur.prev.next = cur.next
		} else {
			q.head = cur.next
		}
		return
	}
}

// Advance moves the queue forward by cycles clock ticks, firing every
// event whose time has now elapsed (in order, including any additional
// events a fired callback itself schedules at delta 0).
func (q *Queue) Advance(cycles int) {
	cur := q.head
	if cur == nil {
		return
	}
	cur.delta -= cycles
	for cur != nil && cur.delta <= 0 {
		cb, arg := cur.cb, cur.arg
		q.head = cur.next
		if q.head != nil {
			q.head.prev = nil
		} else {
			q.tail = nil
		}
		cb(arg)
		cur = q.head
	}
}

// Empty reports whether any event is still pending.
func (q *Queue) Empty() bool { return q.head == nil }
