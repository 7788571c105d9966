package internal

import (
	"log/slog"
	"time"

	"github.com/zephyrtronium/contains"
)

/*
Object lifetime is managed by deferred reference counting. Every stored
reference to an object (a property value, a prototype link, a scope link held
by a tag) is counted. References held only by the Go stack during evaluation
are not counted. An object whose count is zero is placed on the zero count
table, and objects on the table which still have no holders are destroyed at
the next safe point. Destroying an object releases everything it holds, so
reclamation is transitive.

Safe points occur between top-level statements, when no evaluation is in
progress and therefore no uncounted references can exist. Statement boundaries
inside a script function body are partial safe points: uncounted references
held by the callers of the function can only refer to objects allocated before
the call began, so objects allocated during the call are reclaimed there. The
evaluator retains the few values it carries across statements of one body
(catch scopes, pending completions around finally blocks, switch
discriminants, for-in subjects). Older garbage stays on the table until a
safe point of a shallower call or of the program.

Counting alone never destroys cycles. Collect runs a trial deletion pass over
every live object: references internal to the heap are subtracted from each
count, and whatever is unreachable from the remaining external holders is
destroyed.
*/

// HeapStats holds counters describing a heap's activity.
type HeapStats struct {
	// Allocated is the total number of objects created.
	Allocated int
	// Destroyed is the total number of objects destroyed.
	Destroyed int
	// Collections is the number of cycle collection passes run.
	Collections int
	// CycleDestroyed is the number of objects destroyed by cycle collection.
	CycleDestroyed int
	// CollectTime is the total time spent in cycle collection.
	CollectTime time.Duration
}

// Heap tracks the objects created by a VM.
type Heap struct {
	// live is every object not yet destroyed.
	live map[uintptr]*Object
	// zct is the zero count table.
	zct []*Object
	// scanned is the length of the prefix of zct known to hold only objects
	// allocated at or before scanMark.
	scanned  int
	scanMark uintptr
	// OnDestroy, if not nil, is called for each destroyed object after it is
	// finalized.
	OnDestroy func(*Object)
	// logger receives collection reports.
	logger *slog.Logger

	stats HeapStats
}

// newHeap creates an empty heap.
func newHeap(logger *slog.Logger) *Heap {
	return &Heap{live: make(map[uintptr]*Object), logger: logger}
}

// track registers a newly allocated object. New objects have no holders, so
// they begin on the zero count table.
func (h *Heap) track(o *Object) {
	o.heap = h
	h.live[o.id] = o
	h.zct = append(h.zct, o)
	h.stats.Allocated++
}

// Stats returns a snapshot of the heap's counters.
func (h *Heap) Stats() HeapStats {
	return h.stats
}

// Live returns the number of objects not yet destroyed.
func (h *Heap) Live() int {
	return len(h.live)
}

// Pending returns the number of entries on the zero count table.
func (h *Heap) Pending() int {
	return len(h.zct)
}

func (o *Object) retain() {
	if o.dead {
		return
	}
	o.refs++
}

func (o *Object) release() {
	if o.dead || o.refs <= 0 {
		return
	}
	o.refs--
	if o.refs == 0 && o.heap != nil {
		o.heap.zct = append(o.heap.zct, o)
	}
}

// Reclaim destroys every object on the zero count table which still has no
// holders, along with everything that becomes unheld as a result. Returns the
// number of objects destroyed. Reclaim must only be called at a safe point.
func (h *Heap) Reclaim() int {
	n := 0
	h.scanned = 0
	for len(h.zct) > 0 {
		o := h.zct[len(h.zct)-1]
		h.zct = h.zct[:len(h.zct)-1]
		if o.dead || o.refs > 0 {
			continue
		}
		h.destroy(o)
		n++
	}
	if n > 0 {
		h.logger.Debug("reclaimed", slog.Int("destroyed", n), slog.Int("live", len(h.live)))
	}
	return n
}

// reclaimSince is like Reclaim, but it only destroys objects allocated after
// mark. Older unheld objects stay on the zero count table.
func (h *Heap) reclaimSince(mark uintptr) int {
	if mark < h.scanMark || h.scanned > len(h.zct) {
		h.scanned = 0
	}
	n := 0
	i := h.scanned
	for i < len(h.zct) {
		o := h.zct[i]
		if !o.dead && o.refs == 0 && o.id <= mark {
			i++
			continue
		}
		last := len(h.zct) - 1
		h.zct[i] = h.zct[last]
		h.zct[last] = nil
		h.zct = h.zct[:last]
		if o.dead || o.refs > 0 {
			continue
		}
		h.destroy(o)
		n++
	}
	h.scanned, h.scanMark = len(h.zct), mark
	return n
}

// destroy finalizes o and drops everything it holds.
func (h *Heap) destroy(o *Object) {
	o.dead = true
	if f, ok := o.tag.(Finalizer); ok {
		f.Finalize(o)
	}
	for _, v := range o.props.clear() {
		v.Release()
	}
	if p := o.proto; p != nil {
		o.proto = nil
		p.release()
	}
	delete(h.live, o.id)
	h.stats.Destroyed++
	if h.OnDestroy != nil {
		h.OnDestroy(o)
	}
}

// Collect runs a cycle collection pass and returns the number of objects it
// destroyed. It reclaims the zero count table first. Collect must only be
// called at a safe point.
func (h *Heap) Collect() int {
	start := time.Now()
	n := h.Reclaim()
	internal := make(map[uintptr]int32, len(h.live))
	for _, o := range h.live {
		o.references(func(r *Object) {
			if !r.dead {
				internal[r.id]++
			}
		})
	}
	// Anything with more holders than the heap accounts for is held from
	// outside, e.g. by the VM's intrinsics or host code.
	var stack []*Object
	marked := contains.Set{}
	for _, o := range h.live {
		if o.refs > internal[o.id] {
			marked.Add(o.id)
			stack = append(stack, o)
		}
	}
	for len(stack) > 0 {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		o.references(func(r *Object) {
			if !r.dead && marked.Add(r.id) {
				stack = append(stack, r)
			}
		})
	}
	var garbage []*Object
	for _, o := range h.live {
		// Add reports whether o was unmarked.
		if marked.Add(o.id) {
			garbage = append(garbage, o)
		}
	}
	// Mark all garbage dead first so that releases among the garbage are
	// ignored and only references to survivors are dropped.
	for _, o := range garbage {
		o.dead = true
	}
	for _, o := range garbage {
		h.destroy(o)
	}
	h.stats.Collections++
	h.stats.CycleDestroyed += len(garbage)
	// Releasing survivors may have put them on the table.
	n += len(garbage) + h.Reclaim()
	took := time.Since(start)
	h.stats.CollectTime += took
	h.logger.Debug("cycle collection", slog.Int("destroyed", n), slog.Int("live", len(h.live)), slog.Duration("took", took))
	return n
}
