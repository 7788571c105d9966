// Package collector installs the Collector global, which exposes the VM's
// heap to scripts.
package collector

import (
	"fmt"
	"log/slog"

	"github.com/zephyrtronium/jsvm"
	"github.com/zephyrtronium/jsvm/internal"
)

// Objects are reclaimed by reference counting as they become unheld, so the
// Collector interface only controls the cycle collection pass and reports on
// the heap.

// CollectorTag is the Tag of the Collector object.
const CollectorTag = jsvm.BasicTag("Collector")

func init() {
	internal.Register(initCollector)
}

func initCollector(vm *jsvm.VM) {
	coll := vm.ObjectWith(nil, vm.ObjectPrototype, nil, CollectorTag)
	slots := jsvm.Slots{
		"collect":     vm.Fn("collect", 0, collectorCollect),
		"liveObjects": vm.Fn("liveObjects", 0, collectorLiveObjects),
		"reclaim":     vm.Fn("reclaim", 0, collectorReclaim),
		"showStats":   vm.Fn("showStats", 0, collectorShowStats),
		"stats":       vm.Fn("stats", 0, collectorStats),
		"timeUsed":    vm.Fn("timeUsed", 0, collectorTimeUsed),
	}
	vm.SetSlots(coll, slots)
	vm.SetGlobal("Collector", jsvm.ObjectValue(coll))
}

// collectorCollect is a Collector method.
//
// collect requests a cycle collection pass. Collection can only happen
// between top-level statements, so the pass runs after the statement
// containing the call completes, and collect returns 0. Hosts calling
// VM.Collect directly outside evaluation get the number of objects destroyed.
func collectorCollect(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	return jsvm.Normal(jsvm.Number(float64(vm.Collect())))
}

// collectorReclaim is a Collector method.
//
// reclaim destroys unheld objects. Like collect, it has no effect until the
// statement containing the call completes, and it returns 0 when called from
// scripts. Unheld objects are reclaimed at every statement boundary anyway.
func collectorReclaim(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	return jsvm.Normal(jsvm.Number(float64(vm.Reclaim())))
}

// collectorLiveObjects is a Collector method.
//
// liveObjects returns the number of objects not yet destroyed.
func collectorLiveObjects(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	return jsvm.Normal(jsvm.Number(float64(vm.Heap.Live())))
}

// collectorStats is a Collector method.
//
// stats returns an object holding the heap's counters.
func collectorStats(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	s := vm.Heap.Stats()
	r := vm.NewObject(jsvm.Slots{
		"allocated":      jsvm.Number(float64(s.Allocated)),
		"destroyed":      jsvm.Number(float64(s.Destroyed)),
		"collections":    jsvm.Number(float64(s.Collections)),
		"cycleDestroyed": jsvm.Number(float64(s.CycleDestroyed)),
		"live":           jsvm.Number(float64(vm.Heap.Live())),
		"pending":        jsvm.Number(float64(vm.Heap.Pending())),
	})
	return jsvm.Normal(jsvm.ObjectValue(r))
}

// collectorShowStats is a Collector method.
//
// showStats logs the heap's counters and returns them formatted as a string.
func collectorShowStats(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	s := vm.Heap.Stats()
	vm.Logger.Info("heap stats",
		slog.Int("allocated", s.Allocated),
		slog.Int("destroyed", s.Destroyed),
		slog.Int("live", vm.Heap.Live()),
		slog.Int("pending", vm.Heap.Pending()),
		slog.Int("collections", s.Collections),
		slog.Int("cycle_destroyed", s.CycleDestroyed),
	)
	r := fmt.Sprintf(showStatsFormat, s.Allocated, s.Destroyed, vm.Heap.Live(), vm.Heap.Pending(), s.Collections, s.CycleDestroyed)
	return jsvm.Normal(jsvm.String(r))
}

// collectorTimeUsed is a Collector method.
//
// timeUsed reports the number of seconds spent in cycle collection.
func collectorTimeUsed(vm *jsvm.VM, this jsvm.Value, args jsvm.List) jsvm.Completion {
	return jsvm.Normal(jsvm.Number(vm.Heap.Stats().CollectTime.Seconds()))
}

const showStatsFormat = `Lifetime allocated: %d objects
Destroyed: %d objects
Live: %d objects
Pending reclamation: %d objects
Completed cycle collections: %d (%d objects)`
