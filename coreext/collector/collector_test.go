package collector_test

import (
	"strings"
	"testing"

	"github.com/zephyrtronium/jsvm"
	"github.com/zephyrtronium/jsvm/coreext/collector"
	"github.com/zephyrtronium/jsvm/testutils"
)

func TestCollectorGlobal(t *testing.T) {
	vm := testutils.VM()
	testutils.CheckGlobals(t, vm, []string{"Collector"})
	o := vm.GetGlobal("Collector").Object()
	if o == nil {
		t.Fatal("Collector is not an object")
	}
	if o.Tag() != collector.CollectorTag {
		t.Errorf("Collector has wrong tag %v", o.Tag())
	}
}

func TestCollectorScript(t *testing.T) {
	cases := map[string]testutils.SourceTestCase{
		"CollectDeferred": {Source: `Collector.collect()`, Pass: testutils.PassEqual(jsvm.Number(0))},
		"ReclaimDeferred": {Source: `Collector.reclaim()`, Pass: testutils.PassEqual(jsvm.Number(0))},
		"LiveObjects":     {Source: `Collector.liveObjects() > 0`, Pass: testutils.PassEqual(jsvm.Bool(true))},
		"TimeUsed":        {Source: `Collector.timeUsed() >= 0`, Pass: testutils.PassEqual(jsvm.Bool(true))},
		"Stats": {
			Source: `var s = Collector.stats(); [s.allocated >= s.destroyed, s.live > 0, s.pending >= 0, s.collections >= 0, s.cycleDestroyed >= 0].join()`,
			Pass:   testutils.PassEqual(jsvm.String("true,true,true,true,true")),
		},
		"CollectRuns": {
			Source: `var before = Collector.stats().collections; Collector.collect(); Collector.stats().collections - before`,
			Pass:   testutils.PassEqual(jsvm.Number(1)),
		},
		"CollectCycles": {
			Source: `(function () { var a = {}; var b = {a: a}; a.b = b })(); var c0 = Collector.stats().cycleDestroyed; Collector.collect(); Collector.stats().cycleDestroyed - c0 >= 2`,
			Pass:   testutils.PassEqual(jsvm.Bool(true)),
		},
		"ShowStats": {
			Source: `typeof Collector.showStats()`,
			Pass:   testutils.PassEqual(jsvm.String("string")),
		},
	}
	for name, c := range cases {
		t.Run(name, c.TestFunc("TestCollectorScript/"+name))
	}
}

func TestShowStats(t *testing.T) {
	vm := jsvm.NewVM()
	v := vm.MustRunString(`Collector.showStats()`, "TestShowStats")
	for _, want := range []string{"Lifetime allocated:", "Live:", "Completed cycle collections:"} {
		if !strings.Contains(v.Str(), want) {
			t.Errorf("stats %q missing %q", v.Str(), want)
		}
	}
}
