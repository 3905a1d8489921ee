package annotate

import (
	"strings"
	"testing"
)

func TestWarnInjectionScriptCoversEveryProbe(t *testing.T) {
	probes := DefaultProbes()

	for _, list := range [][]Probe{probes.HeaderRoot, probes.VideoTitle} {
		script, err := warnInjectionScript(list)
		if err != nil {
			t.Fatalf("warnInjectionScript() error = %v", err)
		}
		for _, p := range list {
			if !strings.Contains(script, p.Selector) {
				t.Errorf("script missing selector %q (%s)", p.Selector, p.Name)
			}
		}
		if !strings.Contains(script, WarningClass) {
			t.Errorf("script missing warning class %q", WarningClass)
		}
		if !strings.Contains(script, SentinelAttr) {
			t.Errorf("script missing sentinel attribute %q", SentinelAttr)
		}
	}
}

func TestWarnInjectionScriptProbeOrder(t *testing.T) {
	list := []Probe{
		{"first", "#newest-layout"},
		{"second", "#older-layout"},
	}
	script, err := warnInjectionScript(list)
	if err != nil {
		t.Fatalf("warnInjectionScript() error = %v", err)
	}
	if strings.Index(script, "#newest-layout") > strings.Index(script, "#older-layout") {
		t.Errorf("probe order not preserved in script:\n%s", script)
	}
}
