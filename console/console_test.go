package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rcornwell/pdp10/pdp10/machine"
	"github.com/rcornwell/pdp10/pdp10/mmu"
)

func newTestConsole() (*Console, *bytes.Buffer) {
	m := machine.New(mmu.VariantKA, 0, nil)
	var out bytes.Buffer
	c := New(m, strings.NewReader(""), &out, nil)
	return c, &out
}

func TestDepositThenExamine(t *testing.T) {
	c, out := newTestConsole()

	if _, err := c.Execute("deposit 100 123456654321"); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := c.Execute("exam 100"); err != nil {
		t.Fatalf("examine: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "000100: 123456654321") {
		t.Errorf("examine output = %q, want it to contain the deposited word", got)
	}
}

func TestSetMemoryAndHistory(t *testing.T) {
	c, _ := newTestConsole()

	// 0100000 octal = 32768, an exact multiple of the memory package's
	// sizing granularity, so SetSize won't round it further.
	if _, err := c.Execute("set memory 100000"); err != nil {
		t.Fatalf("set memory: %v", err)
	}
	if got := c.mach.Memory().Size(); got != 0100000 {
		t.Errorf("memory size = %o, want 0100000", got)
	}

	if _, err := c.Execute("set history 10"); err != nil {
		t.Fatalf("set history: %v", err)
	}
}

func TestBreakUnbreak(t *testing.T) {
	c, _ := newTestConsole()

	if _, err := c.Execute("break 1000"); err != nil {
		t.Fatalf("break: %v", err)
	}
	if len(c.mach.Breakpoints()) != 1 {
		t.Fatalf("expected one breakpoint")
	}
	if _, err := c.Execute("unbreak 1000"); err != nil {
		t.Fatalf("unbreak: %v", err)
	}
	if len(c.mach.Breakpoints()) != 0 {
		t.Fatalf("expected breakpoint cleared")
	}
}

func TestMatchListMinimumAbbreviation(t *testing.T) {
	// "a" is too short to clear any command's minimum abbreviation, so it
	// matches nothing; this exercises the same matchList path Execute
	// uses for ambiguity without relying on two names colliding by
	// coincidence in the table above.
	if match := matchList("a"); len(match) != 0 {
		t.Errorf("matchList(%q) = %d matches, want 0", "a", len(match))
	}
	if match := matchList("at"); len(match) != 1 || match[0].name != "attach" {
		t.Errorf("matchList(%q) = %v, want exactly attach", "at", match)
	}
}

func TestUnknownCommandErrors(t *testing.T) {
	c, _ := newTestConsole()
	if _, err := c.Execute("frobnicate"); err == nil {
		t.Fatalf("expected unknown-command error")
	}
}

func TestQuitReturnsTrue(t *testing.T) {
	c, _ := newTestConsole()
	quit, err := c.Execute("quit")
	if err != nil {
		t.Fatalf("quit: %v", err)
	}
	if !quit {
		t.Fatalf("expected quit to request exit")
	}
}

func TestAttachAndShow(t *testing.T) {
	c, out := newTestConsole()
	if _, err := c.Execute("attach dsk boot.sav"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if _, err := c.Execute("show attach"); err != nil {
		t.Fatalf("show attach: %v", err)
	}
	if !strings.Contains(out.String(), "boot.sav") {
		t.Errorf("show attach output = %q, want it to list boot.sav", out.String())
	}
}
