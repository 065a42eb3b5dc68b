/*
   PDP10 - Operator console command line.

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

// Package console implements the operator's line-oriented command
// interface: examine/deposit memory, boot/run/step/stop, breakpoints,
// and the handful of "set" knobs the machine exposes at runtime. Words
// are read and printed in octal, matching the architecture's own
// convention and the way an operator would have read them off a real
// KA10/KI10 console.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/rcornwell/pdp10/pdp10/loader"
	"github.com/rcornwell/pdp10/pdp10/machine"
)

func readFile(path string) ([]byte, error) { return os.ReadFile(path) }

type cmd struct {
	name    string
	min     int
	process func(*Console, *cmdLine) (bool, error) // returns true to quit
}

var cmdList = []cmd{
	{name: "examine", min: 1, process: (*Console).examine},
	{name: "deposit", min: 1, process: (*Console).deposit},
	{name: "boot", min: 2, process: (*Console).boot},
	{name: "run", min: 1, process: (*Console).run},
	{name: "step", min: 2, process: (*Console).step},
	{name: "stop", min: 3, process: (*Console).stop},
	{name: "break", min: 3, process: (*Console).setBreak},
	{name: "unbreak", min: 3, process: (*Console).clearBreak},
	{name: "set", min: 2, process: (*Console).set},
	{name: "attach", min: 2, process: (*Console).attach},
	{name: "show", min: 2, process: (*Console).show},
	{name: "quit", min: 1, process: (*Console).quit},
}

// Console drives one REPL session against a Machine, reading commands
// from in and writing replies to out.
type Console struct {
	mach *machine.Machine
	in   *bufio.Scanner
	out  io.Writer
	log  *slog.Logger

	attached map[string]string // device name -> file path
}

// New builds a console reading commands from in and writing replies to
// out, operating on mach.
func New(mach *machine.Machine, in io.Reader, out io.Writer, log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	return &Console{
		mach:     mach,
		in:       bufio.NewScanner(in),
		out:      out,
		log:      log,
		attached: make(map[string]string),
	}
}

// Run reads and executes commands until EOF, "quit", or ctx is canceled.
func (c *Console) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		fmt.Fprint(c.out, "pdp10> ")
		if !c.in.Scan() {
			return c.in.Err()
		}
		quit, err := c.Execute(c.in.Text())
		if err != nil {
			fmt.Fprintln(c.out, "?", err)
			c.log.Debug("command failed", "error", err)
		}
		if quit {
			return nil
		}
	}
}

// Execute runs a single command line, returning true if the operator
// asked to quit.
func (c *Console) Execute(commandLine string) (bool, error) {
	line := &cmdLine{line: commandLine}
	word := line.getWord()
	if word == "" {
		return false, nil
	}

	match := matchList(word)
	switch len(match) {
	case 0:
		return false, fmt.Errorf("command not found: %s", word)
	case 1:
		return match[0].process(c, line)
	default:
		return false, fmt.Errorf("ambiguous command: %s", word)
	}
}

func matchList(word string) []cmd {
	var match []cmd
	for _, m := range cmdList {
		if matchCommand(m, word) {
			match = append(match, m)
		}
	}
	return match
}

func matchCommand(m cmd, word string) bool {
	if len(word) > len(m.name) {
		return false
	}
	if word != m.name[:len(word)] {
		return false
	}
	return len(word) >= m.min
}

// cmdLine tracks position while scanning one command's arguments.
type cmdLine struct {
	line string
	pos  int
}

func (l *cmdLine) isEOL() bool { return l.pos >= len(l.line) }

func (l *cmdLine) skipSpace() {
	for !l.isEOL() && unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
}

// getWord returns the next whitespace-delimited token, lowercased, or ""
// at end of line.
func (l *cmdLine) getWord() string {
	l.skipSpace()
	start := l.pos
	for !l.isEOL() && !unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
	return strings.ToLower(l.line[start:l.pos])
}

// getNumber parses the next token as an octal number (the architecture's
// native radix), unless it carries a "0x"/"0d" prefix.
func (l *cmdLine) getNumber() (uint64, error) {
	word := l.getWord()
	if word == "" {
		return 0, errors.New("expected a number")
	}
	switch {
	case strings.HasPrefix(word, "0x"):
		return strconv.ParseUint(word[2:], 16, 64)
	case strings.HasPrefix(word, "0d"):
		return strconv.ParseUint(word[2:], 10, 64)
	default:
		return strconv.ParseUint(word, 8, 64)
	}
}

func (c *Console) examine(l *cmdLine) (bool, error) {
	addr, err := l.getNumber()
	if err != nil {
		return false, err
	}
	w, ok := c.mach.CPU().Memory().ReadPhysical(uint32(addr))
	if !ok {
		return false, fmt.Errorf("examine: non-existent memory at %o", addr)
	}
	fmt.Fprintf(c.out, "%06o: %012o\n", addr, w)
	return false, nil
}

func (c *Console) deposit(l *cmdLine) (bool, error) {
	addr, err := l.getNumber()
	if err != nil {
		return false, err
	}
	val, err := l.getNumber()
	if err != nil {
		return false, err
	}
	if !c.mach.CPU().Memory().WritePhysical(uint32(addr), val) {
		return false, fmt.Errorf("deposit: non-existent memory at %o", addr)
	}
	return false, nil
}

func (c *Console) boot(l *cmdLine) (bool, error) {
	dev := l.getWord()
	path, ok := c.attached[dev]
	if !ok {
		return false, fmt.Errorf("boot: no file attached to %s", dev)
	}
	data, err := readFile(path)
	if err != nil {
		return false, fmt.Errorf("boot: %w", err)
	}

	var res loader.Result
	switch {
	case strings.HasSuffix(path, ".rim"):
		res, err = loader.LoadRIM(data, c.mach.CPU().Memory())
	case strings.HasSuffix(path, ".exe"):
		res, err = loader.LoadEXE(data, c.mach.CPU().Memory())
	default:
		res, err = loader.LoadSAV(data, c.mach.CPU().Memory())
	}
	if err != nil {
		return false, fmt.Errorf("boot: %w", err)
	}

	c.mach.Boot(res.StartPC)
	fmt.Fprintf(c.out, "booted at %o\n", res.StartPC)
	return false, nil
}

func (c *Console) run(_ *cmdLine) (bool, error) {
	if err := c.mach.Run(context.Background()); err != nil {
		return false, err
	}
	return false, nil
}

func (c *Console) step(l *cmdLine) (bool, error) {
	count := uint64(1)
	if !l.isEOL() {
		var err error
		count, err = l.getNumber()
		if err != nil {
			return false, err
		}
	}
	for i := uint64(0); i < count; i++ {
		if trap := c.mach.Step(); trap != nil {
			fmt.Fprintf(c.out, "trap: %s\n", trap.Reason)
			break
		}
	}
	fmt.Fprintf(c.out, "PC: %o\n", c.mach.CPU().PC())
	return false, nil
}

func (c *Console) stop(_ *cmdLine) (bool, error) {
	c.mach.Stop()
	return false, nil
}

func (c *Console) setBreak(l *cmdLine) (bool, error) {
	addr, err := l.getNumber()
	if err != nil {
		return false, err
	}
	c.mach.AddBreakpoint(uint32(addr))
	return false, nil
}

func (c *Console) clearBreak(l *cmdLine) (bool, error) {
	addr, err := l.getNumber()
	if err != nil {
		return false, err
	}
	c.mach.RemoveBreakpoint(uint32(addr))
	return false, nil
}

// set handles "set memory <n>" and "set history <n>".
func (c *Console) set(l *cmdLine) (bool, error) {
	what := l.getWord()
	n, err := l.getNumber()
	if err != nil {
		return false, err
	}
	switch what {
	case "memory":
		c.mach.SetMemorySize(int(n))
	case "history":
		c.mach.SetHistoryLength(int(n))
	default:
		return false, fmt.Errorf("set: unknown option %q", what)
	}
	return false, nil
}

func (c *Console) attach(l *cmdLine) (bool, error) {
	dev := l.getWord()
	l.skipSpace()
	path := l.line[l.pos:]
	if dev == "" || path == "" {
		return false, errors.New("attach: usage: attach <device> <file>")
	}
	c.attached[dev] = path
	return false, nil
}

func (c *Console) show(l *cmdLine) (bool, error) {
	what := l.getWord()
	switch what {
	case "pc":
		fmt.Fprintf(c.out, "PC: %o\n", c.mach.CPU().PC())
	case "ac":
		for r := uint32(0); r < 16; r++ {
			fmt.Fprintf(c.out, "AC%o: %012o\n", r, c.mach.CPU().AC(r))
		}
	case "flags":
		fmt.Fprintf(c.out, "flags: %06o\n", c.mach.CPU().Flags())
	case "break", "breakpoints":
		for _, pc := range c.mach.Breakpoints() {
			fmt.Fprintf(c.out, "%o\n", pc)
		}
	case "attach":
		for dev, path := range c.attached {
			fmt.Fprintf(c.out, "%s: %s\n", dev, path)
		}
	default:
		return false, fmt.Errorf("show: unknown item %q", what)
	}
	return false, nil
}

func (c *Console) quit(_ *cmdLine) (bool, error) {
	return true, nil
}
