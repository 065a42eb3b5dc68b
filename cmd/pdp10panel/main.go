// Command pdp10panel is a terminal front-panel viewer: AC block, flags,
// PC, and the recent instruction-history ring, refreshed by single-step
// key presses the way an operator would single-step a real KA10/KI10
// from its console switches.
package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/pdp10/pdp10/loader"
	"github.com/rcornwell/pdp10/pdp10/machine"
	"github.com/rcornwell/pdp10/pdp10/mmu"
)

var lampStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))

type model struct {
	mach     *machine.Machine
	lastTrap string
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ", "s":
		if trap := m.mach.Step(); trap != nil {
			m.lastTrap = trap.Reason
		} else {
			m.lastTrap = ""
		}
	}
	return m, nil
}

func (m model) registers() string {
	c := m.mach.CPU()
	var b strings.Builder
	fmt.Fprintf(&b, "PC: %s\nFLAGS: %06o\n\n", lampStyle.Render(fmt.Sprintf("%06o", c.PC())), c.Flags())
	for r := uint32(0); r < 16; r += 2 {
		fmt.Fprintf(&b, "AC%-2o %012o   AC%-2o %012o\n", r, c.AC(r), r+1, c.AC(r+1))
	}
	return b.String()
}

func (m model) history() string {
	hist := m.mach.History()
	var b strings.Builder
	b.WriteString("recent PCs:\n")
	for _, h := range hist {
		fmt.Fprintf(&b, "  %06o  ir=%012o  flags=%06o\n", h.PC, h.IR, h.Flags)
	}
	return b.String()
}

func (m model) View() string {
	status := "running"
	if m.lastTrap != "" {
		status = "trap: " + m.lastTrap
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, m.registers(), "    ", m.history()),
		"",
		status,
		"",
		"space/s: step   q: quit",
	)
}

func main() {
	optImage := getopt.StringLong("image", 'i', "", "Boot image to load before stepping")
	optFormat := getopt.StringLong("format", 'f', "sav", "Image format: rim, sav, exe")
	getopt.Parse()

	m := machine.New(mmu.VariantKA, 0, nil)

	if *optImage != "" {
		data, err := os.ReadFile(*optImage)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		var res loader.Result
		switch *optFormat {
		case "rim":
			res, err = loader.LoadRIM(data, m.Memory())
		case "exe":
			res, err = loader.LoadEXE(data, m.Memory())
		default:
			res, err = loader.LoadSAV(data, m.Memory())
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		m.CPU().SetPC(res.StartPC)
	}

	if _, err := tea.NewProgram(model{mach: m}).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
