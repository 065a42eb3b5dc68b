// Command pdp10dump disassembles and dumps a RIM10/SAV/EXE boot image
// without running the machine: each word an image would deposit into
// memory, its destination address, and the mnemonic its high nine bits
// decode to ("illegal" for an unassigned opcode).
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcornwell/pdp10/pdp10/loader"
	"github.com/rcornwell/pdp10/pdp10/machine"
	"github.com/rcornwell/pdp10/pdp10/mmu"
)

// recordingMem captures every deposit a loader makes, in address order,
// instead of writing into a live machine's memory.
type recordingMem struct {
	words map[uint32]uint64
}

func newRecordingMem() *recordingMem {
	return &recordingMem{words: make(map[uint32]uint64)}
}

func (m *recordingMem) WritePhysical(addr uint32, value uint64) bool {
	m.words[addr] = value
	return true
}

func main() {
	var format string

	rootCmd := &cobra.Command{
		Use:   "pdp10dump <image>",
		Short: "Disassemble and dump a PDP-10 boot image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], format)
		},
	}
	rootCmd.Flags().StringVar(&format, "format", "auto", "image format: rim, sav, exe, or auto (by file extension)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path, format string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if format == "auto" {
		format = formatByExtension(path)
	}

	mem := newRecordingMem()
	var res loader.Result
	switch format {
	case "rim":
		res, err = loader.LoadRIM(data, mem)
	case "sav":
		res, err = loader.LoadSAV(data, mem)
	case "exe":
		res, err = loader.LoadEXE(data, mem)
	default:
		return fmt.Errorf("unknown format %q (want rim, sav, exe, or auto)", format)
	}
	if err != nil {
		return err
	}

	// A throwaway machine supplies the opcode-name table; no CPU state
	// here is ever stepped.
	m := machine.New(mmu.VariantKA, 0, nil)

	addrs := make([]uint32, 0, len(mem.words))
	for addr := range mem.words {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	for _, addr := range addrs {
		w := mem.words[addr]
		op := uint32(w>>27) & 0777
		ac := uint32(w>>23) & 017
		mnem := m.CPU().Mnemonic(op)
		fmt.Printf("%06o: %012o  %-8s %o,%06o\n", addr, w, strings.ToLower(mnem), ac, uint32(w)&0777777)
	}
	fmt.Printf("start: %06o\n", res.StartPC)
	return nil
}

func formatByExtension(path string) string {
	switch {
	case strings.HasSuffix(path, ".rim"):
		return "rim"
	case strings.HasSuffix(path, ".exe"):
		return "exe"
	default:
		return "sav"
	}
}
