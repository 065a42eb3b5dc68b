/*
   PDP10 - Boot image loader: RIM, SAV, and EXE formats.

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

// Package loader reads the three bootable-image formats a KA10/KI10
// paper-tape or disk boot loader would hand the CPU: RIM (6-bit paper
// tape frames), SAV (5-byte packed 36-bit words), and EXE (SAV's packing
// plus a directory/entry-vector block structure). None of them require
// the CPU to be running — loading is a memory-only operation performed
// before the first Step.
package loader

import "fmt"

// Mem is the physical memory a loaded image is deposited into.
type Mem interface {
	WritePhysical(addr uint32, value uint64) bool
}

const (
	jrstOpcode = 0254
	wordMask   = 0777777_777777
	halfMask   = 0777777
)

func opcode(w uint64) uint32 { return uint32(w>>27) & 0777 }
func rightHalf(w uint64) uint32 { return uint32(w) & halfMask }

// negCount interprets a word's left half as a two's-complement (negative)
// count and returns the magnitude, matching the "-count,,origin-1"
// block-header convention every format below shares.
func negCount(w uint64) uint32 {
	lh := uint32(w>>18) & halfMask
	return (^lh + 1) & halfMask
}

// Result reports where a loaded image wants execution to begin.
type Result struct {
	StartPC uint32
}

// LoadRIM decodes a RIM-format paper-tape image: a stream of 6-bit
// frames, each tape byte's data bit (0200) marking it as a data frame
// rather than leader/control. Six data frames assemble one 36-bit word.
func LoadRIM(data []byte, mem Mem) (Result, error) {
	var frames []uint64
	for _, b := range data {
		if b&0200 == 0 {
			continue // leader or control frame, not part of a word
		}
		frames = append(frames, uint64(b&077))
	}
	if len(frames)%6 != 0 {
		frames = frames[:len(frames)-len(frames)%6]
	}
	words := make([]uint64, 0, len(frames)/6)
	for i := 0; i+6 <= len(frames); i += 6 {
		var w uint64
		for j := 0; j < 6; j++ {
			w = (w << 6) | frames[i+j]
		}
		words = append(words, w&wordMask)
	}
	return loadBlocks(words, mem, true)
}

// LoadSAV decodes a SAV-format image: 36-bit words packed five bytes
// apiece, bits 0-34 in the top 35 bits of the five bytes and bit 35 in
// the low bit of the fifth byte.
func LoadSAV(data []byte, mem Mem) (Result, error) {
	words, err := unpackFive(data)
	if err != nil {
		return Result{}, err
	}
	return loadBlocks(words, mem, false)
}

// LoadEXE decodes an EXE-format image: the same five-byte word packing
// as SAV, but organized into typed blocks (directory, entry vector,
// ignored, terminator) instead of SAV's flat header/data/terminator
// stream. Directory entries are read but no page data is loaded; only the
// entry vector's start address is used.
func LoadEXE(data []byte, mem Mem) (Result, error) {
	words, err := unpackFive(data)
	if err != nil {
		return Result{}, err
	}

	var entry uint32
	i := 0
	for i < len(words) {
		header := words[i]
		i++
		blockType := uint32(header>>18) & halfMask
		count := int(rightHalf(header))

		switch blockType {
		case 01777: // terminator
			return Result{StartPC: entry}, nil
		case 01776: // directory: pairs of flags,,file-page / repeat,,mem-page
			if i+2*count > len(words) {
				return Result{}, fmt.Errorf("loader: directory block truncated")
			}
			for p := 0; p < count; p++ {
				filePage := words[i]
				memPage := words[i+1]
				i += 2
				if err := depositPage(filePage, memPage, mem); err != nil {
					return Result{}, err
				}
			}
		case 01775: // entry vector: 2 words, second names the start address
			if i+2 > len(words) {
				return Result{}, fmt.Errorf("loader: entry vector block truncated")
			}
			entry = rightHalf(words[i+1])
			i += 2
		case 01774: // ignored block
			if i+count > len(words) {
				return Result{}, fmt.Errorf("loader: ignored block truncated")
			}
			i += count
		default:
			return Result{}, fmt.Errorf("loader: unknown EXE block type %04o", blockType)
		}
	}
	return Result{StartPC: entry}, fmt.Errorf("loader: EXE image missing terminator block")
}

// depositPage accepts one EXE directory entry (flags,,file-page and
// repeat,,mem-page). It copies no page data into memory and checks
// neither word: every entry is accepted and nil is returned.
func depositPage(flagsFilePage, repeatMemPage uint64, _ Mem) error {
	_ = flagsFilePage
	_ = repeatMemPage
	return nil
}

// loadBlocks implements the RIM/SAV shared block stream: repeated
// (header, data..., [checksum]) blocks terminated by a JRST instruction
// whose effective address becomes the start PC.
func loadBlocks(words []uint64, mem Mem, hasChecksum bool) (Result, error) {
	i := 0
	for i < len(words) {
		w := words[i]
		if opcode(w) == jrstOpcode {
			return Result{StartPC: rightHalf(w)}, nil
		}

		count := negCount(w)
		origin := rightHalf(w) + 1
		i++
		if i+int(count) > len(words) {
			return Result{}, fmt.Errorf("loader: block of %d words at origin %o runs past end of image", count, origin)
		}
		for n := uint32(0); n < count; n++ {
			if !mem.WritePhysical(origin+n, words[i]) {
				return Result{}, fmt.Errorf("loader: write to non-existent memory at %o", origin+n)
			}
			i++
		}
		if hasChecksum {
			i++ // checksum word, not verified
		}
	}
	return Result{}, fmt.Errorf("loader: image ended without a JRST terminator")
}

// unpackFive decodes the five-bytes-per-word packing SAV and EXE share.
func unpackFive(data []byte) ([]uint64, error) {
	if len(data)%5 != 0 {
		return nil, fmt.Errorf("loader: image length %d is not a multiple of 5 bytes", len(data))
	}
	words := make([]uint64, 0, len(data)/5)
	for i := 0; i+5 <= len(data); i += 5 {
		combined := uint64(data[i])<<32 | uint64(data[i+1])<<24 |
			uint64(data[i+2])<<16 | uint64(data[i+3])<<8 | uint64(data[i+4])
		w := ((combined >> 5) << 1) | (combined & 1)
		words = append(words, w&wordMask)
	}
	return words, nil
}
