// Package loader parses the simulator's stdin hex-stream image format and
// populates a cpu.Memory before a run begins.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/Fircube/RISCV-Simulator/internal/cpu"
)

// Load reads whitespace-separated tokens from r: an `@`-prefixed token sets
// the current write address, and any other token must be exactly two hex
// digits giving the next byte to store, after which the address advances by
// one. It populates mem and returns on the first malformed token or address
// past the end of mem.
func Load(r io.Reader, mem *cpu.Memory) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	var addr uint64
	for sc.Scan() {
		tok := sc.Text()
		if tok == "" {
			continue
		}
		if tok[0] == '@' {
			v, err := strconv.ParseUint(tok[1:], 16, 32)
			if err != nil {
				return fmt.Errorf("loader: invalid address token %q: %w", tok, err)
			}
			addr = v
			continue
		}
		if len(tok) != 2 {
			return fmt.Errorf("loader: malformed byte token %q: want exactly two hex digits", tok)
		}
		v, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return fmt.Errorf("loader: invalid byte token %q: %w", tok, err)
		}
		if addr >= uint64(mem.Size()) {
			return fmt.Errorf("loader: address %#x is past the end of a %d-byte memory", addr, mem.Size())
		}
		mem.StoreByte(uint32(addr), uint32(v))
		addr++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("loader: reading input: %w", err)
	}
	return nil
}
