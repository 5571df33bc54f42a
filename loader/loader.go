// Package loader reads a 32-bit little-endian RISC-V ELF executable and
// copies its PT_LOAD segments into a simulator's guest memory, grounded on
// the teacher's original_source/sim/elfloader.c.
package loader

import (
	"debug/elf"
	"fmt"

	"github.com/lookbusy1344/riscv-sim/core"
)

// Load reads the ELF file at path and copies every PT_LOAD segment's
// p_memsz bytes into sim's memory at p_vaddr - memBase, zero-extending past
// p_filesz the way the kernel loader treats .bss. It returns the entry
// point from the ELF header.
func Load(sim *core.Simulator, path string, memBase uint32) (uint32, error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 {
		return 0, fmt.Errorf("loader: %s is not a 32-bit ELF (ELFCLASS32)", path)
	}
	if f.Machine != elf.EM_RISCV {
		return 0, fmt.Errorf("loader: %s is not a RISC-V ELF (got machine %v)", path, f.Machine)
	}
	if f.Data != elf.ELFDATA2LSB {
		return 0, fmt.Errorf("loader: %s is not little-endian", path)
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if prog.Memsz == 0 {
			continue
		}

		vaddr := uint32(prog.Vaddr)
		if vaddr < memBase {
			return 0, fmt.Errorf("loader: segment vaddr 0x%08X below mem base 0x%08X", vaddr, memBase)
		}
		dest := vaddr - memBase

		data := make([]byte, prog.Memsz)
		n, err := prog.ReadAt(data[:prog.Filesz], 0)
		if err != nil && uint64(n) != prog.Filesz {
			return 0, fmt.Errorf("loader: reading PT_LOAD segment at 0x%08X: %w", vaddr, err)
		}

		if err := sim.Mem.LoadImage(dest, data); err != nil {
			return 0, fmt.Errorf("loader: segment at 0x%08X (size %d) out of range: %w", vaddr, len(data), err)
		}
	}

	return uint32(f.Entry), nil
}
