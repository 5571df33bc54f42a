// Command riscv-sim is the CLI entry point: it loads an ELF binary, wires
// the configured extensions, console, and host-interface mailbox into a
// core.Simulator, and either runs it directly or hands it off to the
// interactive debugger, TUI, GUI, or gdbstub remote bridge.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lookbusy1344/riscv-sim/config"
	"github.com/lookbusy1344/riscv-sim/console"
	"github.com/lookbusy1344/riscv-sim/core"
	"github.com/lookbusy1344/riscv-sim/debugger"
	"github.com/lookbusy1344/riscv-sim/gdbstub"
	"github.com/lookbusy1344/riscv-sim/hostio"
	"github.com/lookbusy1344/riscv-sim/loader"
)

// Version is overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	var (
		showHelp  bool
		debugMode bool
		gdbPort   int
		branch    uint64
		predict   bool
		logPath   string
		quiet     bool
		memBase   uint64
		memSizeKB uint64
		single    bool
	)

	flag.BoolVar(&showHelp, "help", false, "usage, exit 1")
	flag.BoolVar(&showHelp, "h", false, "usage, exit 1")
	flag.BoolVar(&debugMode, "debug", false, "interactive REPL mode")
	flag.BoolVar(&debugMode, "d", false, "interactive REPL mode")
	flag.IntVar(&gdbPort, "gdb", 0, "bind remote-debug stub on the given TCP port")
	flag.IntVar(&gdbPort, "g", 0, "bind remote-debug stub on the given TCP port")
	flag.Uint64Var(&branch, "branch", cfg.Execution.BranchPenalty, "set branch penalty in cycles")
	flag.Uint64Var(&branch, "b", cfg.Execution.BranchPenalty, "set branch penalty in cycles")
	flag.BoolVar(&predict, "predict", cfg.Execution.PredictTaken, "enable static branch prediction")
	flag.BoolVar(&predict, "p", cfg.Execution.PredictTaken, "enable static branch prediction")
	flag.StringVar(&logPath, "log", "", "write trace records to this path")
	flag.StringVar(&logPath, "l", "", "write trace records to this path")
	flag.BoolVar(&quiet, "quiet", false, "suppress end-of-run statistics")
	flag.BoolVar(&quiet, "q", false, "suppress end-of-run statistics")
	flag.Uint64Var(&memBase, "membase", uint64(cfg.Execution.MemBase), "set physical base address for the memory image")
	flag.Uint64Var(&memBase, "m", uint64(cfg.Execution.MemBase), "set physical base address for the memory image")
	flag.Uint64Var(&memSizeKB, "memsize", uint64(cfg.Execution.MemSize)/2/1024, "set per-bank memory size in kilobytes; total is 2x this")
	flag.Uint64Var(&memSizeKB, "n", uint64(cfg.Execution.MemSize)/2/1024, "set per-bank memory size in kilobytes; total is 2x this")
	flag.BoolVar(&single, "single", cfg.Execution.SingleRAM, "enable single-RAM stall model")
	flag.BoolVar(&single, "s", cfg.Execution.SingleRAM, "enable single-RAM stall model")

	// Ambient additions beyond spec.md's core CLI surface (SPEC_FULL.md):
	// TUI/GUI debugger front ends, ISA extension selection, an entry-point
	// override, a sandboxed filesystem root for the hostio mailbox, and raw
	// terminal mode for the console collaborator.
	var (
		tuiMode       bool
		guiMode       bool
		extensions    string
		entryOverride string
		fsRoot        string
		rawConsole    bool
		maxCycles     uint64
		verboseMode   bool
	)
	flag.BoolVar(&tuiMode, "tui", false, "interactive TUI debugger mode")
	flag.BoolVar(&guiMode, "gui", false, "graphical register/memory viewer")
	flag.StringVar(&extensions, "ext", cfg.Execution.Extensions, "enabled extensions, comma-separated (M,C,B,E)")
	flag.StringVar(&entryOverride, "entry", "", "override the ELF entry point (hex or decimal)")
	flag.StringVar(&fsRoot, "fsroot", cfg.MMIO.FSRoot, "restrict guest file operations to this directory")
	flag.BoolVar(&rawConsole, "raw-console", cfg.MMIO.ConsoleRaw, "put the host terminal in raw mode for guest console I/O")
	flag.Uint64Var(&maxCycles, "max-cycles", cfg.Execution.MaxCycles, "maximum cycles before a forced halt")
	flag.BoolVar(&verboseMode, "verbose", false, "verbose output")

	flag.Parse()

	if showHelp || flag.NArg() == 0 {
		printHelp()
		os.Exit(1)
	}

	elfPath := flag.Arg(0)
	if _, err := os.Stat(elfPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: file not found: %s\n", elfPath)
		os.Exit(1)
	}

	memSize := memSizeKB * 1024 * 2

	filesystemRoot := fsRoot
	if filesystemRoot == "" {
		if cwd, err := os.Getwd(); err == nil {
			filesystemRoot = cwd
		}
	}
	absRoot, err := filepath.Abs(filesystemRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving filesystem root path: %v\n", err)
		os.Exit(1)
	}

	dispatcher := hostio.NewDispatcher(absRoot)

	var guestConsole core.Console
	if rawConsole {
		term := console.NewTerminal()
		defer term.Close()
		guestConsole = term
	}

	ext := parseExtensions(extensions)
	sim := core.NewSimulator(core.Config{
		MemBase:       uint32(memBase),
		MemSize:       uint32(memSize),
		Ext:           ext,
		Variant:       variantFromExt(ext),
		MaxCycles:     maxCycles,
		BranchPenalty: branch,
		PredictTaken:  predict,
		SingleRAM:     single,
		Console:       guestConsole,
		Host:          dispatcher,
	})
	sim.Reset(uint32(memBase))

	entry, err := loader.Load(sim, elfPath, uint32(memBase))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", elfPath, err)
		os.Exit(1)
	}
	if entryOverride != "" {
		override, err := parseAddr(entryOverride)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -entry: %v\n", err)
			os.Exit(1)
		}
		entry = uint32(override)
	}
	sim.PC = entry

	if verboseMode {
		fmt.Printf("Loaded %s, entry point 0x%08x\n", elfPath, entry)
		fmt.Printf("Memory: 0x%08x - 0x%08x (%d bytes)\n", memBase, memBase+memSize, memSize)
		fmt.Printf("Extensions: %s\n", extensions)
		fmt.Printf("Filesystem root: %s\n", absRoot)
	}

	if logPath != "" {
		traceWriter, err := os.Create(logPath) // #nosec G304 -- user-specified trace output path
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating trace file: %v\n", err)
			os.Exit(1)
		}
		defer traceWriter.Close()
		sim.Trace = core.NewTrace(traceWriter)
		if verboseMode {
			fmt.Printf("Execution trace enabled: %s\n", logPath)
		}
	}

	dbgIface := core.NewDebugInterface(sim)

	if gdbPort != 0 {
		srv := gdbstub.NewServer(dbgIface, gdbPort)
		fmt.Printf("gdbstub listening on 127.0.0.1:%d\n", gdbPort)
		go func() {
			if err := srv.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "gdbstub error: %v\n", err)
			}
		}()
	}

	switch {
	case guiMode:
		dbg := debugger.NewDebugger(dbgIface)
		dbg.EntryPoint = entry
		if err := debugger.RunGUI(dbg); err != nil {
			fmt.Fprintf(os.Stderr, "GUI error: %v\n", err)
			os.Exit(1)
		}

	case tuiMode:
		dbg := debugger.NewDebugger(dbgIface)
		dbg.EntryPoint = entry
		if err := debugger.RunTUI(dbg); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			os.Exit(1)
		}

	case debugMode:
		dbg := debugger.NewDebugger(dbgIface)
		dbg.EntryPoint = entry
		fmt.Println("RISC-V Simulator Debugger - Type 'help' for commands")
		fmt.Printf("Program loaded: %s\n", elfPath)
		fmt.Println()
		if err := debugger.RunCLI(dbg); err != nil {
			fmt.Fprintf(os.Stderr, "Debugger error: %v\n", err)
			os.Exit(1)
		}

	default:
		if verboseMode {
			fmt.Println("\nStarting execution...")
			fmt.Println("----------------------------------------")
		}

		for !sim.Halted {
			if err := sim.Step(); err != nil {
				fmt.Fprintf(os.Stderr, "\nRuntime error at PC=0x%08X: %v\n", sim.PC, err)
				os.Exit(1)
			}
		}

		if sim.Trace != nil {
			if err := sim.Trace.Flush(); err != nil {
				fmt.Fprintf(os.Stderr, "Error flushing execution trace: %v\n", err)
			}
		}

		if !quiet {
			fmt.Println("\n----------------------------------------")
			fmt.Println("Execution complete")
			fmt.Printf("Exit code: %d\n", sim.ExitCode)
			fmt.Printf("Cycles: %d\n", sim.CSR.Cycle())
			fmt.Printf("Instructions retired: %d\n", sim.CSR.Instret())
		}

		os.Exit(sim.ExitCode)
	}
}

// parseExtensions turns a comma-separated "M,C,B,E" list into the
// core.Extension bitmask.
func parseExtensions(s string) core.Extension {
	var ext core.Extension
	for _, name := range strings.Split(s, ",") {
		switch strings.ToUpper(strings.TrimSpace(name)) {
		case "M":
			ext |= core.ExtM
		case "C":
			ext |= core.ExtC
		case "B":
			ext |= core.ExtB
		case "E":
			ext |= core.ExtE
		}
	}
	return ext
}

// variantFromExt derives the register-file variant implied by ext: the E
// extension selects the 16-register RV32E layout, anything else the base
// 32-register layout (§3).
func variantFromExt(ext core.Extension) core.Variant {
	if ext&core.ExtE != 0 {
		return core.VariantE16
	}
	return core.VariantI32
}

// parseAddr accepts either a "0x"-prefixed hex address or a plain decimal
// number.
func parseAddr(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

func printHelp() {
	fmt.Printf(`RISC-V Simulator %s

Usage: riscv-sim [options] <elf-file>

Options:
  --help, -h           usage, exit 1
  --debug, -d          interactive REPL mode
  --gdb, -g PORT       bind remote-debug stub on the given TCP port
  --branch, -b N       set branch penalty in cycles (default 2)
  --predict, -p        enable static branch prediction
  --log, -l PATH       write trace records to this path
  --quiet, -q          suppress end-of-run statistics
  --membase, -m N      set physical base address for the memory image
  --memsize, -n N      set per-bank memory size in KB; total is 2x this
  --single, -s         enable single-RAM stall model

  --tui                interactive TUI debugger mode
  --gui                graphical register/memory viewer
  --ext LIST           enabled extensions, comma-separated (default: M,C)
  --entry ADDR         override the ELF entry point
  --fsroot DIR         restrict guest file operations to this directory
  --raw-console        put the host terminal in raw mode for console I/O
  --max-cycles N       maximum cycles before a forced halt
  --verbose            verbose output

Examples:
  riscv-sim program.elf
  riscv-sim --debug program.elf
  riscv-sim --tui --ext M,C,B program.elf
  riscv-sim --gdb 1234 program.elf
  riscv-sim --fsroot /tmp/sandbox --log trace.log program.elf

Debugger Commands (when in --debug mode):
  run, r             Start/restart program execution
  continue, c        Continue execution
  step, s            Execute single instruction
  next, n            Step over function calls
  break ADDR         Set breakpoint at address/label
  info registers     Show all registers
  print EXPR         Evaluate and print expression
  help               Show debugger help
`, Version)
}
