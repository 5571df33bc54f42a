package debugger

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// GUI represents the graphical user interface for the debugger
type GUI struct {
	// Core components
	Debugger *Debugger
	App      fyne.App
	Window   fyne.Window

	// View panels
	SourceView      *widget.TextGrid
	RegisterView    *widget.TextGrid
	MemoryView      *widget.TextGrid
	StackView       *widget.TextGrid
	BreakpointsList *widget.List
	ConsoleOutput   *widget.TextGrid
	StatusLabel     *widget.Label

	// Controls
	Toolbar *widget.Toolbar

	// State
	CurrentAddress uint32
	MemoryAddress  uint32
	StackAddress   uint32
	Running        bool

	// Source code cache
	SourceLines []string
	SourceFile  string

	// Breakpoints data
	breakpoints []string

	// Console output buffer
	consoleBuffer strings.Builder
	consoleMutex  sync.Mutex
}

// guiConsole implements core.Console, putting guest putc traffic onto the
// GUI console panel. GetChar never has input to offer: the GUI has no
// attached stdin.
type guiConsole struct {
	gui *GUI
}

func (c *guiConsole) PutChar(b byte) {
	c.gui.consoleMutex.Lock()
	c.gui.consoleBuffer.WriteByte(b)
	c.gui.consoleMutex.Unlock()
	c.gui.updateConsole()
}

func (c *guiConsole) GetChar() (byte, bool) { return 0, false }

// RunGUI runs the GUI (Graphical User Interface) debugger
func RunGUI(dbg *Debugger) error {
	gui := newGUI(dbg)
	gui.Window.ShowAndRun()
	return nil
}

// newGUI creates a new graphical user interface
func newGUI(debugger *Debugger) *GUI {
	myApp := app.New()
	myWindow := myApp.NewWindow("RISC-V Simulator Debugger")

	gui := &GUI{
		Debugger:       debugger,
		App:            myApp,
		Window:         myWindow,
		CurrentAddress: 0,
		MemoryAddress:  0,
		StackAddress:   0,
		Running:        false,
		breakpoints:    []string{},
	}

	gui.initializeViews()
	gui.buildLayout()
	gui.setupToolbar()

	// Redirect guest console I/O to the GUI console panel
	debugger.Dbg.Simulator().MMIO.SetConsole(&guiConsole{gui: gui})

	// Set window size
	myWindow.Resize(fyne.NewSize(1400, 900))

	return gui
}

// initializeViews creates all the view panels
func (g *GUI) initializeViews() {
	// Source view
	g.SourceView = widget.NewTextGrid()
	g.SourceView.SetText("No source file loaded")

	// Register view
	g.RegisterView = widget.NewTextGrid()
	g.updateRegisters()

	// Memory view
	g.MemoryView = widget.NewTextGrid()
	g.updateMemory()

	// Stack view
	g.StackView = widget.NewTextGrid()
	g.updateStack()

	// Breakpoints list
	g.breakpoints = []string{}
	g.BreakpointsList = widget.NewList(
		func() int {
			return len(g.breakpoints)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("template")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(g.breakpoints[id])
		},
	)

	// Console output
	g.ConsoleOutput = widget.NewTextGrid()
	g.ConsoleOutput.SetText("")

	// Status label
	g.StatusLabel = widget.NewLabel("Ready")
}

// buildLayout creates the main layout
func (g *GUI) buildLayout() {
	// Create bordered panels for better visual separation
	sourcePanel := container.NewBorder(
		widget.NewLabel("Source Code"),
		nil, nil, nil,
		container.NewScroll(g.SourceView),
	)

	registerPanel := container.NewBorder(
		widget.NewLabel("Registers"),
		nil, nil, nil,
		container.NewScroll(g.RegisterView),
	)

	memoryPanel := container.NewBorder(
		widget.NewLabel("Memory"),
		nil, nil, nil,
		container.NewScroll(g.MemoryView),
	)

	stackPanel := container.NewBorder(
		widget.NewLabel("Stack"),
		nil, nil, nil,
		container.NewScroll(g.StackView),
	)

	breakpointsPanel := container.NewBorder(
		widget.NewLabel("Breakpoints"),
		nil, nil, nil,
		container.NewScroll(g.BreakpointsList),
	)

	consolePanel := container.NewBorder(
		widget.NewLabel("Console Output"),
		nil, nil, nil,
		container.NewScroll(g.ConsoleOutput),
	)

	// Left side: source code (larger)
	leftPanel := container.NewMax(sourcePanel)

	// Right side: registers and breakpoints
	rightTop := container.NewVSplit(registerPanel, breakpointsPanel)
	rightTop.SetOffset(0.6) // 60% registers, 40% breakpoints

	// Bottom right: memory, stack, console
	bottomTabs := container.NewAppTabs(
		container.NewTabItem("Memory", memoryPanel),
		container.NewTabItem("Stack", stackPanel),
		container.NewTabItem("Console", consolePanel),
	)

	rightPanel := container.NewVSplit(rightTop, bottomTabs)
	rightPanel.SetOffset(0.5)

	// Main split: left (source) and right (info panels)
	mainSplit := container.NewHSplit(leftPanel, rightPanel)
	mainSplit.SetOffset(0.55) // 55% source, 45% info

	// Add status bar at bottom
	statusBar := container.NewBorder(nil, nil, nil, nil, g.StatusLabel)

	// Complete layout with toolbar at top
	content := container.NewBorder(
		g.Toolbar, // top
		statusBar, // bottom
		nil,       // left
		nil,       // right
		mainSplit, // center
	)

	g.Window.SetContent(content)
}

// setupToolbar creates the debugger control toolbar
func (g *GUI) setupToolbar() {
	g.Toolbar = widget.NewToolbar(
		widget.NewToolbarAction(theme.MediaPlayIcon(), func() {
			g.runProgram()
		}),
		widget.NewToolbarAction(theme.MediaSkipNextIcon(), func() {
			g.stepProgram()
		}),
		widget.NewToolbarAction(theme.MediaFastForwardIcon(), func() {
			g.continueProgram()
		}),
		widget.NewToolbarAction(theme.MediaStopIcon(), func() {
			g.stopProgram()
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentAddIcon(), func() {
			g.addBreakpoint()
		}),
		widget.NewToolbarAction(theme.ContentClearIcon(), func() {
			g.clearBreakpoints()
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), func() {
			g.refreshViews()
		}),
	)
}

// updateViews refreshes all view panels
func (g *GUI) updateViews() {
	g.updateSource()
	g.updateRegisters()
	g.updateMemory()
	g.updateStack()
	g.updateBreakpoints()
	g.updateConsole()
}

// updateSource updates the source code view
func (g *GUI) updateSource() {
	currentPC := g.Debugger.Dbg.PC()

	if len(g.SourceLines) > 0 {
		var sb strings.Builder

		currentSourceLine := ""
		if g.Debugger.SourceMap != nil {
			if line, ok := g.Debugger.SourceMap[currentPC]; ok {
				currentSourceLine = line
			}
		}

		for i, line := range g.SourceLines {
			prefix := "  "
			if line == currentSourceLine {
				prefix = "> "
			}
			sb.WriteString(fmt.Sprintf("%s%4d: %s\n", prefix, i+1, line))
		}
		g.SourceView.SetText(sb.String())
	} else {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Current PC: 0x%08X\n\n", currentPC))
		if source, ok := g.Debugger.SourceMap[currentPC]; ok {
			sb.WriteString(fmt.Sprintf("> %s\n", source))
		} else {
			sb.WriteString("No source mapping available\n")
		}
		g.SourceView.SetText(sb.String())
	}
}

// updateRegisters updates the register view
func (g *GUI) updateRegisters() {
	var sb strings.Builder

	dbg := g.Debugger.Dbg
	csr := dbg.Simulator().CSR

	sb.WriteString("General Purpose Registers:\n")
	sb.WriteString("--------------------------\n")
	for i := 0; i < 32; i++ {
		sb.WriteString(fmt.Sprintf("x%-2d: 0x%08X  (%d)\n", i, dbg.Register(i), int32(dbg.Register(i))))
	}

	sb.WriteString("\nProgram Counter:\n")
	sb.WriteString("--------------------------\n")
	sb.WriteString(fmt.Sprintf("pc:  0x%08X\n", dbg.PC()))

	sb.WriteString("\nMachine Status (mstatus):\n")
	sb.WriteString("--------------------------\n")
	flags := ""
	if csr.MIEEnabled() {
		flags += "MIE"
	} else {
		flags += "---"
	}
	flags += " "
	if csr.MPIEEnabled() {
		flags += "MPIE"
	} else {
		flags += "----"
	}
	sb.WriteString(fmt.Sprintf("mstatus: 0x%08X  Flags: %s\n", csr.MStatus(), flags))
	sb.WriteString(fmt.Sprintf("cycle: %d  instret: %d\n", csr.Cycle(), csr.Instret()))

	g.RegisterView.SetText(sb.String())
}

// updateMemory updates the memory view
func (g *GUI) updateMemory() {
	var sb strings.Builder

	// Show memory around PC or a specific address
	addr := g.MemoryAddress
	if addr == 0 {
		addr = g.Debugger.Dbg.PC()
	}

	// Round down to 16-byte boundary
	addr = addr & 0xFFFFFFF0

	sb.WriteString(fmt.Sprintf("Memory at 0x%08X:\n", addr))
	sb.WriteString("----------------------------------------------------\n")

	// Show 16 lines of 16 bytes each
	for i := uint32(0); i < 16; i++ {
		lineAddr := addr + (i * 16)
		sb.WriteString(fmt.Sprintf("%08X: ", lineAddr))

		b, err := g.Debugger.Dbg.ReadMemory(lineAddr, 16)

		// Hex view
		for j := 0; j < 16; j++ {
			if err == nil {
				sb.WriteString(fmt.Sprintf("%02X ", b[j]))
			} else {
				sb.WriteString("?? ")
			}
		}

		// ASCII view
		sb.WriteString(" ")
		for j := 0; j < 16; j++ {
			if err == nil && b[j] >= 32 && b[j] < 127 {
				sb.WriteString(string(b[j]))
			} else if err == nil {
				sb.WriteString(".")
			} else {
				sb.WriteString("?")
			}
		}
		sb.WriteString("\n")
	}

	g.MemoryView.SetText(sb.String())
}

// updateStack updates the stack view
func (g *GUI) updateStack() {
	var sb strings.Builder

	sp := g.Debugger.Dbg.Register(2) // x2 is the stack pointer

	sb.WriteString(fmt.Sprintf("Stack at SP=0x%08X:\n", sp))
	sb.WriteString("-------------------------------\n")

	// Show 8 words above and 24 below SP
	for i := int32(-8); i < 24; i++ {
		addr := uint32(int32(sp) + (i * 4))
		prefix := "  "
		if i == 0 {
			prefix = "> "
		}

		b, err := g.Debugger.Dbg.ReadMemory(addr, 4)
		if err == nil {
			word := binary.LittleEndian.Uint32(b)
			sb.WriteString(fmt.Sprintf("%s%08X: %08X  (%d)\n", prefix, addr, word, int32(word)))
		}
	}

	g.StackView.SetText(sb.String())
}

// updateBreakpoints updates the breakpoints list
func (g *GUI) updateBreakpoints() {
	breakpoints := g.Debugger.Breakpoints.GetAllBreakpoints()
	g.breakpoints = make([]string, 0, len(breakpoints))

	for _, bp := range breakpoints {
		// Try to resolve symbol name
		symbol := ""
		if g.Debugger.Symbols != nil {
			for name, addr := range g.Debugger.Symbols {
				if addr == bp.Address {
					symbol = fmt.Sprintf(" [%s]", name)
					break
				}
			}
		}

		status := "enabled"
		if !bp.Enabled {
			status = "disabled"
		}

		g.breakpoints = append(g.breakpoints, fmt.Sprintf("0x%08X%s (%s)", bp.Address, symbol, status))
	}

	g.BreakpointsList.Refresh()
}

// updateConsole updates the console output view
func (g *GUI) updateConsole() {
	g.consoleMutex.Lock()
	defer g.consoleMutex.Unlock()

	g.ConsoleOutput.SetText(g.consoleBuffer.String())
}

// runProgram starts/restarts program execution
func (g *GUI) runProgram() {
	g.StatusLabel.SetText("Running...")
	g.Running = true

	// Execute program in goroutine to keep UI responsive
	go func() {
		for g.Running {
			if shouldBreak, reason := g.Debugger.ShouldBreak(); shouldBreak {
				g.Running = false
				g.StatusLabel.SetText(fmt.Sprintf("Stopped: %s at PC=0x%08X", reason, g.Debugger.Dbg.PC()))
				g.updateViews()
				break
			}

			if err := g.Debugger.Dbg.Step(); err != nil {
				g.Running = false
				g.StatusLabel.SetText(fmt.Sprintf("Error: %v", err))
				break
			}

			if g.Debugger.Dbg.Halted() {
				g.Running = false
				g.StatusLabel.SetText(fmt.Sprintf("Program exited with code %d", g.Debugger.Dbg.ExitCode()))
				g.updateViews()
				break
			}
		}
	}()
}

// stepProgram executes one instruction
func (g *GUI) stepProgram() {
	if g.Debugger.Dbg.Halted() {
		g.StatusLabel.SetText("Program has halted")
		return
	}

	if err := g.Debugger.Dbg.Step(); err != nil {
		g.StatusLabel.SetText(fmt.Sprintf("Error: %v", err))
		return
	}

	if g.Debugger.Dbg.Halted() {
		g.StatusLabel.SetText(fmt.Sprintf("Program exited with code %d", g.Debugger.Dbg.ExitCode()))
	} else {
		g.StatusLabel.SetText(fmt.Sprintf("Stepped to PC=0x%08X", g.Debugger.Dbg.PC()))
	}

	g.updateViews()
}

// continueProgram continues execution until breakpoint
func (g *GUI) continueProgram() {
	g.runProgram()
}

// stopProgram stops execution
func (g *GUI) stopProgram() {
	g.Running = false
	g.StatusLabel.SetText("Stopped")
	g.updateViews()
}

// addBreakpoint adds a breakpoint at current PC
func (g *GUI) addBreakpoint() {
	pc := g.Debugger.Dbg.PC()
	g.Debugger.Breakpoints.AddBreakpoint(pc, false, "")
	g.updateBreakpoints()
	g.StatusLabel.SetText(fmt.Sprintf("Breakpoint added at 0x%08X", pc))
}

// clearBreakpoints removes all breakpoints
func (g *GUI) clearBreakpoints() {
	g.Debugger.Breakpoints.Clear()
	g.updateBreakpoints()
	g.StatusLabel.SetText("All breakpoints cleared")
}

// refreshViews manually refreshes all views
func (g *GUI) refreshViews() {
	g.updateViews()
	g.StatusLabel.SetText("Views refreshed")
}
