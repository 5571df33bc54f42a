// Package gdbstub is a remote debug bridge over a plain line-oriented TCP
// protocol, grounded on the teacher's api/server.go session/broadcaster
// shape and the reference tools/gdbstub.c's halt/interrupt handshake --
// but speaking a plain-text line protocol instead of GDB's own remote
// serial protocol, since the only surface to expose is core.DebugInterface's
// step/read/write/breakpoint operations (§1, §5).
package gdbstub

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/lookbusy1344/riscv-sim/core"
)

// Server accepts TCP connections and serves each one against a single
// shared core.DebugInterface. Every command the debug side issues funnels
// through dbg's narrow surface; the server never touches the CPU or memory
// arrays directly (§5).
type Server struct {
	dbg      *core.DebugInterface
	listener net.Listener
	port     int

	mu          sync.Mutex
	breakpoints map[uint32]bool
}

// NewServer builds a gdbstub server bound to dbg, the shared debug
// interface a local debugger session may also be using.
func NewServer(dbg *core.DebugInterface, port int) *Server {
	return &Server{
		dbg:         dbg,
		port:        port,
		breakpoints: make(map[uint32]bool),
	}
}

// Start binds the TCP port and serves connections until Shutdown is
// called or Accept returns an error.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return fmt.Errorf("gdbstub: listen: %w", err)
	}
	s.listener = ln
	log.Printf("gdbstub: listening on %s", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if strings.Contains(err.Error(), "use of closed network connection") {
				return nil
			}
			return err
		}
		go s.serveConn(conn)
	}
}

// Shutdown closes the listener, unblocking Start's Accept loop.
func (s *Server) Shutdown() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// serveConn handles one client connection: each line is a command, each
// reply is terminated by a single line starting with "OK" or "ERR".
func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewScanner(conn)
	w := bufio.NewWriter(conn)
	defer w.Flush()

	for r.Scan() {
		line := strings.TrimSpace(r.Text())
		if line == "" {
			continue
		}
		reply := s.handle(line)
		fmt.Fprintln(w, reply)
		if err := w.Flush(); err != nil {
			return
		}
		if line == "quit" {
			return
		}
	}
}

func (s *Server) handle(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "ERR empty command"
	}
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "quit":
		return "OK bye"

	case "halted":
		if s.dbg.Halted() {
			return fmt.Sprintf("OK 1 %d", s.dbg.ExitCode())
		}
		return "OK 0"

	case "pc":
		return fmt.Sprintf("OK 0x%08X", s.dbg.PC())

	case "reg":
		idx, err := parseRegIndex(args)
		if err != nil {
			return "ERR " + err.Error()
		}
		return fmt.Sprintf("OK 0x%08X", s.dbg.Register(idx))

	case "setreg":
		if len(args) != 2 {
			return "ERR usage: setreg <idx> <value>"
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil || idx < 0 || idx > 31 {
			return "ERR invalid register index"
		}
		val, err := parseUint32(args[1])
		if err != nil {
			return "ERR " + err.Error()
		}
		s.dbg.SetRegister(idx, val)
		return "OK"

	case "mem":
		if len(args) != 2 {
			return "ERR usage: mem <addr> <len>"
		}
		addr, err := parseUint32(args[0])
		if err != nil {
			return "ERR " + err.Error()
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return "ERR invalid length"
		}
		data, err := s.dbg.ReadMemory(addr, n)
		if err != nil {
			return "ERR " + err.Error()
		}
		return "OK " + hex.EncodeToString(data)

	case "writemem":
		if len(args) != 2 {
			return "ERR usage: writemem <addr> <hexbytes>"
		}
		addr, err := parseUint32(args[0])
		if err != nil {
			return "ERR " + err.Error()
		}
		data, err := hex.DecodeString(args[1])
		if err != nil {
			return "ERR invalid hex payload"
		}
		if err := s.dbg.WriteMemory(addr, data); err != nil {
			return "ERR " + err.Error()
		}
		return "OK"

	case "break":
		addr, err := parseUint32(oneArg(args))
		if err != nil {
			return "ERR " + err.Error()
		}
		s.mu.Lock()
		s.breakpoints[addr] = true
		s.mu.Unlock()
		return "OK"

	case "delete":
		addr, err := parseUint32(oneArg(args))
		if err != nil {
			return "ERR " + err.Error()
		}
		s.mu.Lock()
		delete(s.breakpoints, addr)
		s.mu.Unlock()
		return "OK"

	case "step":
		if err := s.dbg.Step(); err != nil {
			return "ERR " + err.Error()
		}
		return fmt.Sprintf("OK 0x%08X", s.dbg.PC())

	case "continue":
		s.mu.Lock()
		bps := make(map[uint32]bool, len(s.breakpoints))
		for k, v := range s.breakpoints {
			bps[k] = v
		}
		s.mu.Unlock()
		if err := s.dbg.RunUntilHalt(bps); err != nil {
			return "ERR " + err.Error()
		}
		return fmt.Sprintf("OK 0x%08X", s.dbg.PC())

	case "interrupt":
		s.dbg.Interrupt()
		return "OK"

	case "reset":
		entry, err := parseUint32(oneArg(args))
		if err != nil {
			return "ERR " + err.Error()
		}
		s.dbg.Reset(entry)
		return "OK"

	default:
		return "ERR unknown command: " + cmd
	}
}

func oneArg(args []string) string {
	if len(args) != 1 {
		return ""
	}
	return args[0]
}

func parseRegIndex(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: reg <idx>")
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 0 || idx > 31 {
		return 0, fmt.Errorf("invalid register index: %s", args[0])
	}
	return idx, nil
}

func parseUint32(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value: %s", s)
	}
	return uint32(v), nil
}
