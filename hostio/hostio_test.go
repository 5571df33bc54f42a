package hostio_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lookbusy1344/riscv-sim/hostio"
	"github.com/stretchr/testify/require"
)

// fakeMemory backs the read/write callbacks Dispatch expects with a plain
// byte slice, standing in for a simulator's guest memory.
type fakeMemory struct {
	bytes []byte
}

func newFakeMemory(size int) *fakeMemory {
	return &fakeMemory{bytes: make([]byte, size)}
}

func (m *fakeMemory) read(addr uint32) (uint32, error) {
	return uint32(m.bytes[addr]), nil
}

func (m *fakeMemory) write(addr uint32, v uint32) error {
	m.bytes[addr] = byte(v)
	return nil
}

func (m *fakeMemory) putCString(addr uint32, s string) {
	copy(m.bytes[addr:], s)
	m.bytes[addr+uint32(len(s))] = 0
}

func (m *fakeMemory) putWord(addr uint32, v uint32) {
	m.bytes[addr] = byte(v)
	m.bytes[addr+1] = byte(v >> 8)
	m.bytes[addr+2] = byte(v >> 16)
	m.bytes[addr+3] = byte(v >> 24)
}

func (m *fakeMemory) mailbox(fn uint32, a0, a1, a2 uint32) uint32 {
	const base = 0
	m.putWord(base+0, fn)
	m.putWord(base+4, a0)
	m.putWord(base+8, a1)
	m.putWord(base+12, a2)
	return base
}

func TestDispatcher_OpenWriteClose(t *testing.T) {
	root := t.TempDir()
	d := hostio.NewDispatcher(root)
	mem := newFakeMemory(4096)

	// open("out.txt")
	mem.putCString(1000, "out.txt")
	mb := mem.mailbox(hostio.SysOpen, 1000, 0, 0)
	fd := d.Dispatch(mb, mem.read, mem.write)
	require.NotEqual(t, uint32(0xFFFFFFFF), fd)

	// write(fd, "hello", 5)
	mem.putCString(2000, "hello")
	mb = mem.mailbox(hostio.SysWrite, fd, 2000, 5)
	n := d.Dispatch(mb, mem.read, mem.write)
	require.Equal(t, uint32(5), n)

	// close(fd)
	mb = mem.mailbox(hostio.SysClose, fd, 0, 0)
	res := d.Dispatch(mb, mem.read, mem.write)
	require.Equal(t, uint32(0), res)

	data, err := os.ReadFile(filepath.Join(root, "out.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestDispatcher_ExitRecordsCode(t *testing.T) {
	d := hostio.NewDispatcher(t.TempDir())
	mem := newFakeMemory(64)

	mb := mem.mailbox(hostio.SysExit, 7, 0, 0)
	d.Dispatch(mb, mem.read, mem.write)

	require.True(t, d.Exited)
	require.Equal(t, 7, d.ExitCode)
}

func TestDispatcher_OpenRejectsPathEscape(t *testing.T) {
	root := t.TempDir()
	d := hostio.NewDispatcher(root)
	mem := newFakeMemory(4096)

	mem.putCString(1000, "../escape.txt")
	mb := mem.mailbox(hostio.SysOpen, 1000, 0, 0)
	fd := d.Dispatch(mb, mem.read, mem.write)

	require.Equal(t, uint32(0xFFFFFFFF), fd)
}

func TestDispatcher_UnknownFunctionReturnsBadFD(t *testing.T) {
	d := hostio.NewDispatcher(t.TempDir())
	mem := newFakeMemory(64)

	mb := mem.mailbox(0xDEAD, 0, 0, 0)
	res := d.Dispatch(mb, mem.read, mem.write)

	require.Equal(t, uint32(0xFFFFFFFF), res)
}
