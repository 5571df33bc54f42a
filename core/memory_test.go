package core_test

import (
	"testing"

	"github.com/lookbusy1344/riscv-sim/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_WordRoundTrip(t *testing.T) {
	m := core.NewMemory(0, 1024)
	require.NoError(t, m.WriteWord(0x10, 0xdeadbeef))
	v, err := m.ReadWord(0x10)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), v)
}

func TestMemory_LittleEndian(t *testing.T) {
	m := core.NewMemory(0, 1024)
	require.NoError(t, m.WriteWord(0, 0x01020304))
	b0, _ := m.ReadByte(0)
	b1, _ := m.ReadByte(1)
	b2, _ := m.ReadByte(2)
	b3, _ := m.ReadByte(3)
	assert.Equal(t, uint32(0x04), b0)
	assert.Equal(t, uint32(0x03), b1)
	assert.Equal(t, uint32(0x02), b2)
	assert.Equal(t, uint32(0x01), b3)
}

func TestMemory_WordMisaligned(t *testing.T) {
	m := core.NewMemory(0, 1024)
	_, err := m.ReadWord(1)
	assert.ErrorIs(t, err, core.ErrMisaligned)
	assert.ErrorIs(t, m.WriteWord(2, 0), core.ErrMisaligned)
}

func TestMemory_HalfMisaligned(t *testing.T) {
	m := core.NewMemory(0, 1024)
	_, err := m.ReadHalf(1)
	assert.ErrorIs(t, err, core.ErrMisaligned)
}

func TestMemory_OutOfRange(t *testing.T) {
	m := core.NewMemory(0x1000, 0x100)
	_, err := m.ReadByte(0x0fff)
	assert.ErrorIs(t, err, core.ErrOutOfRange)
	_, err = m.ReadWord(0x1000 + 0x100)
	assert.ErrorIs(t, err, core.ErrOutOfRange)
}

func TestMemory_LoadImage(t *testing.T) {
	m := core.NewMemory(0x1000, 0x100)
	require.NoError(t, m.LoadImage(0x1000, []byte{1, 2, 3, 4}))
	v, err := m.ReadWord(0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04030201), v)
}
