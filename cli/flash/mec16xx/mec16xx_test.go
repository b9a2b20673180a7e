package mec16xx

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chipModel emulates the flash and EEPROM controllers at the register
// level: mode commands, busy polling, address auto-increment on data
// access and NOR-style programming (bits can only be cleared). Data
// reads can be made to glitch to zero the way the real silicon does.
type chipModel struct {
	flash  []byte
	eeprom []byte

	flashRegs  modelRegs
	eepromRegs modelRegs

	// Return 0 from every glitchNth data read.
	glitchNth int
	readCount int

	// Latch error bits into the status register on the next command.
	failWith uint32

	// Report busy for this many polls after each command.
	busyPolls int
	busyLeft  int
}

type modelRegs struct {
	config  uint32
	command uint32
	address uint32
	status  uint32
}

func newChipModel() *chipModel {
	m := &chipModel{
		flash:  bytes.Repeat([]byte{0x00}, FlashSize), // unerased
		eeprom: bytes.Repeat([]byte{0x00}, EEPROMSize),
	}
	return m
}

func (m *chipModel) ReadWord32(ctx context.Context, addr uint32) (uint32, error) {
	switch addr {
	case flashStatusAddr:
		s := m.flashRegs.status
		if m.busyLeft > 0 {
			m.busyLeft--
			s |= stsBusy
		}
		return s, nil
	case eepromStatusAddr:
		s := m.eepromRegs.status
		if m.busyLeft > 0 {
			m.busyLeft--
			s |= stsBusy
		}
		return s, nil
	case flashDataAddr:
		if m.glitched() {
			return 0, nil
		}
		a := m.flashRegs.address
		m.flashRegs.address += 4
		var w uint32
		for i := 3; i >= 0; i-- {
			w = w<<8 | uint32(m.flash[a+uint32(i)])
		}
		return w, nil
	case eepromDataAddr:
		if m.glitched() {
			return 0, nil
		}
		a := m.eepromRegs.address
		m.eepromRegs.address++
		return uint32(m.eeprom[a]), nil
	case flashConfigAddr:
		return m.flashRegs.config, nil
	case eepromConfigAddr:
		return m.eepromRegs.config, nil
	}
	return 0, nil
}

func (m *chipModel) glitched() bool {
	m.readCount++
	return m.glitchNth > 0 && m.readCount%m.glitchNth == 0
}

func (m *chipModel) WriteWord32(ctx context.Context, addr uint32, value uint32) error {
	switch addr {
	case flashConfigAddr:
		m.flashRegs.config = value
	case eepromConfigAddr:
		m.eepromRegs.config = value
	case flashCommandAddr:
		m.flashRegs.command = value
	case eepromCommandAddr:
		m.eepromRegs.command = value
	case flashStatusAddr:
		m.flashRegs.status &^= value & stsErrMask // write-one-to-clear
	case eepromStatusAddr:
		m.eepromRegs.status &^= value & stsErrMask
	case flashAddressAddr:
		m.flashRegs.address = value
		m.runFlashCommand()
	case eepromAddressAddr:
		m.eepromRegs.address = value
		m.runEEPROMCommand()
	case flashDataAddr:
		if mode(m.flashRegs.command&cmdModeMask) == modeProgram {
			a := m.flashRegs.address
			m.flashRegs.address += 4
			for i := 0; i < 4; i++ {
				m.flash[a+uint32(i)] &= byte(value >> (8 * i)) // NOR: only clears bits
			}
		}
	case eepromDataAddr:
		if mode(m.eepromRegs.command&cmdModeMask) == modeProgram {
			a := m.eepromRegs.address
			m.eepromRegs.address++
			m.eeprom[a] = byte(value)
		}
	}
	return nil
}

// runFlashCommand reacts to the address write that completes a command.
func (m *chipModel) runFlashCommand() {
	if m.flashRegs.command&cmdRegCtl == 0 {
		return
	}
	if m.failWith != 0 {
		m.flashRegs.status |= m.failWith
		return
	}
	m.busyLeft = m.busyPolls
	if mode(m.flashRegs.command&cmdModeMask) == modeErase && m.flashRegs.address == flashEraseAllAddr {
		for i := range m.flash {
			m.flash[i] = 0xff
		}
	}
}

func (m *chipModel) runEEPROMCommand() {
	if m.eepromRegs.command&cmdRegCtl == 0 {
		return
	}
	if m.failWith != 0 {
		m.eepromRegs.status |= m.failWith
		return
	}
	m.busyLeft = m.busyPolls
	if mode(m.eepromRegs.command&cmdModeMask) == modeErase && m.eepromRegs.address == eepromEraseAllAddr {
		for i := range m.eeprom {
			m.eeprom[i] = 0xff
		}
	}
}

func testImage(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*7 + 3)
	}
	return data
}

func TestFlashRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newChipModel()
	m.busyPolls = 2
	fl := NewFlasher(m)

	data := testImage(4096)
	require.NoError(t, fl.Flash(ctx, data, &FlashOpts{}))

	got, err := fl.Read(ctx, 0, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// The rest of the array is erased.
	tail, err := fl.Read(ctx, uint32(len(data)), 16)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xff}, 16), tail)
}

func TestFlashRoundTripGlitchyReads(t *testing.T) {
	ctx := context.Background()
	m := newChipModel()
	m.glitchNth = 7 // every 7th data read returns 0
	fl := NewFlasher(m)

	data := testImage(1024)
	require.NoError(t, fl.Flash(ctx, data, &FlashOpts{}))

	got, err := fl.Read(ctx, 0, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestFlashUnalignedLength(t *testing.T) {
	ctx := context.Background()
	m := newChipModel()
	fl := NewFlasher(m)

	data := testImage(1023) // padded with 0xff to a word boundary
	require.NoError(t, fl.Flash(ctx, data, &FlashOpts{}))

	got, err := fl.Read(ctx, 0, 1024)
	require.NoError(t, err)
	assert.Equal(t, data, got[:1023])
	assert.Equal(t, byte(0xff), got[1023])
}

func TestFlashTooBig(t *testing.T) {
	fl := NewFlasher(newChipModel())
	err := fl.Flash(context.Background(), testImage(FlashSize+1), &FlashOpts{})
	assert.Error(t, err)
}

func TestFlashWithoutEraseDoesNotRoundTrip(t *testing.T) {
	// Programming a non-blank NOR array only clears bits; verification
	// must catch it.
	ctx := context.Background()
	m := newChipModel()
	fl := NewFlasher(m)
	err := fl.Flash(ctx, testImage(64), &FlashOpts{NoErase: true})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "verification failed")
}

func TestVerifyDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	m := newChipModel()
	fl := NewFlasher(m)

	data := testImage(256)
	require.NoError(t, fl.Flash(ctx, data, &FlashOpts{NoVerify: true}))
	m.flash[100] = 0x00

	require.NoError(t, fl.EnableAccess(ctx, true))
	words := WordsFromBytes(data, 0xff)
	err := fl.VerifyWords(ctx, 0, words)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "0x000064")
}

func TestCommandErrorIsFatal(t *testing.T) {
	ctx := context.Background()
	m := newChipModel()
	m.failWith = stsProtectErr
	fl := NewFlasher(m)

	require.NoError(t, fl.EnableAccess(ctx, true))
	err := fl.EraseAll(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status")
}

func TestStuckBusyTimesOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := newChipModel()
	m.busyPolls = 1 << 30
	fl := NewFlasher(m)

	require.NoError(t, fl.EnableAccess(context.Background(), true))
	err := fl.EraseAll(ctx)
	assert.Error(t, err)
}

func TestEEPROMRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newChipModel()
	m.busyPolls = 1
	fl := NewFlasher(m)

	data := testImage(512)
	require.NoError(t, fl.FlashEEPROM(ctx, data, 0x12345678, &FlashOpts{}))

	got, err := fl.DumpEEPROM(ctx, 0, len(data), 0x12345678)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestEEPROMTooBig(t *testing.T) {
	fl := NewFlasher(newChipModel())
	err := fl.FlashEEPROM(context.Background(), testImage(EEPROMSize+1), 0, &FlashOpts{})
	assert.Error(t, err)
}

func TestWordsFromBytes(t *testing.T) {
	cases := []struct {
		in   []byte
		fill byte
		out  []uint32
	}{
		{nil, 0xff, []uint32{}},
		{[]byte{0x01, 0x02, 0x03, 0x04}, 0xff, []uint32{0x04030201}},
		{[]byte{0x01}, 0xff, []uint32{0xffffff01}},
		{[]byte{0x01, 0x02, 0x03, 0x04, 0x05}, 0x00, []uint32{0x04030201, 0x00000005}},
	}
	for _, c := range cases {
		assert.Equal(t, c.out, WordsFromBytes(c.in, c.fill), "in %v", c.in)
	}
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, BytesFromWords([]uint32{0x04030201}))
}
