// Package mec16xx drives the embedded flash and EEPROM controllers of
// the Microchip MEC1633/MEC1663 family through a halted debug session.
package mec16xx

import (
	"bytes"
	"context"
	"encoding/binary"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/ec-tools/mecflash/cli/ourutil"
)

// Target is a debug session that can peek and poke the target's memory
// space. All controller registers are accessed through it.
type Target interface {
	// ReadWord32 reads a single 32-bit word from the target.
	ReadWord32(ctx context.Context, addr uint32) (uint32, error)
	// WriteWord32 writes a single 32-bit word to the target.
	WriteWord32(ctx context.Context, addr uint32, value uint32) error
}

type FlashOpts struct {
	// Skip the whole-array erase before programming.
	NoErase bool
	// Skip the read-back verification pass.
	NoVerify bool
}

// ctl describes one of the two identical command/status register blocks.
type ctl struct {
	name    string
	data    uint32
	address uint32
	command uint32
	status  uint32
}

var (
	flashCtl = ctl{
		name:    "flash",
		data:    flashDataAddr,
		address: flashAddressAddr,
		command: flashCommandAddr,
		status:  flashStatusAddr,
	}
	eepromCtl = ctl{
		name:    "EEPROM",
		data:    eepromDataAddr,
		address: eepromAddressAddr,
		command: eepromCommandAddr,
		status:  eepromStatusAddr,
	}
)

type Flasher struct {
	t Target
}

func NewFlasher(t Target) *Flasher {
	return &Flasher{t: t}
}

// EnableAccess opens (or closes) register-level control of the flash
// controller. While enabled the controller is held in standby between
// commands and its error status is cleared.
func (f *Flasher) EnableAccess(ctx context.Context, enabled bool) error {
	var config uint32
	if enabled {
		config = cfgRegCtlEn
	}
	if err := f.t.WriteWord32(ctx, flashConfigAddr, config); err != nil {
		return errors.Annotatef(err, "failed to write Flash_Config")
	}
	if !enabled {
		// Clearing Reg_Ctl_En clears Reg_Ctl as well, nothing else to do.
		return nil
	}
	// Take control of the controller and force it to standby: it refuses
	// commands in any other mode.
	cmd := cmdRegCtl | uint32(modeStandby)
	if err := f.t.WriteWord32(ctx, flashCommandAddr, cmd); err != nil {
		return errors.Annotatef(err, "failed to write Flash_Command")
	}
	// Error bits are write-one-to-clear.
	if err := f.t.WriteWord32(ctx, flashStatusAddr, stsErrMask); err != nil {
		return errors.Annotatef(err, "failed to clear Flash_Status")
	}
	return nil
}

// sendCommand issues a mode change at the given address and waits for
// the controller to go non-busy. Any error bit in the status register
// fails the command.
func (f *Flasher) sendCommand(ctx context.Context, c ctl, m mode, addr uint32, burst bool) error {
	cmd := cmdRegCtl | uint32(m)
	if burst {
		cmd |= cmdBurst
	}
	glog.V(1).Infof("%s command %s addr=0x%06x burst=%t", c.name, m, addr, burst)
	if err := f.t.WriteWord32(ctx, c.command, cmd); err != nil {
		return errors.Annotatef(err, "failed to write %s command", c.name)
	}
	if err := f.t.WriteWord32(ctx, c.address, addr); err != nil {
		return errors.Annotatef(err, "failed to write %s address", c.name)
	}
	for {
		status, err := f.t.ReadWord32(ctx, c.status)
		if err != nil {
			return errors.Annotatef(err, "failed to read %s status", c.name)
		}
		if status&stsErrMask != 0 {
			return errors.Errorf("%s %s command @ 0x%06x failed, status 0x%08x", c.name, m, addr, status)
		}
		if status&stsBusy == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return errors.Annotatef(err, "%s controller stuck busy", c.name)
		}
	}
}

// readWord reads one word of the array through the controller's read
// path. Reads are issued at least twice: the debug interface sometimes
// returns silent zeroes, most likely because it does not wait for the
// array to acknowledge the read. Two matching values win; a third read
// breaks ties; no majority is an error.
func (f *Flasher) readWord(ctx context.Context, c ctl, addr uint32) (uint32, error) {
	if err := f.sendCommand(ctx, c, modeRead, addr, false); err != nil {
		return 0, errors.Trace(err)
	}
	data1, err := f.t.ReadWord32(ctx, c.data)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if err := f.t.WriteWord32(ctx, c.address, addr); err != nil {
		return 0, errors.Trace(err)
	}
	data2, err := f.t.ReadWord32(ctx, c.data)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if data1 == data2 {
		return data1, nil
	}
	if err := f.t.WriteWord32(ctx, c.address, addr); err != nil {
		return 0, errors.Trace(err)
	}
	data3, err := f.t.ReadWord32(ctx, c.data)
	if err != nil {
		return 0, errors.Trace(err)
	}
	glog.Warningf("read glitch @ 0x%06x: 0x%08x/0x%08x/0x%08x", addr, data1, data2, data3)
	switch {
	case data2 == data3:
		return data2, nil
	case data1 == data3:
		return data1, nil
	default:
		return 0, errors.Errorf("cannot select a read by majority @ 0x%06x", addr)
	}
}

// ReadWords reads count words starting at the given byte address.
func (f *Flasher) ReadWords(ctx context.Context, addr uint32, count int) ([]uint32, error) {
	words := make([]uint32, 0, count)
	for i := 0; i < count; i++ {
		w, err := f.readWord(ctx, flashCtl, addr+uint32(i)*4)
		if err != nil {
			return nil, errors.Annotatef(err, "failed to read word %d", i)
		}
		words = append(words, w)
	}
	return words, nil
}

// EraseAll erases the entire flash array.
func (f *Flasher) EraseAll(ctx context.Context) error {
	return errors.Trace(f.sendCommand(ctx, flashCtl, modeErase, flashEraseAllAddr, false))
}

// ProgramWords programs words at the given byte address in one burst.
func (f *Flasher) ProgramWords(ctx context.Context, addr uint32, words []uint32) error {
	if err := f.sendCommand(ctx, flashCtl, modeProgram, addr, true); err != nil {
		return errors.Trace(err)
	}
	for i, w := range words {
		if err := f.t.WriteWord32(ctx, flashDataAddr, w); err != nil {
			return errors.Annotatef(err, "failed to program word %d @ 0x%06x", i, addr+uint32(i)*4)
		}
		glog.V(2).Infof("program 0x%06x: 0x%08x", addr+uint32(i)*4, w)
	}
	return nil
}

// VerifyWords reads back words at the given byte address and compares
// them to the expected values. The first mismatch aborts.
func (f *Flasher) VerifyWords(ctx context.Context, addr uint32, words []uint32) error {
	for i, expected := range words {
		wa := addr + uint32(i)*4
		got, err := f.readWord(ctx, flashCtl, wa)
		if err != nil {
			return errors.Annotatef(err, "failed to read back word @ 0x%06x", wa)
		}
		if got != expected {
			return errors.Errorf("verification failed @ 0x%06x: expected 0x%08x, got 0x%08x", wa, expected, got)
		}
	}
	return nil
}

// Flash writes data to the flash array at address 0: unlock, erase,
// program and verify, in that order. Timing of the phases is logged.
func (f *Flasher) Flash(ctx context.Context, data []byte, opts *FlashOpts) error {
	if len(data) > FlashSize {
		return errors.Errorf("image of %d bytes does not fit in flash (%d)", len(data), FlashSize)
	}
	words := WordsFromBytes(data, 0xff)
	if err := f.EnableAccess(ctx, true); err != nil {
		return errors.Annotatef(err, "failed to unlock the flash controller")
	}
	defer f.EnableAccess(ctx, false)
	start := time.Now()
	var tErase, tWrite, tVerify time.Duration
	if !opts.NoErase {
		ourutil.Reportf("Erasing...")
		eraseStart := time.Now()
		if err := f.EraseAll(ctx); err != nil {
			return errors.Annotatef(err, "failed to erase flash")
		}
		tErase = time.Since(eraseStart)
	}
	ourutil.Reportf("Writing %d @ 0x0...", len(data))
	writeStart := time.Now()
	if err := f.ProgramWords(ctx, 0, words); err != nil {
		return errors.Annotatef(err, "failed to program flash")
	}
	tWrite = time.Since(writeStart)
	if !opts.NoVerify {
		ourutil.Reportf("Verifying...")
		verifyStart := time.Now()
		if err := f.VerifyWords(ctx, 0, words); err != nil {
			return errors.Trace(err)
		}
		tVerify = time.Since(verifyStart)
	}
	glog.Infof("Took %.3f (%.3f erase, %.3f write, %.3f verify)",
		time.Since(start).Seconds(), tErase.Seconds(), tWrite.Seconds(), tVerify.Seconds())
	return nil
}

// Read dumps length bytes of the flash array starting at addr.
func (f *Flasher) Read(ctx context.Context, addr uint32, length int) ([]byte, error) {
	if int(addr)+length > FlashSize {
		return nil, errors.Errorf("%d @ 0x%x is out of flash bounds (%d)", length, addr, FlashSize)
	}
	if addr%4 != 0 {
		return nil, errors.Errorf("read address must be word-aligned")
	}
	if err := f.EnableAccess(ctx, true); err != nil {
		return nil, errors.Annotatef(err, "failed to unlock the flash controller")
	}
	defer f.EnableAccess(ctx, false)
	words, err := f.ReadWords(ctx, addr, (length+3)/4)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return BytesFromWords(words)[:length], nil
}

// WordsFromBytes packs data into little-endian words, padding the tail
// with the fill byte up to a word boundary.
func WordsFromBytes(data []byte, fill byte) []uint32 {
	for len(data)%4 != 0 {
		data = append(data[:len(data):len(data)], fill)
	}
	words := make([]uint32, 0, len(data)/4)
	buf := bytes.NewBuffer(data)
	var w uint32
	for binary.Read(buf, binary.LittleEndian, &w) == nil {
		words = append(words, w)
	}
	return words
}

// BytesFromWords is the inverse of WordsFromBytes.
func BytesFromWords(words []uint32) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(words)*4))
	for _, w := range words {
		binary.Write(buf, binary.LittleEndian, w)
	}
	return buf.Bytes()
}
