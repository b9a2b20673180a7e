package mec16xx

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/ec-tools/mecflash/cli/ourutil"
)

// The EEPROM controller mirrors the flash controller's command/status
// discipline but its data register is byte-wide and the array is
// protected by a password-style unlock register.

// EnableEEPROMAccess opens (or closes) register-level control of the
// EEPROM controller. A non-zero password is written to the unlock
// register first.
func (f *Flasher) EnableEEPROMAccess(ctx context.Context, enabled bool, password uint32) error {
	if !enabled {
		if err := f.t.WriteWord32(ctx, eepromConfigAddr, 0); err != nil {
			return errors.Annotatef(err, "failed to write EEPROM_Config")
		}
		return nil
	}
	if password != 0 {
		if err := f.t.WriteWord32(ctx, eepromUnlockAddr, password); err != nil {
			return errors.Annotatef(err, "failed to write EEPROM_Unlock")
		}
	}
	if err := f.t.WriteWord32(ctx, eepromConfigAddr, cfgRegCtlEn); err != nil {
		return errors.Annotatef(err, "failed to write EEPROM_Config")
	}
	if err := f.t.WriteWord32(ctx, eepromCommandAddr, cmdRegCtl|uint32(modeStandby)); err != nil {
		return errors.Annotatef(err, "failed to write EEPROM_Command")
	}
	if err := f.t.WriteWord32(ctx, eepromStatusAddr, stsErrMask); err != nil {
		return errors.Annotatef(err, "failed to clear EEPROM_Status")
	}
	return nil
}

// EraseEEPROM erases the entire EEPROM array.
func (f *Flasher) EraseEEPROM(ctx context.Context) error {
	return errors.Trace(f.sendCommand(ctx, eepromCtl, modeErase, eepromEraseAllAddr, false))
}

// ProgramEEPROM programs data at the given byte address in one burst.
func (f *Flasher) ProgramEEPROM(ctx context.Context, addr uint32, data []byte) error {
	if err := f.sendCommand(ctx, eepromCtl, modeProgram, addr, true); err != nil {
		return errors.Trace(err)
	}
	for i, b := range data {
		if err := f.t.WriteWord32(ctx, eepromDataAddr, uint32(b)); err != nil {
			return errors.Annotatef(err, "failed to program byte %d @ 0x%04x", i, addr+uint32(i))
		}
		glog.V(2).Infof("program EEPROM 0x%04x: 0x%02x", addr+uint32(i), b)
	}
	return nil
}

// ReadEEPROM reads length bytes starting at the given byte address.
// EEPROM reads suffer from the same silent glitches as flash reads, so
// the same majority-vote discipline applies, byte-wise.
func (f *Flasher) ReadEEPROM(ctx context.Context, addr uint32, length int) ([]byte, error) {
	data := make([]byte, 0, length)
	for i := 0; i < length; i++ {
		w, err := f.readByteEEPROM(ctx, addr+uint32(i))
		if err != nil {
			return nil, errors.Annotatef(err, "failed to read EEPROM byte %d", i)
		}
		data = append(data, w)
	}
	return data, nil
}

func (f *Flasher) readByteEEPROM(ctx context.Context, addr uint32) (byte, error) {
	w, err := f.readWord(ctx, eepromCtl, addr)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return byte(w & 0xff), nil
}

// DumpEEPROM unlocks the EEPROM controller and reads length bytes
// starting at addr.
func (f *Flasher) DumpEEPROM(ctx context.Context, addr uint32, length int, password uint32) ([]byte, error) {
	if int(addr)+length > EEPROMSize {
		return nil, errors.Errorf("%d @ 0x%x is out of EEPROM bounds (%d)", length, addr, EEPROMSize)
	}
	if err := f.EnableEEPROMAccess(ctx, true, password); err != nil {
		return nil, errors.Annotatef(err, "failed to unlock the EEPROM controller")
	}
	defer f.EnableEEPROMAccess(ctx, false, 0)
	data, err := f.ReadEEPROM(ctx, addr, length)
	return data, errors.Trace(err)
}

// FlashEEPROM writes data to the EEPROM array at address 0: unlock,
// erase, program, verify.
func (f *Flasher) FlashEEPROM(ctx context.Context, data []byte, password uint32, opts *FlashOpts) error {
	if len(data) > EEPROMSize {
		return errors.Errorf("image of %d bytes does not fit in EEPROM (%d)", len(data), EEPROMSize)
	}
	if err := f.EnableEEPROMAccess(ctx, true, password); err != nil {
		return errors.Annotatef(err, "failed to unlock the EEPROM controller")
	}
	defer f.EnableEEPROMAccess(ctx, false, 0)
	start := time.Now()
	if !opts.NoErase {
		ourutil.Reportf("Erasing EEPROM...")
		if err := f.EraseEEPROM(ctx); err != nil {
			return errors.Annotatef(err, "failed to erase EEPROM")
		}
	}
	ourutil.Reportf("Writing %d @ 0x0...", len(data))
	if err := f.ProgramEEPROM(ctx, 0, data); err != nil {
		return errors.Annotatef(err, "failed to program EEPROM")
	}
	if !opts.NoVerify {
		ourutil.Reportf("Verifying...")
		got, err := f.ReadEEPROM(ctx, 0, len(data))
		if err != nil {
			return errors.Trace(err)
		}
		for i := range data {
			if got[i] != data[i] {
				return errors.Errorf("EEPROM verification failed @ 0x%04x: expected 0x%02x, got 0x%02x",
					i, data[i], got[i])
			}
		}
	}
	glog.Infof("EEPROM took %.3f", time.Since(start).Seconds())
	return nil
}
