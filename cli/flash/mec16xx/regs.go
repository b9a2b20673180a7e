package mec16xx

// Register layout of the MEC1633/MEC1663 embedded flash controller and
// the companion EEPROM controller, per the MEC1609/MEC1618 family
// datasheets (DS00002485A, DS00002339A).

const (
	// FlashSize is the size of the embedded flash array in bytes.
	FlashSize = 0x30000
	// EEPROMSize is the size of the embedded EEPROM array in bytes.
	EEPROMSize = 0x800

	flashBaseAddr = 0xff3800

	flashMbxIndexAddr = flashBaseAddr + 0x00
	flashMbxDataAddr  = flashBaseAddr + 0x04

	flashDataAddr    = flashBaseAddr + 0x100
	flashAddressAddr = flashBaseAddr + 0x104
	flashCommandAddr = flashBaseAddr + 0x108
	flashStatusAddr  = flashBaseAddr + 0x10c
	flashConfigAddr  = flashBaseAddr + 0x110
	flashInitAddr    = flashBaseAddr + 0x114

	// Setting all block-select bits of the address erases the whole array.
	flashEraseAllAddr = 0x1f << 19

	eepromBaseAddr = 0xf02c00

	eepromDataAddr    = eepromBaseAddr + 0x00
	eepromAddressAddr = eepromBaseAddr + 0x04
	eepromCommandAddr = eepromBaseAddr + 0x08
	eepromStatusAddr  = eepromBaseAddr + 0x0c
	eepromConfigAddr  = eepromBaseAddr + 0x10
	eepromUnlockAddr  = eepromBaseAddr + 0x20

	eepromEraseAllAddr = 0x7 << 8
)

// Flash_Config register bits.
const (
	cfgRegCtlEn         = 1 << 0
	cfgHostCtl          = 1 << 1
	cfgBootLock         = 1 << 2
	cfgBootProtectEn    = 1 << 3
	cfgDataProtect      = 1 << 4
	cfgInhibitJTAG      = 1 << 5
	cfgEEPROMAccess     = 1 << 8
	cfgEEPROMProtect    = 1 << 9
	cfgEEPROMForceBlock = 1 << 10
)

// Flash_Command / EEPROM_Command register bits. The mode occupies the
// two low bits.
const (
	cmdModeMask = 0x3
	cmdBurst    = 1 << 2
	cmdECInt    = 1 << 3
	cmdRegCtl   = 1 << 8
)

type mode uint32

const (
	modeStandby mode = 0
	modeRead    mode = 1
	modeProgram mode = 2
	modeErase   mode = 3
)

func (m mode) String() string {
	switch m {
	case modeStandby:
		return "standby"
	case modeRead:
		return "read"
	case modeProgram:
		return "program"
	case modeErase:
		return "erase"
	}
	return "invalid"
}

// Flash_Status / EEPROM_Status register bits.
const (
	stsBusy        = 1 << 0
	stsDataFull    = 1 << 1
	stsAddressFull = 1 << 2
	stsBootLock    = 1 << 3
	stsBootBlock   = 1 << 5
	stsDataBlock   = 1 << 6
	stsEEPROMBlock = 1 << 7
	stsBusyErr     = 1 << 8
	stsCmdErr      = 1 << 9
	stsProtectErr  = 1 << 10

	stsErrMask = stsBusyErr | stsCmdErr | stsProtectErr
)
