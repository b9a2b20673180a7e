package board

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBoardFile(t *testing.T, data string) string {
	fname := filepath.Join(t.TempDir(), "board.yml")
	require.NoError(t, ioutil.WriteFile(fname, []byte(data), 0644))
	return fname
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, "localhost:6666", c.OpenOCDAddr)
	assert.Equal(t, "mec16xx.cpu", c.Tap)
	assert.Equal(t, 0x30000, c.FlashSize)
	assert.Equal(t, 0x800, c.EEPROMSize)
	assert.Equal(t, uint32(0), c.JTAGID)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	fname := writeBoardFile(t, `
openocd_addr: bench-pi:6666
jtag_id: 0x04201211
eeprom_password: 0xa5a5a5a5
`)
	c, err := Load(fname)
	require.NoError(t, err)
	assert.Equal(t, "bench-pi:6666", c.OpenOCDAddr)
	assert.Equal(t, uint32(0x04201211), c.JTAGID)
	assert.Equal(t, uint32(0xa5a5a5a5), c.EEPROMPassword)
	// Untouched fields keep their defaults.
	assert.Equal(t, "mec16xx.cpu", c.Tap)
	assert.Equal(t, 0x30000, c.FlashSize)
}

func TestLoadUnknownKey(t *testing.T) {
	fname := writeBoardFile(t, "adapter_speed: 1000\n")
	_, err := Load(fname)
	assert.Error(t, err)
}

func TestLoadInvalidGeometry(t *testing.T) {
	fname := writeBoardFile(t, "flash_size: 3\n")
	_, err := Load(fname)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
