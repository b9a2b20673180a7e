package fwimg

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	fname := filepath.Join(t.TempDir(), name)
	require.NoError(t, ioutil.WriteFile(fname, data, 0644))
	return fname
}

func TestLoadBin(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	fname := writeFile(t, "fw.bin", data)

	img, err := Load(fname, 16, 0xff)
	require.NoError(t, err)
	assert.Equal(t, "fw.bin", img.Name)
	assert.Equal(t, data, img.Data)
}

func TestLoadBinTooBig(t *testing.T) {
	fname := writeFile(t, "fw.bin", make([]byte, 17))
	_, err := Load(fname, 16, 0xff)
	assert.Error(t, err)
}

func TestLoadEmpty(t *testing.T) {
	fname := writeFile(t, "fw.bin", nil)
	_, err := Load(fname, 16, 0xff)
	assert.Error(t, err)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.bin"), 16, 0xff)
	assert.Error(t, err)
}

func TestLoadHex(t *testing.T) {
	// Two data records with a 4-byte gap between them.
	hex := ":0400000001020304F2\n" +
		":04000800AABBCCDDE6\n" +
		":00000001FF\n"
	fname := writeFile(t, "fw.hex", []byte(hex))

	img, err := Load(fname, 16, 0xff)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x01, 0x02, 0x03, 0x04,
		0xff, 0xff, 0xff, 0xff,
		0xaa, 0xbb, 0xcc, 0xdd,
	}, img.Data)
}

func TestLoadHexCorrupt(t *testing.T) {
	fname := writeFile(t, "fw.hex", []byte(":0400000001020304F3\n:00000001FF\n"))
	_, err := Load(fname, 16, 0xff)
	assert.Error(t, err)
}

func TestLoadHexTooBig(t *testing.T) {
	fname := writeFile(t, "fw.hex", []byte(":0400000001020304F2\n:00000001FF\n"))
	_, err := Load(fname, 2, 0xff)
	assert.Error(t, err)
}
