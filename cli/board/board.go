// Copyright (c) 2025 EC Tools Contributors
// All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Package board describes the bench setup: where OpenOCD listens, which
// TAP the chip is on and what the chip looks like. Pin wiring and
// adapter speed stay in the OpenOCD config file.
package board

import (
	"io/ioutil"

	"github.com/juju/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/ec-tools/mecflash/cli/flash/mec16xx"
)

type Config struct {
	// OpenOCD Tcl RPC address, host:port.
	OpenOCDAddr string `yaml:"openocd_addr,omitempty"`
	// Name of the chip's TAP in the OpenOCD config.
	Tap string `yaml:"tap,omitempty"`
	// Expected JTAG IDCODE; 0 skips the check.
	JTAGID uint32 `yaml:"jtag_id,omitempty"`
	// Array geometry, bytes.
	FlashSize  int `yaml:"flash_size,omitempty"`
	EEPROMSize int `yaml:"eeprom_size,omitempty"`
	// EEPROM unlock password; 0 means none.
	EEPROMPassword uint32 `yaml:"eeprom_password,omitempty"`
}

// Default returns the MEC1633/MEC1663 setup.
func Default() *Config {
	return &Config{
		OpenOCDAddr: "localhost:6666",
		Tap:         "mec16xx.cpu",
		FlashSize:   mec16xx.FlashSize,
		EEPROMSize:  mec16xx.EEPROMSize,
	}
}

// Load reads a board file and overlays it on the defaults.
func Load(fname string) (*Config, error) {
	c := Default()
	data, err := ioutil.ReadFile(fname)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to read board file")
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, errors.Annotatef(err, "failed to parse board file %s", fname)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Annotatef(err, "invalid board file %s", fname)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.OpenOCDAddr == "" {
		return errors.Errorf("openocd_addr must not be empty")
	}
	if c.Tap == "" {
		return errors.Errorf("tap must not be empty")
	}
	if c.FlashSize <= 0 || c.FlashSize%4 != 0 {
		return errors.Errorf("invalid flash_size %d", c.FlashSize)
	}
	if c.EEPROMSize <= 0 {
		return errors.Errorf("invalid eeprom_size %d", c.EEPROMSize)
	}
	return nil
}
