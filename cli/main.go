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
// mecflash writes firmware and EEPROM images to MEC1633/MEC1663
// embedded controllers through a running OpenOCD instance.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/ec-tools/mecflash/common/pflagenv"
	"github.com/ec-tools/mecflash/version"
)

const (
	envPrefix = "MECFLASH_"
)

var (
	versionFlag = flag.Bool("version", false, "Print version and exit")
	helpFull    = flag.Bool("helpfull", false, "Show full help, including advanced flags")
)

var (
	commands = []command{
		{"flash", flashFirmware, `Write a firmware image to flash and verify it`,
			[]string{}, []string{"openocd", "board", "no-erase", "no-verify", "reset-after"}},
		{"flash-read", flashRead, `Read the flash array back into a file`,
			[]string{}, []string{"openocd", "board"}},
		{"erase", eraseFlash, `Erase the entire flash array`,
			[]string{}, []string{"openocd", "board"}},
		{"eeprom-write", eepromWrite, `Write an image to the EEPROM array and verify it`,
			[]string{}, []string{"openocd", "board", "no-erase", "no-verify"}},
		{"eeprom-read", eepromRead, `Read the EEPROM array back into a file`,
			[]string{}, []string{"openocd", "board"}},
		{"info", info, `Report target state and TAP IDCODE`,
			[]string{}, []string{"openocd", "board"}},
		{"console", console, `Simple serial console for the EC's UART`,
			[]string{"port"}, []string{"baud-rate", "no-input"}},
	}
)

type handler func(ctx context.Context) error

type command struct {
	name     string
	handler  handler
	short    string
	required []string
	optional []string
}

func run() error {
	for _, c := range commands {
		if c.name == flag.Arg(0) {
			if err := checkFlags(c.required); err != nil {
				return errors.Trace(err)
			}
			if err := c.handler(context.Background()); err != nil {
				return errors.Trace(err)
			}
			return nil
		}
	}
	usage()
	return nil
}

func main() {
	initFlags()
	flag.Parse()
	pflagenv.Parse(envPrefix)

	if *helpFull {
		unhideFlags()
		usage()
		return
	} else if *versionFlag {
		fmt.Printf("mecflash %s (build %s)\n", version.Version, version.BuildId)
		return
	}

	if err := run(); err != nil {
		glog.Infof("Error: %+v", err)
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
