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
package main

import (
	"context"
	"io"
	"os"

	"github.com/cesanta/go-serial/serial"
	"github.com/golang/glog"
	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/ec-tools/mecflash/cli/flags"
	"github.com/ec-tools/mecflash/cli/ourutil"
)

var (
	noInput bool
)

func init() {
	flag.BoolVar(&noInput, "no-input", false,
		"Do not read from stdin, only print the device's output to stdout")
}

// console attaches to the EC's UART. Handy for watching the firmware
// come up right after flashing.
func console(ctx context.Context) error {
	sp, err := serial.Open(serial.OpenOptions{
		PortName:            *flags.Port,
		BaudRate:            uint(*flags.BaudRate),
		HardwareFlowControl: *flags.HWFC,
		DataBits:            8,
		ParityMode:          serial.PARITY_NONE,
		StopBits:            1,
		MinimumReadSize:     1,
	})
	if err != nil {
		return errors.Annotatef(err, "failed to open %s", *flags.Port)
	}
	defer sp.Close()
	ourutil.Reportf("Connected to %s, %d 8N1. Ctrl-C to exit.", *flags.Port, *flags.BaudRate)

	errC := make(chan error, 2)
	go func() {
		_, err := io.Copy(os.Stdout, sp)
		errC <- err
	}()
	if !noInput {
		go func() {
			_, err := io.Copy(sp, os.Stdin)
			errC <- err
		}()
	}
	select {
	case err = <-errC:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil && err != io.EOF {
		glog.Infof("console closed: %v", err)
		return errors.Annotatef(err, "console closed")
	}
	return nil
}
