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
	"io/ioutil"
	"os"

	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/ec-tools/mecflash/cli/flash/mec16xx"
	"github.com/ec-tools/mecflash/cli/ourutil"
	"github.com/ec-tools/mecflash/common/fwimg"
)

func eepromWrite(ctx context.Context) error {
	if flag.NArg() != 2 {
		return errors.Errorf("image file is required")
	}
	oc, cfg, err := connectTarget(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	defer oc.Close()

	img, err := fwimg.Load(flag.Arg(1), cfg.EEPROMSize, 0xff)
	if err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("Writing %s (%d bytes) to EEPROM...", img.Name, len(img.Data))

	fctx, cancel := flashCtx(ctx)
	defer cancel()
	fl := mec16xx.NewFlasher(oc)
	if err := fl.FlashEEPROM(fctx, img.Data, cfg.EEPROMPassword, &flashOpts); err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("Done.")
	return nil
}

func eepromRead(ctx context.Context) error {
	if flag.NArg() != 2 {
		return errors.Errorf("output file is required")
	}
	oc, cfg, err := connectTarget(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	defer oc.Close()

	ourutil.Reportf("Reading %d bytes of EEPROM...", cfg.EEPROMSize)
	fctx, cancel := flashCtx(ctx)
	defer cancel()
	fl := mec16xx.NewFlasher(oc)
	data, err := fl.DumpEEPROM(fctx, 0, cfg.EEPROMSize, cfg.EEPROMPassword)
	if err != nil {
		return errors.Trace(err)
	}
	outFile := flag.Arg(1)
	if outFile == "-" {
		_, err = os.Stdout.Write(data)
	} else {
		err = ioutil.WriteFile(outFile, data, 0644)
	}
	if err != nil {
		return errors.Annotatef(err, "failed to write %s", outFile)
	}
	ourutil.Reportf("Wrote %d bytes to %s.", len(data), outFile)
	return nil
}
