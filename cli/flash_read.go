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
	"strconv"

	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/ec-tools/mecflash/cli/flash/mec16xx"
	"github.com/ec-tools/mecflash/cli/ourutil"
)

// flashRead dumps the flash array.
//
//	mecflash flash-read out.bin              whole array
//	mecflash flash-read 0x1000 0x400 out.bin a slice of it
func flashRead(ctx context.Context) error {
	oc, cfg, err := connectTarget(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	defer oc.Close()

	addr, length := int64(0), int64(cfg.FlashSize)
	var outFile string
	args := flag.Args()
	switch len(args) {
	case 2:
		outFile = args[1]
	case 4:
		addr, err = strconv.ParseInt(args[1], 0, 64)
		if err != nil {
			return errors.Annotatef(err, "invalid address")
		}
		length, err = strconv.ParseInt(args[2], 0, 64)
		if err != nil {
			return errors.Annotatef(err, "invalid length")
		}
		outFile = args[3]
	default:
		return errors.Errorf("output file is required: flash-read [addr len] <file>")
	}

	ourutil.Reportf("Reading %d @ 0x%x...", length, addr)
	fctx, cancel := flashCtx(ctx)
	defer cancel()
	fl := mec16xx.NewFlasher(oc)
	data, err := fl.Read(fctx, uint32(addr), int(length))
	if err != nil {
		return errors.Trace(err)
	}
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
