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

	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/ec-tools/mecflash/cli/flash/mec16xx"
	"github.com/ec-tools/mecflash/cli/ourutil"
	"github.com/ec-tools/mecflash/common/fwimg"
)

var (
	flashOpts  mec16xx.FlashOpts
	resetAfter bool
)

func init() {
	flag.BoolVar(&flashOpts.NoErase, "no-erase", false,
		"Do not erase before programming. Only round-trips on a blank array.")
	flag.BoolVar(&flashOpts.NoVerify, "no-verify", false,
		"Skip the read-back verification pass")
	flag.BoolVar(&resetAfter, "reset-after", false,
		"Reset the target and let the new firmware run when done")
}

func flashFirmware(ctx context.Context) error {
	if flag.NArg() != 2 {
		return errors.Errorf("image file is required")
	}
	oc, cfg, err := connectTarget(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	defer oc.Close()

	img, err := fwimg.Load(flag.Arg(1), cfg.FlashSize, 0xff)
	if err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("Flashing %s (%d bytes)...", img.Name, len(img.Data))

	fctx, cancel := flashCtx(ctx)
	defer cancel()
	fl := mec16xx.NewFlasher(oc)
	if err := fl.Flash(fctx, img.Data, &flashOpts); err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("Done.")
	if resetAfter {
		ourutil.Reportf("Booting firmware...")
		rctx, cancel := opCtx(ctx)
		defer cancel()
		if err := oc.Reset(rctx, false); err != nil {
			return errors.Annotatef(err, "failed to reset the target")
		}
	}
	return nil
}
