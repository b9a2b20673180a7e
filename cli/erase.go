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

	"github.com/ec-tools/mecflash/cli/flash/mec16xx"
	"github.com/ec-tools/mecflash/cli/ourutil"
)

func eraseFlash(ctx context.Context) error {
	oc, _, err := connectTarget(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	defer oc.Close()

	fctx, cancel := flashCtx(ctx)
	defer cancel()
	fl := mec16xx.NewFlasher(oc)
	if err := fl.EnableAccess(fctx, true); err != nil {
		return errors.Annotatef(err, "failed to unlock the flash controller")
	}
	defer fl.EnableAccess(fctx, false)
	ourutil.Reportf("Erasing...")
	if err := fl.EraseAll(fctx); err != nil {
		return errors.Annotatef(err, "failed to erase flash")
	}
	ourutil.Reportf("Done.")
	return nil
}
