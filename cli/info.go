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

	"github.com/ec-tools/mecflash/cli/ourutil"
)

func info(ctx context.Context) error {
	oc, _, err := connectTarget(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	defer oc.Close()

	ictx, cancel := opCtx(ctx)
	defer cancel()
	targets, err := oc.Targets(ictx)
	if err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("OpenOCD %s:", oc.Addr())
	ourutil.Reportf("%s", targets)
	return nil
}
