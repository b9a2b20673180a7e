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
	"time"

	"github.com/juju/errors"
	flag "github.com/spf13/pflag"

	"github.com/ec-tools/mecflash/cli/board"
	"github.com/ec-tools/mecflash/cli/flags"
	"github.com/ec-tools/mecflash/cli/openocd"
	"github.com/ec-tools/mecflash/cli/ourutil"
)

// boardConfig loads the board file (if given) and applies flag
// overrides.
func boardConfig() (*board.Config, error) {
	cfg := board.Default()
	if *flags.BoardFile != "" {
		var err error
		cfg, err = board.Load(*flags.BoardFile)
		if err != nil {
			return nil, errors.Trace(err)
		}
	}
	if *flags.OpenOCDAddr != "" {
		cfg.OpenOCDAddr = *flags.OpenOCDAddr
	}
	if *flags.Tap != "" {
		cfg.Tap = *flags.Tap
	}
	if *flags.JTAGID != 0 {
		cfg.JTAGID = *flags.JTAGID
	}
	return cfg, nil
}

// opCtx returns a context bounded by the per-operation timeout flag.
func opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, *flags.Timeout)
}

// connectTarget connects to OpenOCD, halts the target and checks the
// TAP IDCODE against the board file. The caller owns the returned
// client.
func connectTarget(ctx context.Context) (*openocd.Client, *board.Config, error) {
	cfg, err := boardConfig()
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	dctx, cancel := opCtx(ctx)
	defer cancel()
	oc, err := openocd.Dial(dctx, cfg.OpenOCDAddr)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	ok := false
	defer func() {
		if !ok {
			oc.Close()
		}
	}()
	if err := oc.Halt(dctx); err != nil {
		return nil, nil, errors.Trace(err)
	}
	id, err := oc.TapIDCode(dctx, cfg.Tap)
	if err != nil {
		return nil, nil, errors.Annotatef(err, "failed to read IDCODE of %s", cfg.Tap)
	}
	ourutil.Reportf("Target %s, IDCODE 0x%08x", cfg.Tap, id)
	if cfg.JTAGID != 0 && id != cfg.JTAGID {
		return nil, nil, errors.Errorf("chip ID mismatch: expected 0x%08x, got 0x%08x", cfg.JTAGID, id)
	}
	ok = true
	return oc, cfg, nil
}

// flashCtx covers a full erase/program/verify pass over the array,
// which takes far longer than a single register operation. An explicit
// --timeout still wins.
func flashCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	t := *flags.Timeout
	if !flag.CommandLine.Changed("timeout") {
		t = 10 * time.Minute
	}
	return context.WithTimeout(ctx, t)
}
