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
package flags

import (
	"time"

	flag "github.com/spf13/pflag"
)

var (
	OpenOCDAddr = flag.String("openocd", "", "OpenOCD Tcl RPC address (host:port). "+
		"Overrides the board file; the default is localhost:6666.")
	BoardFile = flag.String("board", "", "Board description file (YAML)")
	Tap       = flag.String("tap", "", "JTAG TAP name of the chip. Overrides the board file.")
	JTAGID    = flag.Uint32("jtag-id", 0, "Expected JTAG IDCODE; overrides the board file, 0 skips the check")
	Timeout   = flag.Duration("timeout", 10*time.Second, "Timeout for each target operation")

	// Serial console.
	Port     = flag.String("port", "", "Serial port of the EC's UART")
	BaudRate = flag.Int("baud-rate", 115200, "Serial port speed")
	HWFC     = flag.Bool("hw-flow-control", false, "Enable hardware flow control (CTS/RTS)")
)
