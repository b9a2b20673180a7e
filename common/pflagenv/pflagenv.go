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
package pflagenv

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// ParseFlagSet sets every flag of fs that was not given on the command
// line from the environment variable <envPrefix><UPPERCASED_FLAG_NAME>
// (dashes replaced with underscores), if the variable is non-empty.
//
// It must be called after fs.Parse.
func ParseFlagSet(fs *pflag.FlagSet, envPrefix string) {
	// The flag package cannot tell "set to the default" from "not set at
	// all", so collect all names first and drop the ones Visit reports.
	nonset := make(map[string]*pflag.Flag)
	fs.VisitAll(func(f *pflag.Flag) {
		nonset[f.Name] = f
	})
	fs.Visit(func(f *pflag.Flag) {
		delete(nonset, f.Name)
	})
	for name, f := range nonset {
		if v := os.Getenv(envName(name, envPrefix)); v != "" {
			f.Value.Set(v)
			f.Changed = true
		}
	}
}

// Parse is ParseFlagSet on pflag.CommandLine.
func Parse(envPrefix string) {
	ParseFlagSet(pflag.CommandLine, envPrefix)
}

func envName(flagName, envPrefix string) string {
	flagName = strings.ToUpper(flagName)
	flagName = strings.Replace(flagName, "-", "_", -1)
	return fmt.Sprint(envPrefix, flagName)
}
