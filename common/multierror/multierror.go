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
package multierror

import (
	"bytes"
	"fmt"
)

// Error collects multiple errors behind a single error value.
type Error struct {
	errs []error
}

func (e *Error) Error() string {
	buf := bytes.NewBuffer(nil)
	fmt.Fprintf(buf, "%d error(s) occurred:", len(e.errs))
	for _, err := range e.errs {
		fmt.Fprintf(buf, "\n%s", err)
	}
	return buf.String()
}

// Errors returns the individual errors.
func (e *Error) Errors() []error {
	return e.errs
}

// Append adds errs to err. err may be nil, an *Error, or any other
// error (in which case it becomes the first entry of a new *Error).
func Append(err error, errs ...error) error {
	if len(errs) == 0 {
		return err
	}
	me, ok := err.(*Error)
	if !ok {
		me = &Error{}
		if err != nil {
			me.errs = append(me.errs, err)
		}
	}
	me.errs = append(me.errs, errs...)
	return me
}
