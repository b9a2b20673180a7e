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
//
// Package fwimg loads firmware images to be programmed at the start of
// an array: flat binaries are taken as is, Intel HEX files are
// flattened with gap fill.
package fwimg

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"github.com/marcinbor85/gohex"
)

type Image struct {
	Name string
	Data []byte
}

// Load reads a firmware image from fname. Files ending in .hex or .ihex
// are parsed as Intel HEX and flattened from address 0, with gaps set
// to fill; everything else is read verbatim. The resulting image must
// not exceed maxSize bytes.
func Load(fname string, maxSize int, fill byte) (*Image, error) {
	data, err := ioutil.ReadFile(fname)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to read %s", fname)
	}
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".hex", ".ihex":
		data, err = flattenHex(data, fill, maxSize)
		if err != nil {
			return nil, errors.Annotatef(err, "%s", fname)
		}
	}
	if len(data) == 0 {
		return nil, errors.Errorf("%s: empty image", fname)
	}
	if len(data) > maxSize {
		return nil, errors.Errorf("%s: image of %d bytes does not fit (%d max)", fname, len(data), maxSize)
	}
	glog.V(1).Infof("loaded %s, %d bytes", fname, len(data))
	return &Image{Name: filepath.Base(fname), Data: data}, nil
}

func flattenHex(hexData []byte, fill byte, maxSize int) ([]byte, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(bytes.NewReader(hexData)); err != nil {
		return nil, errors.Annotatef(err, "failed to parse HEX data")
	}
	segs := mem.GetDataSegments()
	if len(segs) == 0 {
		return nil, errors.Errorf("no data records")
	}
	end := 0
	for _, s := range segs {
		if e := int(s.Address) + len(s.Data); e > end {
			end = e
		}
	}
	if end > maxSize {
		return nil, errors.Errorf("image of %d bytes does not fit (%d max)", end, maxSize)
	}
	data := bytes.Repeat([]byte{fill}, end)
	for _, s := range segs {
		copy(data[s.Address:], s.Data)
	}
	return data, nil
}
