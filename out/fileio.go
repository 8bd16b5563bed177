// Copyright 2016 The Gohyd Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	goio "io"
	"os"
	"path/filepath"

	"github.com/cpmech/gosl/chk"

	"github.com/stephenfrechette/gohyd/net"
)

// Encoder defines encoders; e.g. gob or json
type Encoder interface {
	Encode(e interface{}) error
}

// Decoder defines decoders; e.g. gob or json
type Decoder interface {
	Decode(e interface{}) error
}

// GetEncoder returns a new encoder
func GetEncoder(w goio.Writer, enctype string) Encoder {
	if enctype == "json" {
		return json.NewEncoder(w)
	}
	return gob.NewEncoder(w)
}

// GetDecoder returns a new decoder
func GetDecoder(r goio.Reader, enctype string) Decoder {
	if enctype == "json" {
		return json.NewDecoder(r)
	}
	return gob.NewDecoder(r)
}

// Archive bundles a network model and the results of one run into a single
// binary file. The groups are encoded in a fixed order: the model first,
// then the hydraulic options, then each results table. Reloading an archive
// produces a structurally identical model and results store.
type Archive struct {
	Model   *net.Network
	Results *Results
}

// Save writes the archive to dir/fnkey.res using the given encoder type
// ("gob" or "json")
func (o *Archive) Save(dir, fnkey, enctype string) (err error) {

	// encode into buffer: /model/network, /model/hydraulics, /results/*
	var buf bytes.Buffer
	enc := GetEncoder(&buf, enctype)
	if err = enc.Encode(o.Model); err != nil {
		return chk.Err("cannot encode network model:\n%v", err)
	}
	if err = enc.Encode(o.Model.Opts); err != nil {
		return chk.Err("cannot encode hydraulic options:\n%v", err)
	}
	if err = enc.Encode(o.Results); err != nil {
		return chk.Err("cannot encode results:\n%v", err)
	}

	// save file
	if err = os.MkdirAll(dir, 0777); err != nil {
		return chk.Err("cannot create directory %q:\n%v", dir, err)
	}
	fn := filepath.Join(dir, fnkey+".res")
	if err = os.WriteFile(fn, buf.Bytes(), 0666); err != nil {
		return chk.Err("cannot write %q:\n%v", fn, err)
	}
	return
}

// ReadArchive reads an archive written by Save
func ReadArchive(dir, fnkey, enctype string) (o *Archive, err error) {
	fn := filepath.Join(dir, fnkey+".res")
	b, err := os.ReadFile(fn)
	if err != nil {
		return nil, chk.Err("cannot read %q:\n%v", fn, err)
	}
	dec := GetDecoder(bytes.NewReader(b), enctype)
	o = new(Archive)
	o.Model = new(net.Network)
	if err = dec.Decode(o.Model); err != nil {
		return nil, chk.Err("cannot decode network model:\n%v", err)
	}
	if err = dec.Decode(&o.Model.Opts); err != nil {
		return nil, chk.Err("cannot decode hydraulic options:\n%v", err)
	}
	o.Results = new(Results)
	if err = dec.Decode(o.Results); err != nil {
		return nil, chk.Err("cannot decode results:\n%v", err)
	}

	// rebuild indices lost in encoding
	o.Model.Init()
	if o.Results.Node != nil {
		o.Results.Node.buildIndex()
	}
	if o.Results.Link != nil {
		o.Results.Link.buildIndex()
	}
	return
}
