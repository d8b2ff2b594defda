// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the record types that live in the page record and
// checkpoint stores. Field order is the struct declaration order; changing
// either is a breaking format change.

// IDMUS serializes IDs with varint encoding.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

// TextBlockMUS serializes OCR text blocks.
var TextBlockMUS = textBlockMUS{}

type textBlockMUS struct{}

func (textBlockMUS) Marshal(v TextBlock, bs []byte) (n int) {
	n = ord.String.Marshal(v.Text, bs)
	n += varint.Float64.Marshal(v.Confidence, bs[n:])
	n += varint.Float64.Marshal(v.X0, bs[n:])
	n += varint.Float64.Marshal(v.Y0, bs[n:])
	n += varint.Float64.Marshal(v.X1, bs[n:])
	n += varint.Float64.Marshal(v.Y1, bs[n:])
	return n
}

func (textBlockMUS) Unmarshal(bs []byte) (v TextBlock, n int, err error) {
	var n1 int
	v.Text, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Confidence, n1, err = varint.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.X0, n1, err = varint.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Y0, n1, err = varint.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.X1, n1, err = varint.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Y1, n1, err = varint.Float64.Unmarshal(bs[n:])
	n += n1
	return
}

func (textBlockMUS) Size(v TextBlock) (size int) {
	size = ord.String.Size(v.Text)
	size += varint.Float64.Size(v.Confidence)
	size += varint.Float64.Size(v.X0)
	size += varint.Float64.Size(v.Y0)
	size += varint.Float64.Size(v.X1)
	size += varint.Float64.Size(v.Y1)
	return size
}

func (textBlockMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	for range 5 {
		n1, err = varint.Float64.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

var textBlockSliceMUS = ord.NewSliceSer[TextBlock](TextBlockMUS)

// PageTextMUS serializes per-page extraction records.
var PageTextMUS = pageTextMUS{}

type pageTextMUS struct{}

func (pageTextMUS) Marshal(v PageText, bs []byte) (n int) {
	n = ord.String.Marshal(v.File, bs)
	n += varint.Int.Marshal(v.Page, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += varint.Int.Marshal(v.Chars, bs[n:])
	n += ord.String.Marshal(v.Method, bs[n:])
	n += textBlockSliceMUS.Marshal(v.Blocks, bs[n:])
	n += ord.Bool.Marshal(v.OCRApplied, bs[n:])
	n += varint.Float64.Marshal(v.OCRConfidence, bs[n:])
	return n
}

func (pageTextMUS) Unmarshal(bs []byte) (v PageText, n int, err error) {
	var n1 int
	v.File, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Page, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Chars, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Method, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Blocks, n1, err = textBlockSliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.OCRApplied, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.OCRConfidence, n1, err = varint.Float64.Unmarshal(bs[n:])
	n += n1
	return
}

func (pageTextMUS) Size(v PageText) (size int) {
	size = ord.String.Size(v.File)
	size += varint.Int.Size(v.Page)
	size += ord.String.Size(v.Text)
	size += varint.Int.Size(v.Chars)
	size += ord.String.Size(v.Method)
	size += textBlockSliceMUS.Size(v.Blocks)
	size += ord.Bool.Size(v.OCRApplied)
	size += varint.Float64.Size(v.OCRConfidence)
	return size
}

func (pageTextMUS) Skip(bs []byte) (n int, err error) {
	v, n, err := PageTextMUS.Unmarshal(bs)
	_ = v
	return n, err
}

// CheckpointMUS serializes resume checkpoints.
var CheckpointMUS = checkpointMUS{}

type checkpointMUS struct{}

func (checkpointMUS) Marshal(v Checkpoint, bs []byte) (n int) {
	n = ord.String.Marshal(v.DocPath, bs)
	n += ord.String.Marshal(v.Fingerprint, bs[n:])
	n += varint.Int.Marshal(v.LastPage, bs[n:])
	n += varint.Int.Marshal(v.BatchSize, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.UpdatedAt, bs[n:])
	return n
}

func (checkpointMUS) Unmarshal(bs []byte) (v Checkpoint, n int, err error) {
	var n1 int
	v.DocPath, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Fingerprint, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.LastPage, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.BatchSize, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	return
}

func (checkpointMUS) Size(v Checkpoint) (size int) {
	size = ord.String.Size(v.DocPath)
	size += ord.String.Size(v.Fingerprint)
	size += varint.Int.Size(v.LastPage)
	size += varint.Int.Size(v.BatchSize)
	size += raw.TimeUnixMicro.Size(v.UpdatedAt)
	return size
}

func (checkpointMUS) Skip(bs []byte) (n int, err error) {
	v, n, err := CheckpointMUS.Unmarshal(bs)
	_ = v
	return n, err
}
