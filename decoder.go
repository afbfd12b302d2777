// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lpframe

import (
	"bytes"
	"encoding/binary"
	"iter"
)

const (
	lengthFieldLen = 4
	frameHeaderLen = lengthFieldLen + 1
	frameDelimiter = '\n'

	// consumed-prefix size beyond which Next compacts the decode buffer
	compactThreshold = 4096
)

// Frame is one decoded message unit: the declared payload size and exactly
// that many payload bytes. len(Payload) == int(Length) holds for every Frame
// returned by a Decoder.
type Frame struct {
	Length  uint32
	Payload []byte
}

// Decoder incrementally parses a length-prefixed byte stream into Frames,
// tolerating arbitrary chunk boundaries. A chunk may contain zero, one, a
// partial, or many frames; incomplete frames are buffered across Feed calls.
//
// A Decoder owns its buffer exclusively and is not safe for concurrent use;
// use one Decoder per logical stream. It never blocks and never performs I/O:
// waiting for more bytes is the caller's concern.
type Decoder struct {
	bo         binary.ByteOrder
	maxPayload int64

	buf []byte
	off int
}

// NewDecoder returns a Decoder for one stream.
func NewDecoder(opts ...Option) *Decoder {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return newDecoder(o)
}

func newDecoder(o Options) *Decoder {
	order := o.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}
	limit := int64(o.MaxPayload)
	if limit <= 0 {
		limit = DefaultMaxPayload
	}
	return &Decoder{bo: order, maxPayload: limit}
}

// Feed appends a copy of chunk to the decode buffer. It never fails; an empty
// or nil chunk is a no-op.
func (d *Decoder) Feed(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	d.buf = append(d.buf, chunk...)
}

// Buffered reports the number of fed bytes not yet consumed by decoding.
// Useful for callers applying an end-of-stream policy: a non-zero value at
// EOF means the stream was truncated mid-frame.
func (d *Decoder) Buffered() int { return len(d.buf) - d.off }

// Next extracts one complete frame from the front of the buffer.
//
// It returns ErrWouldBlock while the buffered bytes do not yet hold a whole
// frame; feed more data and retry. It returns ErrTooLong when the declared
// length exceeds the configured maximum, and ErrMalformedFrame when the byte
// after the length field is not the delimiter. Both are fatal for the stream:
// the cursor does not advance, so every subsequent call reports the same
// error. No partial frame is ever returned.
func (d *Decoder) Next() (Frame, error) {
	avail := len(d.buf) - d.off
	if avail < lengthFieldLen {
		return Frame{}, ErrWouldBlock
	}
	length := int64(d.bo.Uint32(d.buf[d.off : d.off+lengthFieldLen]))
	// Reject oversized declarations before requiring the delimiter or any
	// payload byte.
	if length > d.maxPayload {
		return Frame{}, ErrTooLong
	}
	if avail < frameHeaderLen {
		return Frame{}, ErrWouldBlock
	}
	if d.buf[d.off+lengthFieldLen] != frameDelimiter {
		return Frame{}, ErrMalformedFrame
	}
	if int64(avail-frameHeaderLen) < length {
		return Frame{}, ErrWouldBlock
	}

	start := d.off + frameHeaderLen
	// Copy the payload out: the decode buffer is reused and compacted, while
	// a returned Frame must stay valid across later Feed calls.
	payload := bytes.Clone(d.buf[start : start+int(length)])
	d.off = start + int(length)
	d.compact()
	return Frame{Length: uint32(length), Payload: payload}, nil
}

// Drain returns a pull iterator over the frames decodable from the currently
// buffered bytes. The sequence ends silently when more data is needed and is
// resumable: feed more bytes and range again. A fatal decode error is yielded
// as the final element with a zero Frame.
func (d *Decoder) Drain() iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		for {
			f, err := d.Next()
			if err == ErrWouldBlock {
				return
			}
			if err != nil {
				yield(Frame{}, err)
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

func (d *Decoder) compact() {
	if d.off == len(d.buf) {
		d.buf = d.buf[:0]
		d.off = 0
		return
	}
	// Reclaim the consumed prefix once it dominates the buffer, so the cursor
	// offset cannot grow without bound on long streams.
	if d.off >= compactThreshold && d.off >= len(d.buf)-d.off {
		n := copy(d.buf, d.buf[d.off:])
		d.buf = d.buf[:n]
		d.off = 0
	}
}
