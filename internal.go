// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lpframe

import (
	"encoding/binary"
	"io"
	"runtime"
	"time"
)

const (
	// largest payload describable by the 4-byte length field
	maxFrameLen = 1<<32 - 1

	scratchLen = 32 * 1024
)

// coder holds the shared per-stream state behind Reader and Writer.
type coder struct {
	rd  io.Reader
	wr  io.Writer
	dec *Decoder
	wbo binary.ByteOrder

	retryDelay time.Duration

	// read-side state
	rbuf    []byte // scratch for reads from rd
	pending *Frame // decoded but not yet delivered to the caller
	eof     bool   // underlying reader reported io.EOF

	// WriteTo resume state: delivered prefix of pending.Payload when a
	// destination write returned early.
	wtOff int

	// write-side state
	header  [frameHeaderLen]byte
	wlength int64
	woffset int64 // bytes emitted of header+payload for the in-flight frame

	// reusable scratch buffer for Writer.ReadFrom
	wbuf []byte
}

func newCoder(r io.Reader, w io.Writer, opts ...Option) *coder {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	order := o.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}
	return &coder{
		rd:         r,
		wr:         w,
		dec:        newDecoder(o),
		wbo:        order,
		retryDelay: o.RetryDelay,
	}
}

func (c *coder) waitOnceOnWouldBlock() bool {
	// returns whether the caller should retry
	if c.retryDelay < 0 {
		return false
	}
	if c.retryDelay == 0 {
		runtime.Gosched()
		return true
	}
	time.Sleep(c.retryDelay)
	return true
}

func (c *coder) readOnce(p []byte) (n int, err error) {
	for {
		n, err = c.rd.Read(p)
		// Guard against broken Readers that violate the io.Reader contract by
		// returning (0, nil) on a non-empty buffer. Without this, the fill
		// loop can spin indefinitely.
		if len(p) != 0 && n == 0 && err == nil {
			return 0, io.ErrNoProgress
		}
		if n > 0 {
			return n, err
		}
		if err != ErrWouldBlock {
			return n, err
		}
		if !c.waitOnceOnWouldBlock() {
			return n, err
		}
	}
}

func (c *coder) writeOnce(p []byte) (n int, err error) {
	for {
		n, err = c.wr.Write(p)
		// Guard against broken Writers that violate the io.Writer contract by
		// returning (0, nil) on a non-empty buffer.
		if len(p) != 0 && n == 0 && err == nil {
			return 0, io.ErrShortWrite
		}
		if n > 0 {
			return n, err
		}
		if err != ErrWouldBlock {
			return n, err
		}
		if !c.waitOnceOnWouldBlock() {
			return n, err
		}
	}
}

// fill reads one chunk from the underlying reader into the decoder. A final
// (n>0, io.EOF) read is accepted as data; the EOF itself is remembered and
// applied once the decoder runs dry.
func (c *coder) fill() error {
	if c.rbuf == nil {
		c.rbuf = make([]byte, scratchLen)
	}
	n, err := c.readOnce(c.rbuf)
	if n > 0 {
		c.dec.Feed(c.rbuf[:n])
	}
	if err == io.EOF {
		c.eof = true
		return nil
	}
	if n > 0 {
		return nil
	}
	return err
}

// nextFrame returns the next decoded frame, reading from the underlying
// transport as needed. The frame stays pending until the caller clears it, so
// a short destination buffer or a would-blocked destination write never loses
// data. EOF policy: io.EOF only at a frame boundary with nothing buffered,
// io.ErrUnexpectedEOF when the stream ends mid-frame.
func (c *coder) nextFrame() (Frame, error) {
	if c.pending != nil {
		return *c.pending, nil
	}
	for {
		f, err := c.dec.Next()
		if err == nil {
			c.pending = &f
			return f, nil
		}
		if err != ErrWouldBlock {
			return Frame{}, err
		}
		if c.eof {
			if c.dec.Buffered() == 0 {
				return Frame{}, io.EOF
			}
			return Frame{}, io.ErrUnexpectedEOF
		}
		if ferr := c.fill(); ferr != nil {
			return Frame{}, ferr
		}
	}
}

func (c *coder) clearPending() {
	c.pending = nil
	c.wtOff = 0
}

func (c *coder) read(p []byte) (n int, err error) {
	if c.rd == nil {
		return 0, ErrInvalidArgument
	}
	f, err := c.nextFrame()
	if err != nil {
		return 0, err
	}
	if len(p) < len(f.Payload) {
		// Keep the frame pending so a retry with a larger buffer delivers it.
		return 0, io.ErrShortBuffer
	}
	n = copy(p, f.Payload)
	c.clearPending()
	return n, nil
}

func (c *coder) writeTo(dst io.Writer) (total int64, err error) {
	if c.rd == nil {
		return 0, ErrInvalidArgument
	}
	for {
		f, err := c.nextFrame()
		if err != nil {
			if err == io.EOF {
				return total, nil
			}
			return total, err
		}
		for c.wtOff < len(f.Payload) {
			wn, we := dst.Write(f.Payload[c.wtOff:])
			if wn > 0 {
				total += int64(wn)
				c.wtOff += wn
			}
			if we != nil {
				// The unwritten suffix stays pending for the next call.
				return total, we
			}
			if wn == 0 {
				return total, io.ErrShortWrite
			}
		}
		c.clearPending()
	}
}

func (c *coder) write(p []byte) (n int, err error) {
	if c.wr == nil {
		return 0, ErrInvalidArgument
	}
	if int64(len(p)) > maxFrameLen {
		return 0, ErrTooLong
	}

	// Initialize per-frame state on the first call.
	if c.woffset == 0 {
		c.wlength = int64(len(p))
		c.wbo.PutUint32(c.header[:lengthFieldLen], uint32(len(p)))
		c.header[lengthFieldLen] = frameDelimiter
	}
	if c.wlength != int64(len(p)) {
		// The caller changed the message buffer mid-frame.
		return 0, io.ErrShortWrite
	}

	for c.woffset < frameHeaderLen {
		wn, we := c.writeOnce(c.header[c.woffset:])
		c.woffset += int64(wn)
		if we != nil {
			return 0, we
		}
	}

	for c.woffset < frameHeaderLen+c.wlength {
		payloadOff := c.woffset - frameHeaderLen
		wn, we := c.writeOnce(p[payloadOff:])
		c.woffset += int64(wn)
		n += wn
		if we != nil {
			return n, we
		}
	}

	c.woffset = 0
	c.wlength = 0
	return n, nil
}

func (c *coder) readFrom(src io.Reader) (total int64, err error) {
	if c.wr == nil {
		return 0, ErrInvalidArgument
	}
	// Reuse a per-coder buffer to avoid allocations in steady state.
	if c.wbuf == nil {
		c.wbuf = make([]byte, scratchLen)
	}
	buf := c.wbuf

	for {
		n, er := src.Read(buf)
		if n > 0 {
			// Encode this chunk as one framed message.
			wn, we := c.write(buf[:n])
			if wn > 0 {
				total += int64(wn)
			}
			if we != nil {
				return total, we
			}
			if wn != n {
				// write never returns a short count without an error, but
				// guard against pathological writers.
				return total, io.ErrShortWrite
			}
		}
		if er != nil {
			if er == io.EOF {
				return total, nil
			}
			return total, er
		}
	}
}
