// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lpframe decodes and encodes length-prefixed message streams.
//
// Semantics and design:
//   - Push decoding: a Decoder consumes raw byte chunks of any size via Feed
//     and reconstructs complete messages via Next/Drain. Chunk boundaries
//     never need to align with frame boundaries; incomplete frames are
//     buffered until the rest arrives.
//   - Non-blocking first: iox.ErrWouldBlock is surfaced as a control-flow
//     signal (re-exposed as lpframe.ErrWouldBlock). From a Decoder it means
//     "feed more data and retry"; from the io adapters it means the
//     underlying transport could not progress without waiting.
//   - io compatibility: Reader, Writer, and ReadWriter implement standard io
//     interfaces on top of the same wire format, preserve one-message-per-
//     Read/Write, and honor io.Writer short-write contracts.
//
// Wire format: a 4-byte unsigned length prefix (little-endian by default),
// one delimiter byte 0x0A ('\n'), then exactly that many payload bytes.
// Frames are concatenated on the stream with no separator. Payloads are
// opaque; no encoding is applied. Declared lengths above the configured
// maximum (DefaultMaxPayload unless set via WithMaxPayload) produce
// ErrTooLong before any payload is buffered for the frame.
package lpframe

import (
	"io"

	"code.hybscloud.com/iox"
)

// NewReader returns an io.Reader that reads framed messages from r,
// delivering one message payload per Read call.
func NewReader(r io.Reader, opts ...Option) io.Reader {
	return &Reader{c: newCoder(r, nil, opts...)}
}

// NewWriter returns an io.Writer that writes framed messages to w, encoding
// one message per Write call.
func NewWriter(w io.Writer, opts ...Option) io.Writer {
	return &Writer{c: newCoder(nil, w, opts...)}
}

// NewReadWriter returns an io.ReadWriter that reads and writes framed messages.
func NewReadWriter(r io.Reader, w io.Writer, opts ...Option) io.ReadWriter {
	c := newCoder(r, w, opts...)
	return &ReadWriter{Reader: &Reader{c: c}, Writer: &Writer{c: c}}
}

// NewPipe returns a synchronous in-memory framing pipe.
func NewPipe(opts ...Option) (reader io.Reader, writer io.Writer) {
	r, w := io.Pipe()
	pipe := NewReadWriter(r, w, opts...)
	return pipe, pipe
}

// Reader reads framed messages.
//
// Read returns io.ErrShortBuffer when the destination is smaller than the
// next payload; the frame stays pending, so retrying with a larger buffer
// delivers it. A clean end of stream at a frame boundary yields io.EOF; a
// stream that ends mid-frame yields io.ErrUnexpectedEOF.
type Reader struct{ c *coder }

func (r *Reader) Read(p []byte) (int, error) { return r.c.read(p) }

// WriteTo implements io.WriterTo: it transfers decoded message payloads to
// dst until the source is exhausted. Payload bytes are written as-is; the
// wire format is not reconstructed on the destination unless dst is itself a
// framing Writer.
//
// Non-blocking semantics: if the underlying reader or dst returns
// iox.ErrWouldBlock or iox.ErrMore, WriteTo returns immediately with the
// progress count and the same semantic error; the in-flight message resumes
// on the next call. Short writes on dst are handled per the io.Writer
// contract.
func (r *Reader) WriteTo(dst io.Writer) (int64, error) { return r.c.writeTo(dst) }

// Writer writes framed messages.
type Writer struct{ c *coder }

func (w *Writer) Write(p []byte) (int, error) { return w.c.write(p) }

// ReadFrom implements io.ReaderFrom. Each chunk read from src (one successful
// src.Read call) is encoded as a single framed message. This is efficient but
// does not preserve upstream application message boundaries.
//
// Non-blocking semantics: if src or the underlying writer returns
// iox.ErrWouldBlock or iox.ErrMore, ReadFrom returns immediately with the
// progress count and the same error.
func (w *Writer) ReadFrom(src io.Reader) (int64, error) { return w.c.readFrom(src) }

// ReadWriter groups Reader and Writer.
type ReadWriter struct {
	*Reader
	*Writer
}

// These are provided as package-level aliases so callers can reference the
// semantic control-flow errors without importing iox directly.
var (
	// ErrWouldBlock means “no further progress without waiting”.
	//
	// It is an expected, non-failure control-flow signal, not a stream error.
	// From Decoder.Next it means the buffered bytes do not yet hold a whole
	// frame: feed more data and retry. From the io adapters it reports a
	// non-blocking underlying transport; configure RetryDelay to emulate
	// cooperative blocking instead.
	ErrWouldBlock = iox.ErrWouldBlock

	// ErrMore means “this completion is usable and more completions will follow”.
	//
	// It is not io.EOF and not “try later”. The operation remains active and
	// additional data is expected from the same ongoing operation.
	ErrMore = iox.ErrMore
)
