// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lpframe

import (
	"io"
)

// Forwarder relays framed messages from a source stream to a destination
// stream while preserving message boundaries.
//
// Semantics:
//   - One call to ForwardOnce processes at most one logical message: decode a
//     whole frame from src, then write the same payload as exactly one frame
//     to dst.
//   - Returns (n, nil) when a whole message has been forwarded; n counts the
//     payload bytes written to dst.
//   - Returns ErrWouldBlock or ErrMore when either side could not complete;
//     progress (buffered input, partially written frame) is retained and the
//     caller must retry ForwardOnce on the SAME Forwarder instance.
//   - io.EOF is returned once the source ends cleanly at a frame boundary;
//     io.ErrUnexpectedEOF if it ends mid-frame. Decode errors
//     (ErrMalformedFrame, ErrTooLong) are fatal and repeat on retry.
type Forwarder struct {
	rc *coder // read side: src + decoder state
	wc *coder // write side: dst + in-flight frame state

	// payload of the message currently being forwarded; valid while inFlight
	payload  []byte
	inFlight bool
}

// NewForwarder constructs a Forwarder that relays messages from src to dst.
func NewForwarder(dst io.Writer, src io.Reader, opts ...Option) *Forwarder {
	return &Forwarder{
		rc: newCoder(src, nil, opts...),
		wc: newCoder(nil, dst, opts...),
	}
}

// ForwardOnce forwards at most one message. See Forwarder docs for semantics.
func (f *Forwarder) ForwardOnce() (n int, err error) {
	if !f.inFlight {
		fr, err := f.rc.nextFrame()
		if err != nil {
			return 0, err
		}
		f.rc.clearPending()
		f.payload = fr.Payload
		f.inFlight = true
	}

	// The write side resumes a partially emitted frame as long as it is
	// retried with the same payload, which inFlight guarantees.
	n, err = f.wc.write(f.payload)
	if err != nil {
		return n, err
	}
	f.payload = nil
	f.inFlight = false
	return n, nil
}
