// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lpframe

import (
	"encoding/binary"
	"time"

	"code.hybscloud.com/lpframe/internal/bo"
)

// DefaultMaxPayload is the declared payload length limit applied by decoders
// when no explicit limit is configured via WithMaxPayload.
//
// The limit exists to bound memory growth driven by a corrupted or hostile
// length field; it is not part of the wire format.
const DefaultMaxPayload = 16 << 20

// Options configures decoding and framing behavior.
type Options struct {
	// ByteOrder is the byte order of the 4-byte length prefix. The wire
	// format is little-endian; see WithNativeByteOrder for streams written
	// by legacy generators that used native memory layout.
	ByteOrder binary.ByteOrder

	// MaxPayload caps the declared payload length (bytes) accepted while
	// decoding. Non-positive values mean DefaultMaxPayload.
	MaxPayload int

	// RetryDelay controls how the io adapters handle iox.ErrWouldBlock from
	// the underlying transport:
	//   - negative: nonblock, return ErrWouldBlock immediately
	//   - zero: yield (runtime.Gosched) and retry
	//   - positive: sleep for the duration and retry
	RetryDelay time.Duration
}

var defaultOptions = Options{
	ByteOrder:  binary.LittleEndian,
	MaxPayload: DefaultMaxPayload,
	RetryDelay: -1, // default: nonblock
}

type Option func(*Options)

// WithByteOrder sets the byte order of the length prefix.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(o *Options) { o.ByteOrder = order }
}

// WithNativeByteOrder selects the host's native byte order for the length
// prefix. Some legacy stream generators wrote the prefix from native memory
// layout instead of explicit little-endian bytes; their output decodes
// correctly only on hosts with a matching byte order.
func WithNativeByteOrder() Option {
	return func(o *Options) { o.ByteOrder = bo.Native() }
}

// WithMaxPayload caps the declared payload length accepted while decoding.
// Non-positive limits restore DefaultMaxPayload.
func WithMaxPayload(limit int) Option {
	return func(o *Options) { o.MaxPayload = limit }
}

// WithRetryDelay sets the retry/wait policy used when the underlying transport
// returns iox.ErrWouldBlock.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) { o.RetryDelay = d }
}

// WithBlock enables cooperative blocking (yield-and-retry) on iox.ErrWouldBlock.
func WithBlock() Option {
	return func(o *Options) { o.RetryDelay = 0 }
}

// WithNonblock forces non-blocking behavior (return iox.ErrWouldBlock immediately).
func WithNonblock() Option {
	return func(o *Options) { o.RetryDelay = -1 }
}
