// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lpframe

import "errors"

var (
	// ErrInvalidArgument reports an invalid configuration or nil reader/writer.
	ErrInvalidArgument = errors.New("lpframe: invalid argument")

	// ErrMalformedFrame reports a length field that is not followed by the
	// frame delimiter byte. The wire format has no resynchronization sentinel,
	// so the error is fatal for the stream.
	ErrMalformedFrame = errors.New("lpframe: malformed frame delimiter")

	// ErrTooLong reports a declared payload length above the configured
	// maximum or beyond the supported wire format.
	ErrTooLong = errors.New("lpframe: frame too long")
)
