// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lpframe_test

import (
	"bytes"
	"io"
	"testing"

	"code.hybscloud.com/lpframe"
)

func buildWire(b *testing.B, payload []byte, frames int) []byte {
	b.Helper()
	var raw bytes.Buffer
	w := lpframe.NewWriter(&raw)
	for i := 0; i < frames; i++ {
		if _, err := w.Write(payload); err != nil {
			b.Fatalf("write: %v", err)
		}
	}
	return raw.Bytes()
}

func BenchmarkDecoder_Next_512B(b *testing.B) {
	wire := buildWire(b, bytes.Repeat([]byte{'x'}, 512), 1)
	d := lpframe.NewDecoder()
	b.SetBytes(int64(len(wire)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Feed(wire)
		if _, err := d.Next(); err != nil {
			b.Fatalf("next: %v", err)
		}
	}
}

func BenchmarkDecoder_Drain_Fragmented(b *testing.B) {
	wire := buildWire(b, bytes.Repeat([]byte{'x'}, 64), 16)
	d := lpframe.NewDecoder()
	b.SetBytes(int64(len(wire)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for off := 0; off < len(wire); off += 100 {
			d.Feed(wire[off:min(off+100, len(wire))])
			for _, err := range d.Drain() {
				if err != nil {
					b.Fatalf("drain: %v", err)
				}
			}
		}
	}
}

func BenchmarkWriter_Write_512B(b *testing.B) {
	payload := bytes.Repeat([]byte{'x'}, 512)
	w := lpframe.NewWriter(io.Discard)
	b.SetBytes(int64(len(payload)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := w.Write(payload); err != nil {
			b.Fatalf("write: %v", err)
		}
	}
}
