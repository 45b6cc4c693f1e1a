/*
Package transcoder converts arbitrary in-memory Go values to byte
payloads suitable for a Redis value and back, per spec.md §4.2.

Two implementations share the Transcoder interface:

  - Opaque prepends a 4-byte self-describing header and optionally
    LZF-compresses the payload once it crosses a configured threshold.
    Use it for values only this client (or another client using the same
    header convention) will read back.
  - Raw passes UTF-8 bytes through untouched, with no header and no
    compression, for interop with plain Redis clients and the "raw
    string" command family.
*/
package transcoder

// Transcoder turns a value into bytes for the wire and back.
type Transcoder interface {
	Encode(v any) ([]byte, error)
	Decode(b []byte, out any) error
}

// Magic is the fixed first header byte of every Opaque-encoded payload.
// spec.md §9: changing it is a wire-incompatible break, so frames with a
// different leading byte are rejected rather than guessed at.
const Magic = 0x29

// CompressionTag identifies the compression algorithm, if any, applied
// to the payload following an Opaque header.
type CompressionTag byte

const (
	CompressionNone CompressionTag = 0
	CompressionLZF  CompressionTag = 1
)

// DefaultCompressionThreshold is the payload size, in bytes, above which
// Opaque.Encode compresses; spec.md §4.2 and §6.2 both default this to
// 64 KiB.
const DefaultCompressionThreshold = 64 * 1024
