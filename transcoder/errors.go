package transcoder

import "github.com/pkg/errors"

// ErrBadMagic is returned by Opaque.Decode when the leading header byte
// doesn't match Magic — spec.md §3's "decode fails with a specific error
// if magic does not match" invariant.
var ErrBadMagic = errors.New("transcoder: bad magic byte")

// ErrDecompress wraps any failure while LZF-decompressing a payload
// whose header declares CompressionLZF.
var ErrDecompress = errors.New("transcoder: decompression failed")

// ErrSerialize wraps any failure encoding or decoding the underlying
// value representation, once the header itself has been validated.
var ErrSerialize = errors.New("transcoder: serialization failed")
