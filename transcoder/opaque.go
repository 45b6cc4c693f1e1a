package transcoder

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"

	"github.com/nodewire/rediskit/internal/lzf"
	"github.com/pkg/errors"
)

// headerLen is the size of the 4-byte Opaque header: magic, reserved,
// compressionTag, reserved (spec.md §3).
const headerLen = 4

// CompressionObserver receives the number of bytes a compression pass
// saved, wired through to metrics.Collector's compression counter
// (spec.md §4.2, §4.8) without transcoder depending on the metrics
// package.
type CompressionObserver interface {
	ObserveBytesSaved(saved int)
}

// Opaque is the general-purpose transcoder: gob-encode, then
// LZF-compress if the encoded form exceeds CompressionThreshold, behind
// a fixed 4-byte self-describing header.
type Opaque struct {
	// CompressionThreshold is the encoded-payload size, in bytes, above
	// which Encode attempts LZF compression. Zero means
	// DefaultCompressionThreshold.
	CompressionThreshold int

	// Stats, if set, is notified of bytes saved by every compressed
	// Encode call.
	Stats CompressionObserver
}

func (o *Opaque) threshold() int {
	if o.CompressionThreshold > 0 {
		return o.CompressionThreshold
	}
	return DefaultCompressionThreshold
}

// Encode gob-encodes v, compresses the result with LZF when it exceeds
// CompressionThreshold, and prepends the 4-byte header describing which
// path was taken.
func (o *Opaque) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, errors.Wrap(ErrSerialize, err.Error())
	}
	payload := buf.Bytes()

	tag := CompressionNone
	if len(payload) > o.threshold() {
		if compressed, ok := lzf.Compress(payload); ok {
			if o.Stats != nil {
				o.Stats.ObserveBytesSaved(len(payload) - len(compressed))
			}
			// The LZF opcode stream alone doesn't carry its own
			// original length, so it's prefixed with one here as a
			// uvarint; this is internal payload structure, not part of
			// the fixed 4-byte wire header.
			lenPrefix := make([]byte, binary.MaxVarintLen64)
			n := binary.PutUvarint(lenPrefix, uint64(len(payload)))
			payload = append(lenPrefix[:n], compressed...)
			tag = CompressionLZF
		}
	}

	out := make([]byte, headerLen+len(payload))
	out[0] = Magic
	out[1] = 0
	out[2] = byte(tag)
	out[3] = 0
	copy(out[headerLen:], payload)
	return out, nil
}

// Decode validates the header, reverses compression if the header
// declares it, and gob-decodes the result into out (which must be a
// pointer, per encoding/gob's own contract).
func (o *Opaque) Decode(b []byte, out any) error {
	if len(b) < headerLen || b[0] != Magic {
		return ErrBadMagic
	}

	payload := b[headerLen:]
	switch CompressionTag(b[2]) {
	case CompressionNone:
		// payload already final
	case CompressionLZF:
		origLen, n := binary.Uvarint(payload)
		if n <= 0 {
			return errors.Wrap(ErrDecompress, "missing length prefix")
		}
		decoded, err := lzf.Decompress(payload[n:], int(origLen))
		if err != nil {
			return errors.Wrap(ErrDecompress, err.Error())
		}
		payload = decoded
	default:
		return errors.Errorf("%v: unknown compression tag %d", ErrDecompress, b[2])
	}

	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(out); err != nil {
		return errors.Wrap(ErrSerialize, err.Error())
	}
	return nil
}
