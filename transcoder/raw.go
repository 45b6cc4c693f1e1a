package transcoder

import "github.com/pkg/errors"

// Raw is the UTF-8 passthrough transcoder used by the "raw string"
// command family (spec.md §4.2): no header, no compression, so the
// bytes on the wire are exactly what any other Redis client would write
// or read.
type Raw struct{}

// Encode requires v to already be a string or []byte; anything else is
// a caller error, since Raw makes no attempt at general serialization.
func (Raw) Encode(v any) ([]byte, error) {
	switch t := v.(type) {
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	default:
		return nil, errors.Wrapf(ErrSerialize, "raw transcoder requires string or []byte, got %T", v)
	}
}

// Decode requires out to be a *string or *[]byte.
func (Raw) Decode(b []byte, out any) error {
	switch p := out.(type) {
	case *string:
		*p = string(b)
		return nil
	case *[]byte:
		cp := make([]byte, len(b))
		copy(cp, b)
		*p = cp
		return nil
	default:
		return errors.Wrapf(ErrSerialize, "raw transcoder requires *string or *[]byte, got %T", out)
	}
}
