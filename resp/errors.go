package resp

import "errors"

// ErrConnectionClosed is returned by ReadData when the underlying stream
// ends before a complete frame has been read (end-of-stream mid-frame),
// per spec.md's "distinct connection closed error" contract.
var ErrConnectionClosed = errors.New("resp: connection closed")

// ErrProtocol is wrapped around any other framing violation: an
// unrecognized leading byte, a malformed length, or a length outside the
// non-negative int32 range the wire format allows.
var ErrProtocol = errors.New("resp: protocol error")
