/*
Package resp implements the Redis Serialization Protocol: framing
commands as RESP arrays of bulk strings and parsing the replies that
come back over the wire.

Supported types follow the classic RESP grammar:

  - SimpleString: +OK\r\n
  - Error:        -ERR message\r\n
  - Integer:      :42\r\n
  - BulkString:   $6\r\nhello!\r\n  ($-1\r\n for nil)
  - Array:        *2\r\n$3\r\nget\r\n$3\r\nkey\r\n  (*-1\r\n for nil)

A nil bulk string and a nil array are distinct from an empty one; both
are represented with a nil field rather than a zero-length one.
*/
package resp

import "fmt"

// Type identifies which RESP frame a Data value holds.
type Type int

const (
	SimpleString Type = iota
	Error
	Integer
	BulkString
	Array
)

func (t Type) String() string {
	switch t {
	case SimpleString:
		return "SimpleString"
	case Error:
		return "Error"
	case Integer:
		return "Integer"
	case BulkString:
		return "BulkString"
	case Array:
		return "Array"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Data is an immutable, fully-parsed RESP reply frame. Exactly one of
// Str, Int, Bulk, or Items is meaningful, selected by Type:
//
//   - SimpleString / Error: Str
//   - Integer:              Int
//   - BulkString:            Bulk (nil means the RESP nil bulk string)
//   - Array:                 Items (nil means the RESP nil array)
//
// Once returned from ReadData a Data value is never mutated.
type Data struct {
	Type  Type
	Str   string
	Int   int64
	Bulk  []byte
	Items []Data
}

// IsNilBulk reports whether this frame is a BulkString carrying the RESP
// nil sentinel ($-1\r\n), as opposed to a present-but-empty string.
func (d Data) IsNilBulk() bool {
	return d.Type == BulkString && d.Bulk == nil
}

// IsNilArray reports whether this frame is an Array carrying the RESP
// nil sentinel (*-1\r\n), as opposed to a present-but-empty array.
func (d Data) IsNilArray() bool {
	return d.Type == Array && d.Items == nil
}
