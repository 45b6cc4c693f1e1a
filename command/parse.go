package command

import (
	"errors"
	"strconv"

	"github.com/nodewire/rediskit/resp"
	"github.com/nodewire/rediskit/rkerrors"
)

// unexpectedKind wraps an unexpected reply shape into
// rkerrors.UnexpectedError, per spec.md §4.4's "unexpected shape -> raise
// unexpected-error" rule.
func unexpectedKind(name, reason string) error {
	return &rkerrors.UnexpectedError{Cause: errors.New(name + ": " + reason)}
}

func asInt(name string, d resp.Data) (int64, error) {
	if d.Type != resp.Integer {
		return 0, unexpectedKind(name, "expected Integer reply, got "+d.Type.String())
	}
	return d.Int, nil
}

func asBool(name string, d resp.Data) (bool, error) {
	n, err := asInt(name, d)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// asBulk returns the bulk string's bytes and whether it was present (a
// nil RESP bulk string, distinct from an empty one, means "not found").
func asBulk(name string, d resp.Data) ([]byte, bool, error) {
	if d.Type != resp.BulkString {
		return nil, false, unexpectedKind(name, "expected BulkString reply, got "+d.Type.String())
	}
	if d.IsNilBulk() {
		return nil, false, nil
	}
	return d.Bulk, true, nil
}

func asSimpleString(name string, d resp.Data) (string, error) {
	if d.Type != resp.SimpleString {
		return "", unexpectedKind(name, "expected SimpleString reply, got "+d.Type.String())
	}
	return d.Str, nil
}

func asArray(name string, d resp.Data) ([]resp.Data, error) {
	if d.Type != resp.Array {
		return nil, unexpectedKind(name, "expected Array reply, got "+d.Type.String())
	}
	if d.IsNilArray() {
		return nil, nil
	}
	return d.Items, nil
}

// asBulkArray parses an Array of BulkStrings, the shape MGET/HMGET/
// SMEMBERS/HKEYS/LRANGE and friends all return. A nil item (RESP nil
// bulk) is preserved as a nil []byte at the same index.
func asBulkArray(name string, d resp.Data) ([][]byte, error) {
	items, err := asArray(name, d)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(items))
	for i, it := range items {
		b, _, err := asBulk(name, it)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func asFloat(name string, d resp.Data) (float64, error) {
	b, found, err := asBulk(name, d)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, unexpectedKind(name, "expected a float-bearing bulk string, got nil")
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, unexpectedKind(name, "invalid float reply "+strconv.Quote(string(b)))
	}
	return f, nil
}

// parseDecimal parses a counter-family bulk string reply as a base-10
// int64, the wire form spec.md §6.1 specifies for that family.
func parseDecimal(name string, raw []byte) (int64, error) {
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, unexpectedKind(name, "invalid decimal reply "+strconv.Quote(string(raw)))
	}
	return n, nil
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
