package resp

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCommand(t *testing.T) {
	got := EncodeStrings("SET", "key", "value")
	want := "*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n"
	assert.Equal(t, want, string(got))
}

func TestEncodeEmptyArgs(t *testing.T) {
	assert.Equal(t, "*0\r\n", string(Encode()))
}

func parse(t *testing.T, raw string) Data {
	t.Helper()
	d, err := ReadData(bufio.NewReader(bytes.NewReader([]byte(raw))))
	require.NoError(t, err)
	return d
}

func TestReadSimpleString(t *testing.T) {
	d := parse(t, "+PONG\r\n")
	assert.Equal(t, SimpleString, d.Type)
	assert.Equal(t, "PONG", d.Str)
}

func TestReadError(t *testing.T) {
	d := parse(t, "-ERR wrong kind\r\n")
	assert.Equal(t, Error, d.Type)
	assert.Equal(t, "ERR wrong kind", d.Str)
}

func TestReadInteger(t *testing.T) {
	d := parse(t, ":1000\r\n")
	assert.Equal(t, Integer, d.Type)
	assert.EqualValues(t, 1000, d.Int)
}

func TestReadBulkString(t *testing.T) {
	d := parse(t, "$5\r\nhello\r\n")
	assert.Equal(t, BulkString, d.Type)
	assert.Equal(t, []byte("hello"), d.Bulk)
	assert.False(t, d.IsNilBulk())
}

func TestReadNilBulkString(t *testing.T) {
	d := parse(t, "$-1\r\n")
	assert.True(t, d.IsNilBulk())
}

func TestReadEmptyBulkString(t *testing.T) {
	d := parse(t, "$0\r\n\r\n")
	assert.Equal(t, []byte{}, d.Bulk)
	assert.False(t, d.IsNilBulk())
}

func TestReadArray(t *testing.T) {
	d := parse(t, "*2\r\n$3\r\nfoo\r\n:7\r\n")
	require.Equal(t, Array, d.Type)
	require.Len(t, d.Items, 2)
	assert.Equal(t, []byte("foo"), d.Items[0].Bulk)
	assert.EqualValues(t, 7, d.Items[1].Int)
}

func TestReadNilArray(t *testing.T) {
	d := parse(t, "*-1\r\n")
	assert.True(t, d.IsNilArray())
}

func TestReadNestedArray(t *testing.T) {
	d := parse(t, "*1\r\n*2\r\n:1\r\n:2\r\n")
	require.Len(t, d.Items, 1)
	require.Len(t, d.Items[0].Items, 2)
}

func TestReadMidFrameEOF(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte("$5\r\nhel")))
	_, err := ReadData(r)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestReadInvalidLeadingByte(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte("?garbage\r\n")))
	_, err := ReadData(r)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestReadNegativeBulkLength(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte("$-2\r\n")))
	_, err := ReadData(r)
	assert.ErrorIs(t, err, ErrProtocol)
}
