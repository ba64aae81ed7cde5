package daemon

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireRequestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	args := []string{"", "a b", "日本語"}
	require.NoError(t, WriteRequest(&buf, 7, args))
	require.NoError(t, WriteRequest(&buf, 8, nil))
	require.NoError(t, WriteShutdown(&buf))

	id, got, err := ReadRequest(&buf)
	require.NoError(t, err)
	assert.Equal(t, int32(7), id)
	assert.Equal(t, args, got)

	id, got, err = ReadRequest(&buf)
	require.NoError(t, err)
	assert.Equal(t, int32(8), id)
	assert.Empty(t, got)

	id, got, err = ReadRequest(&buf)
	require.NoError(t, err)
	assert.Equal(t, ShutdownID, id)
	assert.Nil(t, got)

	_, _, err = ReadRequest(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestWireRequestLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRequest(&buf, 1, []string{"é"}))
	assert.Equal(t, []byte{
		0, 0, 0, 1, // id
		0, 0, 0, 1, // count
		0, 0, 0, 2, // byte length, not rune count
		0xc3, 0xa9,
	}, buf.Bytes())

	buf.Reset()
	require.NoError(t, WriteShutdown(&buf))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, buf.Bytes())
}

func TestWireReservedID(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRequest(&buf, -1, []string{"x"})
	assert.ErrorIs(t, err, ErrProtocol)
	assert.Zero(t, buf.Len())
}

// countingWriter records how many Write calls were made.
type countingWriter struct {
	bytes.Buffer
	writes int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.Buffer.Write(p)
}

func TestWireSingleWritePerRecord(t *testing.T) {
	w := &countingWriter{}
	require.NoError(t, WriteRequest(w, 3, []string{"--input", "a.jar", "--output", "b.jar"}))
	require.NoError(t, WriteCompletion(w, 3, true))
	assert.Equal(t, 2, w.writes)
}

func TestWireCompletion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCompletion(&buf, 1, true))
	require.NoError(t, WriteCompletion(&buf, 2, false))
	buf.Write([]byte{0, 0, 0, 3, 42}) // any nonzero byte is success

	for _, want := range []struct {
		id int32
		ok bool
	}{{1, true}, {2, false}, {3, true}} {
		id, ok, err := ReadCompletion(&buf)
		require.NoError(t, err)
		assert.Equal(t, want.id, id)
		assert.Equal(t, want.ok, ok)
	}

	_, _, err := ReadCompletion(&buf)
	assert.ErrorIs(t, err, io.EOF)
	assert.NotErrorIs(t, err, ErrProtocol)
}

func TestWireMalformed(t *testing.T) {
	be := func(vs ...int32) []byte {
		var b []byte
		for _, v := range vs {
			b = binary.BigEndian.AppendUint32(b, uint32(v))
		}
		return b
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"short id", []byte{0, 0}},
		{"missing count", be(1)},
		{"negative count", be(1, -2)},
		{"negative length", be(1, 1, -5)},
		{"truncated body", append(be(1, 1, 4), 'a', 'b')},
		{"negative id", be(-7, 0)},
		{"invalid utf8", append(be(1, 1, 1), 0xff)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadRequest(bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrProtocol)
		})
	}

	t.Run("short completion", func(t *testing.T) {
		_, _, err := ReadCompletion(bytes.NewReader([]byte{0, 0, 0, 1}))
		assert.ErrorIs(t, err, ErrProtocol)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}
