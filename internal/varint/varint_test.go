package varint

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 16383, 16384, 1<<63 - 1} {
		buf := AppendUvarint(nil, v)
		got, err := ReadUvarint(bytes.NewReader(buf))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestMalformedOnTenContinuationBytes(t *testing.T) {
	buf := bytes.Repeat([]byte{0x80}, 9)
	buf = append(buf, 0x80) // 10th byte also has its continuation bit set
	_, err := ReadUvarint(bytes.NewReader(buf))
	require.ErrorIs(t, err, ErrMalformedVarint)
}

func TestTruncatedInput(t *testing.T) {
	_, err := ReadUvarint(bytes.NewReader([]byte{0x80}))
	require.ErrorIs(t, err, ErrMalformedVarint)
}

func TestCleanEOF(t *testing.T) {
	_, err := ReadUvarint(bytes.NewReader(nil))
	require.Error(t, err)
}
