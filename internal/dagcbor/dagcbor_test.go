package dagcbor

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"
)

func testCid(t *testing.T) cid.Cid {
	t.Helper()
	mh, err := multihash.Sum([]byte("hello"), multihash.SHA2_256, -1)
	require.NoError(t, err)
	return cid.NewCidV1(cid.Raw, mh)
}

func TestScalarRoundTrip(t *testing.T) {
	cases := []Value{
		Null(),
		Bool(true),
		Bool(false),
		Int(0),
		Int(127),
		Int(-1),
		Int(-128),
		Int(1 << 40),
		Float(3.5),
		Bytes([]byte{1, 2, 3}),
		Text("hello"),
	}
	for _, v := range cases {
		buf := Marshal(v)
		got, err := Decode(bytes.NewReader(buf))
		require.NoError(t, err)
		require.Equal(t, Marshal(v), Marshal(got))
	}
}

func TestMapCanonicalOrdering(t *testing.T) {
	entries := []MapEntry{
		{Key: "roots", Value: Int(1)},
		{Key: "version", Value: Int(1)},
	}
	v1 := Marshal(Map(entries))

	reversed := []MapEntry{entries[1], entries[0]}
	v2 := Marshal(Map(reversed))

	require.Equal(t, v1, v2, "encode must sort map keys regardless of input order")
}

func TestLinkRoundTrip(t *testing.T) {
	c := testCid(t)
	buf := Marshal(Link(c))
	got, err := Decode(bytes.NewReader(buf))
	require.NoError(t, err)
	gotCid, err := got.AsLink()
	require.NoError(t, err)
	require.True(t, c.Equals(gotCid))
}

func TestEncodeDecodeEncodeStable(t *testing.T) {
	c := testCid(t)
	v := Map([]MapEntry{
		{Key: "version", Value: Int(1)},
		{Key: "roots", Value: List([]Value{Link(c)})},
	})
	encoded := Marshal(v)
	decoded, err := Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Equal(t, encoded, Marshal(decoded))
}
