package unixfs

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"
)

func testCid(t *testing.T, data []byte) cid.Cid {
	t.Helper()
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	require.NoError(t, err)
	return cid.NewCidV1(DagPBCodec, mh)
}

func TestRawLeafRoundTrip(t *testing.T) {
	n := Node{Data: Data{Type: TypeRaw, Data: []byte("hello world")}}
	b := EncodeNode(n)
	got, err := DecodeNode(b)
	require.NoError(t, err)
	require.Equal(t, n.Data.Type, got.Data.Type)
	require.Equal(t, n.Data.Data, got.Data.Data)
	require.Empty(t, got.Links)
}

func TestFileParentRoundTrip(t *testing.T) {
	leaf := testCid(t, []byte("chunk-1"))
	n := Node{
		Data: Data{Type: TypeFile, Filesize: 7, Blocksizes: []uint64{7}},
		Links: []Link{
			{Hash: leaf, Name: "", Tsize: 7},
		},
	}
	b := EncodeNode(n)
	got, err := DecodeNode(b)
	require.NoError(t, err)
	require.Equal(t, TypeFile, got.Data.Type)
	require.Equal(t, uint64(7), got.Data.Filesize)
	require.Equal(t, []uint64{7}, got.Data.Blocksizes)
	require.Len(t, got.Links, 1)
	require.True(t, got.Links[0].Hash.Equals(leaf))
}

func TestDirectoryFieldOrderIsFixed(t *testing.T) {
	childA := testCid(t, []byte("a"))
	childB := testCid(t, []byte("b"))
	n := Node{
		Data: Data{Type: TypeDirectory},
		Links: []Link{
			{Hash: childA, Name: "a.txt", Tsize: 1},
			{Hash: childB, Name: "b.txt", Tsize: 1},
		},
	}
	b1 := EncodeNode(n)
	b2 := EncodeNode(n)
	require.Equal(t, b1, b2, "encoding must be deterministic for identical input")

	got, err := DecodeNode(b1)
	require.NoError(t, err)
	require.Equal(t, "a.txt", got.Links[0].Name)
	require.Equal(t, "b.txt", got.Links[1].Name)
}

func TestEmptyFileHasExplicitZeroFilesize(t *testing.T) {
	n := Node{Data: Data{Type: TypeFile, Filesize: 0}}
	b := EncodeNode(n)
	got, err := DecodeNode(b)
	require.NoError(t, err)
	require.Equal(t, uint64(0), got.Data.Filesize)
	require.Empty(t, got.Links)
}

func TestSymlinkRoundTrip(t *testing.T) {
	n := Node{Data: Data{Type: TypeSymlink, Data: []byte("../target")}}
	b := EncodeNode(n)
	got, err := DecodeNode(b)
	require.NoError(t, err)
	require.Equal(t, TypeSymlink, got.Data.Type)
	require.Equal(t, "../target", string(got.Data.Data))
}

func TestDecodeNodeRejectsMissingData(t *testing.T) {
	_, err := DecodeNode(appendBytesField(nil, 1, encodeLink(Link{Hash: testCid(t, []byte("x"))})))
	require.ErrorIs(t, err, ErrInvalidProtobuf)
}
