package car

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"
)

func mustCid(t *testing.T, data []byte) cid.Cid {
	t.Helper()
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	require.NoError(t, err)
	return cid.NewCidV1(cid.Raw, mh)
}

func TestWriteReadRoundTrip(t *testing.T) {
	blockA := []byte("hello")
	blockB := []byte("world, a little longer this time")
	cidA := mustCid(t, blockA)
	cidB := mustCid(t, blockB)

	var buf bytes.Buffer
	w, err := Create(&buf, []cid.Cid{cidA})
	require.NoError(t, err)
	require.NoError(t, w.Put(cidA, blockA))
	require.NoError(t, w.Put(cidB, blockB))
	require.NoError(t, w.Finish())

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, []cid.Cid{cidA}, r.Roots())

	got, err := r.ReadBlock(cidA)
	require.NoError(t, err)
	require.Equal(t, blockA, got)

	got, err = r.ReadBlock(cidB)
	require.NoError(t, err)
	require.Equal(t, blockB, got)

	var visited []cid.Cid
	require.NoError(t, r.IterBlocks(func(c cid.Cid, data []byte) error {
		visited = append(visited, c)
		return nil
	}))
	require.Equal(t, []cid.Cid{cidA, cidB}, visited)

	require.NoError(t, r.Verify())
}

func TestNewReaderRejectsNoRoots(t *testing.T) {
	var buf bytes.Buffer
	h := &Header{Version: Version, Roots: nil}
	require.NoError(t, WriteHeader(h, &buf))

	_, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.ErrorIs(t, err, ErrNoRoots)
}

func TestNewReaderRejectsUnsupportedVersion(t *testing.T) {
	root := mustCid(t, []byte("root"))
	var buf bytes.Buffer
	h := &Header{Version: 2, Roots: []cid.Cid{root}}
	require.NoError(t, WriteHeader(h, &buf))

	_, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.ErrorIs(t, err, ErrUnsupportedCarVersion)
}

func TestPutDeduplicatesRepeatedCid(t *testing.T) {
	block := []byte("duplicate me")
	c := mustCid(t, block)

	var buf bytes.Buffer
	w, err := Create(&buf, []cid.Cid{c})
	require.NoError(t, err)
	require.NoError(t, w.Put(c, block))
	require.NoError(t, w.Put(c, block))
	require.NoError(t, w.Finish())

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	var count int
	require.NoError(t, r.IterBlocks(func(cid.Cid, []byte) error {
		count++
		return nil
	}))
	require.Equal(t, 1, count)
}

func TestReadBlockNotFound(t *testing.T) {
	root := mustCid(t, []byte("root"))
	var buf bytes.Buffer
	w, err := Create(&buf, []cid.Cid{root})
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	missing := mustCid(t, []byte("never written"))
	_, err = r.ReadBlock(missing)
	require.ErrorIs(t, err, ErrBlockNotFound)
}

func TestVerifyDetectsHashMismatch(t *testing.T) {
	block := []byte("original payload")
	c := mustCid(t, block)

	var buf bytes.Buffer
	w, err := Create(&buf, []cid.Cid{c})
	require.NoError(t, err)
	require.NoError(t, w.Put(c, []byte("tampered payload, same cid")))
	require.NoError(t, w.Finish())

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	err = r.Verify()
	require.ErrorIs(t, err, ErrHashMismatch)
}

func TestMaxEntrySizeOption(t *testing.T) {
	block := bytes.Repeat([]byte{'x'}, 1024)
	c := mustCid(t, block)

	var buf bytes.Buffer
	w, err := Create(&buf, []cid.Cid{c})
	require.NoError(t, err)
	require.NoError(t, w.Put(c, block))
	require.NoError(t, w.Finish())

	_, err = NewReader(bytes.NewReader(buf.Bytes()), MaxEntrySize(32))
	require.ErrorIs(t, err, ErrResourceLimitExceeded)
}
