package unixfs

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-multihash"
)

// DagPBCodec is the multicodec every node produced by this package is
// wrapped under, including Raw leaves: all of them are DAG-PB framed, so
// they all share this one CID derivation.
const DagPBCodec = uint64(multicodec.DagPb)

// ComputeCID hashes an encoded DAG-PB block and wraps the digest as a CIDv1
// with the dag-pb multicodec, matching the stable CID scenario in §8.
func ComputeCID(encoded []byte) (cid.Cid, error) {
	mh, err := multihash.Sum(encoded, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(DagPBCodec, mh), nil
}
