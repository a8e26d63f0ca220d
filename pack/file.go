package pack

import (
	"fmt"
	"io"
	"os"

	"github.com/ipfs/go-cid"

	"github.com/nimbuscar/car/internal/unixfs"
)

// walkFile chunks path into fixed-size Raw leaves and assembles the File
// parent, per §4.7 steps 2-3. A single-leaf file has no parent wrapper:
// the leaf's own CID is returned directly.
func walkFile(path string, chunkSize int, buf *buffer) (cid.Cid, uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return cid.Undef, 0, fmt.Errorf("pack: opening %s: %w", path, err)
	}
	defer f.Close()

	var links []unixfs.Link
	var sizes []uint64
	var total uint64
	window := make([]byte, chunkSize)

	for {
		n, err := io.ReadFull(f, window)
		if n > 0 {
			leafCid, payload, herr := encodeAndHash(unixfs.Node{
				Data: unixfs.Data{Type: unixfs.TypeRaw, Data: append([]byte(nil), window[:n]...)},
			})
			if herr != nil {
				return cid.Undef, 0, herr
			}
			buf.add(leafCid, payload)
			links = append(links, unixfs.Link{Hash: leafCid, Name: "", Tsize: uint64(n)})
			sizes = append(sizes, uint64(n))
			total += uint64(n)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return cid.Undef, 0, fmt.Errorf("pack: reading %s: %w", path, err)
		}
	}

	switch len(links) {
	case 0:
		// empty file: a File node with no links, filesize = 0.
		c, payload, err := encodeAndHash(unixfs.Node{Data: unixfs.Data{Type: unixfs.TypeFile, Filesize: 0}})
		if err != nil {
			return cid.Undef, 0, err
		}
		buf.add(c, payload)
		return c, 0, nil
	case 1:
		// exactly one leaf: its cid is the file's cid, no wrapper added.
		return links[0].Hash, total, nil
	default:
		node := unixfs.Node{
			Data:  unixfs.Data{Type: unixfs.TypeFile, Filesize: total, Blocksizes: sizes},
			Links: links,
		}
		c, payload, err := encodeAndHash(node)
		if err != nil {
			return cid.Undef, 0, err
		}
		buf.add(c, payload)
		return c, total, nil
	}
}
