package unixfs

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/nimbuscar/car/internal/varint"
)

// errInvalidProtobuf is wrapped into car.ErrInvalidProtobuf at the package
// boundary; kept local so this package has no dependency on its importer.
var errInvalidProtobuf = errors.New("invalid protobuf")

// ErrInvalidProtobuf is the sentinel DecodeNode/DecodeData report on
// malformed input. car.ErrInvalidProtobuf is a separate sentinel; the
// unpack package reports decode failures under that one.
var ErrInvalidProtobuf = errInvalidProtobuf

// EncodeNode serialises n as the DAG-PB wrapper §4.6 describes: tag 1 is
// repeated Link sub-messages, tag 2 is the embedded UnixFS Data bytes.
// Field order (Links before Data, and within each Link Hash/Name/Tsize) is
// fixed: reordering produces different bytes and therefore a different CID.
func EncodeNode(n Node) []byte {
	var buf []byte
	for _, l := range n.Links {
		buf = appendBytesField(buf, 1, encodeLink(l))
	}
	buf = appendBytesField(buf, 2, EncodeData(n.Data))
	return buf
}

func encodeLink(l Link) []byte {
	var buf []byte
	buf = appendBytesField(buf, 1, l.Hash.Bytes())
	if l.Name != "" {
		buf = appendBytesField(buf, 2, []byte(l.Name))
	}
	buf = appendVarintField(buf, 3, l.Tsize)
	return buf
}

// DecodeNode parses a DAG-PB block previously produced by EncodeNode.
func DecodeNode(b []byte) (Node, error) {
	var n Node
	var dataSeen bool
	br := bytes.NewReader(b)
	for br.Len() > 0 {
		tag, err := readTag(br)
		if err != nil {
			return Node{}, err
		}
		field := int(tag >> 3)
		wire := byte(tag & 7)
		switch {
		case field == 1 && wire == wireBytes:
			raw, err := readBytesField(br)
			if err != nil {
				return Node{}, err
			}
			l, err := decodeLink(raw)
			if err != nil {
				return Node{}, err
			}
			n.Links = append(n.Links, l)
		case field == 2 && wire == wireBytes:
			raw, err := readBytesField(br)
			if err != nil {
				return Node{}, err
			}
			d, err := DecodeData(raw)
			if err != nil {
				return Node{}, err
			}
			n.Data = d
			dataSeen = true
		default:
			if err := skipField(br, wire); err != nil {
				return Node{}, err
			}
		}
	}
	if !dataSeen {
		return Node{}, fmt.Errorf("%w: dag-pb block missing Data field", errInvalidProtobuf)
	}
	return n, nil
}

func decodeLink(b []byte) (Link, error) {
	var l Link
	var hashSeen bool
	br := bytes.NewReader(b)
	for br.Len() > 0 {
		tag, err := readTag(br)
		if err != nil {
			return Link{}, err
		}
		field := int(tag >> 3)
		wire := byte(tag & 7)
		switch {
		case field == 1 && wire == wireBytes:
			raw, err := readBytesField(br)
			if err != nil {
				return Link{}, err
			}
			c, err := cid.Cast(raw)
			if err != nil {
				return Link{}, fmt.Errorf("%w: link hash is not a valid cid: %v", errInvalidProtobuf, err)
			}
			l.Hash = c
			hashSeen = true
		case field == 2 && wire == wireBytes:
			raw, err := readBytesField(br)
			if err != nil {
				return Link{}, err
			}
			l.Name = string(raw)
		case field == 3 && wire == wireVarint:
			v, err := varint.ReadUvarintFromReader(br)
			if err != nil {
				return Link{}, fmt.Errorf("%w: reading tsize: %v", errInvalidProtobuf, err)
			}
			l.Tsize = v
		default:
			if err := skipField(br, wire); err != nil {
				return Link{}, err
			}
		}
	}
	if !hashSeen {
		return Link{}, fmt.Errorf("%w: dag-pb link missing Hash field", errInvalidProtobuf)
	}
	return l, nil
}

func readTag(br *bytes.Reader) (uint64, error) {
	v, err := varint.ReadUvarintFromReader(br)
	if err != nil {
		return 0, fmt.Errorf("%w: reading field tag: %v", errInvalidProtobuf, err)
	}
	return v, nil
}
