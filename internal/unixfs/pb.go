package unixfs

import (
	"bytes"
	"fmt"
	"io"

	"github.com/nimbuscar/car/internal/varint"
)

// Protobuf wire types used by the fixed tag layout in §4.6.
const (
	wireVarint = 0
	wireBytes  = 2
)

func appendTag(buf []byte, field int, wire byte) []byte {
	return varint.AppendUvarint(buf, uint64(field)<<3|uint64(wire))
}

func appendVarintField(buf []byte, field int, v uint64) []byte {
	buf = appendTag(buf, field, wireVarint)
	return varint.AppendUvarint(buf, v)
}

func appendBytesField(buf []byte, field int, v []byte) []byte {
	buf = appendTag(buf, field, wireBytes)
	buf = varint.AppendUvarint(buf, uint64(len(v)))
	return append(buf, v...)
}

// EncodeData serialises a UnixFS record per §4.6: tag 1 = type, tag 2 =
// data, tag 3 = filesize, tag 4 = repeated blocksizes, in that order.
// filesize is only emitted for File nodes, matching the "empty file has
// filesize = 0" requirement without writing a meaningless filesize for
// Raw/Directory/Symlink nodes.
func EncodeData(d Data) []byte {
	var buf []byte
	buf = appendVarintField(buf, 1, uint64(d.Type))
	if len(d.Data) > 0 {
		buf = appendBytesField(buf, 2, d.Data)
	}
	if d.Type == TypeFile {
		buf = appendVarintField(buf, 3, d.Filesize)
	}
	for _, bs := range d.Blocksizes {
		buf = appendVarintField(buf, 4, bs)
	}
	return buf
}

// DecodeData parses a UnixFS record previously produced by EncodeData.
func DecodeData(b []byte) (Data, error) {
	var d Data
	br := bytes.NewReader(b)
	for br.Len() > 0 {
		tag, err := varint.ReadUvarintFromReader(br)
		if err != nil {
			return Data{}, fmt.Errorf("%w: reading unixfs field tag: %v", errInvalidProtobuf, err)
		}
		field := int(tag >> 3)
		wire := byte(tag & 7)
		switch {
		case field == 1 && wire == wireVarint:
			v, err := varint.ReadUvarintFromReader(br)
			if err != nil {
				return Data{}, fmt.Errorf("%w: reading unixfs type: %v", errInvalidProtobuf, err)
			}
			d.Type = Type(v)
		case field == 2 && wire == wireBytes:
			v, err := readBytesField(br)
			if err != nil {
				return Data{}, err
			}
			d.Data = v
		case field == 3 && wire == wireVarint:
			v, err := varint.ReadUvarintFromReader(br)
			if err != nil {
				return Data{}, fmt.Errorf("%w: reading unixfs filesize: %v", errInvalidProtobuf, err)
			}
			d.Filesize = v
		case field == 4 && wire == wireVarint:
			v, err := varint.ReadUvarintFromReader(br)
			if err != nil {
				return Data{}, fmt.Errorf("%w: reading unixfs blocksize: %v", errInvalidProtobuf, err)
			}
			d.Blocksizes = append(d.Blocksizes, v)
		default:
			if err := skipField(br, wire); err != nil {
				return Data{}, err
			}
		}
	}
	return d, nil
}

func readBytesField(br *bytes.Reader) ([]byte, error) {
	l, err := varint.ReadUvarintFromReader(br)
	if err != nil {
		return nil, fmt.Errorf("%w: reading length-delimited field: %v", errInvalidProtobuf, err)
	}
	buf := make([]byte, l)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, fmt.Errorf("%w: truncated length-delimited field: %v", errInvalidProtobuf, err)
	}
	return buf, nil
}

func skipField(br *bytes.Reader, wire byte) error {
	switch wire {
	case wireVarint:
		if _, err := varint.ReadUvarintFromReader(br); err != nil {
			return fmt.Errorf("%w: skipping varint field: %v", errInvalidProtobuf, err)
		}
		return nil
	case wireBytes:
		_, err := readBytesField(br)
		return err
	default:
		return fmt.Errorf("%w: unsupported wire type %d", errInvalidProtobuf, wire)
	}
}
