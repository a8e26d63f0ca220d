package dagcbor

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ipfs/go-cid"
)

// ErrNonCanonicalCbor is returned by DecodeStrict when the input is
// structurally valid CBOR but violates DAG-CBOR's canonical encoding rules
// (non-shortest-form integer or length, 16- or 32-bit floats, out-of-order
// map keys). Plain Decode never returns it. Indefinite-length items are
// rejected by both Decode and DecodeStrict with a separate error.
var ErrNonCanonicalCbor = fmt.Errorf("non-canonical cbor")

// Decode reads one leniently-parsed CBOR value from r. It accepts input that
// is not itself canonical (e.g. produced by another implementation), which
// is why encode(decode(x)) is not guaranteed to equal x bit-for-bit, only
// encode(decode(encode(v))) == encode(v) for any Value v this package built.
func Decode(r io.Reader) (Value, error) {
	br := asByteReader(r)
	return decodeValue(br, false)
}

// DecodeStrict behaves like Decode but rejects non-canonical encodings with
// ErrNonCanonicalCbor.
func DecodeStrict(r io.Reader) (Value, error) {
	br := asByteReader(r)
	return decodeValue(br, true)
}

func asByteReader(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReader(r)
}

func decodeValue(br *bufio.Reader, strict bool) (Value, error) {
	first, err := br.ReadByte()
	if err != nil {
		return Value{}, err
	}
	major := first >> 5
	info := first & 0x1f

	switch major {
	case majUint:
		n, short, err := readLen(br, info)
		if err != nil {
			return Value{}, err
		}
		if strict && !short {
			return Value{}, ErrNonCanonicalCbor
		}
		return Int(int64(n)), nil
	case majNegInt:
		n, short, err := readLen(br, info)
		if err != nil {
			return Value{}, err
		}
		if strict && !short {
			return Value{}, ErrNonCanonicalCbor
		}
		return Int(-int64(n) - 1), nil
	case majBytes:
		n, short, err := readLen(br, info)
		if err != nil {
			return Value{}, err
		}
		if strict && !short {
			return Value{}, ErrNonCanonicalCbor
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(br, buf); err != nil {
			return Value{}, err
		}
		return Bytes(buf), nil
	case majText:
		n, short, err := readLen(br, info)
		if err != nil {
			return Value{}, err
		}
		if strict && !short {
			return Value{}, ErrNonCanonicalCbor
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(br, buf); err != nil {
			return Value{}, err
		}
		return Text(string(buf)), nil
	case majList:
		n, short, err := readLen(br, info)
		if err != nil {
			return Value{}, err
		}
		if strict && !short {
			return Value{}, ErrNonCanonicalCbor
		}
		items := make([]Value, 0, n)
		for i := uint64(0); i < n; i++ {
			item, err := decodeValue(br, strict)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return List(items), nil
	case majMap:
		n, short, err := readLen(br, info)
		if err != nil {
			return Value{}, err
		}
		if strict && !short {
			return Value{}, ErrNonCanonicalCbor
		}
		entries := make([]MapEntry, 0, n)
		for i := uint64(0); i < n; i++ {
			kv, err := decodeValue(br, strict)
			if err != nil {
				return Value{}, err
			}
			key, err := kv.AsText()
			if err != nil {
				return Value{}, fmt.Errorf("dagcbor: non-text map key: %w", err)
			}
			val, err := decodeValue(br, strict)
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, MapEntry{Key: key, Value: val})
		}
		if strict {
			for i := 1; i < len(entries); i++ {
				if !keyLess(entries[i-1].Key, entries[i].Key) {
					return Value{}, ErrNonCanonicalCbor
				}
			}
		}
		return Map(entries), nil
	case majTag:
		tag, _, err := readLen(br, info)
		if err != nil {
			return Value{}, err
		}
		inner, err := decodeValue(br, strict)
		if err != nil {
			return Value{}, err
		}
		if tag != tagCIDLink {
			// unknown tag: pass the wrapped value through unchanged.
			return inner, nil
		}
		raw, err := inner.AsBytes()
		if err != nil || len(raw) == 0 || raw[0] != 0x00 {
			return Value{}, fmt.Errorf("dagcbor: malformed cid link")
		}
		c, err := cid.Cast(raw[1:])
		if err != nil {
			return Value{}, fmt.Errorf("dagcbor: malformed cid link: %w", err)
		}
		return Link(c), nil
	case majSimple:
		switch info {
		case simpleFalse:
			return Bool(false), nil
		case simpleTrue:
			return Bool(true), nil
		case simpleNull, 23: // null and undefined both surface as Null
			return Null(), nil
		case simpleFloat:
			var b [8]byte
			if _, err := io.ReadFull(br, b[:]); err != nil {
				return Value{}, err
			}
			return Float(math.Float64frombits(binary.BigEndian.Uint64(b[:]))), nil
		case 25: // half-precision float: widen, lenient-only
			if strict {
				return Value{}, ErrNonCanonicalCbor
			}
			var b [2]byte
			if _, err := io.ReadFull(br, b[:]); err != nil {
				return Value{}, err
			}
			return Float(float16ToFloat64(binary.BigEndian.Uint16(b[:]))), nil
		case 26: // single-precision float: widen, lenient-only
			if strict {
				return Value{}, ErrNonCanonicalCbor
			}
			var b [4]byte
			if _, err := io.ReadFull(br, b[:]); err != nil {
				return Value{}, err
			}
			return Float(float64(math.Float32frombits(binary.BigEndian.Uint32(b[:])))), nil
		default:
			return Value{}, fmt.Errorf("dagcbor: unsupported simple value %d", info)
		}
	default:
		return Value{}, fmt.Errorf("dagcbor: unknown major type %d", major)
	}
}

// readLen decodes the length/value field following a major type byte.
// short reports whether the encoding used the shortest possible form.
func readLen(br *bufio.Reader, info byte) (n uint64, short bool, err error) {
	switch {
	case info < 24:
		return uint64(info), true, nil
	case info == 24:
		b, err := br.ReadByte()
		if err != nil {
			return 0, false, err
		}
		return uint64(b), b >= 24, nil
	case info == 25:
		var b [2]byte
		if _, err := io.ReadFull(br, b[:]); err != nil {
			return 0, false, err
		}
		n := uint64(binary.BigEndian.Uint16(b[:]))
		return n, n >= 1<<8, nil
	case info == 26:
		var b [4]byte
		if _, err := io.ReadFull(br, b[:]); err != nil {
			return 0, false, err
		}
		n := uint64(binary.BigEndian.Uint32(b[:]))
		return n, n >= 1<<16, nil
	case info == 27:
		var b [8]byte
		if _, err := io.ReadFull(br, b[:]); err != nil {
			return 0, false, err
		}
		n := binary.BigEndian.Uint64(b[:])
		return n, n >= 1<<32, nil
	default:
		return 0, false, fmt.Errorf("dagcbor: indefinite-length items are not supported")
	}
}

func keyLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func float16ToFloat64(h uint16) float64 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff
	var f32 uint32
	switch exp {
	case 0:
		f32 = sign << 31
		if frac != 0 {
			// subnormal: normalize by hand.
			for frac&0x400 == 0 {
				frac <<= 1
				exp--
			}
			exp++
			frac &= 0x3ff
			f32 = sign<<31 | (exp+112)<<23 | frac<<13
		}
	case 0x1f:
		f32 = sign<<31 | 0xff<<23 | frac<<13
	default:
		f32 = sign<<31 | (exp+112)<<23 | frac<<13
	}
	return float64(math.Float32frombits(f32))
}
