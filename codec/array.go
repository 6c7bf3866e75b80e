package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/lib/pq/oid"

	"github.com/jeroenrinzema/pgpipe/oidmap"
)

// Array is a one-dimensional Postgres array, spec.md §4.2's array shape.
// Elements are pre-encoded payloads (nil means SQL NULL) sharing a common
// element OID.
type Array struct {
	ElemOID oid.Oid
	ArrOID  oid.Oid
	Elems   [][]byte
}

// NewArray builds an Array Value from a slice of codec Values, encoding
// each element eagerly so SizeOf/Encode need no further type information.
func NewArray(elemOID, arrOID oid.Oid, elems ...Value) (Array, error) {
	payloads := make([][]byte, len(elems))
	for i, e := range elems {
		if _, isNull := e.(Null); isNull {
			payloads[i] = nil
			continue
		}
		payloads[i] = e.Encode(make([]byte, 0, e.SizeOf()))
	}
	return Array{ElemOID: elemOID, ArrOID: arrOID, Elems: payloads}, nil
}

// arrayHeaderSize is dims(4) + has_nulls(4) + element_oid(4) + length(4) +
// lower_bound(4), spec.md §4.2's fixed one-dimensional array header.
const arrayHeaderSize = 20

func (a Array) SizeOf() int {
	n := arrayHeaderSize
	for _, e := range a.Elems {
		n += 4 // per-element length prefix
		if e != nil {
			n += len(e)
		}
	}
	return n
}

func (a Array) Encode(buf []byte) []byte {
	hasNulls := int32(0)
	for _, e := range a.Elems {
		if e == nil {
			hasNulls = 1
			break
		}
	}

	var hdr [20]byte
	binary.BigEndian.PutUint32(hdr[0:4], 1) // dims
	binary.BigEndian.PutUint32(hdr[4:8], uint32(hasNulls))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(a.ElemOID))
	binary.BigEndian.PutUint32(hdr[12:16], uint32(len(a.Elems)))
	binary.BigEndian.PutUint32(hdr[16:20], 0) // lower_bound
	buf = append(buf, hdr[:]...)

	for _, e := range a.Elems {
		if e == nil {
			var neg1 [4]byte
			binary.BigEndian.PutUint32(neg1[:], uint32(int32(-1)))
			buf = append(buf, neg1[:]...)
			continue
		}
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(e)))
		buf = append(buf, length[:]...)
		buf = append(buf, e...)
	}
	return buf
}

func (a Array) OID(*oidmap.Map) (oid.Oid, error) { return a.ArrOID, nil }

// DecodeArray parses a one-dimensional array cell, returning the element
// OID and each element's raw payload (nil entries are SQL NULL). Rejects
// multi-dimensional arrays with a codec error, per spec.md §4.2.
func DecodeArray(data []byte) (elemOID oid.Oid, elems [][]byte, err error) {
	if len(data) < 4 {
		return 0, nil, fmt.Errorf("codec: array cell too short: %d bytes", len(data))
	}

	dims := int32(binary.BigEndian.Uint32(data[0:4]))
	if dims == 0 {
		// An empty array is encoded with dims=0 and no further header
		// fields beyond has_nulls/element_oid per libpq convention when
		// lower_bound/length are both absent for zero dimensions; accept
		// either a full 20-byte header with length=0 or this short form.
		if len(data) >= 12 {
			elemOID = oid.Oid(binary.BigEndian.Uint32(data[8:12]))
		}
		return elemOID, nil, nil
	}
	if dims != 1 {
		return 0, nil, fmt.Errorf("codec: multi-dimensional arrays (dims=%d) are not supported", dims)
	}
	if len(data) < arrayHeaderSize {
		return 0, nil, fmt.Errorf("codec: array cell too short: %d bytes", len(data))
	}

	elemOID = oid.Oid(binary.BigEndian.Uint32(data[8:12]))
	length := int32(binary.BigEndian.Uint32(data[12:16]))

	pos := arrayHeaderSize
	elems = make([][]byte, 0, length)
	for i := int32(0); i < length; i++ {
		if pos+4 > len(data) {
			return 0, nil, fmt.Errorf("codec: array cell truncated reading element %d length", i)
		}
		elLen := int32(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if elLen == -1 {
			elems = append(elems, nil)
			continue
		}
		if elLen < 0 || pos+int(elLen) > len(data) {
			return 0, nil, fmt.Errorf("codec: array cell truncated reading element %d payload", i)
		}
		elems = append(elems, data[pos:pos+int(elLen)])
		pos += int(elLen)
	}

	return elemOID, elems, nil
}
