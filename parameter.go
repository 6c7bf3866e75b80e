package pgpipe

import (
	"github.com/lib/pq/oid"

	"github.com/jeroenrinzema/pgpipe/codec"
	"github.com/jeroenrinzema/pgpipe/internal/buffer"
	"github.com/jeroenrinzema/pgpipe/oidmap"
)

// Parameter is one packed placeholder value, spec.md §3 Parameter set /
// §4.3: a resolved OID, a length, and an offset into the owning
// ParameterSet's shared encoding buffer. Format is always binary (1) in
// this driver.
type Parameter struct {
	OID    oid.Oid
	Offset int
	Length int
	IsNull bool
}

// ParameterSet packs an ordered list of codec.Values into four parallel
// arrays (OIDs, offsets, lengths, formats) over one shared buffer, per
// spec.md §4.3. Offsets are only valid once Pack has returned — computing
// them after all writes complete is what makes a growable backing buffer
// safe (spec.md §9 "Shared encoding buffer").
type ParameterSet struct {
	Params []Parameter
	buf    buffer.Writer
}

// Pack resolves each value's OID, encodes it into the shared buffer, and
// records its offset/length. Null values get OID 0, length 0, no payload
// (spec.md §4.3 "Nulls have OID 0, length 0, pointer nullptr").
func (p *ParameterSet) Pack(reg *oidmap.Map, values ...codec.Value) error {
	total := 0
	for _, v := range values {
		total += v.SizeOf()
	}
	p.buf.Reset(total)

	p.Params = make([]Parameter, len(values))
	for i, v := range values {
		valueOID, err := v.OID(reg)
		if err != nil {
			return err
		}

		if _, isNull := v.(codec.Null); isNull {
			p.Params[i] = Parameter{OID: valueOID, IsNull: true}
			continue
		}

		size := v.SizeOf()
		payload := make([]byte, 0, size)
		payload = v.Encode(payload)
		offset := p.buf.Write(payload)
		p.Params[i] = Parameter{OID: valueOID, Offset: offset, Length: len(payload)}
	}

	return nil
}

// Bytes returns the i'th parameter's encoded payload, or nil if it is null.
func (p *ParameterSet) Bytes(i int) []byte {
	param := p.Params[i]
	if param.IsNull {
		return nil
	}
	return p.buf.Slice(param.Offset, param.Length)
}

// OIDs returns the resolved OID of every packed parameter, in order — the
// shape pgconn.ExecParams wants for its paramOIDs argument.
func (p *ParameterSet) OIDs() []uint32 {
	oids := make([]uint32, len(p.Params))
	for i, param := range p.Params {
		oids[i] = uint32(param.OID)
	}
	return oids
}

// Values returns the i'th parameter's encoded payload for every packed
// parameter — the shape pgconn.ExecParams wants for its paramValues
// argument.
func (p *ParameterSet) Values() [][]byte {
	values := make([][]byte, len(p.Params))
	for i := range p.Params {
		values[i] = p.Bytes(i)
	}
	return values
}

// formatCodes returns one binary (1) format code per packed parameter.
func (p *ParameterSet) formatCodes() []int16 {
	formats := make([]int16, len(p.Params))
	for i := range formats {
		formats[i] = 1
	}
	return formats
}
