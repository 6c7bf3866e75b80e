package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/lib/pq/oid"

	"github.com/jeroenrinzema/pgpipe/oidmap"
)

// Member is one field of a composite value on the wire: its OID and raw
// payload (nil payload means SQL NULL).
type Member struct {
	OID     oid.Oid
	Payload []byte
}

// Composite is a named user-defined row type or an anonymous tuple,
// spec.md §4.2's composite shape. Key is the oidmap registration key for a
// named type, or nil for an anonymous tuple (which always uses the
// generic record OID pair).
type Composite struct {
	Key     any
	Members []Member
}

// NewComposite builds a Composite Value from ordered member Values,
// encoding each member eagerly.
func NewComposite(key any, reg *oidmap.Map, fields ...Value) (Composite, error) {
	members := make([]Member, len(fields))
	for i, f := range fields {
		memberOID, err := f.OID(reg)
		if err != nil {
			return Composite{}, fmt.Errorf("codec: resolving member %d oid: %w", i, err)
		}
		if _, isNull := f.(Null); isNull {
			members[i] = Member{OID: memberOID, Payload: nil}
			continue
		}
		members[i] = Member{OID: memberOID, Payload: f.Encode(make([]byte, 0, f.SizeOf()))}
	}
	return Composite{Key: key, Members: members}, nil
}

func (c Composite) SizeOf() int {
	n := 4 // member_count
	for _, m := range c.Members {
		n += 4 + 4 // member_oid + member_length
		if m.Payload != nil {
			n += len(m.Payload)
		}
	}
	return n
}

func (c Composite) Encode(buf []byte) []byte {
	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(c.Members)))
	buf = append(buf, count[:]...)

	for _, m := range c.Members {
		var oidBuf [4]byte
		binary.BigEndian.PutUint32(oidBuf[:], uint32(m.OID))
		buf = append(buf, oidBuf[:]...)

		var lenBuf [4]byte
		if m.Payload == nil {
			binary.BigEndian.PutUint32(lenBuf[:], uint32(int32(-1)))
			buf = append(buf, lenBuf[:]...)
			continue
		}
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(m.Payload)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, m.Payload...)
	}
	return buf
}

func (c Composite) OID(reg *oidmap.Map) (oid.Oid, error) {
	if c.Key == nil {
		return GenericRecordOID, nil
	}
	return reg.TypeOID(c.Key)
}

// GenericRecordOID is the anonymous-tuple OID used on the wire for
// composites that carry no registered user-defined type name.
const GenericRecordOID oid.Oid = 2249

// GenericRecordArrayOID is the array-of-anonymous-tuple OID.
const GenericRecordArrayOID oid.Oid = 2287

// ExpectedMember describes one member of the expected layout used to
// validate a decoded composite: its name (informational) and expected OID
// (0 permits any OID, for an unregistered user-defined member type).
type ExpectedMember struct {
	Name string
	OID  oid.Oid
}

// DecodeComposite parses a composite cell into its ordered members,
// validating member count and, where expected is non-nil, each member's
// OID against expected[i].OID (spec.md §4.2 Deserialization validation).
func DecodeComposite(data []byte, expected []ExpectedMember) ([]Member, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("codec: composite cell too short: %d bytes", len(data))
	}

	count := int32(binary.BigEndian.Uint32(data[0:4]))
	if expected != nil && int(count) != len(expected) {
		return nil, fmt.Errorf("codec: composite member count mismatch: expected %d, received %d", len(expected), count)
	}

	pos := 4
	members := make([]Member, 0, count)
	for i := int32(0); i < count; i++ {
		if pos+8 > len(data) {
			return nil, fmt.Errorf("codec: composite cell truncated reading member %d header", i)
		}
		memberOID := oid.Oid(binary.BigEndian.Uint32(data[pos : pos+4]))
		memberLen := int32(binary.BigEndian.Uint32(data[pos+4 : pos+8]))
		pos += 8

		if expected != nil {
			want := expected[i].OID
			if want != 0 && memberOID != 0 && memberOID != want {
				return nil, fmt.Errorf("codec: composite member %d oid mismatch: expected %d, received %d", i, want, memberOID)
			}
		}

		if memberLen == -1 {
			members = append(members, Member{OID: memberOID, Payload: nil})
			continue
		}
		if memberLen < 0 || pos+int(memberLen) > len(data) {
			return nil, fmt.Errorf("codec: composite cell truncated reading member %d payload", i)
		}
		members = append(members, Member{OID: memberOID, Payload: data[pos : pos+int(memberLen)]})
		pos += int(memberLen)
	}

	return members, nil
}
