package trace

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// snapshotMagic identifies a binary-encoded trace. Grounded on model.Graph's
// "SULB" framing (magic + version + count, little-endian fixed fields
// followed by variable payload) — the teacher's binary model format has no
// place in VECTORIA's IR, but its length-prefixed framing pattern is kept
// here for a compact on-disk trace, the closest match for that idiom.
const snapshotMagic uint32 = 0x56545243 // "VTRC"
const snapshotVersion uint16 = 1

// EncodeBinary serializes events into the length-prefixed binary format:
// magic, version, event count, then each event as
// (kind length + kind bytes, timestamp, node id, details length + details).
func EncodeBinary(events []Event) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, snapshotMagic); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, snapshotVersion); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(events))); err != nil {
		return nil, err
	}
	for _, e := range events {
		if err := writeString(&buf, string(e.Type)); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.LittleEndian, e.TimestampNS); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.LittleEndian, e.NodeID); err != nil {
			return nil, err
		}
		if err := writeString(&buf, e.Details); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// DecodeBinary reverses EncodeBinary.
func DecodeBinary(data []byte) ([]Event, error) {
	buf := bytes.NewReader(data)

	var magic uint32
	if err := binary.Read(buf, binary.LittleEndian, &magic); err != nil {
		return nil, err
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("trace: invalid magic number %x", magic)
	}
	var version uint16
	if err := binary.Read(buf, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("trace: unsupported snapshot version %d", version)
	}
	var count uint32
	if err := binary.Read(buf, binary.LittleEndian, &count); err != nil {
		return nil, err
	}

	events := make([]Event, count)
	for i := range events {
		kind, err := readString(buf)
		if err != nil {
			return nil, err
		}
		events[i].Type = Kind(kind)
		if err := binary.Read(buf, binary.LittleEndian, &events[i].TimestampNS); err != nil {
			return nil, err
		}
		if err := binary.Read(buf, binary.LittleEndian, &events[i].NodeID); err != nil {
			return nil, err
		}
		details, err := readString(buf)
		if err != nil {
			return nil, err
		}
		events[i].Details = details
	}
	return events, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := buf.WriteString(s)
	return err
}

func readString(r *bytes.Reader) (string, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", err
	}
	out := make([]byte, length)
	if _, err := r.Read(out); err != nil {
		return "", err
	}
	return string(out), nil
}
