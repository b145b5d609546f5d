package dns

import (
	"encoding/binary"
	"fmt"
)

// Question is the fixed 4-byte footer that follows each question name
// (RFC 1035 Section 4.1.2): the requested record type and class. The
// owner name travels separately; see DecodeName.
type Question struct {
	Type  RecordType
	Class RecordClass
}

// QuestionFooterSize is the wire size of the question footer in bytes.
const QuestionFooterSize = 4

// Marshal serializes the footer to wire format (big-endian).
func (q Question) Marshal() []byte {
	b := make([]byte, QuestionFooterSize)
	binary.BigEndian.PutUint16(b[0:2], uint16(q.Type))
	binary.BigEndian.PutUint16(b[2:4], uint16(q.Class))
	return b
}

// ParseQuestion parses the question footer at the given offset.
// It advances *off past the footer on success.
func ParseQuestion(msg []byte, off *int) (Question, error) {
	if *off < 0 || *off+QuestionFooterSize > len(msg) {
		return Question{}, fmt.Errorf("%w: unexpected EOF while reading DNS question", ErrWire)
	}
	q := Question{
		Type:  RecordType(binary.BigEndian.Uint16(msg[*off : *off+2])),
		Class: RecordClass(binary.BigEndian.Uint16(msg[*off+2 : *off+4])),
	}
	*off += QuestionFooterSize
	return q, nil
}

// Valid reports whether this responder could answer the question at all:
// the type must be in the supported set and the class must be plain IN.
// An invalid footer poisons the whole query it arrived in, not just the
// one question.
func (q Question) Valid() bool {
	return q.Type.Supported() && q.Class == ClassIN
}
