package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const (
	sessionFormatVersionCurrent = 2
	sessionFormatVersionV1      = 1
)

const (
	challengeAbsent  = 0
	challengePresent = 1
)

// Encode serializes a session into the compact binary record stored in
// Redis. Identifiers are length-prefixed with a single byte, so they are
// capped at 255 bytes.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersionCurrent)

	if len(s.Identifier) > 255 {
		return nil, errors.New("identifier too long")
	}
	buf.WriteByte(byte(len(s.Identifier)))
	buf.WriteString(s.Identifier)

	if s.Challenge == nil {
		buf.WriteByte(challengeAbsent)
	} else {
		buf.WriteByte(challengePresent)

		if err := binary.Write(&buf, binary.BigEndian, s.Challenge.Code); err != nil {
			return nil, err
		}

		if len(s.Challenge.Identifier) > 255 {
			return nil, errors.New("challenge identifier too long")
		}
		buf.WriteByte(byte(len(s.Challenge.Identifier)))
		buf.WriteString(s.Challenge.Identifier)

		if err := binary.Write(&buf, binary.BigEndian, s.Challenge.IssuedAt); err != nil {
			return nil, err
		}
	}

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a binary session record. Version 1 records (written before
// reset challenges moved into the session) decode with a nil Challenge.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != sessionFormatVersionCurrent && version != sessionFormatVersionV1 {
		return nil, errors.New("invalid session version")
	}

	s := &Session{}

	identLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	ident := make([]byte, identLen)
	if _, err := io.ReadFull(reader, ident); err != nil {
		return nil, err
	}
	s.Identifier = string(ident)

	if version >= sessionFormatVersionCurrent {
		present, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}
		switch present {
		case challengeAbsent:
		case challengePresent:
			c := &Challenge{}

			if err := binary.Read(reader, binary.BigEndian, &c.Code); err != nil {
				return nil, err
			}

			cidLen, err := reader.ReadByte()
			if err != nil {
				return nil, err
			}
			cid := make([]byte, cidLen)
			if _, err := io.ReadFull(reader, cid); err != nil {
				return nil, err
			}
			c.Identifier = string(cid)

			if err := binary.Read(reader, binary.BigEndian, &c.IssuedAt); err != nil {
				return nil, err
			}

			s.Challenge = c
		default:
			return nil, errors.New("invalid challenge marker")
		}
	}

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, err
	}

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes in session record")
	}

	return s, nil
}
