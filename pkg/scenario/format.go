package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/rekonder/qttester/pkg/eventcodec"
	"github.com/rekonder/qttester/pkg/objpath"
	"google.golang.org/protobuf/encoding/protowire"
)

// File layout:
//
//	"QTTS" | uvarint version | bytes(header) | bytes(entry)...
//
// Header and entries are protobuf wire-format messages, each prefixed with
// its length. Readers skip fields they do not know.
const (
	Magic         = "QTTS"
	FormatVersion = 1
)

const (
	headerSessionID  protowire.Number = 1
	headerToolkit    protowire.Number = 2
	headerRecordedAt protowire.Number = 3
	headerEntryPoint protowire.Number = 4

	entryPathElement protowire.Number = 1
	entryClass       protowire.Number = 2
	entryKind        protowire.Number = 3
	entryArg         protowire.Number = 4
	entryOffsetMS    protowire.Number = 5

	elementIndex protowire.Number = 1
	elementType  protowire.Number = 2
	elementName  protowire.Number = 3
)

// ErrBadMagic is returned for input that does not start with the scenario
// magic.
var ErrBadMagic = errors.New("scenario: not a scenario file")

// UnsupportedVersionError reports a format version this build cannot read.
type UnsupportedVersionError struct {
	Version uint64
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("scenario: unsupported format version %d (this build reads %d)", e.Version, FormatVersion)
}

// Marshal encodes a scenario.
func Marshal(sc *Scenario) []byte {
	b := append([]byte(nil), Magic...)
	b = protowire.AppendVarint(b, FormatVersion)
	b = protowire.AppendBytes(b, marshalHeader(sc.Header))
	for _, e := range sc.Entries {
		b = protowire.AppendBytes(b, marshalEntry(e))
	}
	return b
}

func marshalHeader(h Header) []byte {
	var b []byte
	b = appendString(b, headerSessionID, h.SessionID)
	b = appendString(b, headerToolkit, h.Toolkit)
	if !h.RecordedAt.IsZero() {
		b = protowire.AppendTag(b, headerRecordedAt, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(h.RecordedAt.UnixMilli()))
	}
	b = appendString(b, headerEntryPoint, h.EntryPoint)
	return b
}

func marshalEntry(e Entry) []byte {
	var b []byte
	for _, el := range e.Path {
		var m []byte
		m = protowire.AppendTag(m, elementIndex, protowire.VarintType)
		m = protowire.AppendVarint(m, uint64(el.Index))
		m = appendString(m, elementType, el.Type)
		m = appendString(m, elementName, el.Name)
		b = protowire.AppendTag(b, entryPathElement, protowire.BytesType)
		b = protowire.AppendBytes(b, m)
	}
	b = appendString(b, entryClass, e.Event.Class)
	b = appendString(b, entryKind, e.Event.Kind)
	for _, arg := range e.Event.Args {
		// Empty args are written too; their position matters.
		b = protowire.AppendTag(b, entryArg, protowire.BytesType)
		b = protowire.AppendString(b, arg)
	}
	if e.Offset > 0 {
		b = protowire.AppendTag(b, entryOffsetMS, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Offset/time.Millisecond))
	}
	return b
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// Unmarshal decodes a scenario, rejecting unknown magic or versions.
func Unmarshal(data []byte) (*Scenario, error) {
	if !bytes.HasPrefix(data, []byte(Magic)) {
		return nil, ErrBadMagic
	}
	data = data[len(Magic):]
	version, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return nil, fmt.Errorf("scenario: read version: %w", protowire.ParseError(n))
	}
	if version != FormatVersion {
		return nil, &UnsupportedVersionError{Version: version}
	}
	data = data[n:]

	msg, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, fmt.Errorf("scenario: read header: %w", protowire.ParseError(n))
	}
	header, err := unmarshalHeader(msg)
	if err != nil {
		return nil, err
	}
	data = data[n:]

	sc := New(header)
	for len(data) > 0 {
		msg, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("scenario: read entry %d: %w", sc.Len(), protowire.ParseError(n))
		}
		entry, err := unmarshalEntry(msg)
		if err != nil {
			return nil, fmt.Errorf("scenario: entry %d: %w", sc.Len(), err)
		}
		sc.Append(entry)
		data = data[n:]
	}
	return sc, nil
}

func unmarshalHeader(b []byte) (Header, error) {
	var h Header
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == headerSessionID && typ == protowire.BytesType:
			return consumeString(b, &h.SessionID)
		case num == headerToolkit && typ == protowire.BytesType:
			return consumeString(b, &h.Toolkit)
		case num == headerEntryPoint && typ == protowire.BytesType:
			return consumeString(b, &h.EntryPoint)
		case num == headerRecordedAt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return n, nil
			}
			h.RecordedAt = time.UnixMilli(int64(v)).UTC()
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return Header{}, fmt.Errorf("scenario: header: %w", err)
	}
	return h, nil
}

func unmarshalEntry(b []byte) (Entry, error) {
	e := Entry{Event: eventcodec.SerializedEvent{Args: []string{}}}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == entryPathElement && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			el, err := unmarshalElement(msg)
			if err != nil {
				return 0, err
			}
			e.Path = append(e.Path, el)
			return n, nil
		case num == entryClass && typ == protowire.BytesType:
			return consumeString(b, &e.Event.Class)
		case num == entryKind && typ == protowire.BytesType:
			return consumeString(b, &e.Event.Kind)
		case num == entryArg && typ == protowire.BytesType:
			var arg string
			n, err := consumeString(b, &arg)
			e.Event.Args = append(e.Event.Args, arg)
			return n, err
		case num == entryOffsetMS && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return n, nil
			}
			e.Offset = time.Duration(v) * time.Millisecond
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return Entry{}, err
	}
	if len(e.Path) == 0 {
		return Entry{}, errors.New("entry has an empty target path")
	}
	return e, nil
}

func unmarshalElement(b []byte) (objpath.Element, error) {
	var el objpath.Element
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == elementIndex && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return n, nil
			}
			el.Index = int(v)
			return n, nil
		case num == elementType && typ == protowire.BytesType:
			return consumeString(b, &el.Type)
		case num == elementName && typ == protowire.BytesType:
			return consumeString(b, &el.Name)
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return objpath.Element{}, fmt.Errorf("path element: %w", err)
	}
	return el, nil
}

// walkFields calls fn with the body following each tag. fn returns the
// number of bytes it consumed, negative for a wire error.
func walkFields(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

func consumeString(b []byte, dst *string) (int, error) {
	s, n := protowire.ConsumeString(b)
	if n < 0 {
		return n, nil
	}
	*dst = s
	return n, nil
}
