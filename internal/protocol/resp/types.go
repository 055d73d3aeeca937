// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resp

import (
	"bytes"
	"strconv"
)

// Type represents the RESP data type
type Type byte

const (
	TypeSimpleString Type = '+'
	TypeError        Type = '-'
	TypeInteger      Type = ':'
	TypeBulkString   Type = '$'
	TypeArray        Type = '*'
)

// Message represents a RESP message. dictkv has no MULTI/EXEC, so unlike
// the teacher's full protocol stack there is no QUEUED reply and no
// transaction-queue accessor to go with it; see IsError in parser.go for
// the error-reply check the host actually uses.
type Message struct {
	Type  Type
	Value interface{}
}

// NewSimpleString creates a simple string message
func NewSimpleString(s string) *Message {
	return &Message{Type: TypeSimpleString, Value: s}
}

// NewError creates an error message
func NewError(s string) *Message {
	return &Message{Type: TypeError, Value: s}
}

// NewInteger creates an integer message
func NewInteger(i int64) *Message {
	return &Message{Type: TypeInteger, Value: i}
}

// NewBulkString creates a bulk string message
func NewBulkString(s []byte) *Message {
	return &Message{Type: TypeBulkString, Value: s}
}

// NewNilBulkString creates a nil bulk string message
func NewNilBulkString() *Message {
	return &Message{Type: TypeBulkString, Value: nil}
}

// NewArray creates an array message
func NewArray(items []*Message) *Message {
	return &Message{Type: TypeArray, Value: items}
}

// IsNil returns true if the message represents a nil value
func (m *Message) IsNil() bool {
	return m.Type == TypeBulkString && m.Value == nil
}

// String returns the string representation of simple strings and bulk strings
func (m *Message) String() (string, bool) {
	switch m.Type {
	case TypeSimpleString:
		return m.Value.(string), true
	case TypeBulkString:
		if m.Value == nil {
			return "", false
		}
		return string(m.Value.([]byte)), true
	default:
		return "", false
	}
}

// Integer returns the integer value
func (m *Message) Integer() (int64, bool) {
	if m.Type == TypeInteger {
		return m.Value.(int64), true
	}
	return 0, false
}

// Array returns the array value
func (m *Message) Array() ([]*Message, bool) {
	if m.Type == TypeArray {
		return m.Value.([]*Message), true
	}
	return nil, false
}

// Marshal implements the serialization to RESP format
func (m *Message) Marshal() []byte {
	var buf bytes.Buffer

	switch m.Type {
	case TypeSimpleString:
		buf.WriteByte(byte(TypeSimpleString))
		buf.WriteString(m.Value.(string))
		buf.WriteString("\r\n")

	case TypeError:
		buf.WriteByte(byte(TypeError))
		buf.WriteString(m.Value.(string))
		buf.WriteString("\r\n")

	case TypeInteger:
		buf.WriteByte(byte(TypeInteger))
		buf.WriteString(strconv.FormatInt(m.Value.(int64), 10))
		buf.WriteString("\r\n")

	case TypeBulkString:
		buf.WriteByte(byte(TypeBulkString))
		if m.Value == nil {
			buf.WriteString("-1\r\n")
		} else {
			data := m.Value.([]byte)
			buf.WriteString(strconv.Itoa(len(data)))
			buf.WriteString("\r\n")
			buf.Write(data)
			buf.WriteString("\r\n")
		}

	case TypeArray:
		items := m.Value.([]*Message)
		buf.WriteByte(byte(TypeArray))
		buf.WriteString(strconv.Itoa(len(items)))
		buf.WriteString("\r\n")
		for _, item := range items {
			buf.Write(item.Marshal())
		}

	default:
		// Unknown type
		buf.WriteString("-ERR unknown RESP type\r\n")
	}

	return buf.Bytes()
}
