// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resp

import (
	"fmt"
	"strconv"
)

// ResponseBuilder accumulates a RESP reply in a growable byte buffer.
// internal/command composes these directly rather than writing to the
// connection a piece at a time, so there's no streaming Serializer here.
type ResponseBuilder struct {
	buf []byte
}

// NewResponseBuilder creates a new response builder
func NewResponseBuilder() *ResponseBuilder {
	return &ResponseBuilder{buf: make([]byte, 0, 64)}
}

// Bytes returns the built response as bytes
func (b *ResponseBuilder) Bytes() []byte {
	return b.buf
}

// WriteInteger writes an integer to the buffer
func (b *ResponseBuilder) WriteInteger(i int64) *ResponseBuilder {
	b.buf = append(b.buf, ':')
	b.buf = append(b.buf, strconv.FormatInt(i, 10)...)
	b.buf = append(b.buf, '\r', '\n')
	return b
}

// WriteBulkString writes a bulk string to the buffer
func (b *ResponseBuilder) WriteBulkString(data []byte) *ResponseBuilder {
	if data == nil {
		b.buf = append(b.buf, "$-1\r\n"...)
		return b
	}
	b.buf = append(b.buf, '$')
	b.buf = append(b.buf, strconv.Itoa(len(data))...)
	b.buf = append(b.buf, '\r', '\n')
	b.buf = append(b.buf, data...)
	b.buf = append(b.buf, '\r', '\n')
	return b
}

// WriteBulkStringFromString writes a string as a bulk string to the buffer
func (b *ResponseBuilder) WriteBulkStringFromString(str string) *ResponseBuilder {
	if str == "" {
		b.buf = append(b.buf, "$0\r\n\r\n"...)
		return b
	}
	b.buf = append(b.buf, '$')
	b.buf = append(b.buf, strconv.Itoa(len(str))...)
	b.buf = append(b.buf, '\r', '\n')
	b.buf = append(b.buf, str...)
	b.buf = append(b.buf, '\r', '\n')
	return b
}

// WriteArray writes an array header to the buffer
func (b *ResponseBuilder) WriteArray(count int) *ResponseBuilder {
	b.buf = append(b.buf, '*')
	b.buf = append(b.buf, strconv.Itoa(count)...)
	b.buf = append(b.buf, '\r', '\n')
	return b
}

// WriteStringArray writes an array of strings to the buffer
func (b *ResponseBuilder) WriteStringArray(strs []string) *ResponseBuilder {
	b.WriteArray(len(strs))
	for _, s := range strs {
		b.WriteBulkStringFromString(s)
	}
	return b
}

// WriteBulkStringArray writes an array of bulk strings to the buffer
func (b *ResponseBuilder) WriteBulkStringArray(data [][]byte) *ResponseBuilder {
	b.WriteArray(len(data))
	for _, d := range data {
		b.WriteBulkString(d)
	}
	return b
}

// WriteBytes appends raw bytes to the buffer
func (b *ResponseBuilder) WriteBytes(data []byte) *ResponseBuilder {
	b.buf = append(b.buf, data...)
	return b
}

// Helper functions for common responses

// BuildOK creates an OK response
func BuildOK() []byte {
	return []byte("+OK\r\n")
}

// BuildPong creates a PONG response
func BuildPong() []byte {
	return []byte("+PONG\r\n")
}

// BuildNil creates a nil bulk string response
func BuildNil() []byte {
	return []byte("$-1\r\n")
}

// BuildBulkString creates a bulk string response
func BuildBulkString(s string) []byte {
	if s == "" {
		return []byte("$0\r\n\r\n")
	}
	return []byte(fmt.Sprintf("$%d\r\n%s\r\n", len(s), s))
}

// BuildBulkStringBytes creates a bulk string response from bytes
func BuildBulkStringBytes(b []byte) []byte {
	if b == nil {
		return []byte("$-1\r\n")
	}
	if len(b) == 0 {
		return []byte("$0\r\n\r\n")
	}
	return []byte(fmt.Sprintf("$%d\r\n%s\r\n", len(b), string(b)))
}

// BuildInteger creates an integer response
func BuildInteger(i int64) []byte {
	return []byte(fmt.Sprintf(":%d\r\n", i))
}

// BuildError creates an error response
func BuildError(err error) []byte {
	return []byte("-" + err.Error() + "\r\n")
}

// BuildErrorString creates an error response from a string
func BuildErrorString(err string) []byte {
	return []byte("-" + err + "\r\n")
}

// BuildStringArray creates an array response from strings
func BuildStringArray(strs []string) []byte {
	builder := NewResponseBuilder()
	builder.WriteStringArray(strs)
	return builder.Bytes()
}

// BuildBulkStringArray creates an array response from byte slices
func BuildBulkStringArray(data [][]byte) []byte {
	builder := NewResponseBuilder()
	builder.WriteBulkStringArray(data)
	return builder.Bytes()
}

// BuildEmptyArray creates an empty array response
func BuildEmptyArray() []byte {
	return []byte("*0\r\n")
}

// BuildSimpleString creates a simple string response
func BuildSimpleString(s string) []byte {
	return []byte("+" + s + "\r\n")
}
