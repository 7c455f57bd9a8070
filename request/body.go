// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

const badBodyTypeMsg = "httpc/request: invalid type (for body use nil, " +
	"string, []byte, io.Reader, io.ReadCloser or request.Body)"

// ErrBodyConsumed is returned by Open on a non-repeatable body that
// has already been opened once.
var ErrBodyConsumed = errors.New("httpc/request: non-repeatable body already consumed")

// A Body is a request entity. A repeatable body can be re-opened and
// re-read from the beginning without side effects, which is the
// precondition for safely re-sending a request after an I/O failure.
type Body interface {
	// Repeatable reports whether Open may be called more than once.
	Repeatable() bool
	// Open returns a fresh reader over the entity content. For a
	// non-repeatable body the second and subsequent calls return
	// ErrBodyConsumed.
	Open() (io.ReadCloser, error)
	// Len returns the entity length in bytes, or -1 if unknown ahead
	// of transmission.
	Len() int64
}

// NewBody converts a generic body parameter into a Body.
//
// The body parameter may be nil (no entity), a string, a []byte, an
// io.Reader, an io.ReadCloser, or a Body (returned unchanged). String
// and byte slice bodies are repeatable; reader bodies are streamed
// once and are not repeatable. To make a reader's content repeatable,
// buffer it yourself and pass the bytes.
func NewBody(body interface{}) (Body, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case Body:
		return x, nil
	case string:
		return BytesBody([]byte(x)), nil
	case []byte:
		return BytesBody(x), nil
	case io.ReadCloser:
		return &readerBody{r: x}, nil
	case io.Reader:
		return &readerBody{r: io.NopCloser(x)}, nil
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
}

// BytesBody returns a repeatable Body over b. The caller must not
// modify b afterward.
func BytesBody(b []byte) Body {
	return bytesBody(b)
}

type bytesBody []byte

func (b bytesBody) Repeatable() bool { return true }

func (b bytesBody) Len() int64 { return int64(len(b)) }

func (b bytesBody) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

// ReaderBody returns a non-repeatable, one-shot Body streaming from r.
func ReaderBody(r io.ReadCloser) Body {
	return &readerBody{r: r}
}

type readerBody struct {
	mu       sync.Mutex
	r        io.ReadCloser
	consumed bool
}

func (b *readerBody) Repeatable() bool { return false }

func (b *readerBody) Len() int64 { return -1 }

func (b *readerBody) Open() (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.consumed {
		return nil, ErrBodyConsumed
	}
	b.consumed = true
	return b.r, nil
}
