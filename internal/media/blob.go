// Package media holds the byte buffers handed between pipeline stages.
package media

import (
	"bytes"
	"io"
	"sync"
)

// Kind tags what a blob contains.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// Blob is an owned byte buffer. The stage that receives a blob owns it and
// must Release it once it is no longer needed. Release is idempotent.
type Blob struct {
	kind        Kind
	contentType string
	source      string

	mu       sync.Mutex
	data     []byte
	released bool
}

// NewBlob takes ownership of data.
func NewBlob(kind Kind, contentType string, data []byte) *Blob {
	return &Blob{kind: kind, contentType: contentType, data: data}
}

// WithSource records where the blob came from, usually the URL path of a
// download. It returns b.
func (b *Blob) WithSource(source string) *Blob {
	b.source = source
	return b
}

// Source is the origin recorded by WithSource, possibly empty.
func (b *Blob) Source() string { return b.source }

func (b *Blob) Kind() Kind { return b.kind }

// ContentType is the MIME type reported by the producer, possibly empty.
func (b *Blob) ContentType() string { return b.contentType }

// Bytes returns the underlying buffer, nil after Release.
func (b *Blob) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// Len returns the number of bytes held.
func (b *Blob) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Reader returns a reader over the current contents.
func (b *Blob) Reader() io.Reader {
	return bytes.NewReader(b.Bytes())
}

// Release drops the buffer. Only the first call has an effect.
func (b *Blob) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil
	}
	b.data = nil
	b.released = true
	return nil
}

// Released reports whether Release has been called.
func (b *Blob) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}
