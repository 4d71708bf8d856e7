package csv

import (
	"bytes"
	"io"
)

// Replacement is one literal byte-sequence substitution.
type Replacement struct {
	Old string `json:"old" yaml:"old"`
	New string `json:"new" yaml:"new"`
}

// rewriter replaces every occurrence of old with repl in a stream. It holds
// back len(old)-1 bytes between chunks so matches spanning a chunk boundary
// are still found; memory stays bounded by the chunk size.
type rewriter struct {
	src   io.Reader
	old   []byte
	repl  []byte
	chunk []byte
	carry []byte
	out   bytes.Buffer
	eof   bool
}

func newRewriter(r io.Reader, old, repl []byte) io.Reader {
	if len(old) == 0 || bytes.Equal(old, repl) {
		return r
	}
	return &rewriter{src: r, old: old, repl: repl, chunk: make([]byte, 64*1024)}
}

func (w *rewriter) Read(p []byte) (int, error) {
	for w.out.Len() == 0 {
		if w.eof {
			return 0, io.EOF
		}
		n, err := w.src.Read(w.chunk)
		if n > 0 {
			block := append(w.carry, w.chunk[:n]...)
			block = bytes.ReplaceAll(block, w.old, w.repl)
			keep := len(w.old) - 1
			if len(block) > keep {
				w.out.Write(block[:len(block)-keep])
				w.carry = append([]byte(nil), block[len(block)-keep:]...)
			} else {
				w.carry = append([]byte(nil), block...)
			}
		}
		if err == io.EOF {
			w.out.Write(w.carry)
			w.carry = nil
			w.eof = true
		} else if err != nil {
			return 0, err
		}
	}
	return w.out.Read(p)
}
