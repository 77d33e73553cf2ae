package mask

import (
	"bytes"
	"io"
)

// RestoringReader wraps a streamed response body and replaces any <LABEL_n>
// placeholders with their original values before the bytes reach the caller.
// Tokens split across chunk boundaries are handled by holding back any
// trailing bytes that could still be an unfinished placeholder.
type RestoringReader struct {
	src     io.Reader
	vault   *Vault
	window  int    // max bytes an unfinished token can occupy
	pending []byte // unrestored bytes carried across reads
	out     []byte // restored bytes ready to emit
	srcEOF  bool
}

// NewRestoringReader wraps src so that all vault tokens are replaced with
// their originals before being returned to the caller. If the vault is nil
// or empty the original reader is returned unchanged.
func NewRestoringReader(src io.Reader, v *Vault) io.Reader {
	if v == nil || v.IsEmpty() {
		return src
	}
	return &RestoringReader{src: src, vault: v, window: v.maxTokenLen() - 1}
}

// Read implements io.Reader.
func (r *RestoringReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for len(r.out) == 0 {
		if r.srcEOF {
			return 0, io.EOF
		}

		tmp := make([]byte, 4096)
		n, err := r.src.Read(tmp)
		if n > 0 {
			r.pending = append(r.pending, tmp[:n]...)
		}
		if err == io.EOF {
			r.srcEOF = true
		} else if err != nil {
			return 0, err
		}

		cut := len(r.pending)
		if !r.srcEOF {
			cut = r.safeCut()
		}
		if cut == 0 {
			continue
		}
		r.out = []byte(UnmaskText(string(r.pending[:cut]), r.vault))
		r.pending = append([]byte(nil), r.pending[cut:]...)
	}

	n := copy(p, r.out)
	r.out = r.out[n:]
	return n, nil
}

// safeCut returns the largest prefix length of pending that cannot end in
// the middle of a token. A complete token never exceeds the longest entry in
// the vault, so only a '<' within the trailing window can still be an
// unfinished placeholder.
func (r *RestoringReader) safeCut() int {
	start := len(r.pending) - r.window
	if start < 0 {
		start = 0
	}
	tail := r.pending[start:]
	if i := bytes.LastIndexByte(tail, '<'); i >= 0 && !bytes.ContainsRune(tail[i:], '>') {
		return start + i
	}
	return len(r.pending)
}
