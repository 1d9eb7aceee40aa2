// Package drat writes binary DRAT unsatisfiability certificates.
//
// The binary format prefixes added clauses with 0x61 ('a') and deleted
// clauses with 0x64 ('d'). Each literal is encoded as the unsigned LEB128
// representation of 2*|var| + s, with s = 1 for negative literals and
// variables numbered from 1; a 0x00 byte terminates the clause.
package drat

import (
	"bufio"
	"os"

	"github.com/pkg/errors"
)

const (
	prefixAdd    = 0x61
	prefixDelete = 0x64
)

// Recorder streams DRAT events to a file. Writes go through a bounded
// buffer; once a write fails the recorder latches the error and ignores all
// further events.
type Recorder struct {
	file *os.File
	w    *bufio.Writer
	buf  []byte
	err  error
}

// NewFileRecorder creates or truncates the certificate file at path.
func NewFileRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening DRAT certificate %q", path)
	}
	return &Recorder{
		file: f,
		w:    bufio.NewWriterSize(f, 1<<20),
	}, nil
}

// AddClause records an asymmetric-tautology clause addition.
func (r *Recorder) AddClause(lits []int) {
	r.writeClause(prefixAdd, lits)
}

// AddRATClause records a resolution-asymmetric-tautology addition whose
// pivot is lits[pivotIdx]. The pivot is emitted first, followed by the
// remaining literals in their original order.
func (r *Recorder) AddRATClause(lits []int, pivotIdx int) {
	if r.err != nil {
		return
	}
	r.buf = r.buf[:0]
	r.buf = append(r.buf, prefixAdd)
	r.buf = appendLiteral(r.buf, lits[pivotIdx])
	for i, l := range lits {
		if i != pivotIdx {
			r.buf = appendLiteral(r.buf, l)
		}
	}
	r.buf = append(r.buf, 0)
	r.write()
}

// DeleteClause records a clause deletion.
func (r *Recorder) DeleteClause(lits []int) {
	r.writeClause(prefixDelete, lits)
}

func (r *Recorder) writeClause(prefix byte, lits []int) {
	if r.err != nil {
		return
	}
	r.buf = r.buf[:0]
	r.buf = append(r.buf, prefix)
	for _, l := range lits {
		r.buf = appendLiteral(r.buf, l)
	}
	r.buf = append(r.buf, 0)
	r.write()
}

func (r *Recorder) write() {
	if _, err := r.w.Write(r.buf); err != nil {
		r.err = errors.Wrap(err, "writing DRAT certificate")
	}
}

// appendLiteral appends the LEB128 encoding of the external literal l.
func appendLiteral(buf []byte, l int) []byte {
	v := uint64(l) * 2
	if l < 0 {
		v = uint64(-l)*2 + 1
	}
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// Flush forces buffered events to disk.
func (r *Recorder) Flush() error {
	if r.err != nil {
		return r.err
	}
	if err := r.w.Flush(); err != nil {
		r.err = errors.Wrap(err, "flushing DRAT certificate")
	}
	return r.err
}

// Err returns the recorder's latched error, if any.
func (r *Recorder) Err() error {
	return r.err
}

// Close flushes and closes the certificate file. The recorder must not be
// used afterwards.
func (r *Recorder) Close() error {
	flushErr := r.Flush()
	closeErr := r.file.Close()
	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, "closing DRAT certificate")
	}
	return nil
}
