// Package dimacs reads CNF problem instances in DIMACS format, transparently
// decompressing gzip input.
package dimacs

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rhartert/dimacs"

	"github.com/fkutzner/jamsat-go/internal/sat"
)

// Problem is a parsed CNF instance. Clause literals use the external 1-based
// signed encoding.
type Problem struct {
	NumVars int
	Clauses [][]int
}

// ParseFile reads the DIMACS CNF instance at path. Files compressed with
// gzip are detected by their magic bytes and decompressed on the fly.
func ParseFile(path string) (*Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening instance %q", path)
	}
	defer f.Close()

	p, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing instance %q", path)
	}
	return p, nil
}

const (
	gzipMagic0 = 0x1f
	gzipMagic1 = 0x8b
)

// Parse reads a DIMACS CNF instance from r, sniffing for gzip compression.
func Parse(r io.Reader) (*Problem, error) {
	head := make([]byte, 2)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	rest := io.Reader(io.MultiReader(bytes.NewReader(head[:n]), r))

	if n == 2 && head[0] == gzipMagic0 && head[1] == gzipMagic1 {
		gz, err := gzip.NewReader(rest)
		if err != nil {
			return nil, errors.Wrap(err, "decompressing instance")
		}
		defer gz.Close()
		rest = gz
	}

	b := &builder{problem: &Problem{}}
	if err := dimacs.ReadBuilder(rest, b); err != nil {
		return nil, err
	}
	if !b.sawHeader {
		return nil, errors.New("missing problem header")
	}
	if len(b.problem.Clauses) != b.declaredClauses {
		return nil, errors.Errorf("clause count mismatch: header declares %d, found %d",
			b.declaredClauses, len(b.problem.Clauses))
	}
	return b.problem, nil
}

// builder accumulates the instance while dimacs.ReadBuilder drives it.
type builder struct {
	problem         *Problem
	declaredClauses int
	sawHeader       bool
}

func (b *builder) Problem(problem string, nVars int, nClauses int) error {
	if problem != "cnf" {
		return errors.Errorf("unsupported problem type %q", problem)
	}
	b.sawHeader = true
	b.problem.NumVars = nVars
	b.declaredClauses = nClauses
	return nil
}

func (b *builder) Clause(tmpClause []int) error {
	if !b.sawHeader {
		return errors.New("clause before problem header")
	}
	clause := make([]int, len(tmpClause))
	for i, l := range tmpClause {
		if l == 0 {
			return errors.New("unexpected 0 literal inside clause")
		}
		if !sat.ValidExternal(l) {
			return errors.Errorf("literal %d out of range (maximum variable is %d)",
				l, sat.MaxExternalVariable)
		}
		v := l
		if v < 0 {
			v = -v
		}
		if v > b.problem.NumVars {
			// Variables beyond the declared count expand the space.
			b.problem.NumVars = v
		}
		clause[i] = l
	}
	b.problem.Clauses = append(b.problem.Clauses, clause)
	return nil
}

func (b *builder) Comment(string) error {
	return nil // ignore comments
}
