// Copyright 2020 ConsenSys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mesh

import (
	"errors"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/fxamacker/cbor/v2"

	"github.com/consensys/gnark-halo/polynomial"
)

// snapshot is the cbor wire form of a finalized mesh. Rows are concatenated
// canonical fr encodings; the working domain is rebuilt on load.
type snapshot struct {
	MaxLogSize uint64
	LogSize    uint64
	Exponents  []uint64
	Circuits   [][][]byte
}

var errInvalidSnapshot = errors.New("mesh: invalid snapshot")

type countWriter struct {
	w io.Writer
	n int64
}

func (cw *countWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// WriteTo serializes the finalized mesh with cbor. The snapshot round-trips
// bit-exactly: reading it back yields a mesh with identical domain points and
// circuit coefficients.
func (m *Mesh) WriteTo(w io.Writer) (int64, error) {
	snap := snapshot{
		MaxLogSize: m.maxLog,
		LogSize:    m.logK,
		Exponents:  m.exponents,
		Circuits:   make([][][]byte, len(m.circuits)),
	}
	for j, s := range m.circuits {
		rows := make([][]byte, len(s.Coeffs))
		for i, row := range s.Coeffs {
			buf := make([]byte, 0, len(row)*fr.Bytes)
			for c := range row {
				b := row[c].Bytes()
				buf = append(buf, b[:]...)
			}
			rows[i] = buf
		}
		snap.Circuits[j] = rows
	}

	cw := &countWriter{w: w}
	enc := cbor.NewEncoder(cw)
	err := enc.Encode(&snap)
	return cw.n, err
}

// ReadFrom reconstructs a finalized mesh from a snapshot produced by WriteTo
func (m *Mesh) ReadFrom(r io.Reader) (int64, error) {
	cr := &countReader{r: r}
	dec := cbor.NewDecoder(cr)
	var snap snapshot
	if err := dec.Decode(&snap); err != nil {
		return cr.n, err
	}

	if snap.LogSize > snap.MaxLogSize || snap.MaxLogSize > frTwoAdicity {
		return cr.n, errInvalidSnapshot
	}
	if len(snap.Exponents) != len(snap.Circuits) || len(snap.Circuits) == 0 {
		return cr.n, errInvalidSnapshot
	}
	if uint64(len(snap.Circuits)) > uint64(1)<<snap.LogSize {
		return cr.n, errInvalidSnapshot
	}

	// slot indices derive from the exponents; reject anything landing outside
	// the working domain, off the bit-reversal lattice, or colliding on a slot
	shift := snap.MaxLogSize - snap.LogSize
	seen := make(map[uint64]struct{}, len(snap.Exponents))
	for _, e := range snap.Exponents {
		if e>>snap.MaxLogSize != 0 || e&((uint64(1)<<shift)-1) != 0 {
			return cr.n, errInvalidSnapshot
		}
		slot := e >> shift
		if _, dup := seen[slot]; dup {
			return cr.n, errInvalidSnapshot
		}
		seen[slot] = struct{}{}
	}

	circuits := make([]*polynomial.Bivariate, len(snap.Circuits))
	for j, rows := range snap.Circuits {
		s := &polynomial.Bivariate{Coeffs: make([]polynomial.Polynomial, len(rows))}
		for i, buf := range rows {
			if len(buf)%fr.Bytes != 0 {
				return cr.n, errInvalidSnapshot
			}
			row := make(polynomial.Polynomial, len(buf)/fr.Bytes)
			for c := range row {
				row[c].SetBytes(buf[c*fr.Bytes : (c+1)*fr.Bytes])
			}
			s.Coeffs[i] = row
		}
		circuits[j] = s
	}

	rebuilt, err := newMesh(snap.MaxLogSize, snap.LogSize, circuits, snap.Exponents)
	if err != nil {
		return cr.n, err
	}
	*m = *rebuilt
	return cr.n, nil
}

type countReader struct {
	r io.Reader
	n int64
}

func (cr *countReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}
