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

package nark

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"

	"github.com/consensys/gnark-halo/accumulator"
	"github.com/consensys/gnark-halo/mesh"
	"github.com/consensys/gnark-halo/polynomial"
)

// ErrNotMember rejects a mesh proving call whose circuit is not the wiring
// registered at the given index
var ErrNotMember = errors.New("nark: circuit is not the mesh member at this index")

// WiringClaim extracts the accumulation residue of a proof: the commitment to
// the wiring restriction s(X, y) at the proof's challenge y. Everything else
// in the proof is checked by Verify; this claim is what gets folded instead of
// re-verified.
func WiringClaim(c *Circuit, proof *Proof, pk kzg.ProvingKey, opts ...Option) (accumulator.Claim, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return accumulator.Claim{}, err
	}
	_, y, _, err := c.challenges(proof, cfg)
	if err != nil {
		return accumulator.Claim{}, err
	}

	sy := c.S.PartialY(&y)
	s, err := kzg.Commit(sy, pk)
	if err != nil {
		return accumulator.Claim{}, err
	}
	return accumulator.Claim{S: s, Y: y, SY: sy}, nil
}

// MeshWiringClaim extracts the accumulation residue of a proof for member
// circuit j of the mesh m. The restriction is taken through the mesh, so its
// degree bound is uniform across members and the claim can be folded against
// claims from any other member.
func MeshWiringClaim(m *mesh.Mesh, j int, c *Circuit, proof *Proof, pk kzg.ProvingKey, opts ...Option) (accumulator.MeshClaim, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return accumulator.MeshClaim{}, err
	}
	_, y, _, err := c.challenges(proof, cfg)
	if err != nil {
		return accumulator.MeshClaim{}, err
	}

	w := m.WorkingPoint(j)
	sy := m.WY(w, y)
	s, err := kzg.Commit(sy, pk)
	if err != nil {
		return accumulator.MeshClaim{}, err
	}
	return accumulator.MeshClaim{S: s, Y: y, W: w, SY: sy}, nil
}

// ProveMember proves the instance of member circuit j and hands back the mesh
// wiring claim alongside the proof, so the caller can verify once and fold the
// residue.
func ProveMember(m *mesh.Mesh, j int, c *Circuit, r polynomial.Polynomial, pk kzg.ProvingKey, opts ...Option) (*Proof, accumulator.MeshClaim, error) {
	if c.S != m.Circuit(j) {
		return nil, accumulator.MeshClaim{}, ErrNotMember
	}
	proof, err := Prove(c, r, pk, opts...)
	if err != nil {
		return nil, accumulator.MeshClaim{}, err
	}
	cl, err := MeshWiringClaim(m, j, c, proof, pk, opts...)
	if err != nil {
		return nil, accumulator.MeshClaim{}, err
	}
	return proof, cl, nil
}
