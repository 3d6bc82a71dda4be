// Package halo implements the accumulation and proving core of a polynomial-IOP
// based argument system over BN254.
//
// The module is organized leaf-first:
//
//   - endoscalar: extraction and lifting of short cross-field scalars, and
//     scalar multiplication driven by their bit-string ("endoscaling")
//   - mesh: incremental registration of circuits into a bit-reversed
//     evaluation domain, with Lagrange evaluation of the implicit mesh
//     polynomial m(W, X, Y)
//   - nark: the non-interactive argument of knowledge; proves a consolidated
//     constraint identity by extracting a single coefficient of a product
//     polynomial through a low/high split
//   - accumulator: the split-accumulation ("folding") protocol that replaces
//     linear-time wiring checks by a constant-size accumulator, in a
//     single-circuit and a mesh variant
//
// Field, group and pairing arithmetic, the KZG polynomial commitment scheme
// and the Fiat-Shamir transcript come from gnark-crypto and are consumed
// through their public contracts only.
package halo
