// Package vector scores vectors decoded from graph replies.
//
// Vector indexes on the server compare float32 embeddings with either
// euclidean or cosine distance. The helpers here compute the same measures on
// the client, e.g. to rerank query results:
//
//   - Dot: dot product
//   - Cosine: cosine similarity in [-1, 1]
//   - Euclidean: euclidean distance
//   - Similarity: the score matching an index's similarity function
//   - Normalize: unit length copy
package vector

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/viterin/vek"

	"github.com/orneryd/falkorgraph/pkg/value"
)

// Vector errors
var (
	ErrDimensionMismatch = errors.New("vector dimensions differ")
	ErrEmpty             = errors.New("vector is empty")
	ErrUnknownFunction   = errors.New("unknown similarity function")
)

// Similarity function names accepted by vector indexes.
const (
	FuncEuclidean = "euclidean"
	FuncCosine    = "cosine"
)

func check(a, b value.Vector) error {
	if len(a) == 0 || len(b) == 0 {
		return ErrEmpty
	}
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d and %d", ErrDimensionMismatch, len(a), len(b))
	}
	return nil
}

// Dot returns the dot product of a and b.
func Dot(a, b value.Vector) (float64, error) {
	if err := check(a, b); err != nil {
		return 0, err
	}
	return vek.Dot(a, b), nil
}

// Cosine returns the cosine similarity of a and b. A zero vector has
// similarity 0 with everything.
//
// Example:
//
//	sim, _ := Cosine(value.Vector{1, 2, 3}, value.Vector{4, 5, 6}) // 0.9746318461970762
func Cosine(a, b value.Vector) (float64, error) {
	if err := check(a, b); err != nil {
		return 0, err
	}
	// vek returns NaN for zero vectors.
	sim := vek.CosineSimilarity(a, b)
	if math.IsNaN(sim) {
		return 0, nil
	}
	return sim, nil
}

// Euclidean returns the euclidean distance between a and b.
func Euclidean(a, b value.Vector) (float64, error) {
	if err := check(a, b); err != nil {
		return 0, err
	}
	return vek.Distance(a, b), nil
}

// Similarity scores a against b the way an index with the named similarity
// function ranks them: higher is closer. Euclidean distance d is mapped to
// 1 / (1 + d).
func Similarity(fn string, a, b value.Vector) (float64, error) {
	switch strings.ToLower(fn) {
	case "", FuncEuclidean:
		d, err := Euclidean(a, b)
		if err != nil {
			return 0, err
		}
		return 1 / (1 + d), nil
	case FuncCosine:
		return Cosine(a, b)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFunction, fn)
}

// Normalize returns a unit length copy of v. A zero vector is returned as a
// zero copy.
//
// Example:
//
//	Normalize(value.Vector{3, 4}) // [0.6, 0.8]
func Normalize(v value.Vector) value.Vector {
	n := vek.Norm(v)
	if n == 0 {
		return make(value.Vector, len(v))
	}
	return value.Vector(vek.DivNumber(v, n))
}
