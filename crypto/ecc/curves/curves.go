// Package curves instantiates ecc.Point implementations from their type
// identifiers.
package curves

import (
	"slices"

	"github.com/Wizbisy/anonpoll/crypto/ecc"
	"github.com/Wizbisy/anonpoll/crypto/ecc/bn254"
)

// New creates a new instance of a curve point implementation based on the
// provided type string. If the type is not supported, it will panic. Use
// IsValid to check support first.
func New(curveType string) ecc.Point {
	switch curveType {
	case bn254.CurveType:
		return &bn254.G1{}
	default:
		panic("unsupported curve type: " + curveType)
	}
}

// Curves returns the list of supported curve types.
func Curves() []string {
	return []string{
		bn254.CurveType,
	}
}

// IsValid reports whether curveType names a supported curve.
func IsValid(curveType string) bool {
	return slices.Contains(Curves(), curveType)
}
