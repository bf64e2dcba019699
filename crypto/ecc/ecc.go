// Package ecc defines the elliptic curve point interface used by the
// confidential tally scheme. Implementations wrap a concrete curve library
// behind a mutable point API.
package ecc

import "math/big"

// Point defines the interface for elliptic curve points. Operations store
// their result in the receiver, so a Point behaves like a mutable value.
type Point interface {
	// New returns a fresh point of the same curve, set to the identity.
	New() Point
	// Order returns the order of the curve group.
	Order() *big.Int
	// Add sets the receiver to a + b.
	Add(a, b Point)
	// SafeAdd is like Add but safe for concurrent use of the receiver.
	SafeAdd(a, b Point)
	// ScalarMult sets the receiver to scalar * a.
	ScalarMult(a Point, scalar *big.Int)
	// ScalarBaseMult sets the receiver to scalar * G, where G is the curve
	// generator.
	ScalarBaseMult(scalar *big.Int)
	// Marshal serializes the point to a deterministic byte encoding.
	Marshal() []byte
	// Unmarshal deserializes a point from its byte encoding.
	Unmarshal(buf []byte) error
	// Equal reports whether the receiver and a are the same point.
	Equal(a Point) bool
	// Neg sets the receiver to -a.
	Neg(a Point)
	// SetZero sets the point to the identity element.
	SetZero()
	// Set copies a into the receiver.
	Set(a Point)
	// SetGenerator sets the point to the curve generator.
	SetGenerator()
	// Point returns the affine x and y coordinates.
	Point() (*big.Int, *big.Int)
	// SetPoint sets the point to the given affine coordinates and returns it.
	SetPoint(x, y *big.Int) Point
	// Type returns the curve type identifier.
	Type() string
	// String returns a hex representation of the marshaled point.
	String() string
}
