package elgamal

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/Wizbisy/anonpoll/crypto/ecc"
	"github.com/Wizbisy/anonpoll/crypto/ecc/curves"
)

// Ciphertext is an ElGamal ciphertext (C1, C2) over the curve named by
// CurveType. The zero ciphertext has both points at the identity and is the
// additive identity of the homomorphic sum.
type Ciphertext struct {
	CurveType string
	C1        ecc.Point
	C2        ecc.Point
}

// serializedCiphertext is the wire form of a Ciphertext. Points are carried
// in their curve-native marshaled encoding, the identity as an empty slice.
type serializedCiphertext struct {
	CurveType string `cbor:"1,keyasint"`
	C1        []byte `cbor:"2,keyasint"`
	C2        []byte `cbor:"3,keyasint"`
}

// NewCiphertext creates a zero ciphertext for the given curve.
func NewCiphertext(curve ecc.Point) *Ciphertext {
	z := &Ciphertext{CurveType: curve.Type()}
	z.C1 = curve.New()
	z.C2 = curve.New()
	z.C1.SetZero()
	z.C2.SetZero()
	return z
}

// Encrypt sets the receiver to an encryption of msg under publicKey using
// the nonce k, and returns the receiver. If k is nil a fresh nonce is
// generated; the nonce used is returned alongside.
func (z *Ciphertext) Encrypt(msg *big.Int, publicKey ecc.Point, k *big.Int) (*Ciphertext, *big.Int, error) {
	var err error
	if k == nil {
		k, err = RandK(publicKey)
		if err != nil {
			return nil, nil, fmt.Errorf("elgamal encryption failed: %w", err)
		}
	}
	c1, c2 := EncryptWithK(publicKey, msg, k)
	z.CurveType = publicKey.Type()
	z.C1 = c1
	z.C2 = c2
	return z, k, nil
}

// Add sets the receiver to the homomorphic sum a + b and returns it. Both
// operands must live on the same curve.
func (z *Ciphertext) Add(a, b *Ciphertext) *Ciphertext {
	z.CurveType = a.CurveType
	z.C1 = a.C1.New()
	z.C1.Add(a.C1, b.C1)
	z.C2 = a.C2.New()
	z.C2.Add(a.C2, b.C2)
	return z
}

// IsZero reports whether the ciphertext is the additive identity.
func (z *Ciphertext) IsZero() bool {
	zero := z.C1.New()
	zero.SetZero()
	return z.C1.Equal(zero) && z.C2.Equal(zero)
}

// Serialize encodes the ciphertext into its canonical byte form, used as the
// opaque handle by the capability interface.
func (z *Ciphertext) Serialize() ([]byte, error) {
	s := serializedCiphertext{CurveType: z.CurveType}
	zero := z.C1.New()
	zero.SetZero()
	if !z.C1.Equal(zero) {
		s.C1 = z.C1.Marshal()
	}
	zero.SetZero()
	if !z.C2.Equal(zero) {
		s.C2 = z.C2.Marshal()
	}
	return cbor.Marshal(&s)
}

// DeserializeCiphertext decodes a ciphertext from its canonical byte form.
func DeserializeCiphertext(data []byte) (*Ciphertext, error) {
	var s serializedCiphertext
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("could not decode ciphertext: %w", err)
	}
	if !curves.IsValid(s.CurveType) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCurveType, s.CurveType)
	}
	curve := curves.New(s.CurveType)
	z := NewCiphertext(curve)
	if len(s.C1) > 0 {
		if err := z.C1.Unmarshal(s.C1); err != nil {
			return nil, fmt.Errorf("could not decode c1: %w", err)
		}
	}
	if len(s.C2) > 0 {
		if err := z.C2.Unmarshal(s.C2); err != nil {
			return nil, fmt.Errorf("could not decode c2: %w", err)
		}
	}
	return z, nil
}
