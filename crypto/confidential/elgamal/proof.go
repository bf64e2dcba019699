package elgamal

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/Wizbisy/anonpoll/crypto/ecc"
	"github.com/Wizbisy/anonpoll/crypto/ecc/curves"
	"github.com/Wizbisy/anonpoll/crypto/hash/poseidon"
)

// DecryptionProof is a non-interactive Chaum-Pedersen proof that msg is the
// correct decryption of a ciphertext (C1, C2) under public key P = d·G. It
// proves equality of discrete logs, log_G(P) = log_C1(C2 - M·G), without
// revealing the private key d. The sigma protocol is made non-interactive
// with the Fiat-Shamir transform over a Poseidon hash of all public data.
type DecryptionProof struct {
	A1 ecc.Point // = r·G   (commitment wrt base G)
	A2 ecc.Point // = r·C1  (commitment wrt base C1)
	Z  *big.Int  // = r + e·d (response)
}

// BuildDecryptionProof creates a Chaum-Pedersen NIZK proving that msg is the
// correct decryption of ciphertext (c1,c2) under privateKey.
func BuildDecryptionProof(
	privateKey *big.Int,
	publicKey ecc.Point,
	c1, c2 ecc.Point,
	msg *big.Int,
) (DecryptionProof, error) {
	order := publicKey.Order()

	// sample fresh randomness r in [1,order-1]
	r, err := rand.Int(rand.Reader, order)
	if err != nil {
		return DecryptionProof{}, fmt.Errorf("failed to sample r: %v", err)
	}
	if r.Sign() == 0 {
		r = big.NewInt(1)
	}

	// commitments A1 = r·G, A2 = r·C1
	a1 := publicKey.New()
	a1.ScalarBaseMult(r)
	a2 := publicKey.New()
	a2.ScalarMult(c1, r)

	d := sharedSecretPart(publicKey, c2, msg)

	// Fiat-Shamir challenge e = H(P,C1,D,A1,A2) mod order
	e := hashPointsToScalar(publicKey, c1, d, a1, a2)

	// response z = r + e·d mod order
	z := new(big.Int).Mul(e, privateKey)
	z.Add(z, r)
	z.Mod(z, order)

	return DecryptionProof{A1: a1, A2: a2, Z: z}, nil
}

// VerifyDecryptionProof checks a Chaum-Pedersen proof of correct decryption.
// Returns nil if the proof is valid.
func VerifyDecryptionProof(
	publicKey ecc.Point,
	c1, c2 ecc.Point,
	msg *big.Int,
	proof DecryptionProof,
) error {
	d := sharedSecretPart(publicKey, c2, msg)
	e := hashPointsToScalar(publicKey, c1, d, proof.A1, proof.A2)

	// check 1: z·G == A1 + e·P
	left1 := publicKey.New()
	left1.ScalarBaseMult(proof.Z)
	right1 := publicKey.New()
	right1.Set(proof.A1)
	tmp := publicKey.New()
	tmp.ScalarMult(publicKey, e)
	right1.Add(right1, tmp)
	if !left1.Equal(right1) {
		return fmt.Errorf("invalid proof: first equation fails")
	}

	// check 2: z·C1 == A2 + e·D
	left2 := publicKey.New()
	left2.ScalarMult(c1, proof.Z)
	right2 := publicKey.New()
	right2.Set(proof.A2)
	tmp.ScalarMult(d, e)
	right2.Add(right2, tmp)
	if !left2.Equal(right2) {
		return fmt.Errorf("invalid proof: second equation fails")
	}
	return nil
}

// sharedSecretPart computes D = C2 - M·G, the shared secret part of the
// ciphertext for plaintext msg.
func sharedSecretPart(publicKey, c2 ecc.Point, msg *big.Int) ecc.Point {
	msg = new(big.Int).Mod(msg, publicKey.Order())
	m := publicKey.New()
	m.ScalarBaseMult(msg)
	d := publicKey.New()
	d.Set(c2)
	negM := publicKey.New()
	negM.Neg(m)
	d.Add(d, negM)
	return d
}

// IngestionProof is a Schnorr proof of knowledge of the encryption nonce of
// a ciphertext. It proves that the submitter produced C1 = k·G for a k they
// know, with the challenge bound to the slot the ciphertext is counted for.
// A ciphertext proved for one slot cannot be replayed into another, because
// the binding data changes the challenge.
type IngestionProof struct {
	A ecc.Point // = r·G    (commitment)
	Z *big.Int  // = r + e·k (response)
}

// BuildIngestionProof creates a Schnorr NIZK over the encryption nonce k of
// ct, bound to the given context scalars.
func BuildIngestionProof(
	k *big.Int,
	publicKey ecc.Point,
	ct *Ciphertext,
	binding ...*big.Int,
) (IngestionProof, error) {
	order := publicKey.Order()

	r, err := rand.Int(rand.Reader, order)
	if err != nil {
		return IngestionProof{}, fmt.Errorf("failed to sample r: %v", err)
	}
	if r.Sign() == 0 {
		r = big.NewInt(1)
	}

	a := publicKey.New()
	a.ScalarBaseMult(r)

	e := ingestionChallenge(publicKey, ct, a, binding)

	z := new(big.Int).Mul(e, k)
	z.Add(z, r)
	z.Mod(z, order)

	return IngestionProof{A: a, Z: z}, nil
}

// VerifyIngestionProof checks a Schnorr proof of nonce knowledge for ct
// under the given binding scalars. Returns nil if the proof is valid.
func VerifyIngestionProof(
	publicKey ecc.Point,
	ct *Ciphertext,
	proof IngestionProof,
	binding ...*big.Int,
) error {
	e := ingestionChallenge(publicKey, ct, proof.A, binding)

	// check z·G == A + e·C1
	left := publicKey.New()
	left.ScalarBaseMult(proof.Z)
	right := publicKey.New()
	right.Set(proof.A)
	tmp := publicKey.New()
	tmp.ScalarMult(ct.C1, e)
	right.Add(right, tmp)
	if !left.Equal(right) {
		return fmt.Errorf("invalid proof: schnorr equation fails")
	}
	return nil
}

// ingestionChallenge derives the Fiat-Shamir challenge for an ingestion
// proof, folding the binding scalars, the public key, the full ciphertext
// and the commitment point into a Poseidon hash.
func ingestionChallenge(publicKey ecc.Point, ct *Ciphertext, a ecc.Point, binding []*big.Int) *big.Int {
	order := publicKey.Order()
	inputs := make([]*big.Int, 0, len(binding)+8)
	for _, b := range binding {
		inputs = append(inputs, new(big.Int).Mod(b, order))
	}
	for _, p := range []ecc.Point{publicKey, ct.C1, ct.C2, a} {
		x, y := p.Point()
		inputs = append(inputs, x, y)
	}
	return hashToScalar(order, inputs)
}

// hashPointsToScalar hashes a sequence of points to a scalar below order
// using Poseidon. This is the Fiat-Shamir transform.
func hashPointsToScalar(pts ...ecc.Point) *big.Int {
	inputs := []*big.Int{}
	for _, p := range pts {
		x, y := p.Point()
		inputs = append(inputs, x, y)
	}
	return hashToScalar(pts[0].Order(), inputs)
}

func hashToScalar(order *big.Int, inputs []*big.Int) *big.Int {
	digest, err := poseidon.MultiPoseidon(inputs...)
	if err != nil {
		panic(fmt.Sprintf("failed to hash scalars: %v", err))
	}
	return digest.Mod(digest, order)
}

// serializedProof is the shared wire form of the proof types. Points are
// carried in their curve-native marshaled encoding.
type serializedProof struct {
	CurveType string `cbor:"1,keyasint"`
	P1        []byte `cbor:"2,keyasint"`
	P2        []byte `cbor:"3,keyasint,omitempty"`
	Z         []byte `cbor:"4,keyasint"`
}

// Serialize encodes the decryption proof into its byte form.
func (p *DecryptionProof) Serialize() ([]byte, error) {
	return cbor.Marshal(&serializedProof{
		CurveType: p.A1.Type(),
		P1:        p.A1.Marshal(),
		P2:        p.A2.Marshal(),
		Z:         p.Z.Bytes(),
	})
}

// DeserializeDecryptionProof decodes a decryption proof from its byte form.
func DeserializeDecryptionProof(data []byte) (*DecryptionProof, error) {
	points, z, err := decodeProof(data, 2)
	if err != nil {
		return nil, err
	}
	return &DecryptionProof{A1: points[0], A2: points[1], Z: z}, nil
}

// Serialize encodes the ingestion proof into its byte form.
func (p *IngestionProof) Serialize() ([]byte, error) {
	return cbor.Marshal(&serializedProof{
		CurveType: p.A.Type(),
		P1:        p.A.Marshal(),
		Z:         p.Z.Bytes(),
	})
}

// DeserializeIngestionProof decodes an ingestion proof from its byte form.
func DeserializeIngestionProof(data []byte) (*IngestionProof, error) {
	points, z, err := decodeProof(data, 1)
	if err != nil {
		return nil, err
	}
	return &IngestionProof{A: points[0], Z: z}, nil
}

func decodeProof(data []byte, numPoints int) ([]ecc.Point, *big.Int, error) {
	var s serializedProof
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, nil, fmt.Errorf("could not decode proof: %w", err)
	}
	if !curves.IsValid(s.CurveType) {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidCurveType, s.CurveType)
	}
	curve := curves.New(s.CurveType)
	raw := [][]byte{s.P1, s.P2}
	points := make([]ecc.Point, 0, numPoints)
	for i := 0; i < numPoints; i++ {
		p := curve.New()
		if err := p.Unmarshal(raw[i]); err != nil {
			return nil, nil, fmt.Errorf("could not decode proof point: %w", err)
		}
		points = append(points, p)
	}
	return points, new(big.Int).SetBytes(s.Z), nil
}
