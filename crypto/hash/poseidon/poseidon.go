// Package poseidon provides hash helpers based on the Poseidon hash
// function.
package poseidon

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
)

// MultiPoseidon computes the Poseidon hash of a variable number of big.Int
// inputs. Poseidon accepts at most 16 inputs per invocation, so larger input
// sets are chunked into groups of 16, each chunk hashed, and the chunk
// hashes hashed together recursively. Returns an error if no inputs are
// provided.
func MultiPoseidon(inputs ...*big.Int) (*big.Int, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs provided")
	}
	if len(inputs) <= 16 {
		return poseidon.Hash(inputs)
	}

	numChunks := (len(inputs) + 15) / 16
	hashes := make([]*big.Int, 0, numChunks)
	for i := 0; i < len(inputs); i += 16 {
		end := min(i+16, len(inputs))
		hash, err := poseidon.Hash(inputs[i:end])
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	if len(hashes) == 1 {
		return hashes[0], nil
	}
	if len(hashes) <= 16 {
		return poseidon.Hash(hashes)
	}
	return MultiPoseidon(hashes...)
}
