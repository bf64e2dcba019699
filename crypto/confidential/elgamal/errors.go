package elgamal

import "fmt"

// ErrInvalidCurveType is returned when a ciphertext references an
// unsupported curve type.
var ErrInvalidCurveType = fmt.Errorf("invalid curve type")
