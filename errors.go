package pbmt

import (
	"errors"
	"strconv"
)

// ErrInvalidLeafCount is matched by every [InvalidLeafCountError]
// through [errors.Is].
var ErrInvalidLeafCount = errors.New("leaf count must be a positive power of two")

// ErrMalformedProof is wrapped by errors from [Proof.Validate]
// and [*Proof.UnmarshalBinary].
var ErrMalformedProof = errors.New("malformed proof")

// InvalidLeafCountError is returned from [NewTree]
// when the number of leaves is zero or not a power of two.
type InvalidLeafCountError struct {
	Count int
}

func (e InvalidLeafCountError) Error() string {
	return "invalid leaf count " + strconv.Itoa(e.Count) + ": must be a positive power of two"
}

func (e InvalidLeafCountError) Is(target error) bool {
	return target == ErrInvalidLeafCount
}
