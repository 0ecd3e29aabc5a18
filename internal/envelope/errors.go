package envelope

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Class groups envelope errors by how a caller should react to them.
// None of the classes is retryable.
type Class int

const (
	ClassUnknown Class = iota
	// ClassStructural covers truncated bytes, wrong element counts and unknown tags.
	ClassStructural
	// ClassSemantic covers invariant violations raised by Assert.
	ClassSemantic
	// ClassCryptographic covers unrecoverable or mismatching signatures.
	ClassCryptographic
)

func (c Class) String() string {
	switch c {
	case ClassStructural:
		return "structural"
	case ClassSemantic:
		return "semantic"
	case ClassCryptographic:
		return "cryptographic"
	default:
		return "unknown"
	}
}

// Structural errors.
var (
	ErrMalformedEnvelope   = errors.New("malformed signature envelope")
	ErrUnknownScheme       = errors.New("unknown signature scheme")
	ErrInvalidSerialized   = errors.New("invalid serialized transaction")
	ErrUnknownTxType       = errors.New("unknown transaction type")
	ErrNonCanonicalInteger = errors.New("non-canonical integer encoding")
	ErrIntegerOverflow     = errors.New("integer overflows field width")
	ErrMalformedRLP        = errors.New("malformed rlp")
)

// Semantic errors.
var (
	ErrEmptyCalls            = errors.New("calls must not be empty")
	ErrInvalidValidityWindow = errors.New("validBefore must be greater than validAfter")
	ErrInvalidAddress        = errors.New("invalid address")
	ErrInvalidChainID        = errors.New("chain id must be greater than zero")
	ErrFeeCapTooHigh         = errors.New("max fee per gas exceeds 2^256-1")
	ErrTipAboveFeeCap        = errors.New("max priority fee per gas exceeds max fee per gas")
	ErrInvalidNonceKey       = errors.New("nonce key exceeds 192 bits")
	ErrInvalidAuthorization  = errors.New("invalid authorization")
	ErrInvalidExpiry         = errors.New("expiry exceeds 48 bits")
)

// Cryptographic errors.
var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrSenderUnknown    = errors.New("sender cannot be determined without a signature")
	ErrFeePayerUnknown  = errors.New("fee payer signature missing")
)

var classes = map[Class][]error{
	ClassStructural: {
		ErrMalformedEnvelope, ErrUnknownScheme, ErrInvalidSerialized, ErrUnknownTxType,
		ErrNonCanonicalInteger, ErrIntegerOverflow, ErrMalformedRLP,
	},
	ClassSemantic: {
		ErrEmptyCalls, ErrInvalidValidityWindow, ErrInvalidAddress, ErrInvalidChainID,
		ErrFeeCapTooHigh, ErrTipAboveFeeCap, ErrInvalidNonceKey, ErrInvalidAuthorization,
		ErrInvalidExpiry,
	},
	ClassCryptographic: {ErrInvalidSignature, ErrSenderUnknown, ErrFeePayerUnknown},
}

// ClassOf reports the class of an error returned by any envelope package.
func ClassOf(err error) Class {
	if err == nil {
		return ClassUnknown
	}

	for _, class := range []Class{ClassStructural, ClassSemantic, ClassCryptographic} {
		for _, target := range classes[class] {
			if errors.Is(err, target) {
				return class
			}
		}
	}

	return ClassUnknown
}

// InvalidSerializedError is returned when a transaction list has the wrong
// number of elements. It names every missing or unexpected field.
type InvalidSerializedError struct {
	Kind    string
	Missing []string
	Extra   []string
}

func NewInvalidSerializedError(kind string, names []string, got int) *InvalidSerializedError {
	e := &InvalidSerializedError{Kind: kind}
	if got < len(names) {
		e.Missing = append(e.Missing, names[got:]...)
	}
	for i := len(names); i < got; i++ {
		e.Extra = append(e.Extra, fmt.Sprintf("element[%d]", i))
	}

	return e
}

func (e *InvalidSerializedError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Extra, ", "))
	}

	return fmt.Sprintf("%s: %s transaction: %s", ErrInvalidSerialized, e.Kind, strings.Join(parts, "; "))
}

func (e *InvalidSerializedError) Is(target error) bool {
	return target == ErrInvalidSerialized
}
