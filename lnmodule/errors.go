package lnmodule

import "fmt"

// ErrorKind discriminates the validation-failure reasons this module
// can return to the enclosing transaction engine. Every one of these
// is a per-transaction user fault, never an engine fault, and must
// never be logged as a module error.
type ErrorKind uint8

const (
	// ErrUnknownContract: the input's contract_id has no ContractAccount.
	ErrUnknownContract ErrorKind = iota
	// ErrInsufficientFunds: the account balance is below the input amount.
	ErrInsufficientFunds
	// ErrMissingPreimage: an Outgoing spend before timelock lacked a witness preimage.
	ErrMissingPreimage
	// ErrInvalidPreimage: the witness preimage did not hash to the contract's hash.
	ErrInvalidPreimage
	// ErrContractNotReady: an Incoming contract was spent before decryption finished.
	ErrContractNotReady
	// ErrZeroOutput: a non-offer contract output had amount 0.
	ErrZeroOutput
	// ErrInvalidEncryptedPreimage: an offer's threshold ciphertext failed verification.
	ErrInvalidEncryptedPreimage
	// ErrInsufficientIncomingFunding: an Incoming output under-funded its offer.
	ErrInsufficientIncomingFunding
	// ErrNoOffer: an Incoming output referenced a hash with no registered offer.
	ErrNoOffer
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnknownContract:
		return "unknown_contract"
	case ErrInsufficientFunds:
		return "insufficient_funds"
	case ErrMissingPreimage:
		return "missing_preimage"
	case ErrInvalidPreimage:
		return "invalid_preimage"
	case ErrContractNotReady:
		return "contract_not_ready"
	case ErrZeroOutput:
		return "zero_output"
	case ErrInvalidEncryptedPreimage:
		return "invalid_encrypted_preimage"
	case ErrInsufficientIncomingFunding:
		return "insufficient_incoming_funding"
	case ErrNoOffer:
		return "no_offer"
	default:
		return fmt.Sprintf("unknown_error_kind(%d)", uint8(k))
	}
}

// Error is a validation failure returned to the transaction engine. It
// is a plain user fault carrying a discriminant the engine can branch
// on and, for the kinds that need them, the have/want values behind
// the rejection.
type Error struct {
	Kind  ErrorKind
	Have  uint64
	Want  uint64
	Extra string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrInsufficientFunds:
		return fmt.Sprintf("insufficient funds: have %d msat, want %d msat", e.Have, e.Want)
	case ErrInsufficientIncomingFunding:
		return fmt.Sprintf("insufficient incoming funding: required %d msat, given %d msat", e.Want, e.Have)
	case ErrUnknownContract, ErrNoOffer:
		return fmt.Sprintf("%s: %s", e.Kind, e.Extra)
	default:
		return e.Kind.String()
	}
}

func errUnknownContract(id fmt.Stringer) error {
	return &Error{Kind: ErrUnknownContract, Extra: id.String()}
}

func errInsufficientFunds(have, want uint64) error {
	return &Error{Kind: ErrInsufficientFunds, Have: have, Want: want}
}

func errMissingPreimage() error {
	return &Error{Kind: ErrMissingPreimage}
}

func errInvalidPreimage() error {
	return &Error{Kind: ErrInvalidPreimage}
}

func errContractNotReady() error {
	return &Error{Kind: ErrContractNotReady}
}

func errZeroOutput() error {
	return &Error{Kind: ErrZeroOutput}
}

func errInvalidEncryptedPreimage() error {
	return &Error{Kind: ErrInvalidEncryptedPreimage}
}

func errInsufficientIncomingFunding(required, given uint64) error {
	return &Error{Kind: ErrInsufficientIncomingFunding, Have: given, Want: required}
}

func errNoOffer(hash fmt.Stringer) error {
	return &Error{Kind: ErrNoOffer, Extra: hash.String()}
}
