package contracts

import (
	"fmt"
	"io"
)

// ContractOutcome mirrors a contract's variant in the per-output
// outcome record. For Outgoing and Account it carries no extra state;
// for Incoming it tracks DecryptedPreimage in lockstep with the
// FundedIncoming's own field of the same name.
type ContractOutcome interface {
	Kind() Kind
	Encode(w io.Writer) error
}

type OutgoingOutcome struct{}

func (OutgoingOutcome) Kind() Kind            { return KindOutgoing }
func (OutgoingOutcome) Encode(io.Writer) error { return nil }

type AccountOutcome struct{}

func (AccountOutcome) Kind() Kind            { return KindAccount }
func (AccountOutcome) Encode(io.Writer) error { return nil }

type IncomingOutcome struct {
	DecryptedPreimage PreimageState
}

func (IncomingOutcome) Kind() Kind { return KindIncoming }

func (o IncomingOutcome) Encode(w io.Writer) error {
	return o.DecryptedPreimage.Encode(w)
}

// DecodeContractOutcome reads a ContractOutcome written by Encode.
func DecodeContractOutcome(kind Kind, r io.Reader) (ContractOutcome, error) {
	switch kind {
	case KindOutgoing:
		return OutgoingOutcome{}, nil
	case KindAccount:
		return AccountOutcome{}, nil
	case KindIncoming:
		state, err := DecodePreimageState(r)
		if err != nil {
			return nil, err
		}
		return IncomingOutcome{DecryptedPreimage: state}, nil
	default:
		return nil, fmt.Errorf("contracts: unknown kind %d", kind)
	}
}

// OutputOutcome is the per-transaction-output record exposed through
// Module.OutputStatus: either the result of funding/spending a
// contract, or the registration of an offer.
type OutputOutcome interface {
	isOutputOutcome()
}

// ContractOutputOutcome is recorded for every Contract output.
type ContractOutputOutcome struct {
	ID      ContractID
	Outcome ContractOutcome
}

func (ContractOutputOutcome) isOutputOutcome() {}

// OfferOutputOutcome is recorded for every Offer output.
type OfferOutputOutcome struct {
	ID OfferID
}

func (OfferOutputOutcome) isOutputOutcome() {}
