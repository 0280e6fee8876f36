package contracts

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"
)

// PreimageStatus is the state of an Incoming contract's preimage
// decryption. It transitions at most once, and only away from
// Pending.
type PreimageStatus uint8

const (
	// PreimagePending means decryption has not yet reached threshold.
	PreimagePending PreimageStatus = iota
	// PreimageSome means decryption succeeded and produced Preimage, a
	// valid Schnorr public key hashing to the contract's Hash.
	PreimageSome
	// PreimageInvalid means decryption completed but the combined
	// plaintext did not match Hash, or wasn't a valid public key.
	PreimageInvalid
)

// PreimageState is a FundedIncoming's decryption outcome. Preimage is
// only meaningful when Status == PreimageSome.
type PreimageState struct {
	Status   PreimageStatus
	Preimage *btcec.PublicKey
}

func (s PreimageState) Encode(w io.Writer) error {
	if _, err := w.Write([]byte{byte(s.Status)}); err != nil {
		return err
	}
	if s.Status != PreimageSome {
		return nil
	}
	return writePubKey(w, s.Preimage)
}

func DecodePreimageState(r io.Reader) (PreimageState, error) {
	var statusByte [1]byte
	if _, err := io.ReadFull(r, statusByte[:]); err != nil {
		return PreimageState{}, err
	}
	s := PreimageState{Status: PreimageStatus(statusByte[0])}
	if s.Status != PreimageSome {
		return s, nil
	}
	key, err := readPubKey(r)
	if err != nil {
		return PreimageState{}, err
	}
	s.Preimage = key
	return s, nil
}

// FundedContract is the on-disk counterpart of Contract, stored inside
// a ContractAccount once an output has funded it.
type FundedContract interface {
	Kind() Kind
	Encode(w io.Writer) error
}

// FundedOutgoing is a funded OutgoingContract; it carries no
// additional state beyond the contract itself.
type FundedOutgoing struct {
	OutgoingContract
}

func (f FundedOutgoing) Kind() Kind { return KindOutgoing }

func (f FundedOutgoing) Encode(w io.Writer) error {
	return f.OutgoingContract.Encode(w)
}

// FundedAccount is a funded AccountContract.
type FundedAccount struct {
	AccountContract
}

func (f FundedAccount) Kind() Kind { return KindAccount }

func (f FundedAccount) Encode(w io.Writer) error {
	return f.AccountContract.Encode(w)
}

// FundedIncoming is a funded IncomingContract. Unlike the other two
// variants it carries the OutPoint that created it (so end-epoch
// finalization can find the matching OutputOutcome) and the mutable
// DecryptedPreimage state.
type FundedIncoming struct {
	IncomingContract
	OutPoint          wire.OutPoint
	DecryptedPreimage PreimageState
}

func (f FundedIncoming) Kind() Kind { return KindIncoming }

func (f FundedIncoming) Encode(w io.Writer) error {
	if err := f.IncomingContract.Encode(w); err != nil {
		return err
	}
	if err := writeOutPoint(w, f.OutPoint); err != nil {
		return err
	}
	return f.DecryptedPreimage.Encode(w)
}

// DecodeFundedContract reads a FundedContract previously written by
// Encode, dispatching on kind.
func DecodeFundedContract(kind Kind, r io.Reader) (FundedContract, error) {
	switch kind {
	case KindOutgoing:
		c, err := DecodeOutgoingContract(r)
		if err != nil {
			return nil, err
		}
		return FundedOutgoing{OutgoingContract: c}, nil
	case KindAccount:
		c, err := DecodeAccountContract(r)
		if err != nil {
			return nil, err
		}
		return FundedAccount{AccountContract: c}, nil
	case KindIncoming:
		c, err := DecodeIncomingContract(r)
		if err != nil {
			return nil, err
		}
		op, err := readOutPoint(r)
		if err != nil {
			return nil, err
		}
		state, err := DecodePreimageState(r)
		if err != nil {
			return nil, err
		}
		return FundedIncoming{
			IncomingContract:  c,
			OutPoint:          op,
			DecryptedPreimage: state,
		}, nil
	default:
		return nil, fmt.Errorf("contracts: unknown kind %d", kind)
	}
}

func writeOutPoint(w io.Writer, op wire.OutPoint) error {
	if _, err := w.Write(op.Hash[:]); err != nil {
		return err
	}
	return writeUint32(w, op.Index)
}

func readOutPoint(r io.Reader) (wire.OutPoint, error) {
	var op wire.OutPoint
	if _, err := io.ReadFull(r, op.Hash[:]); err != nil {
		return op, err
	}
	idx, err := readUint32(r)
	if err != nil {
		return op, err
	}
	op.Index = idx
	return op, nil
}
