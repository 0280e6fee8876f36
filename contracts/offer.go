package contracts

import (
	"io"

	"github.com/fedimint-go/lnmodule/threshold"
)

// IncomingContractOffer is a pre-registered advertisement that any
// party may fund by creating a matching Incoming contract. It is keyed
// by Hash and consumed (deleted) the moment a valid Incoming contract
// is funded against it.
type IncomingContractOffer struct {
	Hash              OfferID
	Amount            uint64 // msat
	EncryptedPreimage threshold.Ciphertext
}

func (o IncomingContractOffer) Encode(w io.Writer) error {
	if _, err := w.Write(o.Hash[:]); err != nil {
		return err
	}
	if err := writeUint64(w, o.Amount); err != nil {
		return err
	}
	return o.EncryptedPreimage.Encode(w)
}

func DecodeIncomingContractOffer(r io.Reader) (IncomingContractOffer, error) {
	var o IncomingContractOffer
	if _, err := io.ReadFull(r, o.Hash[:]); err != nil {
		return o, err
	}
	var err error
	if o.Amount, err = readUint64(r); err != nil {
		return o, err
	}
	if err := o.EncryptedPreimage.Decode(r); err != nil {
		return o, err
	}
	return o, nil
}
