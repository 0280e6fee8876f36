package contracts

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"
)

// AccountContract is a simple account spendable by a single key.
type AccountContract struct {
	Key *btcec.PublicKey
}

var _ Contract = AccountContract{}

func (c AccountContract) Kind() Kind { return KindAccount }

func (c AccountContract) Encode(w io.Writer) error {
	return writePubKey(w, c.Key)
}

// DecodeAccountContract reads an AccountContract written by Encode.
func DecodeAccountContract(r io.Reader) (AccountContract, error) {
	key, err := readPubKey(r)
	if err != nil {
		return AccountContract{}, err
	}
	return AccountContract{Key: key}, nil
}

func (c AccountContract) ContractID() ContractID {
	return contractID(c)
}

func (c AccountContract) ToFunded(_ wire.OutPoint) FundedContract {
	return FundedAccount{AccountContract: c}
}

func (c AccountContract) ToOutcome() ContractOutcome {
	return AccountOutcome{}
}
