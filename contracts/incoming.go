package contracts

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/fedimint-go/lnmodule/threshold"
)

// IncomingContract is the reverse direction of an OutgoingContract: a
// gateway funds it on behalf of a user who is selling a preimage whose
// hash is Hash. EncryptedPreimage reveals the preimage only once a
// threshold of the federation agrees to decrypt it.
type IncomingContract struct {
	Hash              chainhash.Hash
	EncryptedPreimage threshold.Ciphertext
	GatewayKey        *btcec.PublicKey
}

var _ Contract = IncomingContract{}

func (c IncomingContract) Kind() Kind { return KindIncoming }

func (c IncomingContract) Encode(w io.Writer) error {
	if _, err := w.Write(c.Hash[:]); err != nil {
		return err
	}
	if err := c.EncryptedPreimage.Encode(w); err != nil {
		return err
	}
	return writePubKey(w, c.GatewayKey)
}

// DecodeIncomingContract reads an IncomingContract written by Encode.
func DecodeIncomingContract(r io.Reader) (IncomingContract, error) {
	var c IncomingContract
	if _, err := io.ReadFull(r, c.Hash[:]); err != nil {
		return c, err
	}
	if err := c.EncryptedPreimage.Decode(r); err != nil {
		return c, err
	}
	var err error
	if c.GatewayKey, err = readPubKey(r); err != nil {
		return c, err
	}
	return c, nil
}

func (c IncomingContract) ContractID() ContractID {
	return contractID(c)
}

func (c IncomingContract) ToFunded(op wire.OutPoint) FundedContract {
	return FundedIncoming{
		IncomingContract:  c,
		OutPoint:          op,
		DecryptedPreimage: PreimageState{Status: PreimagePending},
	}
}

func (c IncomingContract) ToOutcome() ContractOutcome {
	return IncomingOutcome{DecryptedPreimage: PreimageState{Status: PreimagePending}}
}
