package contracts

import (
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// OutgoingContract is an HTLC-style escrow funding a payout over
// Lightning. The gateway may claim it before Timelock by presenting
// the preimage of Hash; the user may reclaim it after Timelock.
type OutgoingContract struct {
	Hash       chainhash.Hash
	Timelock   uint32
	GatewayKey *btcec.PublicKey
	UserKey    *btcec.PublicKey
}

var _ Contract = OutgoingContract{}

func (c OutgoingContract) Kind() Kind { return KindOutgoing }

func (c OutgoingContract) Encode(w io.Writer) error {
	if _, err := w.Write(c.Hash[:]); err != nil {
		return err
	}
	if err := writeUint32(w, c.Timelock); err != nil {
		return err
	}
	if err := writePubKey(w, c.GatewayKey); err != nil {
		return err
	}
	return writePubKey(w, c.UserKey)
}

// DecodeOutgoingContract reads an OutgoingContract written by Encode.
func DecodeOutgoingContract(r io.Reader) (OutgoingContract, error) {
	var c OutgoingContract
	if _, err := io.ReadFull(r, c.Hash[:]); err != nil {
		return c, err
	}
	var err error
	if c.Timelock, err = readUint32(r); err != nil {
		return c, err
	}
	if c.GatewayKey, err = readPubKey(r); err != nil {
		return c, err
	}
	if c.UserKey, err = readPubKey(r); err != nil {
		return c, err
	}
	return c, nil
}

func (c OutgoingContract) ContractID() ContractID {
	return contractID(c)
}

func (c OutgoingContract) ToFunded(_ wire.OutPoint) FundedContract {
	return FundedOutgoing{OutgoingContract: c}
}

func (c OutgoingContract) ToOutcome() ContractOutcome {
	return OutgoingOutcome{}
}
