// Package lnmodule is the Lightning bridge module: the contract input
// and output validators/appliers, the threshold-decryption epoch
// hooks, and the FederationModule capability set the surrounding BFT
// engine drives them through.
package lnmodule

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"
	"github.com/fedimint-go/lnmodule/contractdb"
	"github.com/fedimint-go/lnmodule/contracts"
	"github.com/fedimint-go/lnmodule/threshold"
)

// ContractInput is the Lightning-kind transaction input: a spend
// authorization against an existing contract account.
type ContractInput struct {
	ContractID contracts.ContractID
	Amount     uint64 // msat
	Witness    Witness
}

// Witness carries the data an Outgoing spend submits before the
// contract's timelock expires.
type Witness struct {
	Preimage *[32]byte
}

// ContractOrOfferOutput is the Lightning-kind transaction output.
// Exactly one of Contract or Offer is set.
type ContractOrOfferOutput struct {
	Contract *contracts.ContractOutput
	Offer    *contracts.IncomingContractOffer
}

// InputValidation is what validate_input and apply_input return: the
// debited amount and the keys the engine must verify a signature
// against.
type InputValidation struct {
	Amount         uint64
	AuthorizingKey *btcec.PublicKey
}

// OutputValidation is what validate_output and apply_output return:
// the fee-computable value of the output.
type OutputValidation struct {
	Amount uint64
}

// DecryptionShareCI is the consensus item this module proposes: one
// peer's decryption share for one pending Incoming contract.
type DecryptionShareCI struct {
	ContractID contracts.ContractID
	PeerID     contractdb.PeerID
	Share      threshold.DecryptionShare
}

// OutputRef names the transaction output validate/apply operate on.
type OutputRef struct {
	OutPoint wire.OutPoint
}
