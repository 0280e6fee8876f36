package lnmodule

import (
	"bytes"

	"github.com/btcsuite/btcd/wire"
	"github.com/fedimint-go/lnmodule/contractcourt"
	"github.com/fedimint-go/lnmodule/contractdb"
	"github.com/fedimint-go/lnmodule/contracts"
	"github.com/fedimint-go/lnmodule/threshold"
)

// ValidateOutput checks a Contract-or-Offer output without mutating
// any state, returning its fee-computable value.
func (m *Module) ValidateOutput(out ContractOrOfferOutput) (OutputValidation, error) {
	if out.Offer != nil {
		if !threshold.VerifyCiphertext(out.Offer.EncryptedPreimage) {
			return OutputValidation{}, errInvalidEncryptedPreimage()
		}
		return OutputValidation{Amount: 0}, nil
	}

	contractOut := out.Contract

	if incoming, ok := contractOut.Contract.(contracts.IncomingContract); ok {
		offer, found, err := m.loadOffer(incoming.Hash)
		if err != nil {
			return OutputValidation{}, err
		}
		if !found {
			return OutputValidation{}, errNoOffer(incoming.Hash)
		}
		if contractOut.Amount < offer.Amount {
			return OutputValidation{}, errInsufficientIncomingFunding(offer.Amount, contractOut.Amount)
		}
	}

	if contractOut.Amount == 0 {
		return OutputValidation{}, errZeroOutput()
	}

	return OutputValidation{Amount: contractOut.Amount}, nil
}

// ApplyOutput re-validates out and queues its state transition into
// batch: upserting the contract account (or registering the offer),
// recording the ContractUpdate outcome, and — for a freshly funded
// Incoming contract — proposing this peer's decryption share and
// consuming the matching offer.
func (m *Module) ApplyOutput(op wire.OutPoint, out ContractOrOfferOutput, batch contractdb.Batch) (OutputValidation, error) {
	validation, err := m.ValidateOutput(out)
	if err != nil {
		return OutputValidation{}, err
	}

	if out.Offer != nil {
		offer := *out.Offer
		key := contractdb.OfferKey(offer.Hash)
		batch.MaybeUpdate(key, func([]byte) ([]byte, error) {
			var buf bytes.Buffer
			if err := offer.Encode(&buf); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		})

		var outcomeBuf bytes.Buffer
		if err := encodeOutputOutcome(&outcomeBuf, contracts.OfferOutputOutcome{ID: offer.Hash}); err != nil {
			return OutputValidation{}, err
		}
		if err := batch.InsertNew(contractdb.ContractUpdateKey(op), outcomeBuf.Bytes()); err != nil {
			return OutputValidation{}, err
		}
		return validation, nil
	}

	contractOut := *out.Contract
	id := contractOut.Contract.ContractID()
	accountKey := contractdb.ContractKey(id)

	batch.MaybeUpdate(accountKey, func(old []byte) ([]byte, error) {
		var account contracts.ContractAccount
		if old == nil {
			account = contracts.ContractAccount{
				Amount:   contractOut.Amount,
				Contract: contractOut.Contract.ToFunded(op),
			}
		} else {
			var err error
			account, err = contracts.DecodeContractAccount(bytes.NewReader(old))
			if err != nil {
				return nil, err
			}
			account.Amount += contractOut.Amount
		}

		var buf bytes.Buffer
		if err := account.Encode(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})

	outcome := contracts.ContractOutputOutcome{
		ID:      id,
		Outcome: contractOut.Contract.ToOutcome(),
	}
	var outcomeBuf bytes.Buffer
	if err := encodeOutputOutcome(&outcomeBuf, outcome); err != nil {
		return OutputValidation{}, err
	}
	if err := batch.InsertNew(contractdb.ContractUpdateKey(op), outcomeBuf.Bytes()); err != nil {
		return OutputValidation{}, err
	}

	if incoming, ok := contractOut.Contract.(contracts.IncomingContract); ok {
		share, err := m.cfg.SecretShare.MyShare(incoming.EncryptedPreimage)
		if err != nil {
			return OutputValidation{}, err
		}

		var shareBuf bytes.Buffer
		if err := share.Encode(&shareBuf); err != nil {
			return OutputValidation{}, err
		}
		batch.MaybeUpdate(contractdb.ProposeDecryptionShareKey(id), func([]byte) ([]byte, error) {
			return shareBuf.Bytes(), nil
		})

		batch.Delete(contractdb.OfferKey(incoming.Hash))

		resolver := contractcourt.NewDecryptionResolver(id, op, contractcourt.ResolverKit{Store: m.store})
		var resolverBuf bytes.Buffer
		if err := resolver.Encode(&resolverBuf); err != nil {
			return OutputValidation{}, err
		}
		batch.MaybeUpdate(contractdb.DecryptionResolverKey(id), func([]byte) ([]byte, error) {
			return resolverBuf.Bytes(), nil
		})
	}

	return validation, nil
}

func (m *Module) loadOffer(hash contracts.OfferID) (contracts.IncomingContractOffer, bool, error) {
	raw, err := m.store.GetValue(contractdb.OfferKey(hash))
	if err != nil {
		return contracts.IncomingContractOffer{}, false, err
	}
	if raw == nil {
		return contracts.IncomingContractOffer{}, false, nil
	}
	offer, err := contracts.DecodeIncomingContractOffer(bytes.NewReader(raw))
	if err != nil {
		return contracts.IncomingContractOffer{}, false, err
	}
	return offer, true, nil
}
