package lnmodule

import (
	"bytes"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/wire"
	"github.com/fedimint-go/lnmodule/contractdb"
	"github.com/fedimint-go/lnmodule/contracts"
)

// Module is the Lightning bridge module: it implements the
// FederationModule capability set over a KVStore and the guardian's
// threshold-crypto configuration.
type Module struct {
	cfg   Config
	store contractdb.KVStore
}

// New builds a Module bound to store and configured with cfg.
func New(cfg Config, store contractdb.KVStore) *Module {
	return &Module{cfg: cfg, store: store}
}

// OutputStatus returns the OutputOutcome recorded for a transaction
// output, or nil if no ContractUpdate row exists for it yet.
func (m *Module) OutputStatus(op wire.OutPoint) (contracts.OutputOutcome, error) {
	raw, err := m.store.GetValue(contractdb.ContractUpdateKey(op))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return decodeOutputOutcome(bytes.NewReader(raw))
}

// Offers returns every currently registered IncomingContractOffer.
// This supplements the FederationModule capability set with a
// read-only lookup surface gateways need to answer "can I fund this
// hash" before constructing an Incoming contract.
func (m *Module) Offers() ([]contracts.IncomingContractOffer, error) {
	rows, err := m.store.FindByPrefix(contractdb.OfferKeyPrefix())
	if err != nil {
		return nil, err
	}

	offers := make([]contracts.IncomingContractOffer, 0, len(rows))
	for _, row := range rows {
		offer, err := contracts.DecodeIncomingContractOffer(bytes.NewReader(row.Value))
		if err != nil {
			return nil, fmt.Errorf("lnmodule: decoding offer row: %w", err)
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

// loadAccount loads and decodes the ContractAccount for id.
func (m *Module) loadAccount(id contracts.ContractID) (contracts.ContractAccount, bool, error) {
	raw, err := m.store.GetValue(contractdb.ContractKey(id))
	if err != nil {
		return contracts.ContractAccount{}, false, err
	}
	if raw == nil {
		return contracts.ContractAccount{}, false, nil
	}
	account, err := contracts.DecodeContractAccount(bytes.NewReader(raw))
	if err != nil {
		return contracts.ContractAccount{}, false, fmt.Errorf("lnmodule: decoding contract account %s: %w", id, err)
	}
	return account, true, nil
}

// decodeOutputOutcome reads an OutputOutcome previously written by
// apply_output; its wire form is a one-byte discriminant (0 =
// Contract, 1 = Offer) followed by the variant's own encoding.
func decodeOutputOutcome(r io.Reader) (contracts.OutputOutcome, error) {
	var tagByte [1]byte
	if _, err := io.ReadFull(r, tagByte[:]); err != nil {
		return nil, err
	}
	switch tagByte[0] {
	case outputOutcomeTagContract:
		var id contracts.ContractID
		if _, err := io.ReadFull(r, id[:]); err != nil {
			return nil, err
		}
		var kindByte [1]byte
		if _, err := io.ReadFull(r, kindByte[:]); err != nil {
			return nil, err
		}
		outcome, err := contracts.DecodeContractOutcome(contracts.Kind(kindByte[0]), r)
		if err != nil {
			return nil, err
		}
		return contracts.ContractOutputOutcome{ID: id, Outcome: outcome}, nil
	case outputOutcomeTagOffer:
		var id contracts.OfferID
		if _, err := io.ReadFull(r, id[:]); err != nil {
			return nil, err
		}
		return contracts.OfferOutputOutcome{ID: id}, nil
	default:
		return nil, fmt.Errorf("lnmodule: unknown output outcome tag %d", tagByte[0])
	}
}

const (
	outputOutcomeTagContract = 0
	outputOutcomeTagOffer    = 1
)

// encodeOutputOutcome is the Encode counterpart of decodeOutputOutcome.
func encodeOutputOutcome(w *bytes.Buffer, outcome contracts.OutputOutcome) error {
	switch o := outcome.(type) {
	case contracts.ContractOutputOutcome:
		w.WriteByte(outputOutcomeTagContract)
		w.Write(o.ID[:])
		w.WriteByte(byte(o.Outcome.Kind()))
		return o.Outcome.Encode(w)
	case contracts.OfferOutputOutcome:
		w.WriteByte(outputOutcomeTagOffer)
		w.Write(o.ID[:])
		return nil
	default:
		return fmt.Errorf("lnmodule: unknown output outcome type %T", outcome)
	}
}
