package lnmodule

import (
	"bytes"
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/fedimint-go/lnmodule/contractdb"
	"github.com/fedimint-go/lnmodule/contracts"
	"github.com/fedimint-go/lnmodule/roundconsensus"
)

// ValidateInput checks that in is a legal spend against its contract
// account at the wallet module's current block height, without
// mutating any state.
func (m *Module) ValidateInput(in ContractInput) (InputValidation, error) {
	account, ok, err := m.loadAccount(in.ContractID)
	if err != nil {
		return InputValidation{}, err
	}
	if !ok {
		return InputValidation{}, errUnknownContract(in.ContractID)
	}

	blockHeight, err := roundconsensus.BlockHeight(m.store)
	if err != nil {
		return InputValidation{}, err
	}
	return validateSpend(account, blockHeight, in)
}

// ApplyInput re-validates in (apply must be idempotent with respect to
// a caller who skipped ValidateInput) and queues the debit of
// account.amount into batch.
func (m *Module) ApplyInput(in ContractInput, batch contractdb.Batch) (InputValidation, error) {
	validation, err := m.ValidateInput(in)
	if err != nil {
		return InputValidation{}, err
	}

	blockHeight, err := roundconsensus.BlockHeight(m.store)
	if err != nil {
		return InputValidation{}, err
	}

	key := contractdb.ContractKey(in.ContractID)
	batch.MaybeUpdate(key, func(old []byte) ([]byte, error) {
		account, err := contracts.DecodeContractAccount(bytes.NewReader(old))
		if err != nil {
			return nil, err
		}

		if _, err := validateSpend(account, blockHeight, in); err != nil {
			return nil, err
		}

		account.Amount -= in.Amount

		var buf bytes.Buffer
		if err := account.Encode(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})

	return validation, nil
}

// validateSpend determines the authorizing public key for in against
// an already-loaded account, per contract variant.
func validateSpend(account contracts.ContractAccount, blockHeight uint32, in ContractInput) (InputValidation, error) {
	if account.Amount < in.Amount {
		return InputValidation{}, errInsufficientFunds(account.Amount, in.Amount)
	}

	var key *btcec.PublicKey

	switch fc := account.Contract.(type) {
	case contracts.FundedOutgoing:
		if fc.Timelock >= blockHeight {
			if in.Witness.Preimage == nil {
				return InputValidation{}, errMissingPreimage()
			}
			hash := chainhash.Hash(sha256.Sum256(in.Witness.Preimage[:]))
			if hash != fc.Hash {
				return InputValidation{}, errInvalidPreimage()
			}
			key = fc.GatewayKey
		} else {
			key = fc.UserKey
		}

	case contracts.FundedAccount:
		key = fc.Key

	case contracts.FundedIncoming:
		switch fc.DecryptedPreimage.Status {
		case contracts.PreimagePending:
			return InputValidation{}, errContractNotReady()
		case contracts.PreimageSome:
			key = fc.DecryptedPreimage.Preimage
		case contracts.PreimageInvalid:
			key = fc.GatewayKey
		}

	default:
		key = nil
	}

	return InputValidation{Amount: in.Amount, AuthorizingKey: key}, nil
}
