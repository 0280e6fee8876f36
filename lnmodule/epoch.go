package lnmodule

import (
	"bytes"
	"crypto/sha256"

	goerrors "github.com/go-errors/errors"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/fedimint-go/lnmodule/contractcourt"
	"github.com/fedimint-go/lnmodule/contractdb"
	"github.com/fedimint-go/lnmodule/contracts"
	"github.com/fedimint-go/lnmodule/threshold"
)

// ConsensusProposal enumerates every ProposeDecryptionShare row this
// peer still wants to contribute, read-only.
func (m *Module) ConsensusProposal() ([]DecryptionShareCI, error) {
	rows, err := m.store.FindByPrefix(contractdb.ProposeDecryptionShareKeyPrefix())
	if err != nil {
		return nil, err
	}

	items := make([]DecryptionShareCI, 0, len(rows))
	for _, row := range rows {
		var id contracts.ContractID
		copy(id[:], row.Key[1:])

		var share threshold.DecryptionShare
		if err := share.Decode(bytes.NewReader(row.Value)); err != nil {
			return nil, goerrors.Errorf("lnmodule: decoding proposed share for %s: %v", id, err)
		}

		items = append(items, DecryptionShareCI{
			ContractID: id,
			PeerID:     m.cfg.PeerID,
			Share:      share,
		})
	}
	return items, nil
}

// BeginConsensusEpoch validates every peer's proposed share against
// its contract's current state and the peer's known public key share,
// dropping (and logging) anything that fails, and records the
// survivors as AgreedDecryptionShare rows.
func (m *Module) BeginConsensusEpoch(proposals []DecryptionShareCI, batch contractdb.Batch) error {
	for _, item := range proposals {
		account, ok, err := m.loadAccount(item.ContractID)
		if err != nil {
			return err
		}
		if !ok {
			log.Debugf("begin_consensus_epoch: dropping share for unknown contract %s", item.ContractID)
			continue
		}

		incoming, ok := account.Contract.(contracts.FundedIncoming)
		if !ok {
			log.Debugf("begin_consensus_epoch: dropping share for non-incoming contract %s", item.ContractID)
			continue
		}

		pub, ok := m.cfg.publicShareFor(item.PeerID)
		if !ok {
			log.Debugf("begin_consensus_epoch: dropping share from unknown peer %d", item.PeerID)
			continue
		}

		if !threshold.VerifyShare(pub, item.Share, incoming.EncryptedPreimage) {
			log.Debugf("begin_consensus_epoch: dropping invalid share from peer %d for %s",
				item.PeerID, item.ContractID)
			continue
		}

		var shareBuf bytes.Buffer
		if err := item.Share.Encode(&shareBuf); err != nil {
			return err
		}

		key := contractdb.AgreedDecryptionShareKey(item.ContractID, item.PeerID)
		if err := batch.InsertNew(key, shareBuf.Bytes()); err != nil {
			return goerrors.Errorf("begin_consensus_epoch: duplicate agreed share from peer %d for %s: %v",
				item.PeerID, item.ContractID, err)
		}
	}

	return nil
}

// EndConsensusEpoch first drives every contract's persisted
// DecryptionResolver forward (so a restarted guardian keeps tracking
// whatever was still pending), then groups every AgreedDecryptionShare
// row by contract and, for every group that has reached threshold,
// combines the shares and transitions the contract's
// decrypted_preimage out of Pending.
func (m *Module) EndConsensusEpoch(batch contractdb.Batch) error {
	if err := m.driveResolvers(batch); err != nil {
		return err
	}

	groups, err := m.groupAgreedShares()
	if err != nil {
		return err
	}

	for id, shares := range groups {
		if len(shares) < m.cfg.Threshold {
			continue
		}

		account, ok, err := m.loadAccount(id)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		incoming, ok := account.Contract.(contracts.FundedIncoming)
		if !ok {
			continue
		}
		if incoming.DecryptedPreimage.Status != contracts.PreimagePending {
			continue
		}

		plaintext, err := threshold.Combine(shares, incoming.EncryptedPreimage, m.cfg.Threshold, m.cfg.NumPeers)
		if err != nil {
			// Every share here already passed VerifyShare in
			// begin_consensus_epoch; a combine failure now means the
			// threshold construction itself is broken, not a bad
			// input.
			return goerrors.Errorf("end_consensus_epoch: combine failed for agreed-valid shares on %s: %v", id, err)
		}

		state := classifyPreimage(plaintext, incoming.Hash)

		m.queuePreimageTransition(batch, id, incoming, state)
		batch.Delete(contractdb.ProposeDecryptionShareKey(id))
		// state is never Pending (classifyPreimage only returns Some or
		// Invalid), so this contract's resolver has reached finality
		// right now; no need to wait for driveResolvers to notice it
		// next epoch.
		batch.Delete(contractdb.DecryptionResolverKey(id))
	}

	return nil
}

// driveResolvers calls Resolve on every persisted DecryptionResolver,
// re-persisting the ones still pending (so epochsWaited survives a
// restart) and deleting the ones Resolve reports as final.
func (m *Module) driveResolvers(batch contractdb.Batch) error {
	rows, err := m.store.FindByPrefix(contractdb.DecryptionResolverKeyPrefix())
	if err != nil {
		return err
	}

	for _, row := range rows {
		resolver, err := contractcourt.DecodeDecryptionResolver(
			bytes.NewReader(row.Value),
			contractcourt.ResolverKit{Store: m.store},
		)
		if err != nil {
			return goerrors.Errorf("end_consensus_epoch: decoding decryption resolver: %v", err)
		}

		key := row.Key
		next, err := resolver.Resolve()
		if err != nil {
			log.Debugf("end_consensus_epoch: resolver for %s errored: %v", resolver.ContractID, err)
			continue
		}
		if next == nil {
			batch.Delete(key)
			continue
		}

		var buf bytes.Buffer
		if err := next.Encode(&buf); err != nil {
			return err
		}
		batch.MaybeUpdate(key, func([]byte) ([]byte, error) {
			return buf.Bytes(), nil
		})
	}

	return nil
}

// classifyPreimage applies the combined-plaintext classification
// rules: wrong length or hash mismatch or invalid Schnorr key all
// yield Invalid; only a 32-byte plaintext hashing to want and parsing
// as a valid public key yields Some.
func classifyPreimage(plaintext []byte, want chainhash.Hash) contracts.PreimageState {
	if len(plaintext) != threshold.PreimageSize {
		return contracts.PreimageState{Status: contracts.PreimageInvalid}
	}
	if sha256.Sum256(plaintext) != want {
		return contracts.PreimageState{Status: contracts.PreimageInvalid}
	}
	pub, err := schnorr.ParsePubKey(plaintext)
	if err != nil {
		return contracts.PreimageState{Status: contracts.PreimageInvalid}
	}
	return contracts.PreimageState{Status: contracts.PreimageSome, Preimage: pub}
}

// queuePreimageTransition updates both the contract account and its
// matching ContractUpdate row with the new decrypted_preimage state,
// in the same batch.
func (m *Module) queuePreimageTransition(
	batch contractdb.Batch,
	id contracts.ContractID,
	incoming contracts.FundedIncoming,
	state contracts.PreimageState,
) {
	batch.MaybeUpdate(contractdb.ContractKey(id), func(old []byte) ([]byte, error) {
		account, err := contracts.DecodeContractAccount(bytes.NewReader(old))
		if err != nil {
			return nil, err
		}
		fi := account.Contract.(contracts.FundedIncoming)
		fi.DecryptedPreimage = state
		account.Contract = fi

		var buf bytes.Buffer
		if err := account.Encode(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})

	batch.MaybeUpdate(contractdb.ContractUpdateKey(incoming.OutPoint), func(old []byte) ([]byte, error) {
		// No outcome row for this output: leave it absent.
		if old == nil {
			return nil, nil
		}
		outcome, err := decodeOutputOutcome(bytes.NewReader(old))
		if err != nil {
			return nil, err
		}
		contractOutcome := outcome.(contracts.ContractOutputOutcome)
		contractOutcome.Outcome = contracts.IncomingOutcome{DecryptedPreimage: state}

		var buf bytes.Buffer
		if err := encodeOutputOutcome(&buf, contractOutcome); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}

// groupAgreedShares scans every AgreedDecryptionShare row and groups
// the decoded shares by contract_id.
func (m *Module) groupAgreedShares() (map[contracts.ContractID][]threshold.DecryptionShare, error) {
	rows, err := m.store.FindByPrefix(contractdb.AgreedDecryptionShareKeyPrefix())
	if err != nil {
		return nil, err
	}

	groups := make(map[contracts.ContractID][]threshold.DecryptionShare)
	for _, row := range rows {
		var id contracts.ContractID
		copy(id[:], row.Key[1:33])

		var share threshold.DecryptionShare
		if err := share.Decode(bytes.NewReader(row.Value)); err != nil {
			return nil, goerrors.Errorf("lnmodule: decoding agreed share for %s: %v", id, err)
		}

		groups[id] = append(groups[id], share)
	}
	return groups, nil
}
