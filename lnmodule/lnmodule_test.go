package lnmodule

import (
	"bytes"
	"crypto/sha256"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/fedimint-go/lnmodule/contractdb"
	"github.com/fedimint-go/lnmodule/contracts"
	"github.com/fedimint-go/lnmodule/roundconsensus"
	"github.com/fedimint-go/lnmodule/threshold"
	"github.com/stretchr/testify/require"
)

func newTestFederation(t *testing.T, thresh, numPeers int) ([]*Module, func()) {
	t.Helper()

	groupPubKey, secrets, publics := threshold.Deal(thresh, numPeers)

	modules := make([]*Module, numPeers)
	store, err := contractdb.Open(filepath.Join(t.TempDir(), "contracts.db"))
	require.NoError(t, err)

	for i := 0; i < numPeers; i++ {
		cfg := Config{
			PeerID:       contractdb.PeerID(i),
			Threshold:    thresh,
			NumPeers:     numPeers,
			SecretShare:  secrets[i],
			PublicShares: publics,
		}
		modules[i] = New(cfg, store)
	}

	_ = groupPubKey
	return modules, func() { store.Close() }
}

func randKey(t *testing.T) *btcec.PublicKey {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return priv.PubKey()
}

func TestOfferFundDecryptHappyPath(t *testing.T) {
	const thresh, numPeers = 3, 5
	groupPubKey, secrets, publics := threshold.Deal(thresh, numPeers)

	store, err := contractdb.Open(filepath.Join(t.TempDir(), "contracts.db"))
	require.NoError(t, err)
	defer store.Close()

	modules := make([]*Module, numPeers)
	for i := 0; i < numPeers; i++ {
		modules[i] = New(Config{
			PeerID:       contractdb.PeerID(i),
			Threshold:    thresh,
			NumPeers:     numPeers,
			SecretShare:  secrets[i],
			PublicShares: publics,
		}, store)
	}

	preimageKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pubKeyBytes := schnorrSerialize(t, preimageKey.PubKey())
	hash := chainhash.Hash(sha256.Sum256(pubKeyBytes))

	ct, err := threshold.Encrypt(toPreimageArray(pubKeyBytes), groupPubKey)
	require.NoError(t, err)

	offer := contracts.IncomingContractOffer{
		Hash:              hash,
		Amount:            1000,
		EncryptedPreimage: ct,
	}

	offerOut := ContractOrOfferOutput{Offer: &offer}
	offerOp := wire.OutPoint{Hash: chainhash.Hash{1}, Index: 0}
	batch := store.NewBatch()
	_, err = modules[0].ApplyOutput(offerOp, offerOut, batch)
	require.NoError(t, err)
	require.NoError(t, batch.Commit())

	gw := randKey(t)
	incoming := contracts.IncomingContract{Hash: hash, EncryptedPreimage: ct, GatewayKey: gw}
	contractOut := ContractOrOfferOutput{Contract: &contracts.ContractOutput{Amount: 1000, Contract: incoming}}
	fundOp := wire.OutPoint{Hash: chainhash.Hash{2}, Index: 0}

	batch = store.NewBatch()
	_, err = modules[0].ApplyOutput(fundOp, contractOut, batch)
	require.NoError(t, err)
	require.NoError(t, batch.Commit())

	// The offer must be consumed.
	offers, err := modules[0].Offers()
	require.NoError(t, err)
	require.Empty(t, offers)

	id := incoming.ContractID()

	// Each peer proposes and submits its decryption share for the same
	// epoch; all are honest so all are accepted.
	proposals := make([]DecryptionShareCI, 0, numPeers)
	for i := 0; i < numPeers; i++ {
		share, err := secrets[i].MyShare(ct)
		require.NoError(t, err)
		proposals = append(proposals, DecryptionShareCI{ContractID: id, PeerID: contractdb.PeerID(i), Share: share})
	}

	batch = store.NewBatch()
	require.NoError(t, modules[0].BeginConsensusEpoch(proposals, batch))
	require.NoError(t, batch.Commit())

	batch = store.NewBatch()
	require.NoError(t, modules[0].EndConsensusEpoch(batch))
	require.NoError(t, batch.Commit())

	outcome, err := modules[0].OutputStatus(fundOp)
	require.NoError(t, err)
	contractOutcome, ok := outcome.(contracts.ContractOutputOutcome)
	require.True(t, ok)
	incomingOutcome, ok := contractOutcome.Outcome.(contracts.IncomingOutcome)
	require.True(t, ok)
	require.Equal(t, contracts.PreimageSome, incomingOutcome.DecryptedPreimage.Status)
	// The preimage is the x-only key, so it decodes to the even-Y point.
	expectedKey, err := schnorr.ParsePubKey(pubKeyBytes)
	require.NoError(t, err)
	require.True(t, incomingOutcome.DecryptedPreimage.Preimage.IsEqual(expectedKey))

	// ProposeDecryptionShare for this contract must have been cleared.
	rows, err := store.FindByPrefix(contractdb.ProposeDecryptionShareKeyPrefix())
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestInsufficientSharesCarryToNextEpoch(t *testing.T) {
	const thresh, numPeers = 3, 5
	groupPubKey, secrets, publics := threshold.Deal(thresh, numPeers)

	store, err := contractdb.Open(filepath.Join(t.TempDir(), "contracts.db"))
	require.NoError(t, err)
	defer store.Close()

	m := New(Config{
		Threshold:    thresh,
		NumPeers:     numPeers,
		SecretShare:  secrets[0],
		PublicShares: publics,
	}, store)

	preimageKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pubKeyBytes := schnorrSerialize(t, preimageKey.PubKey())
	hash := chainhash.Hash(sha256.Sum256(pubKeyBytes))

	ct, err := threshold.Encrypt(toPreimageArray(pubKeyBytes), groupPubKey)
	require.NoError(t, err)

	incoming := contracts.IncomingContract{Hash: hash, EncryptedPreimage: ct, GatewayKey: randKey(t)}
	fundOp := wire.OutPoint{Hash: chainhash.Hash{9}, Index: 0}

	batch := store.NewBatch()
	account := contracts.ContractAccount{Amount: 1000, Contract: incoming.ToFunded(fundOp)}
	var buf = mustEncode(t, account)
	require.NoError(t, batch.InsertNew(contractdb.ContractKey(incoming.ContractID()), buf))
	require.NoError(t, batch.Commit())

	id := incoming.ContractID()

	// Epoch E: only threshold-1 peers propose.
	var proposalsE []DecryptionShareCI
	for i := 0; i < thresh-1; i++ {
		share, err := secrets[i].MyShare(ct)
		require.NoError(t, err)
		proposalsE = append(proposalsE, DecryptionShareCI{ContractID: id, PeerID: contractdb.PeerID(i), Share: share})
	}

	batch = store.NewBatch()
	require.NoError(t, m.BeginConsensusEpoch(proposalsE, batch))
	require.NoError(t, batch.Commit())

	batch = store.NewBatch()
	require.NoError(t, m.EndConsensusEpoch(batch))
	require.NoError(t, batch.Commit())

	outcome, err := m.OutputStatus(fundOp)
	require.NoError(t, err)
	require.Nil(t, outcome) // no ContractUpdate row was ever written in this test

	rawAccount, err := store.GetValue(contractdb.ContractKey(id))
	require.NoError(t, err)
	decoded, err := contracts.DecodeContractAccount(bytes.NewReader(rawAccount))
	require.NoError(t, err)
	fi := decoded.Contract.(contracts.FundedIncoming)
	require.Equal(t, contracts.PreimagePending, fi.DecryptedPreimage.Status)

	// Epoch E+1: the missing share arrives.
	share, err := secrets[thresh-1].MyShare(ct)
	require.NoError(t, err)
	proposalsE1 := []DecryptionShareCI{{ContractID: id, PeerID: contractdb.PeerID(thresh - 1), Share: share}}

	batch = store.NewBatch()
	require.NoError(t, m.BeginConsensusEpoch(proposalsE1, batch))
	require.NoError(t, batch.Commit())

	batch = store.NewBatch()
	require.NoError(t, m.EndConsensusEpoch(batch))
	require.NoError(t, batch.Commit())

	rawAccount, err = store.GetValue(contractdb.ContractKey(id))
	require.NoError(t, err)
	decoded, err = contracts.DecodeContractAccount(bytes.NewReader(rawAccount))
	require.NoError(t, err)
	fi = decoded.Contract.(contracts.FundedIncoming)
	require.Equal(t, contracts.PreimageSome, fi.DecryptedPreimage.Status)
}

func TestUnderfundedIncomingOutput(t *testing.T) {
	modules, done := newTestFederation(t, 2, 3)
	defer done()

	hash := chainhash.Hash{7}
	ct, err := threshold.Encrypt([threshold.PreimageSize]byte{}, threshold.Suite.Point().Base())
	require.NoError(t, err)
	offer := contracts.IncomingContractOffer{Hash: hash, Amount: 1000, EncryptedPreimage: ct}
	batch := modules[0].store.(*contractdb.BoltStore).NewBatch()
	_, err = modules[0].ApplyOutput(
		wire.OutPoint{Hash: chainhash.Hash{8}, Index: 0},
		ContractOrOfferOutput{Offer: &offer},
		batch,
	)
	require.NoError(t, err)
	require.NoError(t, batch.Commit())

	incoming := contracts.IncomingContract{Hash: hash, GatewayKey: randKey(t)}
	_, err = modules[0].ValidateOutput(ContractOrOfferOutput{
		Contract: &contracts.ContractOutput{Amount: 999, Contract: incoming},
	})
	require.Error(t, err)
	modErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, ErrInsufficientIncomingFunding, modErr.Kind)
}

func TestOutgoingSpendPreAndPostTimelock(t *testing.T) {
	modules, done := newTestFederation(t, 2, 3)
	defer done()
	m := modules[0]

	preimage := [32]byte{1, 2, 3}
	hash := chainhash.Hash(sha256.Sum256(preimage[:]))
	gw, user := randKey(t), randKey(t)

	contract := contracts.OutgoingContract{Hash: hash, Timelock: 100, GatewayKey: gw, UserKey: user}
	fundOut := ContractOrOfferOutput{Contract: &contracts.ContractOutput{Amount: 5000, Contract: contract}}

	batch := m.store.(*contractdb.BoltStore).NewBatch()
	_, err := m.ApplyOutput(wire.OutPoint{Hash: chainhash.Hash{3}, Index: 0}, fundOut, batch)
	require.NoError(t, err)
	require.NoError(t, batch.Commit())

	id := contract.ContractID()

	// Pre-timelock, correct preimage: gateway key authorizes.
	putBlockHeight(t, m.store.(*contractdb.BoltStore), 50)
	v, err := m.ValidateInput(ContractInput{ContractID: id, Amount: 1000, Witness: Witness{Preimage: &preimage}})
	require.NoError(t, err)
	require.True(t, v.AuthorizingKey.IsEqual(gw))

	// Pre-timelock, wrong preimage.
	wrong := [32]byte{9, 9, 9}
	_, err = m.ValidateInput(ContractInput{ContractID: id, Amount: 1000, Witness: Witness{Preimage: &wrong}})
	require.Error(t, err)
	require.Equal(t, ErrInvalidPreimage, err.(*Error).Kind)

	// Pre-timelock, no preimage.
	_, err = m.ValidateInput(ContractInput{ContractID: id, Amount: 1000})
	require.Error(t, err)
	require.Equal(t, ErrMissingPreimage, err.(*Error).Kind)

	// Strict boundary: block_height == timelock is still pre-expiry.
	putBlockHeight(t, m.store.(*contractdb.BoltStore), 100)
	_, err = m.ValidateInput(ContractInput{ContractID: id, Amount: 1000})
	require.Error(t, err)
	require.Equal(t, ErrMissingPreimage, err.(*Error).Kind)

	// Post-timelock: user key authorizes, no preimage needed.
	putBlockHeight(t, m.store.(*contractdb.BoltStore), 101)
	v, err = m.ValidateInput(ContractInput{ContractID: id, Amount: 1000})
	require.NoError(t, err)
	require.True(t, v.AuthorizingKey.IsEqual(user))
}

// putBlockHeight writes the round-consensus record the wallet module
// would have produced, so ValidateInput/ApplyInput read a specific
// block height instead of the pre-first-round default of 0.
func putBlockHeight(t *testing.T, store *contractdb.BoltStore, height uint32) {
	t.Helper()
	rc := roundconsensus.RoundConsensus{BlockHeight: height}
	var buf bytes.Buffer
	require.NoError(t, rc.Encode(&buf))

	batch := store.NewBatch()
	batch.MaybeUpdate(roundconsensus.Key, func([]byte) ([]byte, error) {
		return buf.Bytes(), nil
	})
	require.NoError(t, batch.Commit())
}

func schnorrSerialize(t *testing.T, pub *btcec.PublicKey) []byte {
	t.Helper()
	raw := pub.SerializeCompressed()
	return raw[1:]
}

func toPreimageArray(b []byte) [threshold.PreimageSize]byte {
	var out [threshold.PreimageSize]byte
	copy(out[:], b)
	return out
}

func mustEncode(t *testing.T, account contracts.ContractAccount) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, account.Encode(&buf))
	return buf.Bytes()
}
