package contractcourt

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/fedimint-go/lnmodule/contractdb"
	"github.com/fedimint-go/lnmodule/contracts"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *contractdb.BoltStore {
	t.Helper()
	store, err := contractdb.Open(filepath.Join(t.TempDir(), "contracts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func putAccount(t *testing.T, store *contractdb.BoltStore, account contracts.ContractAccount, id contracts.ContractID) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, account.Encode(&buf))
	batch := store.NewBatch()
	batch.MaybeUpdate(contractdb.ContractKey(id), func([]byte) ([]byte, error) {
		return buf.Bytes(), nil
	})
	require.NoError(t, batch.Commit())
}

func TestDecryptionResolverStaysPendingUntilDecrypted(t *testing.T) {
	store := openTestStore(t)
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	incoming := contracts.IncomingContract{Hash: chainhash.Hash{1}, GatewayKey: priv.PubKey()}
	op := wire.OutPoint{Hash: chainhash.Hash{2}, Index: 0}
	funded := incoming.ToFunded(op).(contracts.FundedIncoming)
	account := contracts.ContractAccount{Amount: 1000, Contract: funded}

	id := incoming.ContractID()
	putAccount(t, store, account, id)

	resolver := NewDecryptionResolver(id, op, ResolverKit{Store: store})

	next, err := resolver.Resolve()
	require.NoError(t, err)
	require.NotNil(t, next)
	require.False(t, resolver.IsResolved())

	funded.DecryptedPreimage = contracts.PreimageState{Status: contracts.PreimageSome, Preimage: priv.PubKey()}
	account.Contract = funded
	putAccount(t, store, account, id)

	next, err = resolver.Resolve()
	require.NoError(t, err)
	require.Nil(t, next)
	require.True(t, resolver.IsResolved())
}

func TestDecryptionResolverEncodeDecodeRoundTrip(t *testing.T) {
	store := openTestStore(t)
	id := contracts.ContractID{3}
	op := wire.OutPoint{Hash: chainhash.Hash{4}, Index: 7}

	resolver := NewDecryptionResolver(id, op, ResolverKit{Store: store})

	var buf bytes.Buffer
	require.NoError(t, resolver.Encode(&buf))

	decoded, err := DecodeDecryptionResolver(&buf, ResolverKit{Store: store})
	require.NoError(t, err)
	require.Equal(t, resolver.ContractID, decoded.ContractID)
	require.Equal(t, resolver.OutPoint, decoded.OutPoint)
	require.Equal(t, resolver.IsResolved(), decoded.IsResolved())
}
