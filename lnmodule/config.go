package lnmodule

import (
	"github.com/fedimint-go/lnmodule/contractdb"
	"github.com/fedimint-go/lnmodule/threshold"
)

// Config is the per-guardian configuration this module needs to run
// its threshold-decryption duties. It carries no transport, storage,
// or CLI configuration — those belong to the engine that embeds this
// module.
type Config struct {
	// PeerID is this guardian's own index into the federation.
	PeerID contractdb.PeerID

	// Threshold is the minimum number of agreed shares required to
	// combine a decryption.
	Threshold int

	// NumPeers is the total size of the federation.
	NumPeers int

	// SecretShare is this guardian's own share of the threshold secret
	// key, used to compute ProposeDecryptionShare rows.
	SecretShare threshold.SecretKeyShare

	// PublicShares indexes every peer's public-key share by PeerID, for
	// validating AgreedDecryptionShare rows in begin_consensus_epoch.
	PublicShares []threshold.PublicKeyShare
}

// publicShareFor returns the public-key share for peer, or false if
// peer is out of range.
func (c Config) publicShareFor(peer contractdb.PeerID) (threshold.PublicKeyShare, bool) {
	if int(peer) >= len(c.PublicShares) {
		return threshold.PublicKeyShare{}, false
	}
	return c.PublicShares[peer], true
}
