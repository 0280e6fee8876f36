package threshold

import (
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/share"
)

// Dealer deals a fresh (t, n) Feldman-shared secret, mirroring the
// Dealer/Deal split of gopkg.in/dedis/crypto.v0/share/vss: a single
// trusted party (the federation's distributed key generation
// ceremony, out of scope for this package) runs this once to produce
// every peer's SecretKeyShare plus everyone's PublicKeyShare and the
// aggregate GroupPublicKey used by Encrypt.
//
// Production federations replace this with an actual DKG; Deal exists
// so tests (and single-process demos) can stand up a consistent set
// of shares without one.
func Deal(threshold, numPeers int) (groupPubKey kyber.Point, secrets []SecretKeyShare, publics []PublicKeyShare) {
	priPoly := share.NewPriPoly(Suite, threshold, nil, Suite.RandomStream())
	pubPoly := priPoly.Commit(Suite.Point().Base())

	groupPubKey = pubPoly.Commit()

	priShares := priPoly.Shares(numPeers)
	pubShares := pubPoly.Shares(numPeers)

	secrets = make([]SecretKeyShare, numPeers)
	publics = make([]PublicKeyShare, numPeers)
	for i := 0; i < numPeers; i++ {
		secrets[i] = SecretKeyShare{Index: priShares[i].I, Scalar: priShares[i].V}
		publics[i] = PublicKeyShare{Index: pubShares[i].I, Point: pubShares[i].V}
	}

	return groupPubKey, secrets, publics
}
