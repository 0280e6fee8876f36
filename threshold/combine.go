package threshold

import (
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/share"
)

// recoverCommit reconstructs S = f(0)*C1 — the point an honest dealer
// would have produced directly — from t of the n peers' decryption
// shares V_i = s_i*C1, by Lagrange-interpolating in the exponent. This
// is exactly share.RecoverCommit's job for a Feldman-committed
// polynomial, applied to our per-ciphertext basis C1 instead of the
// group generator.
func recoverCommit(shares []DecryptionShare, threshold, numPeers int) (kyber.Point, error) {
	pubShares := make([]*share.PubShare, len(shares))
	for i, sh := range shares {
		pubShares[i] = &share.PubShare{I: sh.Index, V: sh.V}
	}

	return share.RecoverCommit(Suite, pubShares, threshold, numPeers)
}
