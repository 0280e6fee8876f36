package threshold

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptCombineRoundTrip(t *testing.T) {
	const threshold, numPeers = 3, 5

	groupPubKey, secrets, publics := Deal(threshold, numPeers)

	var plaintext [PreimageSize]byte
	copy(plaintext[:], []byte("0123456789abcdef0123456789abcde"))

	ct, err := Encrypt(plaintext, groupPubKey)
	require.NoError(t, err)
	require.True(t, VerifyCiphertext(ct))

	shares := make([]DecryptionShare, 0, threshold)
	for i := 0; i < threshold; i++ {
		share, err := secrets[i].MyShare(ct)
		require.NoError(t, err)
		require.True(t, VerifyShare(publics[i], share, ct))
		shares = append(shares, share)
	}

	recovered, err := Combine(shares, ct, threshold, numPeers)
	require.NoError(t, err)
	require.Equal(t, plaintext[:], recovered)
}

func TestVerifyShareRejectsForgedShare(t *testing.T) {
	const threshold, numPeers = 2, 3
	groupPubKey, secrets, publics := Deal(threshold, numPeers)

	var plaintext [PreimageSize]byte
	ct, err := Encrypt(plaintext, groupPubKey)
	require.NoError(t, err)

	honestShare, err := secrets[0].MyShare(ct)
	require.NoError(t, err)

	// A share claiming to be from peer 0 but verified against peer 1's
	// public key share must be rejected.
	require.False(t, VerifyShare(publics[1], honestShare, ct))
}

func TestInsufficientSharesFailCombine(t *testing.T) {
	const threshold, numPeers = 3, 5
	groupPubKey, secrets, _ := Deal(threshold, numPeers)

	var plaintext [PreimageSize]byte
	ct, err := Encrypt(plaintext, groupPubKey)
	require.NoError(t, err)

	share, err := secrets[0].MyShare(ct)
	require.NoError(t, err)

	_, err = Combine([]DecryptionShare{share}, ct, threshold, numPeers)
	require.Error(t, err)
}
