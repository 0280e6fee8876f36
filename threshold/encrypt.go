package threshold

import "go.dedis.ch/kyber/v3"

// Encrypt produces a Ciphertext masking plaintext (which must be
// PreimageSize bytes) under the federation's aggregate group public
// key. This is the client-side half of the scheme: offers are created
// by whoever advertises the preimage, not by federation peers, but it
// lives here since it is the dual of Combine.
func Encrypt(plaintext [PreimageSize]byte, groupPubKey kyber.Point) (Ciphertext, error) {
	r := Suite.Scalar().Pick(Suite.RandomStream())
	c1 := Suite.Point().Mul(r, Suite.Point().Base())
	shared := Suite.Point().Mul(r, groupPubKey)

	key := kdf(shared)

	c1Bytes, err := c1.MarshalBinary()
	if err != nil {
		return Ciphertext{}, err
	}

	ct := Ciphertext{C1: c1Bytes}
	for i := range ct.C2 {
		ct.C2[i] = plaintext[i] ^ key[i]
	}
	return ct, nil
}
