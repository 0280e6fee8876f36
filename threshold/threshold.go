// Package threshold models the federation's threshold-decryption
// primitive as a small capability set: verifying a ciphertext is
// well-formed, producing this peer's decryption share of it, verifying
// a share received from another peer, and combining a quorum of shares
// back into a plaintext. No particular scheme is supposed to leak past
// this package; callers only see Ciphertext, DecryptionShare and
// PublicKeyShare.
//
// The concrete construction here is an ElGamal-style encryption of a
// 32-byte preimage under a Feldman-shared group public key, with
// Chaum-Pedersen proofs of share correctness — the same shape of
// protocol as the verifiable secret sharing scheme in
// gopkg.in/dedis/crypto.v0/share/vss, ported onto go.dedis.ch/kyber/v3.
package threshold

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/lightningnetwork/lnd/tlv"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/group/edwards25519"
)

// PreimageSize is the length in bytes of a Lightning payment preimage.
const PreimageSize = 32

// Suite is the group used for every threshold operation in this
// package. All peers in a federation must agree on the same suite.
var Suite = edwards25519.NewBlakeSHA256Ed25519()

const kdfDomain = "fedimint-ln/preimage-mask/v1"

// Ciphertext is the threshold-encrypted form of a 32-byte preimage.
// C1 is the ephemeral DH point, C2 is the masked plaintext.
type Ciphertext struct {
	C1 []byte
	C2 [PreimageSize]byte
}

// Encode writes the canonical binary encoding of the ciphertext.
func (c Ciphertext) Encode(w io.Writer) error {
	var buf [8]byte
	if err := tlv.WriteVarInt(w, uint64(len(c.C1)), &buf); err != nil {
		return err
	}
	if _, err := w.Write(c.C1); err != nil {
		return err
	}
	_, err := w.Write(c.C2[:])
	return err
}

// Decode reads a ciphertext previously written by Encode.
func (c *Ciphertext) Decode(r io.Reader) error {
	var buf [8]byte
	l, err := tlv.ReadVarInt(r, &buf)
	if err != nil {
		return err
	}
	c.C1 = make([]byte, l)
	if _, err := io.ReadFull(r, c.C1); err != nil {
		return err
	}
	_, err = io.ReadFull(r, c.C2[:])
	return err
}

// point unmarshals the ephemeral DH point of the ciphertext.
func (c Ciphertext) point() (kyber.Point, error) {
	p := Suite.Point()
	if err := p.UnmarshalBinary(c.C1); err != nil {
		return nil, fmt.Errorf("malformed ciphertext point: %w", err)
	}
	return p, nil
}

// VerifyCiphertext checks that a ciphertext is structurally
// well-formed: its DH point must deserialize to a valid group element.
// This does not (and cannot, without the secret key) prove the masked
// plaintext decrypts to anything meaningful — that is the job of
// end-epoch classification once a quorum of shares has been combined.
func VerifyCiphertext(c Ciphertext) bool {
	_, err := c.point()
	if err != nil {
		log.Debugf("threshold: rejecting ciphertext: %v", err)
		return false
	}
	return true
}

// PublicKeyShare is one peer's public share of the federation's
// threshold key, i.e. P_i = s_i * G for that peer's secret share s_i.
type PublicKeyShare struct {
	Index int
	Point kyber.Point
}

// SecretKeyShare is this peer's own secret share s_i of the
// federation's threshold secret. It never leaves the process.
type SecretKeyShare struct {
	Index  int
	Scalar kyber.Scalar
}

// DecryptionShare is one peer's partial decryption of a Ciphertext,
// accompanied by a Chaum-Pedersen proof that it was computed honestly
// with the secret share matching the peer's known public key share.
type DecryptionShare struct {
	Index int
	V     kyber.Point
	Proof DLEQProof
}

// Encode writes the canonical encoding of a decryption share: the peer
// index, the share point, and its DLEQ proof.
func (s DecryptionShare) Encode(w io.Writer) error {
	var buf [8]byte
	if err := tlv.WriteVarInt(w, uint64(s.Index), &buf); err != nil {
		return err
	}
	raw, err := s.V.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	return s.Proof.Encode(w)
}

// Decode reads a DecryptionShare written by Encode.
func (s *DecryptionShare) Decode(r io.Reader) error {
	var buf [8]byte
	index, err := tlv.ReadVarInt(r, &buf)
	if err != nil {
		return err
	}
	s.Index = int(index)

	s.V = Suite.Point()
	pointLen := s.V.MarshalSize()
	raw := make([]byte, pointLen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return err
	}
	if err := s.V.UnmarshalBinary(raw); err != nil {
		return err
	}

	return s.Proof.Decode(r)
}

// MyShare computes this peer's decryption share of a ciphertext along
// with a proof of its correctness relative to the peer's public key
// share.
func (sk SecretKeyShare) MyShare(c Ciphertext) (DecryptionShare, error) {
	c1, err := c.point()
	if err != nil {
		return DecryptionShare{}, err
	}

	v := Suite.Point().Mul(sk.Scalar, c1)

	proof, err := proveDLEQ(sk.Scalar, c1, v)
	if err != nil {
		return DecryptionShare{}, err
	}

	return DecryptionShare{
		Index: sk.Index,
		V:     v,
		Proof: proof,
	}, nil
}

// VerifyShare checks that a decryption share was honestly produced by
// the peer owning pub, for the given ciphertext.
func VerifyShare(pub PublicKeyShare, share DecryptionShare, c Ciphertext) bool {
	if pub.Index != share.Index {
		log.Debugf("threshold: rejecting share: index %d does not match public share index %d",
			share.Index, pub.Index)
		return false
	}
	c1, err := c.point()
	if err != nil {
		log.Debugf("threshold: rejecting share for peer %d: %v", share.Index, err)
		return false
	}
	if !verifyDLEQ(share.Proof, c1, pub.Point, share.V) {
		log.Debugf("threshold: rejecting share for peer %d: DLEQ proof failed", share.Index)
		return false
	}
	return true
}

// Combine reconstructs the preimage masked in c from a quorum of
// decryption shares. Every share is assumed to have already passed
// VerifyShare — Combine does not re-verify them. threshold is the
// minimum number of shares (t of n) and must be <= len(shares).
func Combine(shares []DecryptionShare, c Ciphertext, threshold, numPeers int) ([]byte, error) {
	if len(shares) < threshold {
		log.Debugf("threshold: rejecting combine: need %d shares, have %d", threshold, len(shares))
		return nil, fmt.Errorf("need %d shares, have %d", threshold, len(shares))
	}

	s, err := recoverCommit(shares[:threshold], threshold, numPeers)
	if err != nil {
		log.Debugf("threshold: rejecting combine: %v", err)
		return nil, fmt.Errorf("combining decryption shares: %w", err)
	}

	key := kdf(s)
	plaintext := make([]byte, PreimageSize)
	for i := range plaintext {
		plaintext[i] = c.C2[i] ^ key[i]
	}
	return plaintext, nil
}

// kdf derives a one-time mask from the ElGamal shared point.
func kdf(p kyber.Point) [PreimageSize]byte {
	raw, _ := p.MarshalBinary()
	h := sha256.New()
	h.Write([]byte(kdfDomain))
	h.Write(raw)
	var out [PreimageSize]byte
	copy(out[:], h.Sum(nil))
	return out
}
