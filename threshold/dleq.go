package threshold

import (
	"crypto/sha256"
	"io"

	"go.dedis.ch/kyber/v3"
)

// DLEQProof is a non-interactive Chaum-Pedersen proof of equality of
// discrete logarithms: it proves that the same secret scalar x
// satisfies both Gx = x*G and Hx = x*H for two independently chosen
// bases G and H, without revealing x.
//
// Here G is always the group's standard base point and H is the
// ciphertext's ephemeral DH point C1; Gx is the peer's public key
// share and Hx is its decryption share.
type DLEQProof struct {
	C kyber.Scalar
	R kyber.Scalar
}

// Encode writes the two scalars of the proof in the group's fixed
// marshaled length.
func (p DLEQProof) Encode(w io.Writer) error {
	raw, err := p.C.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	raw, err = p.R.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(raw)
	return err
}

// Decode reads a DLEQProof written by Encode.
func (p *DLEQProof) Decode(r io.Reader) error {
	scalarLen := Suite.Scalar().MarshalSize()

	buf := make([]byte, scalarLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	p.C = Suite.Scalar()
	if err := p.C.UnmarshalBinary(buf); err != nil {
		return err
	}

	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	p.R = Suite.Scalar()
	return p.R.UnmarshalBinary(buf)
}

// proveDLEQ proves that x is the discrete log of both gx = x*G and
// hx = x*h.
func proveDLEQ(x kyber.Scalar, h, hx kyber.Point) (DLEQProof, error) {
	g := Suite.Point().Base()
	gx := Suite.Point().Mul(x, g)

	k := Suite.Scalar().Pick(Suite.RandomStream())
	t1 := Suite.Point().Mul(k, g)
	t2 := Suite.Point().Mul(k, h)

	c, err := dleqChallenge(g, h, gx, hx, t1, t2)
	if err != nil {
		return DLEQProof{}, err
	}

	// r = k - c*x
	r := Suite.Scalar().Sub(k, Suite.Scalar().Mul(c, x))

	return DLEQProof{C: c, R: r}, nil
}

// verifyDLEQ checks a DLEQProof that the same secret underlies
// gx = x*G and hx = x*h.
func verifyDLEQ(proof DLEQProof, h, gx, hx kyber.Point) bool {
	g := Suite.Point().Base()

	// t1' = r*G + c*Gx
	t1 := Suite.Point().Add(
		Suite.Point().Mul(proof.R, g),
		Suite.Point().Mul(proof.C, gx),
	)
	// t2' = r*H + c*Hx
	t2 := Suite.Point().Add(
		Suite.Point().Mul(proof.R, h),
		Suite.Point().Mul(proof.C, hx),
	)

	c, err := dleqChallenge(g, h, gx, hx, t1, t2)
	if err != nil {
		return false
	}

	return c.Equal(proof.C)
}

// dleqChallenge computes the Fiat-Shamir challenge scalar binding all
// six points of a DLEQ proof transcript.
func dleqChallenge(points ...kyber.Point) (kyber.Scalar, error) {
	h := sha256.New()
	for _, p := range points {
		raw, err := p.MarshalBinary()
		if err != nil {
			return nil, err
		}
		h.Write(raw)
	}

	seed := h.Sum(nil)
	return Suite.Scalar().Pick(Suite.XOF(seed)), nil
}
