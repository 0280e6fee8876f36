// Package roundconsensus holds the single shared protocol constant and
// read-only view onto the sibling wallet module's per-round record.
// The round-consensus record is read-only for this module and is a
// cross-module contract by key prefix, so the prefix byte and record
// layout live here once as named constants instead of being duplicated
// inline by every module that needs the current round.
package roundconsensus

import (
	"bytes"
	"encoding/binary"
	"io"
)

// DBPrefix is the fixed, protocol-level key prefix the wallet module
// writes the current round's consensus record under. It MUST NOT
// change.
const DBPrefix = 0x32

// RoundConsensus is the per-epoch record written by the wallet module.
// The Lightning module only ever reads it.
type RoundConsensus struct {
	BlockHeight      uint32
	FeeRate          uint64
	RandomnessBeacon [32]byte
}

// Encode writes the canonical encoding of a RoundConsensus record.
func (r RoundConsensus) Encode(w io.Writer) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], r.BlockHeight)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}

	var buf8 [8]byte
	binary.BigEndian.PutUint64(buf8[:], r.FeeRate)
	if _, err := w.Write(buf8[:]); err != nil {
		return err
	}

	_, err := w.Write(r.RandomnessBeacon[:])
	return err
}

// Decode reads a RoundConsensus record written by Encode.
func Decode(r io.Reader) (RoundConsensus, error) {
	var rc RoundConsensus

	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return rc, err
	}
	rc.BlockHeight = binary.BigEndian.Uint32(buf[:])

	var buf8 [8]byte
	if _, err := io.ReadFull(r, buf8[:]); err != nil {
		return rc, err
	}
	rc.FeeRate = binary.BigEndian.Uint64(buf8[:])

	if _, err := io.ReadFull(r, rc.RandomnessBeacon[:]); err != nil {
		return rc, err
	}

	return rc, nil
}

// Reader is the minimal capability the wallet module's KV store
// exposes for reading this single record.
type Reader interface {
	// GetValue returns the raw bytes at key, or nil if absent.
	GetValue(key []byte) ([]byte, error)
}

// Key is the fixed single-record key this package reads from.
var Key = []byte{DBPrefix}

// BlockHeight returns the current on-chain block height, defaulting to
// 0 when no round-consensus record has been written yet (pre-first
// round). The default is returned as an ordinary height; lnmodule's
// spend check gives an Outgoing contract with timelock 0 no special
// treatment.
func BlockHeight(r Reader) (uint32, error) {
	raw, err := r.GetValue(Key)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}

	rc, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return 0, err
	}
	return rc.BlockHeight, nil
}
