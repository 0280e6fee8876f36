// Package contractcourt tracks pending Incoming contracts across
// consensus epochs until their preimage decryption reaches a final
// state, the way the sibling lnd package tracks on-chain HTLCs until
// their resolution transaction confirms.
package contractcourt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/wire"
	"github.com/fedimint-go/lnmodule/contractdb"
	"github.com/fedimint-go/lnmodule/contracts"
)

var endian = binary.BigEndian

// ContractResolver tracks one contract from the moment it becomes
// interesting to the engine (a freshly funded Incoming contract)
// until Resolve reports it final. Implementations must round-trip
// through Encode/Decode so a restarting guardian can reload whichever
// resolvers were still pending.
type ContractResolver interface {
	// ResolverKey uniquely identifies the tracked contract.
	ResolverKey() []byte

	// Resolve checks the contract's current state and returns nil once
	// it is final. While still pending, it returns itself so the
	// caller keeps tracking it into the next epoch.
	Resolve() (ContractResolver, error)

	// IsResolved reports whether Resolve has already reached finality.
	IsResolved() bool

	Encode(w io.Writer) error
}

// ResolverKit is the generic toolkit every resolver in this package
// needs: read access to the contract store.
type ResolverKit struct {
	Store contractdb.KVStore
}

// DecryptionResolver tracks one FundedIncoming contract from the
// output that created it until its decrypted_preimage leaves Pending.
type DecryptionResolver struct {
	// ContractID identifies the Incoming contract being tracked.
	ContractID contracts.ContractID

	// OutPoint is the output that funded it; it is persisted with the
	// resolver but not read by Resolve. The authoritative outcome lives
	// in ContractUpdate(OutPoint).
	OutPoint wire.OutPoint

	// epochsWaited counts how many end_consensus_epoch passes this
	// resolver has observed the contract still Pending, for logging.
	epochsWaited uint32

	resolved bool

	ResolverKit
}

// ResolverKey returns the contract ID this resolver tracks; unlike the
// on-chain case there is no separate claim outpoint to prefer.
func (d *DecryptionResolver) ResolverKey() []byte {
	key := d.ContractID
	return key[:]
}

// Resolve loads the contract's current decrypted_preimage and reports
// finality once it has left Pending. It performs no I/O beyond the one
// store read; end_consensus_epoch is what actually drives the state
// transition; Resolve only observes it.
func (d *DecryptionResolver) Resolve() (ContractResolver, error) {
	if d.resolved {
		return nil, nil
	}

	raw, err := d.Store.GetValue(contractdb.ContractKey(d.ContractID))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		log.Errorf("DecryptionResolver(%v): tracked contract vanished from "+
			"the store", d.ContractID)
		return nil, fmt.Errorf("contractcourt: contract %s not found", d.ContractID)
	}

	account, err := contracts.DecodeContractAccount(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	incoming, ok := account.Contract.(contracts.FundedIncoming)
	if !ok {
		return nil, fmt.Errorf("contractcourt: %s is not an incoming contract", d.ContractID)
	}

	switch incoming.DecryptedPreimage.Status {
	case contracts.PreimagePending:
		d.epochsWaited++
		log.Tracef("DecryptionResolver(%v): still pending after %d epoch(s)",
			d.ContractID, d.epochsWaited)
		return d, nil

	case contracts.PreimageSome:
		log.Infof("DecryptionResolver(%v): decrypted successfully after "+
			"%d epoch(s)", d.ContractID, d.epochsWaited)

	case contracts.PreimageInvalid:
		log.Infof("DecryptionResolver(%v): decrypted to an invalid preimage "+
			"after %d epoch(s)", d.ContractID, d.epochsWaited)
	}

	d.resolved = true
	return nil, nil
}

// IsResolved reports whether this resolver has reached finality.
func (d *DecryptionResolver) IsResolved() bool {
	return d.resolved
}

// Encode writes the resolver's restart-recoverable state: the
// contract being tracked, the output that funded it, how many epochs
// it has waited, and whether it's already resolved.
func (d *DecryptionResolver) Encode(w io.Writer) error {
	if _, err := w.Write(d.ContractID[:]); err != nil {
		return err
	}
	if _, err := w.Write(d.OutPoint.Hash[:]); err != nil {
		return err
	}
	if err := binary.Write(w, endian, d.OutPoint.Index); err != nil {
		return err
	}
	if err := binary.Write(w, endian, d.epochsWaited); err != nil {
		return err
	}
	return binary.Write(w, endian, d.resolved)
}

// DecodeDecryptionResolver reads a resolver written by Encode and
// attaches kit as its toolkit.
func DecodeDecryptionResolver(r io.Reader, kit ResolverKit) (*DecryptionResolver, error) {
	d := &DecryptionResolver{ResolverKit: kit}

	if _, err := io.ReadFull(r, d.ContractID[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, d.OutPoint.Hash[:]); err != nil {
		return nil, err
	}
	if err := binary.Read(r, endian, &d.OutPoint.Index); err != nil {
		return nil, err
	}
	if err := binary.Read(r, endian, &d.epochsWaited); err != nil {
		return nil, err
	}
	if err := binary.Read(r, endian, &d.resolved); err != nil {
		return nil, err
	}

	return d, nil
}

// NewDecryptionResolver creates a fresh, unresolved resolver for a
// just-funded Incoming contract.
func NewDecryptionResolver(id contracts.ContractID, op wire.OutPoint, kit ResolverKit) *DecryptionResolver {
	return &DecryptionResolver{
		ContractID:  id,
		OutPoint:    op,
		ResolverKit: kit,
	}
}

var _ ContractResolver = (*DecryptionResolver)(nil)
