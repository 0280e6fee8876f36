// Package conflictfilter is a single-pass, per-epoch deduplication
// transform over a batch of transactions: it drops any transaction
// that reuses a mint coin bundle, a peg-in witness, or a Lightning
// contract spend already accepted earlier in the same batch.
//
// A prior Rust implementation of this idea modeled the filter as a
// lazy Iterator adapter that stopped the whole stream on the first
// conflict. That terminates the batch early instead of merely
// dropping the offending transaction, so this package instead scans
// every transaction and skips only the ones that conflict, matching
// "first-seen-in-the-ordered-stream wins" applied transaction by
// transaction rather than to the stream as a whole.
package conflictfilter

import (
	"crypto/sha256"

	"github.com/fedimint-go/lnmodule/contracts"
)

// InputKind discriminates the three input variants this filter
// dedups by, each against its own uniqueness key.
type InputKind uint8

const (
	// MintInput spends a bundle of mint note commitments.
	MintInput InputKind = iota
	// PegInInput redeems an on-chain peg-in proof.
	PegInInput
	// LightningInput spends a Lightning contract account.
	LightningInput
)

// Input is the minimal shape this filter needs from one transaction
// input, regardless of kind.
type Input struct {
	Kind InputKind

	// MintCommitments is the ordered multiset of coin commitments
	// spent together, set when Kind == MintInput.
	MintCommitments [][]byte

	// PegInWitness is the canonical encoding of the peg-in witness,
	// set when Kind == PegInInput.
	PegInWitness []byte

	// ContractID is the spent contract's ID, set when
	// Kind == LightningInput.
	ContractID contracts.ContractID
}

// mintKey folds an ordered commitment multiset into one map key,
// preserving order so that [a,b] and [b,a] are distinct bundles.
func mintKey(commitments [][]byte) string {
	h := sha256.New()
	for _, c := range commitments {
		h.Write(c)
	}
	return string(h.Sum(nil))
}

// Filter accumulates the per-kind uniqueness sets seen so far in one
// epoch. It is not safe for concurrent use; the engine drives it
// single-threaded per the module's concurrency model.
type Filter struct {
	mintSeen     map[string]struct{}
	pegInSeen    map[string]struct{}
	contractSeen map[contracts.ContractID]struct{}
}

// New starts a fresh filter with empty per-kind sets, for one epoch.
func New() *Filter {
	return &Filter{
		mintSeen:     make(map[string]struct{}),
		pegInSeen:    make(map[string]struct{}),
		contractSeen: make(map[contracts.ContractID]struct{}),
	}
}

// Admit checks every input of one transaction against the sets
// accumulated so far. If any input's key is already present — whether
// from an earlier transaction in this epoch, or from a duplicate
// within this same transaction's own input list — the whole
// transaction is rejected and none of its keys are recorded. If every
// input is fresh, all of them are committed and the transaction is
// admitted.
func (f *Filter) Admit(inputs []Input) bool {
	mintKeys := make([]string, 0, len(inputs))
	pegInKeys := make([]string, 0, len(inputs))
	contractKeys := make([]contracts.ContractID, 0, len(inputs))

	seenMint := make(map[string]struct{})
	seenPegIn := make(map[string]struct{})
	seenContract := make(map[contracts.ContractID]struct{})

	for _, in := range inputs {
		switch in.Kind {
		case MintInput:
			key := mintKey(in.MintCommitments)
			if _, dup := f.mintSeen[key]; dup {
				return false
			}
			if _, dup := seenMint[key]; dup {
				return false
			}
			seenMint[key] = struct{}{}
			mintKeys = append(mintKeys, key)

		case PegInInput:
			key := string(in.PegInWitness)
			if _, dup := f.pegInSeen[key]; dup {
				return false
			}
			if _, dup := seenPegIn[key]; dup {
				return false
			}
			seenPegIn[key] = struct{}{}
			pegInKeys = append(pegInKeys, key)

		case LightningInput:
			if _, dup := f.contractSeen[in.ContractID]; dup {
				return false
			}
			if _, dup := seenContract[in.ContractID]; dup {
				return false
			}
			seenContract[in.ContractID] = struct{}{}
			contractKeys = append(contractKeys, in.ContractID)
		}
	}

	for _, key := range mintKeys {
		f.mintSeen[key] = struct{}{}
	}
	for _, key := range pegInKeys {
		f.pegInSeen[key] = struct{}{}
	}
	for _, id := range contractKeys {
		f.contractSeen[id] = struct{}{}
	}

	return true
}

// Apply runs Filter over a full epoch's ordered transaction slice in
// one call, returning only the accepted transactions in their
// original relative order. inputsOf extracts the filterable inputs
// from whatever transaction representation the caller uses.
func Apply[T any](txs []T, inputsOf func(T) []Input) []T {
	f := New()

	accepted := make([]T, 0, len(txs))
	for _, tx := range txs {
		if f.Admit(inputsOf(tx)) {
			accepted = append(accepted, tx)
			continue
		}
		log.Debugf("conflictfilter: dropping transaction with a duplicate input")
	}
	return accepted
}
