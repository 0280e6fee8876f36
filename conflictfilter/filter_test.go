package conflictfilter

import (
	"testing"

	"github.com/fedimint-go/lnmodule/contracts"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	name   string
	inputs []Input
}

func TestConflictFilterDropsSecondMintConflict(t *testing.T) {
	commitments := [][]byte{[]byte("nota"), []byte("noteb")}

	txs := []fakeTx{
		{name: "first", inputs: []Input{{Kind: MintInput, MintCommitments: commitments}}},
		{name: "second", inputs: []Input{{Kind: MintInput, MintCommitments: commitments}}},
		{name: "third", inputs: []Input{{Kind: MintInput, MintCommitments: [][]byte{[]byte("otherNote")}}}},
	}

	accepted := Apply(txs, func(tx fakeTx) []Input { return tx.inputs })

	require.Len(t, accepted, 2)
	require.Equal(t, "first", accepted[0].name)
	require.Equal(t, "third", accepted[1].name)
}

func TestConflictFilterContinuesPastAConflict(t *testing.T) {
	// A prior implementation stopped the whole stream on first
	// conflict; this one must keep evaluating later transactions.
	id := contracts.ContractID{1}

	txs := []fakeTx{
		{name: "a", inputs: []Input{{Kind: LightningInput, ContractID: id}}},
		{name: "b", inputs: []Input{{Kind: LightningInput, ContractID: id}}},
		{name: "c", inputs: []Input{{Kind: LightningInput, ContractID: contracts.ContractID{2}}}},
	}

	accepted := Apply(txs, func(tx fakeTx) []Input { return tx.inputs })

	names := make([]string, len(accepted))
	for i, tx := range accepted {
		names[i] = tx.name
	}
	require.Equal(t, []string{"a", "c"}, names)
}

func TestConflictFilterRejectsSelfConflictingTransaction(t *testing.T) {
	id := contracts.ContractID{9}

	tx := fakeTx{
		name: "double-spend-itself",
		inputs: []Input{
			{Kind: LightningInput, ContractID: id},
			{Kind: LightningInput, ContractID: id},
		},
	}

	f := New()
	require.False(t, f.Admit(tx.inputs))
}

func TestConflictFilterDropsDuplicatePegIn(t *testing.T) {
	witness := []byte("pegin-witness-bytes")

	txs := []fakeTx{
		{name: "first", inputs: []Input{{Kind: PegInInput, PegInWitness: witness}}},
		{name: "second", inputs: []Input{{Kind: PegInInput, PegInWitness: witness}}},
	}

	accepted := Apply(txs, func(tx fakeTx) []Input { return tx.inputs })
	require.Len(t, accepted, 1)
	require.Equal(t, "first", accepted[0].name)
}

func TestConflictFilterStateIsPerInvocation(t *testing.T) {
	id := contracts.ContractID{5}
	tx := fakeTx{name: "only", inputs: []Input{{Kind: LightningInput, ContractID: id}}}

	first := Apply([]fakeTx{tx}, func(tx fakeTx) []Input { return tx.inputs })
	require.Len(t, first, 1)

	// A fresh epoch (a new Apply call) must not remember the previous
	// one's state.
	second := Apply([]fakeTx{tx}, func(tx fakeTx) []Input { return tx.inputs })
	require.Len(t, second, 1)
}
