package contractdb

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Key prefixes. Each is a single byte so prefix scans are a plain
// byte-slice Seek on the underlying store; none of these collide with
// roundconsensus.DBPrefix (0x32), which belongs to a different module.
const (
	prefixContract               byte = 0x01
	prefixContractUpdate         byte = 0x02
	prefixOffer                  byte = 0x03
	prefixProposeDecryptionShare byte = 0x04
	prefixAgreedDecryptionShare  byte = 0x05
	prefixDecryptionResolver     byte = 0x06
)

// PeerID identifies a federation member by index into the guardian set.
type PeerID uint16

// ContractKey addresses the ContractAccount row for a given contract.
func ContractKey(id chainhash.Hash) []byte {
	key := make([]byte, 1, 33)
	key[0] = prefixContract
	return append(key, id[:]...)
}

// ContractKeyPrefix scans every persisted ContractAccount.
func ContractKeyPrefix() []byte {
	return []byte{prefixContract}
}

// ContractUpdateKey addresses the OutputOutcome row recorded for the
// mint output that created or touched a contract.
func ContractUpdateKey(op wire.OutPoint) []byte {
	key := make([]byte, 1, 37)
	key[0] = prefixContractUpdate
	key = append(key, op.Hash[:]...)
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], op.Index)
	return append(key, idx[:]...)
}

// ContractUpdateKeyPrefix scans every persisted OutputOutcome.
func ContractUpdateKeyPrefix() []byte {
	return []byte{prefixContractUpdate}
}

// OfferKey addresses an IncomingContractOffer by its payment hash.
func OfferKey(offerID chainhash.Hash) []byte {
	key := make([]byte, 1, 33)
	key[0] = prefixOffer
	return append(key, offerID[:]...)
}

// OfferKeyPrefix scans every persisted offer.
func OfferKeyPrefix() []byte {
	return []byte{prefixOffer}
}

// ProposeDecryptionShareKey addresses this peer's own not-yet-agreed
// decryption share proposal for a contract.
func ProposeDecryptionShareKey(contractID chainhash.Hash) []byte {
	key := make([]byte, 1, 33)
	key[0] = prefixProposeDecryptionShare
	return append(key, contractID[:]...)
}

// ProposeDecryptionShareKeyPrefix scans every outstanding proposal
// across all contracts.
func ProposeDecryptionShareKeyPrefix() []byte {
	return []byte{prefixProposeDecryptionShare}
}

// AgreedDecryptionShareKey addresses the decryption share a specific
// peer contributed for a specific contract, once validated into
// consensus.
func AgreedDecryptionShareKey(contractID chainhash.Hash, peer PeerID) []byte {
	key := make([]byte, 1, 35)
	key[0] = prefixAgreedDecryptionShare
	key = append(key, contractID[:]...)
	var p [2]byte
	binary.BigEndian.PutUint16(p[:], uint16(peer))
	return append(key, p[:]...)
}

// AgreedDecryptionShareContractPrefix scans every agreed share for one
// contract, across all peers — this is what end_consensus_epoch groups
// by contract_id before attempting to combine.
func AgreedDecryptionShareContractPrefix(contractID chainhash.Hash) []byte {
	key := make([]byte, 1, 33)
	key[0] = prefixAgreedDecryptionShare
	return append(key, contractID[:]...)
}

// AgreedDecryptionShareKeyPrefix scans every agreed share across every
// contract and every peer.
func AgreedDecryptionShareKeyPrefix() []byte {
	return []byte{prefixAgreedDecryptionShare}
}

// DecryptionResolverKey addresses the persisted resolver tracking one
// Incoming contract's decryption across epochs, keyed by contract_id.
func DecryptionResolverKey(contractID chainhash.Hash) []byte {
	key := make([]byte, 1, 33)
	key[0] = prefixDecryptionResolver
	return append(key, contractID[:]...)
}

// DecryptionResolverKeyPrefix scans every persisted resolver,
// end_consensus_epoch's entry point for driving them forward.
func DecryptionResolverKeyPrefix() []byte {
	return []byte{prefixDecryptionResolver}
}
