// Copyright 2025 Synapse Web3
//
// Axon Remote-Chain Client

// Package axon implements the remote-chain client for an Axon (EVM,
// proof-of-stake) counterparty: it decodes the relayer-supplied commitment
// proof, has the block proof checked against the tracked validator set, and
// verifies the commitment slot in the IBC handler contract's storage trie.
package axon

import (
	"fmt"
	"math/big"

	clienttypes "github.com/cosmos/ibc-go/v10/modules/core/02-client/types"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/synapseweb3/ckb-ics/pkg/mpt"
	"github.com/synapseweb3/ckb-ics/pkg/types"
)

// Header is the Axon block header. Field order is the RLP wire contract.
type Header struct {
	PrevHash              common.Hash
	Proposer              common.Address
	StateRoot             common.Hash
	TransactionsRoot      common.Hash
	SignedTxsHash         common.Hash
	ReceiptsRoot          common.Hash
	LogBloom              gethtypes.Bloom
	Difficulty            uint64
	Timestamp             uint64
	Number                uint64
	GasUsed               uint64
	GasLimit              uint64
	ExtraData             []byte
	MixedHash             common.Hash
	Nonce                 [8]byte
	BaseFeePerGas         *big.Int
	Proof                 BlockProof
	CallSystemScriptCount uint32
	ChainID               uint64
}

// Block is an Axon block: the header plus the transaction hash list.
type Block struct {
	Header   Header
	TxHashes []common.Hash
}

// BlockProof is the aggregate-signature proof over a block.
type BlockProof struct {
	Number    uint64
	Round     uint64
	BlockHash common.Hash
	Signature []byte
	Bitmap    []byte
}

// ValidatorExtend is one entry of the tracked Axon validator set.
type ValidatorExtend struct {
	BlsPubKey     []byte
	PubKey        []byte
	Address       common.Address
	ProposeWeight uint32
	VoteWeight    uint32
}

// CommitmentProof is the opaque proof blob carried by handshake and packet
// messages, RLP-encoded as
// (block, previous_state_root, block_proof, account_proof, storage_proof).
type CommitmentProof struct {
	Block             Block
	PreviousStateRoot common.Hash
	BlockProof        BlockProof
	AccountProof      [][]byte
	StorageProof      [][]byte
}

// BlockProofVerifier checks an Axon block proof against the tracked
// validator set. Consensus verification is outside this core; the validator
// slice is passed as a pointer because verification may rotate it (epoch
// changes update the set in place).
type BlockProofVerifier interface {
	VerifyBlockProof(block *Block, previousStateRoot common.Hash, validators *[]ValidatorExtend, proof *BlockProof) error
}

// Client tracks one Axon counterparty.
type Client struct {
	ibcHandlerAddress common.Address
	validators        []ValidatorExtend
	verifier          BlockProofVerifier
}

// NewClient builds a client for the given IBC handler contract and
// validator set. The validator set is the one decoded from the metadata
// cell by the host harness.
func NewClient(ibcHandlerAddress common.Address, validators []ValidatorExtend, verifier BlockProofVerifier) *Client {
	return &Client{
		ibcHandlerAddress: ibcHandlerAddress,
		validators:        validators,
		verifier:          verifier,
	}
}

// IBCHandlerAddress returns the tracked handler contract address.
func (c *Client) IBCHandlerAddress() common.Address {
	return c.ibcHandlerAddress
}

// Validators returns the current validator set.
func (c *Client) Validators() []ValidatorExtend {
	return c.validators
}

// VerifyMembership implements handler.Client: the remote chain has
// committed value at path as of the given height iff the block proof checks
// out against the validator set and the handler contract's storage trie
// maps the commitment slot of path to keccak256(value).
func (c *Client) VerifyMembership(height clienttypes.Height, proof, path, value []byte) error {
	var p CommitmentProof
	if err := rlp.DecodeBytes(proof, &p); err != nil {
		return fmt.Errorf("%w: commitment proof: %v", types.ErrSerde, err)
	}

	want := clienttypes.Height{RevisionNumber: 0, RevisionHeight: p.Block.Header.Number}
	if height != want {
		return fmt.Errorf("%w: proof height %d does not match block %d", types.ErrMpt, height.RevisionHeight, p.Block.Header.Number)
	}

	if err := c.verifier.VerifyBlockProof(&p.Block, p.PreviousStateRoot, &c.validators, &p.BlockProof); err != nil {
		return fmt.Errorf("%w: block proof: %v", types.ErrMpt, err)
	}

	var slotValue [32]byte
	copy(slotValue[:], crypto.Keccak256(value))
	return mpt.VerifyAccountAndStorage(
		p.Block.Header.StateRoot[:],
		c.ibcHandlerAddress[:],
		p.AccountProof,
		mpt.CommitmentSlot(path),
		slotValue,
		p.StorageProof,
	)
}
