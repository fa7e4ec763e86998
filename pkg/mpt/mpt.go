// Copyright 2025 Synapse Web3
//
// Merkle Patricia Trie Storage-Proof Verifier

// Package mpt walks Merkle-Patricia-Trie proofs from a known root along a
// nibble path. A proof witnesses either membership (the exact value) or
// absence (an empty slice); callers decide which outcome is acceptable.
package mpt

import (
	"bytes"
	"fmt"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/synapseweb3/ckb-ics/pkg/types"
)

// element is one RLP item of a trie node, with its raw bytes retained so
// nested nodes can be re-entered without copying.
type element struct {
	kind    rlp.Kind
	content []byte
	raw     []byte
}

func splitElements(listContent []byte) ([]element, error) {
	var elems []element
	rest := listContent
	for len(rest) > 0 {
		k, content, next, err := rlp.Split(rest)
		if err != nil {
			return nil, err
		}
		elems = append(elems, element{kind: k, content: content, raw: rest[:len(rest)-len(next)]})
		rest = next
	}
	return elems, nil
}

// VerifyProof walks the proof nodes from root along the nibble-decoded
// path. It returns the value stored at path, or an empty slice if the proof
// shows the path absent, or ErrMpt if the proof is malformed or does not
// link back to the root.
func VerifyProof(root []byte, path []byte, proof [][]byte) ([]byte, error) {
	if bytes.Equal(root, gethtypes.EmptyRootHash[:]) {
		return nil, nil
	}

	next := 0
	nodeByHash := func(h []byte) ([]byte, error) {
		if next >= len(proof) {
			return nil, fmt.Errorf("%w: proof exhausted", types.ErrMpt)
		}
		node := proof[next]
		next++
		if !bytes.Equal(h, crypto.Keccak256(node)) {
			return nil, fmt.Errorf("%w: node hash mismatch", types.ErrMpt)
		}
		return node, nil
	}

	pathNibbles := len(path) * 2
	node, err := nodeByHash(root)
	if err != nil {
		return nil, err
	}
	pathOffset := 0

	// Loop invariant: path[..pathOffset] nibbles have been traversed and
	// node is the current MPT node.
	for {
		listContent, _, err := rlp.SplitList(node)
		if err != nil {
			return nil, fmt.Errorf("%w: node is not a list", types.ErrMpt)
		}
		elems, err := splitElements(listContent)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed node", types.ErrMpt)
		}

		switch len(elems) {
		case 17:
			if pathOffset == pathNibbles {
				// Branch value.
				if elems[16].kind == rlp.List {
					return nil, fmt.Errorf("%w: branch value is a list", types.ErrMpt)
				}
				return elems[16].content, nil
			}
			child := elems[nibble(path, pathOffset)]
			pathOffset++
			switch {
			case child.kind != rlp.List && len(child.content) == 0:
				// Empty branch slot: path proven absent.
				return nil, nil
			case child.kind == rlp.List:
				// Nested node, stored inline.
				node = child.raw
			default:
				node, err = nodeByHash(child.content)
				if err != nil {
					return nil, err
				}
			}
		case 2:
			if elems[0].kind == rlp.List {
				return nil, fmt.Errorf("%w: node path is a list", types.ErrMpt)
			}
			nodePath := elems[0].content
			skip, isLeaf, err := skipLength(nodePath)
			if err != nil {
				return nil, err
			}
			nodeNibbles := len(nodePath)*2 - skip
			common := commonPrefix(path, pathOffset, nodePath, skip)
			pathOffset += common
			switch {
			case common < nodeNibbles:
				// Paths diverge: proven absent.
				return nil, nil
			case isLeaf:
				if pathOffset == pathNibbles {
					if elems[1].kind == rlp.List {
						return nil, fmt.Errorf("%w: leaf value is a list", types.ErrMpt)
					}
					return elems[1].content, nil
				}
				// Path continues past the leaf: proven absent.
				return nil, nil
			case elems[1].kind == rlp.List:
				node = elems[1].raw
			default:
				node, err = nodeByHash(elems[1].content)
				if err != nil {
					return nil, err
				}
			}
		default:
			return nil, fmt.Errorf("%w: node has %d items", types.ErrMpt, len(elems))
		}
	}
}

// skipLength decodes the hex-prefix flag nibble: how many nibbles of the
// encoded path to skip and whether the node is a leaf.
func skipLength(nodePath []byte) (int, bool, error) {
	if len(nodePath) == 0 {
		return 0, false, fmt.Errorf("%w: empty node path", types.ErrMpt)
	}
	switch nibble(nodePath, 0) {
	case 0:
		return 2, false, nil
	case 1:
		return 1, false, nil
	case 2:
		return 2, true, nil
	case 3:
		return 1, true, nil
	default:
		return 0, false, fmt.Errorf("%w: invalid hex prefix", types.ErrMpt)
	}
}

func nibble(buf []byte, offset int) byte {
	b := buf[offset/2]
	if offset%2 == 0 {
		return b >> 4
	}
	return b & 0xF
}

// commonPrefix counts the shared nibbles of buf a starting at nibble
// offset aOff and buf b starting at bOff.
func commonPrefix(a []byte, aOff int, b []byte, bOff int) int {
	n := 0
	for aOff+n < len(a)*2 && bOff+n < len(b)*2 && nibble(a, aOff+n) == nibble(b, bOff+n) {
		n++
	}
	return n
}

// VerifyAccountAndStorage proves that the account's storage trie commits
// slot → slotValue under the state trie with the given root. Both tries are
// secure (keys are keccak-hashed) and the stored slot value is the RLP of
// its big-endian integer, per Ethereum storage layout. A zero slotValue
// requires the slot to be absent.
func VerifyAccountAndStorage(stateRoot []byte, address []byte, accountProof [][]byte, slot [32]byte, slotValue [32]byte, storageProof [][]byte) error {
	accountBytes, err := VerifyProof(stateRoot, crypto.Keccak256(address), accountProof)
	if err != nil {
		return err
	}
	var account gethtypes.StateAccount
	if err := rlp.DecodeBytes(accountBytes, &account); err != nil {
		return fmt.Errorf("%w: account leaf: %v", types.ErrMpt, err)
	}

	var expected []byte
	if slotValue != ([32]byte{}) {
		expected, err = rlp.EncodeToBytes(new(uint256.Int).SetBytes(slotValue[:]))
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrMpt, err)
		}
	}

	trieValue, err := VerifyProof(account.Root[:], crypto.Keccak256(slot[:]), storageProof)
	if err != nil {
		return err
	}
	if !bytes.Equal(trieValue, expected) {
		return fmt.Errorf("%w: slot value mismatch", types.ErrMpt)
	}
	return nil
}

// CommitmentSlot derives the storage slot of a commitment path in the IBC
// handler contract: keccak256(keccak256(path) ∥ [0;32]), the Solidity
// layout for mapping(bytes32 => bytes32) at slot 0.
func CommitmentSlot(path []byte) [32]byte {
	var zero [32]byte
	var out [32]byte
	copy(out[:], crypto.Keccak256(crypto.Keccak256(path), zero[:]))
	return out
}
