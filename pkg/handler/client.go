// Copyright 2025 Synapse Web3
//
// Remote-Chain Client Interface

package handler

import (
	clienttypes "github.com/cosmos/ibc-go/v10/modules/core/02-client/types"
)

// Client proves membership of commitments on the remote chain. The commitment
// prefix is always "ibc" on both chains of this bridge, so it is not passed.
type Client interface {
	// VerifyMembership checks that the remote chain has committed value at
	// the ICS-24 path as of the given height. proof is an opaque
	// commitment-proof blob interpreted by the implementation.
	VerifyMembership(height clienttypes.Height, proof, path, value []byte) error
}
