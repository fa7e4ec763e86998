// Copyright 2025 Synapse Web3
//
// Verification Error Taxonomy

package types

import "errors"

// Verification errors. Every handler and proof routine reports failure as
// exactly one of these sentinels (possibly wrapped with call-site context);
// callers match with errors.Is. The whole transaction aborts on the first
// violation, nothing is retried.
var (
	// Structural errors.
	ErrSerde      = errors.New("serde: malformed encoding")
	ErrMpt        = errors.New("mpt: proof does not witness the claim")
	ErrCommitment = errors.New("commitment: declared commitments do not match computed")

	// Argument mismatches between cell args and cell data.
	ErrWrongConnectionArgs    = errors.New("wrong connection args")
	ErrWrongChannelArgs       = errors.New("wrong channel args")
	ErrWrongPacketArgs        = errors.New("wrong packet args")
	ErrWrongIBCHandlerAddress = errors.New("wrong IBC handler address")

	// State-machine violations.
	ErrWrongConnectionState        = errors.New("wrong connection state")
	ErrWrongChannelState           = errors.New("wrong channel state")
	ErrWrongPacketStatus           = errors.New("wrong packet status")
	ErrWrongPacketSequence         = errors.New("wrong packet sequence")
	ErrWrongChannelSequence        = errors.New("wrong channel sequence")
	ErrWrongConnectionCounterparty = errors.New("wrong connection counterparty")
	ErrWrongConnectionID           = errors.New("wrong connection id")
	ErrWrongUnusedPacket           = errors.New("wrong unused packet")
	ErrWrongPacketAck              = errors.New("wrong packet acknowledgement")
	ErrWrongPacketContent          = errors.New("wrong packet content")
	ErrWrongChannel                = errors.New("wrong channel")

	// Dispatch errors.
	ErrEventNotMatch = errors.New("message type does not match transition shape")
)
