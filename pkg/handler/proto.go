// Copyright 2025 Synapse Web3
//
// Counterparty Protobuf Object Construction

package handler

import (
	"fmt"

	connectiontypes "github.com/cosmos/ibc-go/v10/modules/core/03-connection/types"
	channeltypes "github.com/cosmos/ibc-go/v10/modules/core/04-channel/types"
	commitmenttypes "github.com/cosmos/ibc-go/v10/modules/core/23-commitment/types"

	"github.com/synapseweb3/ckb-ics/pkg/types"
)

// The values committed at connection and channel paths are the canonical
// ICS protobuf encodings of the remote IBC implementation. They are compared
// byte-equal against trie values, so the construction here must track that
// schema exactly.

func connectionStateToProto(s types.State) (connectiontypes.State, error) {
	switch s {
	case types.StateInit:
		return connectiontypes.INIT, nil
	case types.StateOpenTry:
		return connectiontypes.TRYOPEN, nil
	case types.StateOpen:
		return connectiontypes.OPEN, nil
	default:
		return connectiontypes.UNINITIALIZED, fmt.Errorf("%w: connection state %d", types.ErrWrongConnectionState, s)
	}
}

func channelStateToProto(s types.State) (channeltypes.State, error) {
	switch s {
	case types.StateInit:
		return channeltypes.INIT, nil
	case types.StateOpenTry:
		return channeltypes.TRYOPEN, nil
	case types.StateOpen:
		return channeltypes.OPEN, nil
	case types.StateClosed:
		return channeltypes.CLOSED, nil
	default:
		return channeltypes.UNINITIALIZED, fmt.Errorf("%w: channel state %d", types.ErrWrongChannelState, s)
	}
}

func orderingToProto(o types.Ordering) (channeltypes.Order, error) {
	switch o {
	case types.OrderingUnordered:
		return channeltypes.UNORDERED, nil
	case types.OrderingOrdered:
		return channeltypes.ORDERED, nil
	default:
		return channeltypes.NONE, fmt.Errorf("%w: ordering %d", types.ErrWrongChannel, o)
	}
}

func versionsToProto(vs []types.Version) []*connectiontypes.Version {
	out := make([]*connectiontypes.Version, len(vs))
	for i, v := range vs {
		out[i] = &connectiontypes.Version{Identifier: v.Identifier, Features: v.Features}
	}
	return out
}

// connectionProtoBytes renders a connection end in the ICS schema:
// clientID is the writing chain's own client identifier, counterparty names
// the other end.
func connectionProtoBytes(state types.State, clientID string, counterparty types.ConnectionCounterparty, delayPeriod uint64, versions []types.Version) ([]byte, error) {
	protoState, err := connectionStateToProto(state)
	if err != nil {
		return nil, err
	}
	end := connectiontypes.ConnectionEnd{
		ClientId: clientID,
		Versions: versionsToProto(versions),
		State:    protoState,
		Counterparty: connectiontypes.Counterparty{
			ClientId:     counterparty.ClientID,
			ConnectionId: counterparty.ConnectionID,
			Prefix:       commitmenttypes.NewMerklePrefix(types.CommitmentPrefix()),
		},
		DelayPeriod: delayPeriod,
	}
	b, err := end.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSerde, err)
	}
	return b, nil
}

// channelProtoBytes renders a channel end in the ICS schema.
func channelProtoBytes(state types.State, order types.Ordering, counterpartyPortID, counterpartyChannelID string, connectionHops []string, version string) ([]byte, error) {
	protoState, err := channelStateToProto(state)
	if err != nil {
		return nil, err
	}
	protoOrder, err := orderingToProto(order)
	if err != nil {
		return nil, err
	}
	ch := channeltypes.Channel{
		State:    protoState,
		Ordering: protoOrder,
		Counterparty: channeltypes.Counterparty{
			PortId:    counterpartyPortID,
			ChannelId: counterpartyChannelID,
		},
		ConnectionHops: connectionHops,
		Version:        version,
	}
	b, err := ch.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSerde, err)
	}
	return b, nil
}

// localChannelBytes renders our own channel end, as committed locally at
// channelEnds/ports/{port}/channels/{channel}.
func localChannelBytes(ch types.IbcChannel) ([]byte, error) {
	return channelProtoBytes(ch.State, ch.Order, ch.Counterparty.PortID, ch.Counterparty.ChannelID, ch.ConnectionHops, ch.Version)
}

// expectedChannelBytes renders the channel end the counterparty chain must
// have stored: its counterparty is us, its single hop is its own connection
// (which our channel records as the counterparty connection id).
func expectedChannelBytes(state types.State, ch types.IbcChannel, counterpartyKnowsChannel bool) ([]byte, error) {
	ourChannelID := ""
	if counterpartyKnowsChannel {
		ourChannelID = types.ChannelIDString(ch.Number)
	}
	return channelProtoBytes(state, ch.Order, ch.PortID, ourChannelID, []string{ch.Counterparty.ConnectionID}, ch.Version)
}
