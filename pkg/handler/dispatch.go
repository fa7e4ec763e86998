// Copyright 2025 Synapse Web3
//
// Envelope-Level Dispatch For Grouped Transitions

package handler

import (
	"github.com/synapseweb3/ckb-ics/pkg/commitment"
	"github.com/synapseweb3/ckb-ics/pkg/message"
	"github.com/synapseweb3/ckb-ics/pkg/types"
)

// The channel transitions come in pairs that rewrite the same cells; the
// host harness cannot tell them apart without the envelope type tag, so
// dispatch lives here.

// ChannelOpenInitOrTry routes a channel-creation envelope to ChannelOpenInit
// or ChannelOpenTry.
func ChannelOpenInitOrTry(
	client Client,
	old types.IbcConnections,
	oldConnArgs types.ConnectionArgs,
	new types.IbcConnections,
	newConnArgs types.ConnectionArgs,
	ch types.IbcChannel,
	chArgs types.ChannelArgs,
	envelope message.Envelope,
	sink commitment.Sink,
) error {
	switch envelope.MsgType {
	case message.MsgTypeChannelOpenInit:
		var msg message.MsgChannelOpenInit
		if err := message.DecodeContent(envelope, &msg); err != nil {
			return err
		}
		return ChannelOpenInit(old, oldConnArgs, new, newConnArgs, ch, chArgs, sink, msg)
	case message.MsgTypeChannelOpenTry:
		var msg message.MsgChannelOpenTry
		if err := message.DecodeContent(envelope, &msg); err != nil {
			return err
		}
		return ChannelOpenTry(client, old, oldConnArgs, new, newConnArgs, ch, chArgs, sink, msg)
	default:
		return types.ErrEventNotMatch
	}
}

// ChannelOpenAckOrConfirm routes a handshake-completion envelope to
// ChannelOpenAck or ChannelOpenConfirm.
func ChannelOpenAckOrConfirm(
	client Client,
	old types.IbcChannel,
	oldArgs types.ChannelArgs,
	new types.IbcChannel,
	newArgs types.ChannelArgs,
	envelope message.Envelope,
	sink commitment.Sink,
) error {
	switch envelope.MsgType {
	case message.MsgTypeChannelOpenAck:
		var msg message.MsgChannelOpenAck
		if err := message.DecodeContent(envelope, &msg); err != nil {
			return err
		}
		return ChannelOpenAck(client, old, oldArgs, new, newArgs, sink, msg)
	case message.MsgTypeChannelOpenConfirm:
		var msg message.MsgChannelOpenConfirm
		if err := message.DecodeContent(envelope, &msg); err != nil {
			return err
		}
		return ChannelOpenConfirm(client, old, oldArgs, new, newArgs, sink, msg)
	default:
		return types.ErrEventNotMatch
	}
}

// ChannelCloseInitOrConfirm routes a close envelope to ChannelCloseInit or
// ChannelCloseConfirm.
func ChannelCloseInitOrConfirm(
	client Client,
	old types.IbcChannel,
	oldArgs types.ChannelArgs,
	new types.IbcChannel,
	newArgs types.ChannelArgs,
	envelope message.Envelope,
	sink commitment.Sink,
) error {
	switch envelope.MsgType {
	case message.MsgTypeChannelCloseInit:
		var msg message.MsgChannelCloseInit
		if err := message.DecodeContent(envelope, &msg); err != nil {
			return err
		}
		return ChannelCloseInit(old, oldArgs, new, newArgs, sink, msg)
	case message.MsgTypeChannelCloseConfirm:
		var msg message.MsgChannelCloseConfirm
		if err := message.DecodeContent(envelope, &msg); err != nil {
			return err
		}
		return ChannelCloseConfirm(client, old, oldArgs, new, newArgs, sink, msg)
	default:
		return types.ErrEventNotMatch
	}
}

// TimeoutPacket is declared in the message set but its transition is not
// part of this core. It is rejected explicitly so that a relayer can never
// smuggle it through as a no-op.
func TimeoutPacket(_ message.Envelope) error {
	return types.ErrEventNotMatch
}
