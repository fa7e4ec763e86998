// Copyright 2025 Synapse Web3
//
// Packet Transitions

package handler

import (
	"fmt"
	"slices"

	"github.com/synapseweb3/ckb-ics/pkg/commitment"
	"github.com/synapseweb3/ckb-ics/pkg/message"
	"github.com/synapseweb3/ckb-ics/pkg/types"
)

// checkPacketChannel validates the channel pair surrounding a packet
// transition: only the sequence may move, the channel is Open, and the
// channel args stand still.
func checkPacketChannel(old types.IbcChannel, oldArgs types.ChannelArgs, new types.IbcChannel, newArgs types.ChannelArgs) error {
	if !old.EqualUnlessSequence(new) {
		return types.ErrWrongChannel
	}
	if oldArgs != newArgs {
		return types.ErrWrongChannelArgs
	}
	if new.State != types.StateOpen {
		return types.ErrWrongChannelState
	}
	return checkChannelArgsAgainstChannel(newArgs, new)
}

// checkPacketArgsSource matches packet args against the packet's source
// fields. Used on the sending chain, where the packet cell is keyed by its
// origin.
func checkPacketArgsSource(args types.PacketArgs, chArgs types.ChannelArgs, p types.Packet) error {
	if args.IBCHandlerAddress != chArgs.IBCHandlerAddress {
		return types.ErrWrongIBCHandlerAddress
	}
	if args.PortIDString() != p.SourcePortID ||
		args.ChannelIDString() != p.SourceChannelID ||
		args.Sequence != p.Sequence {
		return types.ErrWrongPacketArgs
	}
	return nil
}

// checkPacketArgsDestination matches packet args against the packet's
// destination fields. Used on the receiving chain.
func checkPacketArgsDestination(args types.PacketArgs, chArgs types.ChannelArgs, p types.Packet) error {
	if args.IBCHandlerAddress != chArgs.IBCHandlerAddress {
		return types.ErrWrongIBCHandlerAddress
	}
	if args.PortIDString() != p.DestinationPortID ||
		args.ChannelIDString() != p.DestinationChannelID ||
		args.Sequence != p.Sequence {
		return types.ErrWrongPacketArgs
	}
	return nil
}

// SendPacket verifies packet emission on the source chain and commits the
// packet hash for the counterparty to consume.
func SendPacket(
	old types.IbcChannel,
	oldArgs types.ChannelArgs,
	new types.IbcChannel,
	newArgs types.ChannelArgs,
	packet types.IbcPacket,
	packetArgs types.PacketArgs,
	sink commitment.Sink,
	_ message.MsgSendPacket,
) error {
	if err := checkPacketChannel(old, oldArgs, new, newArgs); err != nil {
		return err
	}
	if err := checkPacketArgsSource(packetArgs, newArgs, packet.Packet); err != nil {
		return err
	}
	if packet.Packet.SourcePortID != new.PortID ||
		packet.Packet.SourceChannelID != types.ChannelIDString(new.Number) {
		return fmt.Errorf("%w: source is not this channel", types.ErrWrongPacketContent)
	}
	if packet.Packet.DestinationPortID != new.Counterparty.PortID ||
		packet.Packet.DestinationChannelID != new.Counterparty.ChannelID {
		return fmt.Errorf("%w: destination is not the counterparty", types.ErrWrongPacketContent)
	}
	if packet.Status != types.StatusSend {
		return types.ErrWrongPacketStatus
	}
	if packet.Ack != nil {
		return types.ErrWrongPacketAck
	}
	if packet.Packet.Sequence != old.Sequence.NextSequenceSends {
		return types.ErrWrongPacketSequence
	}
	if !old.Sequence.NextSendIs(new.Sequence) {
		return types.ErrWrongChannelSequence
	}

	return sink.WriteCommitments([]commitment.PathValue{{
		Path:  commitment.PacketCommitmentPath(packet.Packet.SourcePortID, packet.Packet.SourceChannelID, packet.Packet.Sequence),
		Value: commitment.PacketCommitment(packet.Packet),
	}})
}

// RecvPacket verifies packet reception on the destination chain against the
// sender's commitment. An already consumed WriteAck packet cell may be
// passed alongside for garbage collection; it must be a stale one. No local
// commitment is produced.
func RecvPacket(
	client Client,
	old types.IbcChannel,
	oldArgs types.ChannelArgs,
	new types.IbcChannel,
	newArgs types.ChannelArgs,
	uselessPacket *types.IbcPacket,
	packet types.IbcPacket,
	packetArgs types.PacketArgs,
	sink commitment.Sink,
	msg message.MsgRecvPacket,
) error {
	if uselessPacket != nil {
		if uselessPacket.Status != types.StatusWriteAck ||
			uselessPacket.Packet.Sequence+1 >= old.Sequence.NextSequenceRecvs {
			return types.ErrWrongUnusedPacket
		}
	}
	if err := checkPacketChannel(old, oldArgs, new, newArgs); err != nil {
		return err
	}
	if err := checkPacketArgsDestination(packetArgs, newArgs, packet.Packet); err != nil {
		return err
	}
	if packet.Packet.DestinationPortID != new.PortID ||
		packet.Packet.DestinationChannelID != types.ChannelIDString(new.Number) {
		return fmt.Errorf("%w: destination is not this channel", types.ErrWrongPacketContent)
	}
	if packet.Packet.SourcePortID != new.Counterparty.PortID ||
		packet.Packet.SourceChannelID != new.Counterparty.ChannelID {
		return fmt.Errorf("%w: source is not the counterparty", types.ErrWrongPacketContent)
	}
	if packet.Status != types.StatusRecv {
		return types.ErrWrongPacketStatus
	}
	if packet.Ack != nil {
		return types.ErrWrongPacketAck
	}

	seq := packet.Packet.Sequence
	if old.Order == types.OrderingUnordered {
		if slices.Contains(old.Sequence.ReceivedSequences, seq) {
			return types.ErrWrongPacketSequence
		}
		if !old.Sequence.NextRecvIs(new.Sequence, &seq) {
			return types.ErrWrongChannelSequence
		}
	} else {
		if seq != old.Sequence.NextSequenceRecvs {
			return types.ErrWrongPacketSequence
		}
		if !old.Sequence.NextRecvIs(new.Sequence, nil) {
			return types.ErrWrongChannelSequence
		}
	}

	path := commitment.PacketCommitmentPath(packet.Packet.SourcePortID, packet.Packet.SourceChannelID, seq)
	value := commitment.PacketCommitment(packet.Packet)
	if err := client.VerifyMembership(msg.ProofHeight, msg.ProofCommitment, []byte(path), value); err != nil {
		return err
	}

	return commitment.WriteNone(sink)
}

// WriteAckPacket verifies the acknowledgement write on the destination
// chain and commits the acknowledgement hash for the counterparty.
func WriteAckPacket(
	old types.IbcChannel,
	oldArgs types.ChannelArgs,
	new types.IbcChannel,
	newArgs types.ChannelArgs,
	oldPacket types.IbcPacket,
	oldPacketArgs types.PacketArgs,
	newPacket types.IbcPacket,
	newPacketArgs types.PacketArgs,
	sink commitment.Sink,
	_ message.MsgWriteAckPacket,
) error {
	if !old.Equal(new) {
		return types.ErrWrongChannel
	}
	if oldArgs != newArgs {
		return types.ErrWrongChannelArgs
	}
	if new.State != types.StateOpen {
		return types.ErrWrongChannelState
	}
	if oldPacketArgs != newPacketArgs {
		return types.ErrWrongPacketArgs
	}
	if err := checkPacketArgsDestination(newPacketArgs, newArgs, newPacket.Packet); err != nil {
		return err
	}
	if oldPacket.Status != types.StatusRecv || newPacket.Status != types.StatusWriteAck {
		return types.ErrWrongPacketStatus
	}
	if oldPacket.Ack != nil || len(newPacket.Ack) == 0 {
		return types.ErrWrongPacketAck
	}
	if !oldPacket.Packet.Equal(newPacket.Packet) {
		return types.ErrWrongPacketContent
	}

	p := newPacket.Packet
	return sink.WriteCommitments([]commitment.PathValue{{
		Path:  commitment.PacketAcknowledgementPath(p.DestinationPortID, p.DestinationChannelID, p.Sequence),
		Value: commitment.AckCommitment(newPacket.Ack),
	}})
}

// AckPacket verifies acknowledgement delivery back on the source chain
// against the counterparty's acknowledgement commitment. No local
// commitment is produced.
func AckPacket(
	client Client,
	old types.IbcChannel,
	oldArgs types.ChannelArgs,
	new types.IbcChannel,
	newArgs types.ChannelArgs,
	oldPacket types.IbcPacket,
	oldPacketArgs types.PacketArgs,
	newPacket types.IbcPacket,
	newPacketArgs types.PacketArgs,
	sink commitment.Sink,
	msg message.MsgAckPacket,
) error {
	if err := checkPacketChannel(old, oldArgs, new, newArgs); err != nil {
		return err
	}
	if oldPacketArgs != newPacketArgs {
		return types.ErrWrongPacketArgs
	}
	if err := checkPacketArgsSource(newPacketArgs, newArgs, newPacket.Packet); err != nil {
		return err
	}
	if oldPacket.Status != types.StatusSend || newPacket.Status != types.StatusAck {
		return types.ErrWrongPacketStatus
	}
	if oldPacket.Ack != nil || len(newPacket.Ack) == 0 {
		return types.ErrWrongPacketAck
	}
	if !oldPacket.Packet.Equal(newPacket.Packet) {
		return types.ErrWrongPacketContent
	}

	unordered := old.Order == types.OrderingUnordered
	if !unordered && newPacket.Packet.Sequence != old.Sequence.NextSequenceAcks {
		return types.ErrWrongPacketSequence
	}
	if !old.Sequence.NextAckIs(new.Sequence, unordered) {
		return types.ErrWrongChannelSequence
	}

	p := newPacket.Packet
	path := commitment.PacketAcknowledgementPath(p.DestinationPortID, p.DestinationChannelID, p.Sequence)
	value := commitment.AckCommitment(newPacket.Ack)
	if err := client.VerifyMembership(msg.ProofHeight, msg.ProofAcked, []byte(path), value); err != nil {
		return err
	}

	return commitment.WriteNone(sink)
}

// ConsumeAckPacket verifies garbage collection of a fully acknowledged
// packet cell. Any Ack packet may be consumed.
func ConsumeAckPacket(
	oldPacket types.IbcPacket,
	_ types.PacketArgs,
	sink commitment.Sink,
	_ message.MsgConsumeAckPacket,
) error {
	if oldPacket.Status != types.StatusAck {
		return types.ErrWrongPacketStatus
	}
	return commitment.WriteNone(sink)
}
