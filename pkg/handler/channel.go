// Copyright 2025 Synapse Web3
//
// Channel Handshake And Close Transitions

package handler

import (
	"fmt"

	"github.com/synapseweb3/ckb-ics/pkg/commitment"
	"github.com/synapseweb3/ckb-ics/pkg/message"
	"github.com/synapseweb3/ckb-ics/pkg/types"
)

// channelCommitment builds the local commitment recorded for a channel end
// after a transition: the ICS protobuf encoding at
// channelEnds/ports/{port}/channels/{channel}.
func channelCommitment(ch types.IbcChannel) (commitment.PathValue, error) {
	value, err := localChannelBytes(ch)
	if err != nil {
		return commitment.PathValue{}, err
	}
	return commitment.PathValue{
		Path:  commitment.ChannelPath(ch.PortID, types.ChannelIDString(ch.Number)),
		Value: value,
	}, nil
}

// checkChannelArgsAgainstChannel enforces the args/payload coupling: the
// args identify exactly the channel cell they lock.
func checkChannelArgsAgainstChannel(args types.ChannelArgs, ch types.IbcChannel) error {
	if args.ChannelID != ch.Number || args.PortIDString() != ch.PortID {
		return fmt.Errorf("%w: args do not identify the channel", types.ErrWrongChannelArgs)
	}
	return nil
}

// checkChannelCreation validates the shape shared by ChannelOpenInit and
// ChannelOpenTry: the connections cell allocates the channel number, the
// underlying connection is Open, and the fresh channel points back at it.
func checkChannelCreation(
	old types.IbcConnections,
	oldConnArgs types.ConnectionArgs,
	new types.IbcConnections,
	newConnArgs types.ConnectionArgs,
	ch types.IbcChannel,
	chArgs types.ChannelArgs,
) error {
	if oldConnArgs != newConnArgs {
		return types.ErrWrongConnectionArgs
	}
	if new.NextChannelNumber != old.NextChannelNumber+1 {
		return fmt.Errorf("%w: next channel number must advance by one", types.ErrWrongChannel)
	}
	if len(new.Connections) != len(old.Connections) {
		return fmt.Errorf("%w: connection vector changed", types.ErrWrongConnectionID)
	}
	for i := range old.Connections {
		if !old.Connections[i].Equal(new.Connections[i]) {
			return fmt.Errorf("%w: connection %d changed", types.ErrWrongConnectionID, i)
		}
	}

	if chArgs.MetadataTypeID != newConnArgs.MetadataTypeID {
		return fmt.Errorf("%w: metadata type id", types.ErrWrongChannelArgs)
	}
	if chArgs.IBCHandlerAddress != newConnArgs.IBCHandlerAddress {
		return types.ErrWrongIBCHandlerAddress
	}
	if chArgs.Open {
		return fmt.Errorf("%w: open flag set during handshake", types.ErrWrongChannelArgs)
	}
	if chArgs.ChannelID != old.NextChannelNumber {
		return fmt.Errorf("%w: channel id must be the allocated number", types.ErrWrongChannelArgs)
	}
	if err := checkChannelArgsAgainstChannel(chArgs, ch); err != nil {
		return err
	}

	if len(ch.ConnectionHops) != 1 {
		return fmt.Errorf("%w: want exactly one connection hop", types.ErrWrongChannel)
	}
	index, err := types.ConnectionIDToIndex(ch.ConnectionHops[0])
	if err != nil {
		return err
	}
	if index >= len(new.Connections) {
		return fmt.Errorf("%w: connection hop out of range", types.ErrWrongConnectionID)
	}
	if ch.ConnectionHops[0] != types.ConnectionID(newConnArgs.ClientID(), index) {
		return fmt.Errorf("%w: connection hop id", types.ErrWrongConnectionID)
	}
	conn := new.Connections[index]
	if conn.State != types.StateOpen {
		return types.ErrWrongConnectionState
	}
	if ch.Counterparty.ConnectionID != conn.Counterparty.ConnectionID {
		return fmt.Errorf("%w: channel counterparty connection", types.ErrWrongConnectionCounterparty)
	}
	if !ch.Sequence.Equal(types.DefaultSequence()) {
		return types.ErrWrongChannelSequence
	}
	if ch.Order != types.OrderingOrdered && ch.Order != types.OrderingUnordered {
		return fmt.Errorf("%w: ordering", types.ErrWrongChannel)
	}
	return nil
}

// ChannelOpenInit verifies channel creation on chain A: a fresh Init
// channel backed by an Open connection, counterparty channel still unknown.
func ChannelOpenInit(
	old types.IbcConnections,
	oldConnArgs types.ConnectionArgs,
	new types.IbcConnections,
	newConnArgs types.ConnectionArgs,
	ch types.IbcChannel,
	chArgs types.ChannelArgs,
	sink commitment.Sink,
	_ message.MsgChannelOpenInit,
) error {
	if err := checkChannelCreation(old, oldConnArgs, new, newConnArgs, ch, chArgs); err != nil {
		return err
	}
	if ch.State != types.StateInit {
		return types.ErrWrongChannelState
	}
	if ch.Counterparty.ChannelID != "" {
		return fmt.Errorf("%w: counterparty channel id must be empty", types.ErrWrongChannel)
	}

	kv, err := channelCommitment(ch)
	if err != nil {
		return err
	}
	return sink.WriteCommitments([]commitment.PathValue{kv})
}

// ChannelOpenTry verifies channel creation on chain B, proving the
// counterparty holds the matching Init channel.
func ChannelOpenTry(
	client Client,
	old types.IbcConnections,
	oldConnArgs types.ConnectionArgs,
	new types.IbcConnections,
	newConnArgs types.ConnectionArgs,
	ch types.IbcChannel,
	chArgs types.ChannelArgs,
	sink commitment.Sink,
	msg message.MsgChannelOpenTry,
) error {
	if err := checkChannelCreation(old, oldConnArgs, new, newConnArgs, ch, chArgs); err != nil {
		return err
	}
	if ch.State != types.StateOpenTry {
		return types.ErrWrongChannelState
	}
	if ch.Counterparty.ChannelID == "" || ch.Counterparty.PortID == "" {
		return fmt.Errorf("%w: counterparty channel unknown", types.ErrWrongChannel)
	}

	// The counterparty created its end first and does not know our channel
	// id yet.
	expected, err := expectedChannelBytes(types.StateInit, ch, false)
	if err != nil {
		return err
	}
	path := commitment.ChannelPath(ch.Counterparty.PortID, ch.Counterparty.ChannelID)
	if err := client.VerifyMembership(msg.ProofHeight, msg.ProofInit, []byte(path), expected); err != nil {
		return err
	}

	kv, err := channelCommitment(ch)
	if err != nil {
		return err
	}
	return sink.WriteCommitments([]commitment.PathValue{kv})
}

// checkChannelOpenFinish validates the args shape shared by OpenAck and
// OpenConfirm: the open flag flips, everything else stands still.
func checkChannelOpenFinish(oldArgs, newArgs types.ChannelArgs, newCh types.IbcChannel) error {
	if !oldArgs.EqualUnlessOpen(newArgs) {
		return types.ErrWrongChannelArgs
	}
	if oldArgs.Open || !newArgs.Open {
		return fmt.Errorf("%w: open flag must flip", types.ErrWrongChannelArgs)
	}
	return checkChannelArgsAgainstChannel(newArgs, newCh)
}

// ChannelOpenAck verifies the third handshake step on chain A: Init moves
// to Open, adopting the counterparty channel id and version, against a
// proven TryOpen end on the counterparty.
func ChannelOpenAck(
	client Client,
	old types.IbcChannel,
	oldArgs types.ChannelArgs,
	new types.IbcChannel,
	newArgs types.ChannelArgs,
	sink commitment.Sink,
	msg message.MsgChannelOpenAck,
) error {
	if err := checkChannelOpenFinish(oldArgs, newArgs, new); err != nil {
		return err
	}
	if !new.EqualUnlessStateAndCounterparty(old) {
		return types.ErrWrongChannel
	}
	if new.Counterparty.ChannelID == "" || new.Counterparty.PortID == "" {
		return fmt.Errorf("%w: counterparty channel unknown", types.ErrWrongChannel)
	}
	if old.State != types.StateInit || new.State != types.StateOpen {
		return types.ErrWrongChannelState
	}

	expected, err := expectedChannelBytes(types.StateOpenTry, new, true)
	if err != nil {
		return err
	}
	path := commitment.ChannelPath(new.Counterparty.PortID, new.Counterparty.ChannelID)
	if err := client.VerifyMembership(msg.ProofHeight, msg.ProofTry, []byte(path), expected); err != nil {
		return err
	}

	kv, err := channelCommitment(new)
	if err != nil {
		return err
	}
	return sink.WriteCommitments([]commitment.PathValue{kv})
}

// ChannelOpenConfirm verifies the final handshake step on chain B: TryOpen
// moves to Open with nothing else changing, against a proven Open end on
// the counterparty.
func ChannelOpenConfirm(
	client Client,
	old types.IbcChannel,
	oldArgs types.ChannelArgs,
	new types.IbcChannel,
	newArgs types.ChannelArgs,
	sink commitment.Sink,
	msg message.MsgChannelOpenConfirm,
) error {
	if err := checkChannelOpenFinish(oldArgs, newArgs, new); err != nil {
		return err
	}
	if !new.EqualUnlessStateChanged(old) {
		return types.ErrWrongChannel
	}
	if old.State != types.StateOpenTry || new.State != types.StateOpen {
		return types.ErrWrongChannelState
	}

	expected, err := expectedChannelBytes(types.StateOpen, new, true)
	if err != nil {
		return err
	}
	path := commitment.ChannelPath(new.Counterparty.PortID, new.Counterparty.ChannelID)
	if err := client.VerifyMembership(msg.ProofHeight, msg.ProofAck, []byte(path), expected); err != nil {
		return err
	}

	kv, err := channelCommitment(new)
	if err != nil {
		return err
	}
	return sink.WriteCommitments([]commitment.PathValue{kv})
}

// checkChannelClose validates the shared close shape: Open becomes Closed,
// the args open flag drops, nothing else moves.
func checkChannelClose(old types.IbcChannel, oldArgs types.ChannelArgs, new types.IbcChannel, newArgs types.ChannelArgs) error {
	if !oldArgs.EqualUnlessOpen(newArgs) {
		return types.ErrWrongChannelArgs
	}
	if !oldArgs.Open || newArgs.Open {
		return fmt.Errorf("%w: open flag must drop", types.ErrWrongChannelArgs)
	}
	if err := checkChannelArgsAgainstChannel(newArgs, new); err != nil {
		return err
	}
	if !new.EqualUnlessStateChanged(old) {
		return types.ErrWrongChannel
	}
	if old.State != types.StateOpen || new.State != types.StateClosed {
		return types.ErrWrongChannelState
	}
	return nil
}

// ChannelCloseInit verifies a voluntary close. Closed is terminal.
func ChannelCloseInit(
	old types.IbcChannel,
	oldArgs types.ChannelArgs,
	new types.IbcChannel,
	newArgs types.ChannelArgs,
	sink commitment.Sink,
	_ message.MsgChannelCloseInit,
) error {
	if err := checkChannelClose(old, oldArgs, new, newArgs); err != nil {
		return err
	}
	kv, err := channelCommitment(new)
	if err != nil {
		return err
	}
	return sink.WriteCommitments([]commitment.PathValue{kv})
}

// ChannelCloseConfirm verifies a close driven by the counterparty, proving
// their end already Closed.
func ChannelCloseConfirm(
	client Client,
	old types.IbcChannel,
	oldArgs types.ChannelArgs,
	new types.IbcChannel,
	newArgs types.ChannelArgs,
	sink commitment.Sink,
	msg message.MsgChannelCloseConfirm,
) error {
	if err := checkChannelClose(old, oldArgs, new, newArgs); err != nil {
		return err
	}

	expected, err := expectedChannelBytes(types.StateClosed, new, true)
	if err != nil {
		return err
	}
	path := commitment.ChannelPath(new.Counterparty.PortID, new.Counterparty.ChannelID)
	if err := client.VerifyMembership(msg.ProofHeight, msg.ProofInit, []byte(path), expected); err != nil {
		return err
	}

	kv, err := channelCommitment(new)
	if err != nil {
		return err
	}
	return sink.WriteCommitments([]commitment.PathValue{kv})
}
