// Copyright 2025 Synapse Web3
//
// Connection Handshake Transitions

package handler

import (
	"fmt"

	"github.com/synapseweb3/ckb-ics/pkg/commitment"
	"github.com/synapseweb3/ckb-ics/pkg/message"
	"github.com/synapseweb3/ckb-ics/pkg/types"
)

// checkConnectionArgs rejects any drift between the old and new connection
// cell args.
func checkConnectionArgs(oldArgs, newArgs types.ConnectionArgs) error {
	if oldArgs != newArgs {
		return types.ErrWrongConnectionArgs
	}
	return nil
}

// checkAppendedConnection validates the shape shared by OpenInit and
// OpenTry: the vector grows by exactly one end, every prior entry is
// byte-identical, the channel allocator stands still. Returns the appended
// end.
func checkAppendedConnection(old, new types.IbcConnections) (types.ConnectionEnd, error) {
	if len(new.Connections) != len(old.Connections)+1 {
		return types.ConnectionEnd{}, fmt.Errorf("%w: connection vector must grow by one", types.ErrWrongConnectionID)
	}
	if new.NextChannelNumber != old.NextChannelNumber {
		return types.ConnectionEnd{}, fmt.Errorf("%w: next channel number changed", types.ErrWrongConnectionID)
	}
	for i := range old.Connections {
		if !old.Connections[i].Equal(new.Connections[i]) {
			return types.ConnectionEnd{}, fmt.Errorf("%w: connection %d changed", types.ErrWrongConnectionID, i)
		}
	}
	return new.Connections[len(new.Connections)-1], nil
}

// checkConnectionEndFixed validates the per-end constants: the protocol
// commitment prefix and the hard-coded version vector.
func checkConnectionEndFixed(end types.ConnectionEnd) error {
	if string(end.Counterparty.CommitmentPrefix) != string(types.CommitmentPrefix()) {
		return fmt.Errorf("%w: commitment prefix", types.ErrWrongConnectionCounterparty)
	}
	if !types.VersionsEqual(end.Versions, types.DefaultVersions()) {
		return fmt.Errorf("%w: versions", types.ErrWrongConnectionState)
	}
	return nil
}

// connectionCommitment builds the local commitment recorded for the
// connection at the given index: the ICS protobuf encoding of the end after
// the transition, at connections/{id}.
func connectionCommitment(clientID string, index int, end types.ConnectionEnd) (commitment.PathValue, error) {
	value, err := connectionProtoBytes(end.State, clientID, end.Counterparty, end.DelayPeriod, end.Versions)
	if err != nil {
		return commitment.PathValue{}, err
	}
	return commitment.PathValue{
		Path:  commitment.ConnectionPath(types.ConnectionID(clientID, index)),
		Value: value,
	}, nil
}

// ConnectionOpenInit verifies the first step of the handshake on chain A:
// a fresh end in state Init is appended, pointing at the counterparty
// client with no counterparty connection allocated yet.
func ConnectionOpenInit(
	old types.IbcConnections,
	oldArgs types.ConnectionArgs,
	new types.IbcConnections,
	newArgs types.ConnectionArgs,
	sink commitment.Sink,
	_ message.MsgConnectionOpenInit,
) error {
	if err := checkConnectionArgs(oldArgs, newArgs); err != nil {
		return err
	}
	appended, err := checkAppendedConnection(old, new)
	if err != nil {
		return err
	}
	if appended.State != types.StateInit {
		return types.ErrWrongConnectionState
	}
	if appended.Counterparty.ConnectionID != "" {
		return fmt.Errorf("%w: counterparty connection id must be empty", types.ErrWrongConnectionCounterparty)
	}
	if err := checkConnectionEndFixed(appended); err != nil {
		return err
	}

	kv, err := connectionCommitment(newArgs.ClientID(), len(new.Connections)-1, appended)
	if err != nil {
		return err
	}
	return sink.WriteCommitments([]commitment.PathValue{kv})
}

// ConnectionOpenTry verifies the second step on chain B: a fresh end in
// state TryOpen is appended, and the counterparty is proven to have an Init
// end for us.
func ConnectionOpenTry(
	client Client,
	old types.IbcConnections,
	oldArgs types.ConnectionArgs,
	new types.IbcConnections,
	newArgs types.ConnectionArgs,
	sink commitment.Sink,
	msg message.MsgConnectionOpenTry,
) error {
	if err := checkConnectionArgs(oldArgs, newArgs); err != nil {
		return err
	}
	appended, err := checkAppendedConnection(old, new)
	if err != nil {
		return err
	}
	if appended.State != types.StateOpenTry {
		return types.ErrWrongConnectionState
	}
	if appended.Counterparty.ConnectionID == "" {
		return fmt.Errorf("%w: counterparty connection id missing", types.ErrWrongConnectionCounterparty)
	}
	if err := checkConnectionEndFixed(appended); err != nil {
		return err
	}

	clientID := newArgs.ClientID()
	expected, err := connectionProtoBytes(
		types.StateInit,
		appended.Counterparty.ClientID,
		types.ConnectionCounterparty{
			ClientID:         clientID,
			CommitmentPrefix: types.CommitmentPrefix(),
		},
		appended.DelayPeriod,
		appended.Versions,
	)
	if err != nil {
		return err
	}
	path := commitment.ConnectionPath(appended.Counterparty.ConnectionID)
	if err := client.VerifyMembership(msg.ProofHeight, msg.ProofInit, []byte(path), expected); err != nil {
		return err
	}

	kv, err := connectionCommitment(clientID, len(new.Connections)-1, appended)
	if err != nil {
		return err
	}
	return sink.WriteCommitments([]commitment.PathValue{kv})
}

// checkConnectionTransition validates the shape shared by OpenAck and
// OpenConfirm: same vector length, every other entry untouched, the indexed
// end keeps its identity. Returns (old end, new end).
func checkConnectionTransition(old, new types.IbcConnections, index int) (types.ConnectionEnd, types.ConnectionEnd, error) {
	var zero types.ConnectionEnd
	if len(old.Connections) != len(new.Connections) {
		return zero, zero, fmt.Errorf("%w: connection vector length changed", types.ErrWrongConnectionID)
	}
	if index < 0 || index >= len(new.Connections) {
		return zero, zero, fmt.Errorf("%w: connection index %d out of range", types.ErrWrongConnectionID, index)
	}
	if new.NextChannelNumber != old.NextChannelNumber {
		return zero, zero, fmt.Errorf("%w: next channel number changed", types.ErrWrongConnectionID)
	}
	for i := range old.Connections {
		if i != index && !old.Connections[i].Equal(new.Connections[i]) {
			return zero, zero, fmt.Errorf("%w: connection %d changed", types.ErrWrongConnectionID, i)
		}
	}
	oldEnd := old.Connections[index]
	newEnd := new.Connections[index]
	if oldEnd.DelayPeriod != newEnd.DelayPeriod || !types.VersionsEqual(oldEnd.Versions, newEnd.Versions) {
		return zero, zero, fmt.Errorf("%w: connection %d identity changed", types.ErrWrongConnectionID, index)
	}
	if oldEnd.Counterparty.ClientID != newEnd.Counterparty.ClientID ||
		string(oldEnd.Counterparty.CommitmentPrefix) != string(newEnd.Counterparty.CommitmentPrefix) {
		return zero, zero, types.ErrWrongConnectionCounterparty
	}
	return oldEnd, newEnd, nil
}

// ConnectionOpenAck verifies the third step on chain A: the Init end moves
// to Open, learning the counterparty connection id, and the counterparty is
// proven to hold a TryOpen end for us.
func ConnectionOpenAck(
	client Client,
	old types.IbcConnections,
	oldArgs types.ConnectionArgs,
	new types.IbcConnections,
	newArgs types.ConnectionArgs,
	sink commitment.Sink,
	msg message.MsgConnectionOpenAck,
) error {
	if err := checkConnectionArgs(oldArgs, newArgs); err != nil {
		return err
	}
	index := int(msg.ConnIDOnA)
	oldEnd, newEnd, err := checkConnectionTransition(old, new, index)
	if err != nil {
		return err
	}
	if oldEnd.State != types.StateInit || newEnd.State != types.StateOpen {
		return types.ErrWrongConnectionState
	}
	if oldEnd.Counterparty.ConnectionID != "" {
		return fmt.Errorf("%w: counterparty connection id set before ack", types.ErrWrongConnectionCounterparty)
	}
	if newEnd.Counterparty.ConnectionID == "" {
		return fmt.Errorf("%w: counterparty connection id missing", types.ErrWrongConnectionCounterparty)
	}

	clientID := newArgs.ClientID()
	expected, err := connectionProtoBytes(
		types.StateOpenTry,
		newEnd.Counterparty.ClientID,
		types.ConnectionCounterparty{
			ClientID:         clientID,
			ConnectionID:     types.ConnectionID(clientID, index),
			CommitmentPrefix: types.CommitmentPrefix(),
		},
		newEnd.DelayPeriod,
		newEnd.Versions,
	)
	if err != nil {
		return err
	}
	path := commitment.ConnectionPath(newEnd.Counterparty.ConnectionID)
	if err := client.VerifyMembership(msg.ProofHeight, msg.ProofTry, []byte(path), expected); err != nil {
		return err
	}

	kv, err := connectionCommitment(clientID, index, newEnd)
	if err != nil {
		return err
	}
	return sink.WriteCommitments([]commitment.PathValue{kv})
}

// ConnectionOpenConfirm verifies the final step on chain B: the TryOpen end
// moves to Open with nothing else changing, and the counterparty is proven
// Open.
func ConnectionOpenConfirm(
	client Client,
	old types.IbcConnections,
	oldArgs types.ConnectionArgs,
	new types.IbcConnections,
	newArgs types.ConnectionArgs,
	sink commitment.Sink,
	msg message.MsgConnectionOpenConfirm,
) error {
	if err := checkConnectionArgs(oldArgs, newArgs); err != nil {
		return err
	}
	index := int(msg.ConnIDOnB)
	oldEnd, newEnd, err := checkConnectionTransition(old, new, index)
	if err != nil {
		return err
	}
	if oldEnd.Counterparty.ConnectionID != newEnd.Counterparty.ConnectionID {
		return fmt.Errorf("%w: counterparty connection id changed", types.ErrWrongConnectionCounterparty)
	}
	if oldEnd.State != types.StateOpenTry || newEnd.State != types.StateOpen {
		return types.ErrWrongConnectionState
	}

	clientID := newArgs.ClientID()
	expected, err := connectionProtoBytes(
		types.StateOpen,
		newEnd.Counterparty.ClientID,
		types.ConnectionCounterparty{
			ClientID:         clientID,
			ConnectionID:     types.ConnectionID(clientID, index),
			CommitmentPrefix: types.CommitmentPrefix(),
		},
		newEnd.DelayPeriod,
		newEnd.Versions,
	)
	if err != nil {
		return err
	}
	path := commitment.ConnectionPath(newEnd.Counterparty.ConnectionID)
	if err := client.VerifyMembership(msg.ProofHeight, msg.ProofAck, []byte(path), expected); err != nil {
		return err
	}

	kv, err := connectionCommitment(clientID, index, newEnd)
	if err != nil {
		return err
	}
	return sink.WriteCommitments([]commitment.PathValue{kv})
}
