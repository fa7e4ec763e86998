// Copyright 2025 Synapse Web3
//
// Transition Handler Tests

package handler

import (
	"errors"
	"slices"
	"testing"

	clienttypes "github.com/cosmos/ibc-go/v10/modules/core/02-client/types"

	"github.com/synapseweb3/ckb-ics/pkg/commitment"
	"github.com/synapseweb3/ckb-ics/pkg/message"
	"github.com/synapseweb3/ckb-ics/pkg/types"
)

// stubClient accepts every membership proof.
type stubClient struct{}

func (stubClient) VerifyMembership(clienttypes.Height, []byte, []byte, []byte) error {
	return nil
}

// commitmentsClient accepts a membership proof iff the hashed pair is among
// the commitments the counterparty handler produced. This is how the two
// sides of the scenario tests are glued together without a real chain.
type commitmentsClient struct {
	kvs []commitment.KV
}

func (c commitmentsClient) VerifyMembership(_ clienttypes.Height, _ []byte, path, value []byte) error {
	expected := commitment.MakeKV(string(path), value)
	if slices.Contains(c.kvs, expected) {
		return nil
	}
	return types.ErrMpt
}

func discard() *commitment.Writer {
	return &commitment.Writer{}
}

func initConnectionEnd(counterpartyClient string) types.ConnectionEnd {
	end := types.DefaultConnectionEnd()
	end.State = types.StateInit
	end.Counterparty.ClientID = counterpartyClient
	return end
}

func TestConnectionOpenInit(t *testing.T) {
	args := types.ConnectionArgs{}
	old := types.IbcConnections{}
	new := types.IbcConnections{
		Connections: []types.ConnectionEnd{initConnectionEnd("remote")},
	}

	if err := ConnectionOpenInit(old, args, new, args, discard(), message.MsgConnectionOpenInit{}); err != nil {
		t.Fatalf("open init: %v", err)
	}
}

func TestConnectionOpenInitRejectsWrongState(t *testing.T) {
	args := types.ConnectionArgs{}
	end := types.DefaultConnectionEnd()
	end.State = types.StateOpenTry
	new := types.IbcConnections{Connections: []types.ConnectionEnd{end}}

	err := ConnectionOpenInit(types.IbcConnections{}, args, new, args, discard(), message.MsgConnectionOpenInit{})
	if !errors.Is(err, types.ErrWrongConnectionState) {
		t.Fatalf("got %v, want ErrWrongConnectionState", err)
	}
}

func TestConnectionOpenInitRejectsChangedPriorEntry(t *testing.T) {
	args := types.ConnectionArgs{}
	old := types.IbcConnections{
		Connections: []types.ConnectionEnd{types.DefaultConnectionEnd()},
	}
	changed := types.DefaultConnectionEnd()
	changed.DelayPeriod = 1
	new := types.IbcConnections{
		Connections: []types.ConnectionEnd{changed, initConnectionEnd("remote")},
	}

	err := ConnectionOpenInit(old, args, new, args, discard(), message.MsgConnectionOpenInit{})
	if !errors.Is(err, types.ErrWrongConnectionID) {
		t.Fatalf("got %v, want ErrWrongConnectionID", err)
	}
}

func TestConnectionOpenTry(t *testing.T) {
	args := types.ConnectionArgs{}
	end := types.DefaultConnectionEnd()
	end.State = types.StateOpenTry
	end.Counterparty.ClientID = "remoteclient"
	end.Counterparty.ConnectionID = "remote-connection-0"
	new := types.IbcConnections{Connections: []types.ConnectionEnd{end}}

	msg := message.MsgConnectionOpenTry{ProofHeight: clienttypes.Height{}}
	if err := ConnectionOpenTry(stubClient{}, types.IbcConnections{}, args, new, args, discard(), msg); err != nil {
		t.Fatalf("open try: %v", err)
	}
}

func TestConnectionOpenTryRequiresCounterpartyConnection(t *testing.T) {
	args := types.ConnectionArgs{}
	end := types.DefaultConnectionEnd()
	end.State = types.StateOpenTry
	new := types.IbcConnections{Connections: []types.ConnectionEnd{end}}

	err := ConnectionOpenTry(stubClient{}, types.IbcConnections{}, args, new, args, discard(), message.MsgConnectionOpenTry{})
	if !errors.Is(err, types.ErrWrongConnectionCounterparty) {
		t.Fatalf("got %v, want ErrWrongConnectionCounterparty", err)
	}
}

func TestConnectionOpenAck(t *testing.T) {
	args := types.ConnectionArgs{}

	oldEnd := types.DefaultConnectionEnd()
	oldEnd.State = types.StateInit
	newEnd := types.DefaultConnectionEnd()
	newEnd.State = types.StateOpen
	newEnd.Counterparty.ConnectionID = "remote-connection-7"

	pad := types.DefaultConnectionEnd()
	old := types.IbcConnections{Connections: []types.ConnectionEnd{pad, oldEnd, pad}}
	new := types.IbcConnections{Connections: []types.ConnectionEnd{pad, newEnd, pad}}

	msg := message.MsgConnectionOpenAck{ConnIDOnA: 1}
	if err := ConnectionOpenAck(stubClient{}, old, args, new, args, discard(), msg); err != nil {
		t.Fatalf("open ack: %v", err)
	}
}

func TestConnectionOpenAckRejectsTouchingOtherEntries(t *testing.T) {
	args := types.ConnectionArgs{}

	oldEnd := types.DefaultConnectionEnd()
	oldEnd.State = types.StateInit
	newEnd := types.DefaultConnectionEnd()
	newEnd.State = types.StateOpen
	newEnd.Counterparty.ConnectionID = "remote-connection-7"

	pad := types.DefaultConnectionEnd()
	touched := types.DefaultConnectionEnd()
	touched.DelayPeriod = 3
	old := types.IbcConnections{Connections: []types.ConnectionEnd{pad, oldEnd}}
	new := types.IbcConnections{Connections: []types.ConnectionEnd{touched, newEnd}}

	err := ConnectionOpenAck(stubClient{}, old, args, new, args, discard(), message.MsgConnectionOpenAck{ConnIDOnA: 1})
	if !errors.Is(err, types.ErrWrongConnectionID) {
		t.Fatalf("got %v, want ErrWrongConnectionID", err)
	}
}

func TestConnectionOpenConfirm(t *testing.T) {
	args := types.ConnectionArgs{}

	oldEnd := types.DefaultConnectionEnd()
	oldEnd.State = types.StateOpenTry
	oldEnd.Counterparty.ConnectionID = "remote-connection-1"
	newEnd := types.DefaultConnectionEnd()
	newEnd.State = types.StateOpen
	newEnd.Counterparty.ConnectionID = "remote-connection-1"

	old := types.IbcConnections{Connections: []types.ConnectionEnd{oldEnd}}
	new := types.IbcConnections{Connections: []types.ConnectionEnd{newEnd}}

	msg := message.MsgConnectionOpenConfirm{ConnIDOnB: 0}
	if err := ConnectionOpenConfirm(stubClient{}, old, args, new, args, discard(), msg); err != nil {
		t.Fatalf("open confirm: %v", err)
	}
}

// openConnections builds a single-entry connections cell whose end is Open,
// ready to carry a channel.
func openConnections(counterpartyClient, counterpartyConnection string) types.IbcConnections {
	end := types.DefaultConnectionEnd()
	end.State = types.StateOpen
	end.Counterparty.ClientID = counterpartyClient
	end.Counterparty.ConnectionID = counterpartyConnection
	return types.IbcConnections{Connections: []types.ConnectionEnd{end}}
}

func freshChannel(connArgs types.ConnectionArgs, chArgs types.ChannelArgs, counterpartyConnection string) types.IbcChannel {
	ch := types.DefaultIbcChannel(chArgs.ChannelID, chArgs.PortIDString())
	ch.Order = types.OrderingUnordered
	ch.ConnectionHops = []string{types.ConnectionID(connArgs.ClientID(), 0)}
	ch.Counterparty.ConnectionID = counterpartyConnection
	return ch
}

func TestChannelOpenInit(t *testing.T) {
	connArgs := types.ConnectionArgs{}
	chArgs := types.ChannelArgs{}
	old := openConnections("remote", "rem-connection-0")
	new := openConnections("remote", "rem-connection-0")
	new.NextChannelNumber = 1

	ch := freshChannel(connArgs, chArgs, "rem-connection-0")
	ch.State = types.StateInit

	err := ChannelOpenInit(old, connArgs, new, connArgs, ch, chArgs, discard(), message.MsgChannelOpenInit{})
	if err != nil {
		t.Fatalf("channel open init: %v", err)
	}
}

func TestChannelOpenInitRejectsUnopenedConnection(t *testing.T) {
	connArgs := types.ConnectionArgs{}
	chArgs := types.ChannelArgs{}
	old := openConnections("remote", "rem-connection-0")
	old.Connections[0].State = types.StateInit
	new := openConnections("remote", "rem-connection-0")
	new.Connections[0].State = types.StateInit
	new.NextChannelNumber = 1

	ch := freshChannel(connArgs, chArgs, "rem-connection-0")
	ch.State = types.StateInit

	err := ChannelOpenInit(old, connArgs, new, connArgs, ch, chArgs, discard(), message.MsgChannelOpenInit{})
	if !errors.Is(err, types.ErrWrongConnectionState) {
		t.Fatalf("got %v, want ErrWrongConnectionState", err)
	}
}

func TestChannelOpenInitRejectsStaleChannelNumber(t *testing.T) {
	connArgs := types.ConnectionArgs{}
	chArgs := types.ChannelArgs{}
	old := openConnections("remote", "rem-connection-0")
	new := openConnections("remote", "rem-connection-0")

	ch := freshChannel(connArgs, chArgs, "rem-connection-0")
	ch.State = types.StateInit

	err := ChannelOpenInit(old, connArgs, new, connArgs, ch, chArgs, discard(), message.MsgChannelOpenInit{})
	if !errors.Is(err, types.ErrWrongChannel) {
		t.Fatalf("got %v, want ErrWrongChannel", err)
	}
}

func TestChannelOpenTry(t *testing.T) {
	connArgs := types.ConnectionArgs{}
	chArgs := types.ChannelArgs{}
	old := openConnections("remote", "rem-connection-0")
	new := openConnections("remote", "rem-connection-0")
	new.NextChannelNumber = 1

	ch := freshChannel(connArgs, chArgs, "rem-connection-0")
	ch.State = types.StateOpenTry
	ch.Counterparty.PortID = "aa"
	ch.Counterparty.ChannelID = "channel-0"

	err := ChannelOpenTry(stubClient{}, old, connArgs, new, connArgs, ch, chArgs, discard(), message.MsgChannelOpenTry{})
	if err != nil {
		t.Fatalf("channel open try: %v", err)
	}
}

func TestChannelOpenAck(t *testing.T) {
	chArgs := types.ChannelArgs{}
	openArgs := chArgs
	openArgs.Open = true

	old := types.DefaultIbcChannel(0, chArgs.PortIDString())
	old.Order = types.OrderingUnordered
	old.State = types.StateInit
	old.Counterparty.PortID = "aa"

	new := old
	new.State = types.StateOpen
	new.Counterparty.ChannelID = "channel-5"

	err := ChannelOpenAck(stubClient{}, old, chArgs, new, openArgs, discard(), message.MsgChannelOpenAck{})
	if err != nil {
		t.Fatalf("channel open ack: %v", err)
	}
}

func TestChannelOpenAckRejectsUnflippedArgs(t *testing.T) {
	chArgs := types.ChannelArgs{}

	old := types.DefaultIbcChannel(0, chArgs.PortIDString())
	old.Order = types.OrderingUnordered
	old.State = types.StateInit
	old.Counterparty.PortID = "aa"

	new := old
	new.State = types.StateOpen
	new.Counterparty.ChannelID = "channel-5"

	err := ChannelOpenAck(stubClient{}, old, chArgs, new, chArgs, discard(), message.MsgChannelOpenAck{})
	if !errors.Is(err, types.ErrWrongChannelArgs) {
		t.Fatalf("got %v, want ErrWrongChannelArgs", err)
	}
}

func TestChannelOpenConfirm(t *testing.T) {
	chArgs := types.ChannelArgs{}
	openArgs := chArgs
	openArgs.Open = true

	old := types.DefaultIbcChannel(0, chArgs.PortIDString())
	old.Order = types.OrderingUnordered
	old.State = types.StateOpenTry
	old.Counterparty.PortID = "aa"
	old.Counterparty.ChannelID = "channel-5"

	new := old
	new.State = types.StateOpen

	err := ChannelOpenConfirm(stubClient{}, old, chArgs, new, openArgs, discard(), message.MsgChannelOpenConfirm{})
	if err != nil {
		t.Fatalf("channel open confirm: %v", err)
	}
}

func TestChannelOpenConfirmRejectsChangedOrdering(t *testing.T) {
	chArgs := types.ChannelArgs{}
	openArgs := chArgs
	openArgs.Open = true

	old := types.DefaultIbcChannel(0, chArgs.PortIDString())
	old.Order = types.OrderingUnordered
	old.State = types.StateOpenTry
	old.Counterparty.PortID = "aa"
	old.Counterparty.ChannelID = "channel-5"

	new := old
	new.State = types.StateOpen
	new.Order = types.OrderingOrdered

	err := ChannelOpenConfirm(stubClient{}, old, chArgs, new, openArgs, discard(), message.MsgChannelOpenConfirm{})
	if !errors.Is(err, types.ErrWrongChannel) {
		t.Fatalf("got %v, want ErrWrongChannel", err)
	}
}

func TestChannelCloseInit(t *testing.T) {
	chArgs := types.ChannelArgs{Open: true}
	closedArgs := chArgs
	closedArgs.Open = false

	old := types.DefaultIbcChannel(0, chArgs.PortIDString())
	old.Order = types.OrderingUnordered
	old.State = types.StateOpen

	new := old
	new.State = types.StateClosed

	err := ChannelCloseInit(old, chArgs, new, closedArgs, discard(), message.MsgChannelCloseInit{})
	if err != nil {
		t.Fatalf("close init: %v", err)
	}
}

func TestChannelCloseInitRejectsOpenArgs(t *testing.T) {
	chArgs := types.ChannelArgs{Open: true}

	old := types.DefaultIbcChannel(0, chArgs.PortIDString())
	old.Order = types.OrderingUnordered
	old.State = types.StateOpen

	new := old
	new.State = types.StateClosed

	err := ChannelCloseInit(old, chArgs, new, chArgs, discard(), message.MsgChannelCloseInit{})
	if !errors.Is(err, types.ErrWrongChannelArgs) {
		t.Fatalf("got %v, want ErrWrongChannelArgs", err)
	}
}

func TestChannelCloseConfirm(t *testing.T) {
	chArgs := types.ChannelArgs{Open: true}
	closedArgs := chArgs
	closedArgs.Open = false

	old := types.DefaultIbcChannel(0, chArgs.PortIDString())
	old.Order = types.OrderingUnordered
	old.State = types.StateOpen
	old.Counterparty.PortID = "aa"
	old.Counterparty.ChannelID = "channel-5"

	new := old
	new.State = types.StateClosed

	err := ChannelCloseConfirm(stubClient{}, old, chArgs, new, closedArgs, discard(), message.MsgChannelCloseConfirm{})
	if err != nil {
		t.Fatalf("close confirm: %v", err)
	}
}

func TestChannelCloseConfirmRejectsWrongState(t *testing.T) {
	chArgs := types.ChannelArgs{Open: true}
	closedArgs := chArgs
	closedArgs.Open = false

	old := types.DefaultIbcChannel(0, chArgs.PortIDString())
	old.Order = types.OrderingUnordered
	old.State = types.StateOpen

	new := old // state stays Open

	err := ChannelCloseConfirm(stubClient{}, old, chArgs, new, closedArgs, discard(), message.MsgChannelCloseConfirm{})
	if !errors.Is(err, types.ErrWrongChannelState) {
		t.Fatalf("got %v, want ErrWrongChannelState", err)
	}
}

// openChannel builds a channel in state Open whose counterparty is set,
// together with matching args.
func openChannel(order types.Ordering) (types.IbcChannel, types.ChannelArgs) {
	args := types.ChannelArgs{Open: true}
	ch := types.DefaultIbcChannel(0, args.PortIDString())
	ch.Order = order
	ch.State = types.StateOpen
	ch.Counterparty.PortID = "cc"
	ch.Counterparty.ChannelID = "channel-9"
	return ch, args
}

func sendPacketFor(ch types.IbcChannel, args types.ChannelArgs, seq uint64) (types.IbcPacket, types.PacketArgs) {
	p := types.IbcPacket{
		Packet: types.Packet{
			Sequence:             seq,
			SourcePortID:         ch.PortID,
			SourceChannelID:      types.ChannelIDString(ch.Number),
			DestinationPortID:    ch.Counterparty.PortID,
			DestinationChannelID: ch.Counterparty.ChannelID,
			Data:                 []byte{73, 73, 73, 73},
		},
		Status: types.StatusSend,
	}
	pa := types.PacketArgs{
		IBCHandlerAddress: args.IBCHandlerAddress,
		ChannelID:         ch.Number,
		PortID:            args.PortID,
		Sequence:          seq,
	}
	return p, pa
}

func TestSendPacket(t *testing.T) {
	old, args := openChannel(types.OrderingOrdered)
	new := old
	new.Sequence.NextSequenceSends = 2

	packet, packetArgs := sendPacketFor(old, args, 1)
	w := &commitment.Writer{}
	if err := SendPacket(old, args, new, args, packet, packetArgs, w, message.MsgSendPacket{}); err != nil {
		t.Fatalf("send packet: %v", err)
	}
	if len(w.Commitments()) != 1 {
		t.Fatalf("send packet produced %d commitments", len(w.Commitments()))
	}
}

func TestSendPacketRejectsWrongSequence(t *testing.T) {
	old, args := openChannel(types.OrderingOrdered)
	new := old
	new.Sequence.NextSequenceSends = 2

	packet, packetArgs := sendPacketFor(old, args, 2)
	err := SendPacket(old, args, new, args, packet, packetArgs, discard(), message.MsgSendPacket{})
	if !errors.Is(err, types.ErrWrongPacketSequence) {
		t.Fatalf("got %v, want ErrWrongPacketSequence", err)
	}
}

func recvPacketFor(ch types.IbcChannel, args types.ChannelArgs, seq uint64) (types.IbcPacket, types.PacketArgs) {
	p := types.IbcPacket{
		Packet: types.Packet{
			Sequence:             seq,
			SourcePortID:         ch.Counterparty.PortID,
			SourceChannelID:      ch.Counterparty.ChannelID,
			DestinationPortID:    ch.PortID,
			DestinationChannelID: types.ChannelIDString(ch.Number),
			Data:                 []byte{1, 2, 3},
		},
		Status: types.StatusRecv,
	}
	pa := types.PacketArgs{
		IBCHandlerAddress: args.IBCHandlerAddress,
		ChannelID:         ch.Number,
		PortID:            args.PortID,
		Sequence:          seq,
	}
	return p, pa
}

func TestRecvPacketOrdered(t *testing.T) {
	old, args := openChannel(types.OrderingOrdered)
	new := old
	new.Sequence.NextSequenceRecvs = 2

	packet, packetArgs := recvPacketFor(old, args, 1)
	err := RecvPacket(stubClient{}, old, args, new, args, nil, packet, packetArgs, discard(), message.MsgRecvPacket{})
	if err != nil {
		t.Fatalf("recv packet: %v", err)
	}
}

// Spec scenario: with received history [1,2,3,5], sequence 3 is a duplicate
// and sequence 4 fills the gap.
func TestRecvPacketUnorderedDuplicate(t *testing.T) {
	old, args := openChannel(types.OrderingUnordered)
	old.Sequence.ReceivedSequences = []uint64{1, 2, 3, 5}

	dup := old
	dup.Sequence.ReceivedSequences = []uint64{1, 2, 3, 5}
	packet, packetArgs := recvPacketFor(old, args, 3)
	err := RecvPacket(stubClient{}, old, args, dup, args, nil, packet, packetArgs, discard(), message.MsgRecvPacket{})
	if !errors.Is(err, types.ErrWrongPacketSequence) {
		t.Fatalf("duplicate: got %v, want ErrWrongPacketSequence", err)
	}

	filled := old
	filled.Sequence.ReceivedSequences = []uint64{1, 2, 3, 4, 5}
	packet, packetArgs = recvPacketFor(old, args, 4)
	err = RecvPacket(stubClient{}, old, args, filled, args, nil, packet, packetArgs, discard(), message.MsgRecvPacket{})
	if err != nil {
		t.Fatalf("gap fill: %v", err)
	}
}

func TestRecvPacketUselessPacket(t *testing.T) {
	old, args := openChannel(types.OrderingOrdered)
	old.Sequence.NextSequenceRecvs = 5
	new := old
	new.Sequence.NextSequenceRecvs = 6

	packet, packetArgs := recvPacketFor(old, args, 5)

	stale := types.IbcPacket{
		Packet: types.Packet{Sequence: 2},
		Status: types.StatusWriteAck,
		Ack:    []byte("ack"),
	}
	err := RecvPacket(stubClient{}, old, args, new, args, &stale, packet, packetArgs, discard(), message.MsgRecvPacket{})
	if err != nil {
		t.Fatalf("recv with stale packet: %v", err)
	}

	fresh := stale
	fresh.Packet.Sequence = 4
	err = RecvPacket(stubClient{}, old, args, new, args, &fresh, packet, packetArgs, discard(), message.MsgRecvPacket{})
	if !errors.Is(err, types.ErrWrongUnusedPacket) {
		t.Fatalf("recv with fresh packet: got %v, want ErrWrongUnusedPacket", err)
	}

	wrongStatus := stale
	wrongStatus.Status = types.StatusRecv
	err = RecvPacket(stubClient{}, old, args, new, args, &wrongStatus, packet, packetArgs, discard(), message.MsgRecvPacket{})
	if !errors.Is(err, types.ErrWrongUnusedPacket) {
		t.Fatalf("recv with unacked packet: got %v, want ErrWrongUnusedPacket", err)
	}
}

func TestWriteAckPacket(t *testing.T) {
	ch, args := openChannel(types.OrderingUnordered)
	oldPacket, packetArgs := recvPacketFor(ch, args, 1)
	newPacket := oldPacket
	newPacket.Status = types.StatusWriteAck
	newPacket.Ack = []byte("ok")

	w := &commitment.Writer{}
	err := WriteAckPacket(ch, args, ch, args, oldPacket, packetArgs, newPacket, packetArgs, w, message.MsgWriteAckPacket{})
	if err != nil {
		t.Fatalf("write ack: %v", err)
	}
	if len(w.Commitments()) != 1 {
		t.Fatalf("write ack produced %d commitments", len(w.Commitments()))
	}
}

func TestWriteAckPacketRejectsUnopenedChannel(t *testing.T) {
	ch, args := openChannel(types.OrderingUnordered)
	ch.State = types.StateInit
	oldPacket, packetArgs := recvPacketFor(ch, args, 1)
	newPacket := oldPacket
	newPacket.Status = types.StatusWriteAck
	newPacket.Ack = []byte("ok")

	err := WriteAckPacket(ch, args, ch, args, oldPacket, packetArgs, newPacket, packetArgs, discard(), message.MsgWriteAckPacket{})
	if !errors.Is(err, types.ErrWrongChannelState) {
		t.Fatalf("got %v, want ErrWrongChannelState", err)
	}
}

func TestWriteAckPacketRejectsChangedPacket(t *testing.T) {
	ch, args := openChannel(types.OrderingUnordered)
	oldPacket, packetArgs := recvPacketFor(ch, args, 1)
	newPacket := oldPacket
	newPacket.Status = types.StatusWriteAck
	newPacket.Ack = []byte("ok")
	newPacket.Packet.Data = []byte{9}

	err := WriteAckPacket(ch, args, ch, args, oldPacket, packetArgs, newPacket, packetArgs, discard(), message.MsgWriteAckPacket{})
	if !errors.Is(err, types.ErrWrongPacketContent) {
		t.Fatalf("got %v, want ErrWrongPacketContent", err)
	}
}

func TestAckPacketOrdered(t *testing.T) {
	old, args := openChannel(types.OrderingOrdered)
	old.Sequence.NextSequenceSends = 2
	new := old
	new.Sequence.NextSequenceAcks = 2

	oldPacket, packetArgs := sendPacketFor(old, args, 1)
	newPacket := oldPacket
	newPacket.Status = types.StatusAck
	newPacket.Ack = []byte("ok")

	err := AckPacket(stubClient{}, old, args, new, args, oldPacket, packetArgs, newPacket, packetArgs, discard(), message.MsgAckPacket{})
	if err != nil {
		t.Fatalf("ack packet: %v", err)
	}
}

func TestAckPacketRejectsHalfWrongStatusPair(t *testing.T) {
	old, args := openChannel(types.OrderingUnordered)
	oldPacket, packetArgs := sendPacketFor(old, args, 1)
	oldPacket.Status = types.StatusRecv // wrong old status
	newPacket := oldPacket
	newPacket.Status = types.StatusAck
	newPacket.Ack = []byte("ok")

	err := AckPacket(stubClient{}, old, args, old, args, oldPacket, packetArgs, newPacket, packetArgs, discard(), message.MsgAckPacket{})
	if !errors.Is(err, types.ErrWrongPacketStatus) {
		t.Fatalf("got %v, want ErrWrongPacketStatus", err)
	}
}

func TestConsumeAckPacket(t *testing.T) {
	p := types.IbcPacket{Status: types.StatusAck, Ack: []byte("ok")}
	if err := ConsumeAckPacket(p, types.PacketArgs{}, discard(), message.MsgConsumeAckPacket{}); err != nil {
		t.Fatalf("consume ack: %v", err)
	}

	p.Status = types.StatusSend
	err := ConsumeAckPacket(p, types.PacketArgs{}, discard(), message.MsgConsumeAckPacket{})
	if !errors.Is(err, types.ErrWrongPacketStatus) {
		t.Fatalf("got %v, want ErrWrongPacketStatus", err)
	}
}

func TestDispatchRejectsForeignTypes(t *testing.T) {
	env := message.Envelope{MsgType: message.MsgTypeSendPacket}
	err := ChannelOpenAckOrConfirm(stubClient{}, types.IbcChannel{}, types.ChannelArgs{}, types.IbcChannel{}, types.ChannelArgs{}, env, discard())
	if !errors.Is(err, types.ErrEventNotMatch) {
		t.Fatalf("got %v, want ErrEventNotMatch", err)
	}

	err = ChannelOpenInitOrTry(stubClient{}, types.IbcConnections{}, types.ConnectionArgs{}, types.IbcConnections{}, types.ConnectionArgs{}, types.IbcChannel{}, types.ChannelArgs{}, env, discard())
	if !errors.Is(err, types.ErrEventNotMatch) {
		t.Fatalf("got %v, want ErrEventNotMatch", err)
	}
}

// Timeout is declared but unimplemented; it must never pass.
func TestTimeoutPacketRejected(t *testing.T) {
	err := TimeoutPacket(message.Envelope{MsgType: message.MsgTypeTimeoutPacket})
	if !errors.Is(err, types.ErrEventNotMatch) {
		t.Fatalf("got %v, want ErrEventNotMatch", err)
	}
}
