// Copyright 2025 Synapse Web3
//
// IBC Entities Persisted In Cells

package types

import (
	"bytes"
	"io"
	"slices"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
)

// State is the lifecycle state shared by connection and channel ends.
// The numeric tags are part of the on-wire RLP encoding and must never be
// reordered.
type State uint8

const (
	StateUninit  State = 0
	StateInit    State = 1
	StateOpenTry State = 2
	StateOpen    State = 3
	StateClosed  State = 4
	StateFrozen  State = 5
)

// EncodeRLP implements rlp.Encoder.
func (s State) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, uint8(s))
}

// DecodeRLP implements rlp.Decoder, rejecting tags outside the table.
func (s *State) DecodeRLP(r *rlp.Stream) error {
	v, err := r.Uint8()
	if err != nil {
		return err
	}
	if v > uint8(StateFrozen) {
		return ErrSerde
	}
	*s = State(v)
	return nil
}

// Ordering is the channel ordering discipline. The tags coincide with the
// ICS channel protobuf Order enum on purpose.
type Ordering uint8

const (
	OrderingUnknown   Ordering = 0
	OrderingUnordered Ordering = 1
	OrderingOrdered   Ordering = 2
)

// EncodeRLP implements rlp.Encoder.
func (o Ordering) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, uint8(o))
}

// DecodeRLP implements rlp.Decoder.
func (o *Ordering) DecodeRLP(r *rlp.Stream) error {
	v, err := r.Uint8()
	if err != nil {
		return err
	}
	if v > uint8(OrderingOrdered) {
		return ErrSerde
	}
	*o = Ordering(v)
	return nil
}

// PacketStatus tracks a packet cell through its life. Explicit on-wire
// numbering starting at 1; zero is not a valid status.
type PacketStatus uint8

const (
	StatusSend     PacketStatus = 1
	StatusRecv     PacketStatus = 2
	StatusWriteAck PacketStatus = 3
	StatusAck      PacketStatus = 4
)

// EncodeRLP implements rlp.Encoder.
func (p PacketStatus) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, uint8(p))
}

// DecodeRLP implements rlp.Decoder.
func (p *PacketStatus) DecodeRLP(r *rlp.Stream) error {
	v, err := r.Uint8()
	if err != nil {
		return err
	}
	if v < uint8(StatusSend) || v > uint8(StatusAck) {
		return ErrSerde
	}
	*p = PacketStatus(v)
	return nil
}

// Version is an IBC connection version. This bridge hard-codes a single
// version; see DefaultVersion.
type Version struct {
	Identifier string
	Features   []string
}

// DefaultVersion is the only connection version this bridge negotiates.
func DefaultVersion() Version {
	return Version{
		Identifier: "1",
		Features:   []string{"ORDER_ORDERED", "ORDER_UNORDERED"},
	}
}

// Equal reports field-wise equality.
func (v Version) Equal(other Version) bool {
	return v.Identifier == other.Identifier && slices.Equal(v.Features, other.Features)
}

// VersionsEqual compares two version vectors element-wise.
func VersionsEqual(a, b []Version) bool {
	return slices.EqualFunc(a, b, Version.Equal)
}

// DefaultVersions is the singleton version vector carried by every
// connection end.
func DefaultVersions() []Version {
	return []Version{DefaultVersion()}
}

// ConnectionCounterparty names the remote end of a connection.
type ConnectionCounterparty struct {
	ClientID string
	// ConnectionID is empty until the remote end has allocated its
	// connection (after OpenTry on the remote side).
	ConnectionID     string
	CommitmentPrefix []byte
}

// Equal reports field-wise equality.
func (c ConnectionCounterparty) Equal(other ConnectionCounterparty) bool {
	return c.ClientID == other.ClientID &&
		c.ConnectionID == other.ConnectionID &&
		bytes.Equal(c.CommitmentPrefix, other.CommitmentPrefix)
}

// ConnectionEnd is one end of an IBC connection as persisted locally. The
// owning client identifier is not stored here: it derives from the
// connection cell args.
type ConnectionEnd struct {
	State        State
	Counterparty ConnectionCounterparty
	DelayPeriod  uint64
	Versions     []Version
}

// DefaultConnectionEnd returns an uninitialized end carrying the protocol
// commitment prefix and the hard-coded version vector.
func DefaultConnectionEnd() ConnectionEnd {
	return ConnectionEnd{
		Counterparty: ConnectionCounterparty{CommitmentPrefix: CommitmentPrefix()},
		Versions:     DefaultVersions(),
	}
}

// Equal reports field-wise equality.
func (c ConnectionEnd) Equal(other ConnectionEnd) bool {
	return c.State == other.State &&
		c.Counterparty.Equal(other.Counterparty) &&
		c.DelayPeriod == other.DelayPeriod &&
		VersionsEqual(c.Versions, other.Versions)
}

// IbcConnections is the per-client connection cell payload: the ordered
// connection vector plus the channel number allocator. The i-th entry's
// identifier is ConnectionID(clientID, i) by construction.
type IbcConnections struct {
	NextChannelNumber uint64
	Connections       []ConnectionEnd
}

// ChannelCounterparty names the remote end of a channel. ConnectionID is
// the remote chain's connection identifier underlying the channel.
type ChannelCounterparty struct {
	PortID       string
	ChannelID    string
	ConnectionID string
}

// IbcChannel is the channel cell payload. One channel pairs with exactly
// one port so that Sequence stays unique per cell.
type IbcChannel struct {
	Number         uint64
	PortID         string
	State          State
	Order          Ordering
	Sequence       Sequence
	Counterparty   ChannelCounterparty
	ConnectionHops []string
	Version        string
}

// DefaultIbcChannel returns a channel with the given number and port and
// all sequences at their initial value.
func DefaultIbcChannel(number uint64, portID string) IbcChannel {
	return IbcChannel{
		Number:   number,
		PortID:   portID,
		Sequence: DefaultSequence(),
	}
}

// Equal reports full field-wise equality.
func (c IbcChannel) Equal(other IbcChannel) bool {
	return c.EqualUnlessStateChanged(other) && c.State == other.State
}

// EqualUnlessStateChanged compares everything except State. Used by the
// close transitions, where only the state flips.
func (c IbcChannel) EqualUnlessStateChanged(other IbcChannel) bool {
	return c.Number == other.Number &&
		c.PortID == other.PortID &&
		c.Order == other.Order &&
		c.Sequence.Equal(other.Sequence) &&
		c.Counterparty == other.Counterparty &&
		slices.Equal(c.ConnectionHops, other.ConnectionHops) &&
		c.Version == other.Version
}

// EqualUnlessStateAndCounterparty compares the fields that must survive the
// handshake unchanged: number, port, ordering, sequence, connection hops and
// the counterparty port and connection identifiers.
// State, version and the counterparty channel identifier are settled during
// OpenAck/OpenConfirm.
func (c IbcChannel) EqualUnlessStateAndCounterparty(other IbcChannel) bool {
	return c.Number == other.Number &&
		c.PortID == other.PortID &&
		c.Order == other.Order &&
		c.Sequence.Equal(other.Sequence) &&
		slices.Equal(c.ConnectionHops, other.ConnectionHops) &&
		c.Counterparty.PortID == other.Counterparty.PortID &&
		c.Counterparty.ConnectionID == other.Counterparty.ConnectionID
}

// EqualUnlessSequence compares everything except Sequence. Packet
// transitions advance the sequence cursors and must leave the rest of the
// channel untouched.
func (c IbcChannel) EqualUnlessSequence(other IbcChannel) bool {
	return c.Number == other.Number &&
		c.PortID == other.PortID &&
		c.Order == other.Order &&
		c.State == other.State &&
		c.Counterparty == other.Counterparty &&
		slices.Equal(c.ConnectionHops, other.ConnectionHops) &&
		c.Version == other.Version
}

// Sequence carries the three packet cursors plus the receive history for
// unordered channels. ReceivedSequences is maintained sorted ascending with
// no duplicates, and stays empty on ordered channels.
type Sequence struct {
	NextSequenceSends uint64
	NextSequenceRecvs uint64
	NextSequenceAcks  uint64
	ReceivedSequences []uint64
}

// DefaultSequence returns the initial cursors: all ones, empty history.
func DefaultSequence() Sequence {
	return Sequence{
		NextSequenceSends: 1,
		NextSequenceRecvs: 1,
		NextSequenceAcks:  1,
	}
}

// Equal reports field-wise equality.
func (s Sequence) Equal(other Sequence) bool {
	return s.NextSequenceSends == other.NextSequenceSends &&
		s.NextSequenceRecvs == other.NextSequenceRecvs &&
		s.NextSequenceAcks == other.NextSequenceAcks &&
		slices.Equal(s.ReceivedSequences, other.ReceivedSequences)
}

// ReceivedSequencesValid reports whether the history is strictly ascending.
func (s Sequence) ReceivedSequencesValid() bool {
	for i := 1; i < len(s.ReceivedSequences); i++ {
		if s.ReceivedSequences[i] <= s.ReceivedSequences[i-1] {
			return false
		}
	}
	return true
}

// UnorderedReceive records seq in the receive history, keeping it sorted.
// Receiving a sequence twice is an ErrWrongPacketSequence.
func (s *Sequence) UnorderedReceive(seq uint64) error {
	i := sort.Search(len(s.ReceivedSequences), func(i int) bool {
		return s.ReceivedSequences[i] >= seq
	})
	if i < len(s.ReceivedSequences) && s.ReceivedSequences[i] == seq {
		return ErrWrongPacketSequence
	}
	s.ReceivedSequences = slices.Insert(slices.Clone(s.ReceivedSequences), i, seq)
	return nil
}

// NextSendIs reports whether next advances exactly the send cursor by one.
func (s Sequence) NextSendIs(next Sequence) bool {
	return s.NextSequenceSends+1 == next.NextSequenceSends &&
		s.NextSequenceRecvs == next.NextSequenceRecvs &&
		s.NextSequenceAcks == next.NextSequenceAcks &&
		slices.Equal(s.ReceivedSequences, next.ReceivedSequences)
}

// NextRecvIs reports whether next is the legal successor after receiving.
// For unordered channels pass the received sequence; the history must gain
// exactly that entry and the recv cursor must stand still. For ordered
// channels pass nil; the recv cursor must advance by one.
func (s Sequence) NextRecvIs(next Sequence, unorderedSeq *uint64) bool {
	if s.NextSequenceSends != next.NextSequenceSends ||
		s.NextSequenceAcks != next.NextSequenceAcks {
		return false
	}
	if unorderedSeq != nil {
		if s.NextSequenceRecvs != next.NextSequenceRecvs {
			return false
		}
		expected := s
		if err := expected.UnorderedReceive(*unorderedSeq); err != nil {
			return false
		}
		return slices.Equal(expected.ReceivedSequences, next.ReceivedSequences)
	}
	return s.NextSequenceRecvs+1 == next.NextSequenceRecvs &&
		slices.Equal(s.ReceivedSequences, next.ReceivedSequences)
}

// NextAckIs reports whether next is the legal successor after an ack. The
// ack cursor only advances on ordered channels; on unordered channels it is
// immutable.
func (s Sequence) NextAckIs(next Sequence, unordered bool) bool {
	if s.NextSequenceSends != next.NextSequenceSends ||
		s.NextSequenceRecvs != next.NextSequenceRecvs ||
		!slices.Equal(s.ReceivedSequences, next.ReceivedSequences) {
		return false
	}
	if unordered {
		return s.NextSequenceAcks == next.NextSequenceAcks
	}
	return s.NextSequenceAcks+1 == next.NextSequenceAcks
}

// Packet is the application payload in flight between two channel ends.
type Packet struct {
	Sequence             uint64
	SourcePortID         string
	SourceChannelID      string
	DestinationPortID    string
	DestinationChannelID string
	Data                 []byte
	TimeoutHeight        uint64
	TimeoutTimestamp     uint64
}

// Equal reports field-wise equality.
func (p Packet) Equal(other Packet) bool {
	return p.Sequence == other.Sequence &&
		p.SourcePortID == other.SourcePortID &&
		p.SourceChannelID == other.SourceChannelID &&
		p.DestinationPortID == other.DestinationPortID &&
		p.DestinationChannelID == other.DestinationChannelID &&
		bytes.Equal(p.Data, other.Data) &&
		p.TimeoutHeight == other.TimeoutHeight &&
		p.TimeoutTimestamp == other.TimeoutTimestamp
}

// IbcPacket is the packet cell payload: the packet plus its local status.
// Ack is nil until the status reaches StatusWriteAck/StatusAck; a present
// acknowledgement is never empty (RLP cannot tell nil from empty, the
// status field carries the presence bit).
type IbcPacket struct {
	Packet Packet
	Status PacketStatus
	Ack    []byte `rlp:"optional"`
}

// AckExpected reports whether the status requires an acknowledgement.
func (p IbcPacket) AckExpected() bool {
	return p.Status == StatusWriteAck || p.Status == StatusAck
}
