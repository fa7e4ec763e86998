// Copyright 2025 Synapse Web3
//
// Script Args And Identifier Derivation

package types

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// CommitmentPrefix returns the protocol commitment prefix. It is a constant
// of the bridge; operator configuration, if ever needed, happens at the
// boundary, never inside handlers.
func CommitmentPrefix() []byte {
	return []byte("ibc")
}

const (
	channelIDPrefix    = "channel-"
	connectionIDInfix  = "-connection-"
	clientIDPrefixLen  = 6
	ConnectionArgsLen  = 52
	ChannelArgsLen     = 93
	PacketArgsLen      = 68
)

// ConnectionArgs are the lock args of the connection cell.
type ConnectionArgs struct {
	MetadataTypeID    [32]byte
	IBCHandlerAddress [20]byte
}

// Encode renders the fixed 52-byte layout:
// metadata_type_id (32) ∥ ibc_handler_address (20).
func (a ConnectionArgs) Encode() []byte {
	out := make([]byte, 0, ConnectionArgsLen)
	out = append(out, a.MetadataTypeID[:]...)
	out = append(out, a.IBCHandlerAddress[:]...)
	return out
}

// DecodeConnectionArgs parses the fixed 52-byte layout.
func DecodeConnectionArgs(b []byte) (ConnectionArgs, error) {
	var a ConnectionArgs
	if len(b) != ConnectionArgsLen {
		return a, fmt.Errorf("%w: connection args want %d bytes, got %d", ErrWrongConnectionArgs, ConnectionArgsLen, len(b))
	}
	copy(a.MetadataTypeID[:], b[:32])
	copy(a.IBCHandlerAddress[:], b[32:52])
	return a, nil
}

// ClientID derives the client identifier bound to these args: the first 20
// bytes of keccak256 over the encoded args, rendered as lowercase hex.
func (a ConnectionArgs) ClientID() string {
	sum := crypto.Keccak256(a.Encode())
	return hex.EncodeToString(sum[:20])
}

// ChannelArgs are the lock args of the channel cell.
type ChannelArgs struct {
	MetadataTypeID    [32]byte
	IBCHandlerAddress [20]byte
	// Open mirrors the channel state: true iff the channel is Open. Kept in
	// the args so that packet scripts can gate on it without decoding the
	// channel payload.
	Open      bool
	ChannelID uint64
	PortID    [32]byte
}

// Encode renders the fixed 93-byte layout:
// connection args (52) ∥ open (1) ∥ channel_id (8, LE) ∥ port_id (32).
func (a ChannelArgs) Encode() []byte {
	out := make([]byte, 0, ChannelArgsLen)
	out = append(out, a.MetadataTypeID[:]...)
	out = append(out, a.IBCHandlerAddress[:]...)
	if a.Open {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	out = binary.LittleEndian.AppendUint64(out, a.ChannelID)
	out = append(out, a.PortID[:]...)
	return out
}

// DecodeChannelArgs parses the fixed 93-byte layout.
func DecodeChannelArgs(b []byte) (ChannelArgs, error) {
	var a ChannelArgs
	if len(b) != ChannelArgsLen {
		return a, fmt.Errorf("%w: channel args want %d bytes, got %d", ErrWrongChannelArgs, ChannelArgsLen, len(b))
	}
	copy(a.MetadataTypeID[:], b[:32])
	copy(a.IBCHandlerAddress[:], b[32:52])
	switch b[52] {
	case 0:
		a.Open = false
	case 1:
		a.Open = true
	default:
		return a, fmt.Errorf("%w: channel args open flag %#x", ErrWrongChannelArgs, b[52])
	}
	a.ChannelID = binary.LittleEndian.Uint64(b[53:61])
	copy(a.PortID[:], b[61:93])
	return a, nil
}

// ConnectionArgs returns the connection args embedded in the channel args.
func (a ChannelArgs) ConnectionArgs() ConnectionArgs {
	return ConnectionArgs{
		MetadataTypeID:    a.MetadataTypeID,
		IBCHandlerAddress: a.IBCHandlerAddress,
	}
}

// ClientID derives the client identifier of the embedded connection args.
func (a ChannelArgs) ClientID() string {
	return a.ConnectionArgs().ClientID()
}

// PortIDString renders the port tag as a 64-char lowercase hex string.
func (a ChannelArgs) PortIDString() string {
	return hex.EncodeToString(a.PortID[:])
}

// ChannelIDString renders the channel identifier, e.g. "channel-3".
func (a ChannelArgs) ChannelIDString() string {
	return ChannelIDString(a.ChannelID)
}

// EqualUnlessOpen compares everything except the Open flag.
func (a ChannelArgs) EqualUnlessOpen(other ChannelArgs) bool {
	return a.MetadataTypeID == other.MetadataTypeID &&
		a.IBCHandlerAddress == other.IBCHandlerAddress &&
		a.ChannelID == other.ChannelID &&
		a.PortID == other.PortID
}

// PacketArgs are the lock args of the packet cell.
type PacketArgs struct {
	IBCHandlerAddress [20]byte
	ChannelID         uint64
	PortID            [32]byte
	Sequence          uint64
}

// Encode renders the fixed 68-byte layout:
// handler (20) ∥ channel_id (8, LE) ∥ port_id (32) ∥ sequence (8, LE).
func (a PacketArgs) Encode() []byte {
	out := make([]byte, 0, PacketArgsLen)
	out = append(out, a.IBCHandlerAddress[:]...)
	out = binary.LittleEndian.AppendUint64(out, a.ChannelID)
	out = append(out, a.PortID[:]...)
	out = binary.LittleEndian.AppendUint64(out, a.Sequence)
	return out
}

// DecodePacketArgs parses the fixed 68-byte layout.
func DecodePacketArgs(b []byte) (PacketArgs, error) {
	var a PacketArgs
	if len(b) != PacketArgsLen {
		return a, fmt.Errorf("%w: packet args want %d bytes, got %d", ErrWrongPacketArgs, PacketArgsLen, len(b))
	}
	copy(a.IBCHandlerAddress[:], b[:20])
	a.ChannelID = binary.LittleEndian.Uint64(b[20:28])
	copy(a.PortID[:], b[28:60])
	a.Sequence = binary.LittleEndian.Uint64(b[60:68])
	return a, nil
}

// PortIDString renders the port tag as a 64-char lowercase hex string.
func (a PacketArgs) PortIDString() string {
	return hex.EncodeToString(a.PortID[:])
}

// ChannelIDString renders the channel identifier.
func (a PacketArgs) ChannelIDString() string {
	return ChannelIDString(a.ChannelID)
}

// ConnectionID renders the identifier of the index-th connection under the
// given client: the first six characters of the client id, the literal
// "-connection-", and the index.
func ConnectionID(clientID string, index int) string {
	prefix := clientID
	if len(prefix) > clientIDPrefixLen {
		prefix = prefix[:clientIDPrefixLen]
	}
	return prefix + connectionIDInfix + strconv.Itoa(index)
}

// ConnectionIDToIndex recovers the vector index from a connection
// identifier.
func ConnectionIDToIndex(connectionID string) (int, error) {
	i := strings.LastIndex(connectionID, "-")
	if i < 0 {
		return 0, fmt.Errorf("%w: connection id %q", ErrWrongConnectionID, connectionID)
	}
	idx, err := strconv.Atoi(connectionID[i+1:])
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("%w: connection id %q", ErrWrongConnectionID, connectionID)
	}
	return idx, nil
}

// ChannelIDString renders a channel identifier from its number.
func ChannelIDString(number uint64) string {
	return channelIDPrefix + strconv.FormatUint(number, 10)
}

// PortIDFromString parses a 64-char lowercase hex port identifier back into
// its 32-byte tag.
func PortIDFromString(portID string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(portID)
	if err != nil || len(b) != 32 {
		return out, fmt.Errorf("%w: port id %q", ErrSerde, portID)
	}
	copy(out[:], b)
	return out, nil
}
