// Copyright 2025 Synapse Web3
//
// Write-Or-Verify Commitment Ledger

// Package commitment makes every handler produce the same set of
// (path, value) commitments whether it records them for a proposed
// transaction or re-checks them during on-chain validation. Both modes hash
// each pair into a fixed-width KV so the two sides compare byte-equal.
package commitment

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	host "github.com/cosmos/ibc-go/v10/modules/core/24-host"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/synapseweb3/ckb-ics/pkg/types"
)

// KV is a hashed commitment pair: (keccak256(path), keccak256(value)).
type KV struct {
	Key   [32]byte
	Value [32]byte
}

// MakeKV hashes a raw (path, value) pair.
func MakeKV(path string, value []byte) KV {
	var kv KV
	copy(kv.Key[:], crypto.Keccak256([]byte(path)))
	copy(kv.Value[:], crypto.Keccak256(value))
	return kv
}

// PathValue is a raw commitment before hashing.
type PathValue struct {
	Path  string
	Value []byte
}

// Sink consumes the commitments a handler declares. WriteCommitments is
// called exactly once per handler run, with an empty slice when the
// transition commits nothing.
type Sink interface {
	WriteCommitments(pairs []PathValue) error
}

// WriteNone closes a sink without commitments.
func WriteNone(s Sink) error {
	return s.WriteCommitments(nil)
}

// Writer records the commitment set a proposed transition implies. The
// relayer embeds the result in the transaction envelope.
type Writer struct {
	kvs    []KV
	closed bool
}

// WriteCommitments implements Sink, replacing the writer's contents.
func (w *Writer) WriteCommitments(pairs []PathValue) error {
	if w.closed {
		return fmt.Errorf("%w: commitments written twice", types.ErrCommitment)
	}
	w.kvs = hashPairs(pairs)
	w.closed = true
	return nil
}

// Commitments returns the recorded set. It is empty until the handler has
// run.
func (w *Writer) Commitments() []KV {
	return w.kvs
}

// Closed reports whether the handler closed the sink.
func (w *Writer) Closed() bool {
	return w.closed
}

// Verifier re-computes the commitment set during validation and compares it
// against the set declared in the envelope.
type Verifier struct {
	declared []KV
	closed   bool
}

// NewVerifier wraps the declared commitment slice from the envelope.
func NewVerifier(declared []KV) *Verifier {
	return &Verifier{declared: declared}
}

// WriteCommitments implements Sink. The computed set must match the
// declared set exactly: same pairs, same order, nothing extra.
func (v *Verifier) WriteCommitments(pairs []PathValue) error {
	if v.closed {
		return fmt.Errorf("%w: commitments written twice", types.ErrCommitment)
	}
	v.closed = true
	computed := hashPairs(pairs)
	if len(computed) != len(v.declared) {
		return fmt.Errorf("%w: declared %d commitments, computed %d", types.ErrCommitment, len(v.declared), len(computed))
	}
	for i := range computed {
		if computed[i] != v.declared[i] {
			return fmt.Errorf("%w: commitment %d does not match", types.ErrCommitment, i)
		}
	}
	return nil
}

// Closed reports whether the handler closed the sink. A handler run that
// never writes (not even an empty set) must be rejected.
func (v *Verifier) Closed() bool {
	return v.closed
}

func hashPairs(pairs []PathValue) []KV {
	kvs := make([]KV, len(pairs))
	for i, p := range pairs {
		kvs[i] = MakeKV(p.Path, p.Value)
	}
	return kvs
}

// Commitment paths are the ICS-24 ASCII path strings of the remote IBC
// handler contract.

// ConnectionPath is "connections/{connection_id}".
func ConnectionPath(connectionID string) string {
	return string(host.ConnectionKey(connectionID))
}

// ChannelPath is "channelEnds/ports/{port}/channels/{channel}".
func ChannelPath(portID, channelID string) string {
	return string(host.ChannelKey(portID, channelID))
}

// PacketCommitmentPath is
// "commitments/ports/{port}/channels/{channel}/sequences/{seq}".
func PacketCommitmentPath(portID, channelID string, sequence uint64) string {
	return string(host.PacketCommitmentKey(portID, channelID, sequence))
}

// PacketAcknowledgementPath is
// "acks/ports/{port}/channels/{channel}/sequences/{seq}".
func PacketAcknowledgementPath(portID, channelID string, sequence uint64) string {
	return string(host.PacketAcknowledgementKey(portID, channelID, sequence))
}

// PacketCommitment computes the committed value for a sent packet:
// sha256(le64(timeout_timestamp) ∥ le64(0) ∥ le64(timeout_height) ∥ sha256(data)).
// The zero word is the revision number, always 0 in this bridge.
func PacketCommitment(p types.Packet) []byte {
	dataHash := sha256.Sum256(p.Data)
	buf := make([]byte, 0, 3*8+32)
	buf = binary.LittleEndian.AppendUint64(buf, p.TimeoutTimestamp)
	buf = binary.LittleEndian.AppendUint64(buf, 0)
	buf = binary.LittleEndian.AppendUint64(buf, p.TimeoutHeight)
	buf = append(buf, dataHash[:]...)
	sum := sha256.Sum256(buf)
	return sum[:]
}

// AckCommitment computes the committed value for an acknowledgement.
func AckCommitment(ack []byte) []byte {
	sum := sha256.Sum256(ack)
	return sum[:]
}
