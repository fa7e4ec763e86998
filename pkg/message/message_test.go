// Copyright 2025 Synapse Web3
//
// Envelope Wire-Format Tests

package message

import (
	"bytes"
	"errors"
	"testing"

	clienttypes "github.com/cosmos/ibc-go/v10/modules/core/02-client/types"

	"github.com/synapseweb3/ckb-ics/pkg/commitment"
	"github.com/synapseweb3/ckb-ics/pkg/types"
)

// The tag table is an on-wire contract shared with the relayer; every value
// is pinned here.
func TestMsgTypeTagsPinned(t *testing.T) {
	tags := map[MsgType]uint8{
		MsgTypeClientCreate:          1,
		MsgTypeClientUpdate:          2,
		MsgTypeClientMisbehaviour:    3,
		MsgTypeConnectionOpenInit:    4,
		MsgTypeConnectionOpenTry:     5,
		MsgTypeConnectionOpenAck:     6,
		MsgTypeConnectionOpenConfirm: 7,
		MsgTypeChannelOpenInit:       8,
		MsgTypeChannelOpenTry:        9,
		MsgTypeChannelOpenAck:        10,
		MsgTypeChannelOpenConfirm:    11,
		MsgTypeChannelCloseInit:      12,
		MsgTypeChannelCloseConfirm:   13,
		MsgTypeSendPacket:            14,
		MsgTypeRecvPacket:            15,
		MsgTypeWriteAckPacket:        16,
		MsgTypeAckPacket:             17,
		MsgTypeTimeoutPacket:         18,
		MsgTypeConsumeAckPacket:      19,
	}
	if len(tags) != 19 {
		t.Fatalf("tag table has %d entries", len(tags))
	}
	for m, want := range tags {
		if uint8(m) != want {
			t.Errorf("msg type tag mismatch: got %d, want %d", uint8(m), want)
		}
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	content, err := EncodeContent(MsgConnectionOpenAck{
		ConnIDOnA:   1,
		ProofHeight: clienttypes.Height{RevisionNumber: 0, RevisionHeight: 42},
		ProofTry:    []byte{0xAA, 0xBB},
	})
	if err != nil {
		t.Fatalf("encode content: %v", err)
	}

	e := Envelope{
		MsgType: MsgTypeConnectionOpenAck,
		Commitments: []commitment.KV{
			commitment.MakeKV("connections/xyz-connection-0", []byte("value")),
		},
		Content: content,
	}
	b, err := e.Encode()
	if err != nil {
		t.Fatalf("encode envelope: %v", err)
	}

	got, err := DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if got.MsgType != e.MsgType || len(got.Commitments) != 1 || got.Commitments[0] != e.Commitments[0] {
		t.Fatalf("envelope changed in round trip: %+v", got)
	}
	if !bytes.Equal(got.Content, content) {
		t.Fatal("content changed in round trip")
	}

	var msg MsgConnectionOpenAck
	if err := DecodeContent(got, &msg); err != nil {
		t.Fatalf("decode content: %v", err)
	}
	if msg.ConnIDOnA != 1 || msg.ProofHeight.RevisionHeight != 42 || !bytes.Equal(msg.ProofTry, []byte{0xAA, 0xBB}) {
		t.Fatalf("message changed in round trip: %+v", msg)
	}
}

func TestEnvelopeRejectsUnknownMsgType(t *testing.T) {
	e := Envelope{MsgType: MsgType(42), Content: []byte{0xC0}}
	b, err := e.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeEnvelope(b); !errors.Is(err, types.ErrSerde) {
		t.Fatalf("unknown msg type: got %v, want ErrSerde", err)
	}
}

func TestDecodeContentWrongShape(t *testing.T) {
	content, err := EncodeContent(MsgChannelOpenInit{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var msg MsgConnectionOpenAck
	if err := DecodeContent(Envelope{Content: content}, &msg); !errors.Is(err, types.ErrSerde) {
		t.Fatalf("wrong shape: got %v, want ErrSerde", err)
	}
}
