// Copyright 2025 Synapse Web3
//
// Storage-Proof Verification Tool

// mpt-verify checks an eth_getProof-style account and storage proof against
// a state root, the way the on-chain verifier would. The proof bundle is
// described by a YAML file, typically captured from a relayer or an RPC
// node while debugging a rejected transaction.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"gopkg.in/yaml.v3"

	"github.com/synapseweb3/ckb-ics/pkg/mpt"
)

// proofInput is the YAML description of one verification. Either the
// commitment path and raw value are given (the slot and slot value are then
// derived the way the IBC handler contract lays them out), or the slot and
// slot value are given directly.
type proofInput struct {
	StateRoot    string   `yaml:"state_root"`
	Address      string   `yaml:"address"`
	AccountProof []string `yaml:"account_proof"`

	Path  string `yaml:"path,omitempty"`
	Value string `yaml:"value,omitempty"`

	Slot      string `yaml:"slot,omitempty"`
	SlotValue string `yaml:"slot_value,omitempty"`

	StorageProof []string `yaml:"storage_proof"`
}

func main() {
	input := flag.String("input", "", "YAML file describing the proof bundle")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *input == "" {
		log.Error("missing -input")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(log, *input); err != nil {
		log.Error("verification failed", "err", err)
		os.Exit(1)
	}
	log.Info("proof verified")
}

func run(log *slog.Logger, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var in proofInput
	if err := yaml.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	slot, slotValue, err := resolveSlot(in)
	if err != nil {
		return err
	}

	stateRoot := common.FromHex(in.StateRoot)
	address := common.FromHex(in.Address)
	log.Debug("verifying",
		"state_root", in.StateRoot,
		"address", in.Address,
		"slot", common.Bytes2Hex(slot[:]),
		"account_nodes", len(in.AccountProof),
		"storage_nodes", len(in.StorageProof),
	)

	return mpt.VerifyAccountAndStorage(
		stateRoot,
		address,
		decodeNodes(in.AccountProof),
		slot,
		slotValue,
		decodeNodes(in.StorageProof),
	)
}

func resolveSlot(in proofInput) (slot [32]byte, slotValue [32]byte, err error) {
	switch {
	case in.Path != "":
		slot = mpt.CommitmentSlot([]byte(in.Path))
		copy(slotValue[:], crypto.Keccak256([]byte(in.Value)))
	case in.Slot != "":
		copy(slot[:], common.FromHex(in.Slot))
		copy(slotValue[:], common.FromHex(in.SlotValue))
	default:
		err = fmt.Errorf("input needs either path/value or slot/slot_value")
	}
	return slot, slotValue, err
}

func decodeNodes(nodes []string) [][]byte {
	out := make([][]byte, len(nodes))
	for i, n := range nodes {
		out[i] = common.FromHex(n)
	}
	return out
}
