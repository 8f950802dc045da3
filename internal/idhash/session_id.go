// Package idhash derives deterministic identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mr-tron/base58"
)

// ComputeSessionID computes a deterministic session_id.
// Formula: SHA256(run_id|scenario_id|strategy_id|opponent_id|seed)
// Returns the base58-encoded hash.
func ComputeSessionID(
	runID string,
	scenarioID string,
	strategyID string,
	opponentID string,
	seed int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d",
		runID,
		scenarioID,
		strategyID,
		opponentID,
		seed,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}

// ComputeScenarioSeed derives the scenario seed for session index i of a run
// started with baseSeed, so the same base seed replays the same scenarios.
func ComputeScenarioSeed(baseSeed int64, i int) int64 {
	data := fmt.Sprintf("%d|%d", baseSeed, i)
	hash := sha256.Sum256([]byte(data))
	return int64(binary.BigEndian.Uint64(hash[:8]) & math.MaxInt64)
}
