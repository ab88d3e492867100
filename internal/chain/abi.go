package chain

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/aureus-network/aureus-indexer/internal/config"
)

// artifact is the subset of a Hardhat/Foundry compiler artifact we care
// about.
type artifact struct {
	ABI json.RawMessage `json:"abi"`
}

// LoadABI resolves a contract's ABI from its configuration: inline JSON
// takes precedence, otherwise the configured file is read. The file may be a
// bare ABI array or a compiler artifact containing an "abi" key.
func LoadABI(contract config.ContractConfig) (abi.ABI, error) {
	raw := contract.ABI

	if raw == "" {
		if contract.ABIFile == "" {
			return abi.ABI{}, fmt.Errorf("contract %s has neither abi nor abi_file", contract.Name)
		}

		data, err := os.ReadFile(contract.ABIFile)
		if err != nil {
			return abi.ABI{}, fmt.Errorf("failed to read ABI file: %w", err)
		}
		raw = string(data)
	}

	return parseABI(raw)
}

// parseABI parses either a bare ABI array or a compiler artifact.
func parseABI(raw string) (abi.ABI, error) {
	trimmed := strings.TrimSpace(raw)

	if strings.HasPrefix(trimmed, "{") {
		var art artifact
		if err := json.Unmarshal([]byte(trimmed), &art); err != nil {
			return abi.ABI{}, fmt.Errorf("failed to parse artifact JSON: %w", err)
		}
		if len(art.ABI) == 0 {
			return abi.ABI{}, fmt.Errorf("artifact JSON has no \"abi\" key")
		}
		trimmed = string(art.ABI)
	}

	parsed, err := abi.JSON(strings.NewReader(trimmed))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ABI: %w", err)
	}

	return parsed, nil
}
