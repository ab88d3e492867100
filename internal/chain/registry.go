package chain

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/aureus-network/aureus-indexer/internal/common"
	"github.com/aureus-network/aureus-indexer/internal/config"
	"github.com/aureus-network/aureus-indexer/internal/logger"
)

// contractSchema couples a logical contract name with its parsed ABI.
type contractSchema struct {
	name string
	abi  abi.ABI
}

// Registry maps source addresses to decoding schemas. It is populated once
// at startup from configuration and read-only afterwards, so lookups need no
// locking.
type Registry struct {
	contracts map[ethcommon.Address]contractSchema
	log       *logger.Logger
}

// NewRegistry creates an empty decoding registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		contracts: make(map[ethcommon.Address]contractSchema),
		log:       log.WithComponent(common.ComponentDecoder),
	}
}

// NewRegistryFromConfig builds a registry from the configured contract list,
// loading each ABI inline or from its artifact file.
func NewRegistryFromConfig(contracts []config.ContractConfig, log *logger.Logger) (*Registry, error) {
	registry := NewRegistry(log)

	for _, contract := range contracts {
		contractABI, err := LoadABI(contract)
		if err != nil {
			return nil, fmt.Errorf("failed to load ABI for contract %s: %w", contract.Name, err)
		}

		if !ethcommon.IsHexAddress(contract.Address) {
			return nil, fmt.Errorf("contract %s has invalid address %q", contract.Name, contract.Address)
		}

		if err := registry.Register(ethcommon.HexToAddress(contract.Address), contract.Name, contractABI); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// Register binds a source address to a contract name and ABI. Registering
// the same address twice is an error.
func (r *Registry) Register(address ethcommon.Address, contractName string, contractABI abi.ABI) error {
	if existing, ok := r.contracts[address]; ok {
		return fmt.Errorf("address %s already registered for contract %s", address.Hex(), existing.name)
	}

	r.contracts[address] = contractSchema{name: contractName, abi: contractABI}
	r.log.Infof("registered contract %s at %s with %d events",
		contractName, address.Hex(), len(contractABI.Events))

	return nil
}

// Addresses returns all registered source addresses in a stable order.
func (r *Registry) Addresses() []ethcommon.Address {
	addresses := make([]ethcommon.Address, 0, len(r.contracts))
	for addr := range r.contracts {
		addresses = append(addresses, addr)
	}

	sort.Slice(addresses, func(i, j int) bool {
		return addresses[i].Cmp(addresses[j]) < 0
	})

	return addresses
}

// ContractName returns the logical name registered for an address.
func (r *Registry) ContractName(address ethcommon.Address) (string, bool) {
	schema, ok := r.contracts[address]
	if !ok {
		return "", false
	}
	return schema.name, true
}

// Decode turns a raw log into a structured event. Failures are per-log and
// never fatal to a batch: the caller skips the log and proceeds.
func (r *Registry) Decode(l types.Log) (*Event, error) {
	schema, ok := r.contracts[l.Address]
	if !ok {
		return nil, fmt.Errorf("no schema registered for address %s", l.Address.Hex())
	}

	if len(l.Topics) == 0 {
		return nil, fmt.Errorf("log %s:%d has no topics", l.TxHash.Hex(), l.Index)
	}

	abiEvent, err := schema.abi.EventByID(l.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("unknown event topic %s for contract %s: %w",
			l.Topics[0].Hex(), schema.name, err)
	}

	args := make(map[string]any)

	// Non-indexed inputs live in the data section
	if err := schema.abi.UnpackIntoMap(args, abiEvent.Name, l.Data); err != nil {
		return nil, fmt.Errorf("failed to unpack data of event %s: %w", abiEvent.Name, err)
	}

	// Indexed inputs live in the remaining topics
	indexed := make(abi.Arguments, 0, len(abiEvent.Inputs))
	for _, input := range abiEvent.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(args, indexed, l.Topics[1:]); err != nil {
			return nil, fmt.Errorf("failed to parse topics of event %s: %w", abiEvent.Name, err)
		}
	}

	return &Event{
		Contract: schema.name,
		Name:     abiEvent.Name,
		Kind:     EventKind(abiEvent.Name),
		Source:   l.Address,
		Block:    l.BlockNumber,
		TxHash:   l.TxHash,
		TxIndex:  l.TxIndex,
		LogIndex: l.Index,
		Args:     normalizeArgs(args),
	}, nil
}

// normalizeArgs reduces decoded ABI values to JSON-friendly types.
func normalizeArgs(args map[string]any) map[string]any {
	normalized := make(map[string]any, len(args))
	for name, value := range args {
		normalized[name] = normalizeValue(value)
	}
	return normalized
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case *big.Int:
		return v.String()
	case ethcommon.Address:
		return v.Hex()
	case ethcommon.Hash:
		return v.Hex()
	case []byte:
		return hexutil.Encode(v)
	case bool, string:
		return v
	case uint8, uint16, uint32, uint64, int8, int16, int32, int64:
		return v
	}

	// Fixed-size byte arrays ([N]byte) arrive as array values
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		buf := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(buf), rv)
		return hexutil.Encode(buf)
	}

	// Slices of normalizable values (e.g. address[] or uint256[])
	if rv.Kind() == reflect.Slice {
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = normalizeValue(rv.Index(i).Interface())
		}
		return out
	}

	return fmt.Sprintf("%v", value)
}
