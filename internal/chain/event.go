package chain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Event is a decoded contract log with normalized arguments. Argument values
// are already reduced to JSON-friendly types: *big.Int becomes a decimal
// string, addresses and hashes become 0x-prefixed hex, byte blobs become 0x
// hex strings.
type Event struct {
	// Contract is the logical contract name the source address was
	// registered under
	Contract string

	// Name is the solidity event name, e.g. "ProfileCreated"
	Name string

	// Kind is the canonical dotted kind, e.g. "profile.created"
	Kind string

	// Source is the emitting contract address
	Source ethcommon.Address

	// Block is the block number the log was included in
	Block uint64

	// TxHash is the hash of the transaction that emitted the log
	TxHash ethcommon.Hash

	// TxIndex is the transaction's index within its block
	TxIndex uint

	// LogIndex is the log's index within its block
	LogIndex uint

	// Args holds the normalized event arguments keyed by input name
	Args map[string]any
}

// ArgString returns the named argument as a string. Missing or non-string
// arguments yield the empty string.
func (e *Event) ArgString(name string) string {
	if s, ok := e.Args[name].(string); ok {
		return s
	}
	return ""
}

// ArgUint64 returns the named argument as a uint64. Normalized numeric
// arguments may arrive as decimal strings (uint256) or native integers
// (uint8..uint64); both forms parse.
func (e *Event) ArgUint64(name string) (uint64, error) {
	v, ok := e.Args[name]
	if !ok {
		return 0, fmt.Errorf("argument %q not present", name)
	}

	switch n := v.(type) {
	case string:
		out, err := strconv.ParseUint(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("argument %q is not numeric: %w", name, err)
		}
		return out, nil
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("argument %q is negative", name)
		}
		return uint64(n), nil
	case float64:
		if n < 0 {
			return 0, fmt.Errorf("argument %q is negative", name)
		}
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("argument %q has unsupported type %T", name, v)
	}
}

// EventKind derives the canonical dotted kind from a solidity event name:
// "ProfileCreated" -> "profile.created", "VerifierRegistered" ->
// "verifier.registered". Consecutive capitals stay one word ("URIUpdated" ->
// "uri.updated").
func EventKind(name string) string {
	if name == "" {
		return ""
	}

	runes := []rune(name)
	var words []string
	start := 0

	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]

		// Word boundary: lower/digit followed by upper, or an acronym run
		// ending before a capitalized word ("URIUpdated" -> URI | Updated)
		boundary := (!unicode.IsUpper(prev) && unicode.IsUpper(cur)) ||
			(unicode.IsUpper(prev) && unicode.IsUpper(cur) &&
				i+1 < len(runes) && unicode.IsLower(runes[i+1]))

		if boundary {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	words = append(words, string(runes[start:]))

	for i, w := range words {
		words[i] = strings.ToLower(w)
	}

	return strings.Join(words, ".")
}
