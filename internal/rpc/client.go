package rpc

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/aureus-network/aureus-indexer/internal/common"
	"github.com/aureus-network/aureus-indexer/internal/config"
	"github.com/aureus-network/aureus-indexer/internal/logger"
)

// Client wraps the Ethereum RPC client with the two operations the
// synchronizer needs: an atomic range fetch and the current head under the
// configured finality. Transient transport failures are retried with
// exponential backoff; whatever error survives the retry budget is terminal
// for the caller's batch.
type Client struct {
	eth      *ethclient.Client
	finality BlockFinality
	retry    *config.RetryConfig
	log      *logger.Logger
}

// NewClient creates a new RPC client connected to the endpoint in cfg.
func NewClient(ctx context.Context, cfg config.ChainConfig, log *logger.Logger) (*Client, error) {
	finality, err := ParseBlockFinality(cfg.Finality)
	if err != nil {
		return nil, err
	}

	rpcClient, err := rpc.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.RPCURL, err)
	}

	return &Client{
		eth:      ethclient.NewClient(rpcClient),
		finality: finality,
		retry:    cfg.Retry,
		log:      log.WithComponent(common.ComponentRPC),
	}, nil
}

// Close closes the RPC client connection.
func (c *Client) Close() {
	c.eth.Close()
}

// FetchLogs retrieves all logs emitted by the given addresses within
// [fromBlock, toBlock]. The fetch is atomic: either the full range is
// returned or an error is.
func (c *Client) FetchLogs(
	ctx context.Context,
	addresses []ethcommon.Address,
	fromBlock, toBlock uint64,
) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
	}

	var logs []types.Log
	err := retryWithBackoff(ctx, c.retry, "eth_getLogs", func() error {
		start := time.Now()
		RPCMethodInc("eth_getLogs")

		var err error
		logs, err = c.eth.FilterLogs(ctx, query)
		RPCMethodDuration("eth_getLogs", time.Since(start))
		if err != nil {
			RPCMethodError("eth_getLogs", classifyError(err))
			if ok, errData := IsTooManyResultsError(err); ok {
				// Terminal for this range width, retrying won't help
				return fmt.Errorf("%w: %s", ErrTooManyResults, errData)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch logs [%d, %d]: %w", fromBlock, toBlock, err)
	}

	c.log.Debugf("fetched %d logs for range [%d, %d]", len(logs), fromBlock, toBlock)

	return logs, nil
}

// HeadBlock returns the number of the highest block the indexer is allowed
// to process, according to the configured finality mode.
func (c *Client) HeadBlock(ctx context.Context) (uint64, error) {
	var header *types.Header
	err := retryWithBackoff(ctx, c.retry, "eth_getBlockByNumber", func() error {
		start := time.Now()
		RPCMethodInc("eth_getBlockByNumber")

		var err error
		header, err = c.headerForFinality(ctx)
		RPCMethodDuration("eth_getBlockByNumber", time.Since(start))
		if err != nil {
			RPCMethodError("eth_getBlockByNumber", classifyError(err))
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get %s head: %w", c.finality, err)
	}

	return header.Number.Uint64(), nil
}

func (c *Client) headerForFinality(ctx context.Context) (*types.Header, error) {
	switch c.finality {
	case FinalityFinalized:
		return c.eth.HeaderByNumber(ctx, big.NewInt(int64(rpc.FinalizedBlockNumber)))
	case FinalitySafe:
		return c.eth.HeaderByNumber(ctx, big.NewInt(int64(rpc.SafeBlockNumber)))
	case FinalityLatest:
		return c.eth.HeaderByNumber(ctx, nil)
	default:
		return nil, fmt.Errorf("invalid finality mode: %s", c.finality)
	}
}

// classifyError maps an error to a coarse label for metrics.
func classifyError(err error) string {
	switch {
	case err == nil:
		return "none"
	case retryableError(err):
		return "transient"
	default:
		return "terminal"
	}
}
