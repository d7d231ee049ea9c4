package clients

import (
	"context"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"swap-backend/internal/config"
	"swap-backend/internal/swaperr"
	"swap-backend/internal/userop"
)

// GasEstimate is the refined gas numbers a bundler returns for a
// placeholder-signed operation.
type GasEstimate struct {
	PreVerificationGas   *big.Int
	VerificationGasLimit *big.Int
	CallGasLimit         *big.Int
}

// estimateResult mirrors the eth_estimateUserOperationGas response.
type estimateResult struct {
	PreVerificationGas   hexutil.Big `json:"preVerificationGas"`
	VerificationGasLimit hexutil.Big `json:"verificationGasLimit"`
	CallGasLimit         hexutil.Big `json:"callGasLimit"`
}

// BundlerClient talks ERC-4337 JSON-RPC to a ranked list of relay endpoints.
// Endpoint 0 is primary; the rest are failover targets in order.
type BundlerClient struct {
	endpoints  []string
	entryPoint common.Address
	timeout    time.Duration
}

// NewBundlerClient creates a bundler client for the configured relay set.
func NewBundlerClient(cfg config.BundlerConfig, entryPoint common.Address) *BundlerClient {
	timeout := 15 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	return &BundlerClient{
		endpoints:  append([]string(nil), cfg.Endpoints...),
		entryPoint: entryPoint,
		timeout:    timeout,
	}
}

// Endpoints returns the ranked relay list.
func (c *BundlerClient) Endpoints() []string {
	return append([]string(nil), c.endpoints...)
}

func (c *BundlerClient) call(ctx context.Context, endpoint string, result interface{}, method string, args ...interface{}) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, err := rpc.DialContext(callCtx, endpoint)
	if err != nil {
		return swaperr.ChainRpcf(err, "failed to dial bundler %s", endpoint)
	}
	defer client.Close()

	if err := client.CallContext(callCtx, result, method, args...); err != nil {
		return swaperr.ChainRpcf(err, "%s failed on %s", method, endpoint)
	}
	return nil
}

// EstimateUserOperationGas submits a placeholder-signed operation to the
// primary relay for gas estimation.
func (c *BundlerClient) EstimateUserOperationGas(ctx context.Context, op *userop.PackedUserOperation) (*GasEstimate, error) {
	var result estimateResult
	if err := c.call(ctx, c.endpoints[0], &result, "eth_estimateUserOperationGas", op, c.entryPoint); err != nil {
		return nil, err
	}
	return &GasEstimate{
		PreVerificationGas:   (*big.Int)(&result.PreVerificationGas),
		VerificationGasLimit: (*big.Int)(&result.VerificationGasLimit),
		CallGasLimit:         (*big.Int)(&result.CallGasLimit),
	}, nil
}

// SendUserOperationTo submits the signed operation to one relay endpoint.
// The orchestrator walks the ranked list; the operation bytes are identical
// on every attempt because failover never mutates a signed payload.
func (c *BundlerClient) SendUserOperationTo(ctx context.Context, endpoint string, op *userop.PackedUserOperation) (common.Hash, error) {
	var opHash common.Hash
	if err := c.call(ctx, endpoint, &opHash, "eth_sendUserOperation", op, c.entryPoint); err != nil {
		log.Printf("❌ [BundlerClient] eth_sendUserOperation failed on %s: %v", endpoint, err)
		return common.Hash{}, err
	}
	return opHash, nil
}

// GetUserOperationReceipt polls for inclusion of a submitted operation. A nil
// receipt with nil error means not yet included.
func (c *BundlerClient) GetUserOperationReceipt(ctx context.Context, opHash common.Hash) (map[string]interface{}, error) {
	var receipt map[string]interface{}
	if err := c.call(ctx, c.endpoints[0], &receipt, "eth_getUserOperationReceipt", opHash); err != nil {
		return nil, err
	}
	return receipt, nil
}
