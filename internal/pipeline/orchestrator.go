package pipeline

import (
	"context"
	"errors"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"swap-backend/internal/clients"
	"swap-backend/internal/metrics"
	"swap-backend/internal/swaperr"
	"swap-backend/internal/userop"
)

// State is a swap attempt's position in the pipeline.
type State string

const (
	StateQuoteRequested    State = "QuoteRequested"
	StateQuoteReceived     State = "QuoteReceived"
	StateBuildingUserOp    State = "BuildingUserOp"
	StateAwaitingSignature State = "AwaitingSignature"
	StateSubmitted         State = "Submitted"
	StateBundlerFailover   State = "BundlerFailover"
	StateIncludedOnChain   State = "IncludedOnChain"
	StateSucceeded         State = "Succeeded"
	StateFailed            State = "Failed"
)

// Failure reasons surfaced to the caller as machine-readable codes.
const (
	ReasonResignRequired   = "resign_required"
	ReasonSubmissionFailed = "submission_failed"
	ReasonExecutionFailed  = "execution_reverted"
)

// maxQuoteRebuilds bounds the silent pre-signature rebuild loop.
const maxQuoteRebuilds = 3

// inclusionPolls and inclusionPollInterval bound the post-submission receipt
// polling loop.
const (
	inclusionPolls        = 10
	inclusionPollInterval = 3 * time.Second
)

// GasEstimator executes account validation against a placeholder-signed
// operation and returns refined gas numbers.
type GasEstimator interface {
	EstimateUserOperationGas(ctx context.Context, op *userop.PackedUserOperation) (*clients.GasEstimate, error)
}

// Submitter accepts a signed packed operation and a ranked relay list.
type Submitter interface {
	Endpoints() []string
	SendUserOperationTo(ctx context.Context, endpoint string, op *userop.PackedUserOperation) (common.Hash, error)
	GetUserOperationReceipt(ctx context.Context, opHash common.Hash) (map[string]interface{}, error)
}

// UserOpSigner produces the single authoritative account signature over the
// v0.7 userOpHash.
type UserOpSigner interface {
	SignUserOp(ctx context.Context, opHash common.Hash) ([]byte, error)
}

// EventSink receives attempt lifecycle transitions.
type EventSink interface {
	PublishAttemptState(attemptID string, state string, reason string)
}

// Orchestrator sequences quote -> fee computation -> gas estimation -> final
// signing -> submission for one swap attempt at a time. Each attempt owns its
// in-flight state exclusively; the quote store is the only shared resource.
type Orchestrator struct {
	quotes       *QuoteService
	estimator    GasEstimator
	submitter    Submitter
	digestSigner userop.DigestSigner
	opSigner     UserOpSigner
	events       EventSink
	policy       Policy

	entryPoint common.Address
	paymaster  common.Address
	delegate   common.Address
	chainID    uint64
}

// NewOrchestrator wires the pipeline's capabilities together. digestSigner
// may be nil when the deployment has no raw-digest signing capability; the
// 7702 authorization is then feature-gated off with an error at build time.
func NewOrchestrator(quotes *QuoteService, estimator GasEstimator, submitter Submitter, digestSigner userop.DigestSigner, opSigner UserOpSigner, events EventSink, policy Policy, entryPoint, paymaster, delegate common.Address, chainID uint64) *Orchestrator {
	return &Orchestrator{
		quotes:       quotes,
		estimator:    estimator,
		submitter:    submitter,
		digestSigner: digestSigner,
		opSigner:     opSigner,
		events:       events,
		policy:       policy,
		entryPoint:   entryPoint,
		paymaster:    paymaster,
		delegate:     delegate,
		chainID:      chainID,
	}
}

// ExecuteRequest is one swap attempt's input.
type ExecuteRequest struct {
	Quote *CreateQuoteRequest

	Nonce     *big.Int // account nonce at the EntryPoint
	AuthNonce uint64   // EOA nonce for the 7702 authorization

	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// AttemptResult reports where the attempt ended up.
type AttemptResult struct {
	AttemptID string
	State     State
	Reason    string
	QuoteID   string
	OpHash    common.Hash
	FeeAmount *big.Int
	Operation *userop.PackedUserOperation
}

// attempt tracks one run through the state machine.
type attempt struct {
	id     string
	state  State
	events EventSink
}

func (a *attempt) transition(state State, reason string) {
	a.state = state
	metrics.AttemptsByState.WithLabelValues(string(state)).Inc()
	if a.events != nil {
		a.events.PublishAttemptState(a.id, string(state), reason)
	}
	if reason != "" {
		log.Printf("🔄 [Orchestrator] Attempt %s -> %s (%s)", a.id, state, reason)
	} else {
		log.Printf("🔄 [Orchestrator] Attempt %s -> %s", a.id, state)
	}
}

func (a *attempt) fail(result *AttemptResult, reason string, err error) (*AttemptResult, error) {
	a.transition(StateFailed, reason)
	metrics.AttemptsTerminal.WithLabelValues(string(StateFailed), reason).Inc()
	result.State = StateFailed
	result.Reason = reason
	return result, err
}

// Execute runs one full swap attempt. Exactly one authoritative signature is
// requested; before it exists the quote and the gas/fee numbers may be
// rebuilt silently, after it exists any change forces Failed with a
// resign_required remediation. Cancellation before Submitted aborts with no
// side effects; after Submitted it only stops failover and polling.
func (o *Orchestrator) Execute(ctx context.Context, req *ExecuteRequest) (*AttemptResult, error) {
	a := &attempt{id: uuid.NewString(), events: o.events}
	result := &AttemptResult{AttemptID: a.id}

	// --- Quote ---
	a.transition(StateQuoteRequested, "")
	quote, err := o.quotes.CreateQuote(ctx, req.Quote)
	if err != nil {
		return a.fail(result, swaperr.CodeOf(err), err)
	}
	a.transition(StateQuoteReceived, "")
	result.QuoteID = quote.QuoteID

	// --- Build + estimate, rebuilding silently while unsigned ---
	var (
		packed    *userop.PackedUserOperation
		feeAmount *big.Int
	)
	gas := DefaultGasGuess(req.MaxFeePerGas, req.MaxPriorityFeePerGas)
	addrs := BuildAddresses{Paymaster: o.paymaster, Delegate: o.delegate}

	for rebuild := 0; ; rebuild++ {
		if err := ctx.Err(); err != nil {
			return a.fail(result, "cancelled", err)
		}
		a.transition(StateBuildingUserOp, "")

		// First fee computation: a conservative guess, because the
		// paymaster's gas-dependent acceptance check gates even the
		// estimation call.
		unsigned, _, err := BuildUnsignedOperation(quote, o.policy, gas, addrs, req.Nonce)
		if err != nil {
			return a.fail(result, swaperr.CodeOf(err), err)
		}

		if o.digestSigner != nil {
			auth, err := userop.SignAuthorization(o.digestSigner, o.chainID, o.delegate, req.AuthNonce)
			if err != nil {
				return a.fail(result, "authorization_failed", err)
			}
			unsigned.EIP7702Auth = auth
		}

		estimateOp, err := userop.Pack(unsigned)
		if err != nil {
			return a.fail(result, swaperr.CodeOf(err), err)
		}

		estimate, err := o.estimator.EstimateUserOperationGas(ctx, estimateOp)
		if err != nil {
			metrics.GasEstimations.WithLabelValues("error").Inc()
			return a.fail(result, swaperr.CodeOf(err), err)
		}
		metrics.GasEstimations.WithLabelValues("ok").Inc()

		// Second fee computation from the refined numbers. No signature
		// exists yet, so rebuilding the call data is free.
		gas.PreVerificationGas = estimate.PreVerificationGas
		gas.VerificationGasLimit = estimate.VerificationGasLimit
		gas.CallGasLimit = estimate.CallGasLimit

		refined, refinedFee, err := BuildUnsignedOperation(quote, o.policy, gas, addrs, req.Nonce)
		if err != nil {
			return a.fail(result, swaperr.CodeOf(err), err)
		}
		refined.EIP7702Auth = unsigned.EIP7702Auth

		packed, err = userop.Pack(refined)
		if err != nil {
			return a.fail(result, swaperr.CodeOf(err), err)
		}
		feeAmount = refinedFee

		// The quote must survive estimation. If its TTL lapsed, rebuild
		// silently: no signature has been requested, so the user never
		// notices.
		if _, err := o.quotes.GetQuote(quote.QuoteID); err != nil {
			if errors.Is(err, swaperr.Expired) && rebuild < maxQuoteRebuilds {
				metrics.QuoteRebuilds.Inc()
				log.Printf("🔁 [Orchestrator] Quote %s expired during estimation, rebuilding (%d/%d)", quote.QuoteID, rebuild+1, maxQuoteRebuilds)
				quote, err = o.quotes.CreateQuote(ctx, req.Quote)
				if err != nil {
					return a.fail(result, swaperr.CodeOf(err), err)
				}
				result.QuoteID = quote.QuoteID
				continue
			}
			return a.fail(result, swaperr.CodeOf(err), err)
		}
		break
	}
	result.FeeAmount = feeAmount

	// --- The single authoritative signature ---
	a.transition(StateAwaitingSignature, "")
	opHash, err := userop.Hash(packed, o.entryPoint, o.chainID)
	if err != nil {
		return a.fail(result, "hash_failed", err)
	}
	signature, err := o.opSigner.SignUserOp(ctx, opHash)
	if err != nil {
		return a.fail(result, "signature_rejected", err)
	}
	packed.Signature = signature
	result.OpHash = opHash
	result.Operation = packed

	// The signed payload embeds the quote's deadline. If the quote died
	// between signing and now, the operation is inconsistent and must not be
	// submitted; the only remediation is rebuild + re-sign.
	if _, err := o.quotes.GetQuote(quote.QuoteID); err != nil {
		return a.fail(result, ReasonResignRequired,
			swaperr.Expiredf("quote %s changed after signing; rebuild and re-sign", quote.QuoteID))
	}

	// Abandonment before submission has no side effects.
	if err := ctx.Err(); err != nil {
		return a.fail(result, "cancelled", err)
	}

	// --- Submission with relay failover ---
	a.transition(StateSubmitted, "")
	var (
		opRef     common.Hash
		submitted bool
	)
	for i, endpoint := range o.submitter.Endpoints() {
		if ctx.Err() != nil {
			// Post-submission cancellation only stops further failover.
			break
		}
		if i > 0 {
			a.transition(StateBundlerFailover, endpoint)
		}
		opRef, err = o.submitter.SendUserOperationTo(ctx, endpoint, packed)
		if err == nil {
			metrics.BundlerSubmissions.WithLabelValues("ok").Inc()
			submitted = true
			break
		}
		metrics.BundlerSubmissions.WithLabelValues("error").Inc()
	}
	if !submitted {
		if err == nil {
			err = ctx.Err()
		}
		return a.fail(result, ReasonSubmissionFailed, err)
	}

	// --- Inclusion ---
	if included, success := o.awaitInclusion(ctx, opRef); included {
		a.transition(StateIncludedOnChain, "")
		if success {
			a.transition(StateSucceeded, "")
			metrics.AttemptsTerminal.WithLabelValues(string(StateSucceeded), "").Inc()
			result.State = StateSucceeded
			return result, nil
		}
		return a.fail(result, ReasonExecutionFailed, swaperr.ChainRpcf(nil, "operation reverted on-chain"))
	}

	// Not observed on-chain within the polling budget. The operation is out
	// of our hands; report the submitted state rather than guessing.
	result.State = StateSubmitted
	return result, nil
}

// awaitInclusion polls the relay for a receipt. Returns (included, success).
func (o *Orchestrator) awaitInclusion(ctx context.Context, opRef common.Hash) (bool, bool) {
	for i := 0; i < inclusionPolls; i++ {
		select {
		case <-ctx.Done():
			return false, false
		case <-time.After(inclusionPollInterval):
		}

		receipt, err := o.submitter.GetUserOperationReceipt(ctx, opRef)
		if err != nil {
			log.Printf("⚠️ [Orchestrator] Receipt poll %d/%d failed: %v", i+1, inclusionPolls, err)
			continue
		}
		if receipt == nil {
			continue
		}
		success, _ := receipt["success"].(bool)
		return true, success
	}
	return false, false
}
