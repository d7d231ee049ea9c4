package userop

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
)

var (
	placeholderOnce sync.Once
	placeholderSig  []byte
)

// EstimationPlaceholderSignature returns a fixed 65-byte signature
// (r ‖ s ‖ v, v ∈ {27, 28}) used while building operations for gas
// estimation. It is a real secp256k1 signature by a throwaway key over a
// fixed digest, so any standard recovery routine accepts it, but it is never
// treated as authoritative: validation logic that recovers a signer simply
// recovers the throwaway address.
func EstimationPlaceholderSignature() []byte {
	placeholderOnce.Do(func() {
		// Scalar 1 is a valid secp256k1 private key; the digest content is
		// irrelevant as long as it is stable.
		key, err := crypto.ToECDSA(new(big.Int).SetInt64(1).FillBytes(make([]byte, 32)))
		if err != nil {
			panic("placeholder key: " + err.Error())
		}
		digest := crypto.Keccak256([]byte("swap-backend estimation placeholder"))
		sig, err := crypto.Sign(digest, key)
		if err != nil {
			panic("placeholder signature: " + err.Error())
		}
		// crypto.Sign yields v in {0, 1}; the wire form wants {27, 28}.
		sig[64] += 27
		placeholderSig = sig
	})
	return append([]byte(nil), placeholderSig...)
}
