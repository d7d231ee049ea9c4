package services

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"swap-backend/internal/clients"
	"swap-backend/internal/config"
	"swap-backend/internal/swaperr"
	"swap-backend/internal/userop"
)

// SignerService produces the single authoritative account signature over a
// user operation hash. The underlying key lives either in-process or in the
// external KMS; both paths sign the raw digest and emit the 65-byte r‖s‖v
// form with v in {27, 28}.
type SignerService struct {
	digestSigner userop.DigestSigner
}

// NewSignerService picks the signing backend from configuration. The KMS
// takes precedence; the in-process key is the development fallback. Returns
// an error when neither is configured.
func NewSignerService(cfg *config.Config) (*SignerService, error) {
	if cfg.KMS.Enabled {
		kms, err := clients.NewKMSClient(cfg.KMS)
		if err != nil {
			return nil, err
		}
		log.Printf("🔐 [Signer] Using KMS digest signing (alias=%s)", cfg.KMS.KeyAlias)
		return &SignerService{digestSigner: kms}, nil
	}

	if cfg.Signer.UsePrivateKey && cfg.Signer.PrivateKey != "" {
		raw, err := hex.DecodeString(strings.TrimPrefix(cfg.Signer.PrivateKey, "0x"))
		if err != nil || len(raw) != 32 {
			return nil, swaperr.Validationf("invalid_private_key", "signer private key must be 32 bytes of hex")
		}
		local := userop.NewLocalDigestSigner(raw)
		addr, err := local.Address()
		if err != nil {
			return nil, swaperr.Validationf("invalid_private_key", "signer private key is not a valid secp256k1 scalar")
		}
		log.Printf("🔐 [Signer] Using in-process key %s", addr.Hex())
		return &SignerService{digestSigner: local}, nil
	}

	return nil, swaperr.Validationf("signer_unavailable", "no signing backend configured")
}

// DigestSigner exposes the raw digest capability for 7702 authorization
// signing. Nil when the backend cannot sign arbitrary digests.
func (s *SignerService) DigestSigner() userop.DigestSigner {
	return s.digestSigner
}

// SignUserOp signs the v0.7 userOpHash.
func (s *SignerService) SignUserOp(ctx context.Context, opHash common.Hash) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, r, sVal, err := s.digestSigner.SignDigest([32]byte(opHash))
	if err != nil {
		return nil, fmt.Errorf("user operation signing failed: %w", err)
	}

	sig := make([]byte, 65)
	r.FillBytes(sig[:32])
	sVal.FillBytes(sig[32:64])
	sig[64] = normalizeV(v)
	return sig, nil
}

// normalizeV maps a yParity bit to the legacy 27/28 recovery id.
func normalizeV(v byte) byte {
	if v < 27 {
		return v + 27
	}
	return v
}
