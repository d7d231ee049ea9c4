package userop

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// eip7702Magic prefixes the authorization pre-image. This is a signing domain
// of its own, distinct from user-operation signing.
const eip7702Magic = 0x05

// DigestSigner is the narrow capability required for EIP-7702 authorization
// signing: it signs an arbitrary 32-byte digest directly. Not every
// wallet-style signer exposes this; callers must treat its absence as a
// feature gate, not a crash.
type DigestSigner interface {
	SignDigest(digest [32]byte) (v byte, r, s *big.Int, err error)
}

// AuthorizationDigest computes keccak256(0x05 ‖ RLP([chainId, target, nonce])).
// Identical inputs always yield the identical digest.
func AuthorizationDigest(chainID uint64, target common.Address, nonce uint64) ([32]byte, error) {
	var digest [32]byte
	encoded, err := rlp.EncodeToBytes([]interface{}{chainID, target, nonce})
	if err != nil {
		return digest, err
	}
	preimage := make([]byte, 0, 1+len(encoded))
	preimage = append(preimage, eip7702Magic)
	preimage = append(preimage, encoded...)
	copy(digest[:], crypto.Keccak256(preimage))
	return digest, nil
}

// SignAuthorization produces the delegation tuple authorizing target's code
// to act for the signer's account.
func SignAuthorization(signer DigestSigner, chainID uint64, target common.Address, nonce uint64) (*EIP7702Authorization, error) {
	digest, err := AuthorizationDigest(chainID, target, nonce)
	if err != nil {
		return nil, err
	}
	v, r, s, err := signer.SignDigest(digest)
	if err != nil {
		return nil, err
	}
	return &EIP7702Authorization{
		ChainID: chainID,
		Address: target,
		Nonce:   nonce,
		V:       v,
		R:       r,
		S:       s,
	}, nil
}

// LocalDigestSigner signs digests with an in-process secp256k1 key.
type LocalDigestSigner struct {
	key []byte // 32-byte private key
}

// NewLocalDigestSigner wraps a raw 32-byte private key.
func NewLocalDigestSigner(privateKey []byte) *LocalDigestSigner {
	return &LocalDigestSigner{key: append([]byte(nil), privateKey...)}
}

// SignDigest returns the yParity bit and the r/s pair.
func (l *LocalDigestSigner) SignDigest(digest [32]byte) (byte, *big.Int, *big.Int, error) {
	key, err := crypto.ToECDSA(l.key)
	if err != nil {
		return 0, nil, nil, err
	}
	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		return 0, nil, nil, err
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	return sig[64], r, s, nil
}

// Address returns the account the signer controls.
func (l *LocalDigestSigner) Address() (common.Address, error) {
	key, err := crypto.ToECDSA(l.key)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}
