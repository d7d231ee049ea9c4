package swaperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelMatching(t *testing.T) {
	err := Expiredf("quote %s expired", "abc")
	require.True(t, errors.Is(err, Expired))
	require.False(t, errors.Is(err, NotFound))
	require.Equal(t, "quote_expired", CodeOf(err))
	require.Equal(t, KindExpired, KindOf(err))
}

func TestMatchingThroughWrapping(t *testing.T) {
	inner := ChainRpcf(fmt.Errorf("dial tcp: refused"), "bundler unreachable")
	wrapped := fmt.Errorf("estimation failed: %w", inner)

	require.True(t, errors.Is(wrapped, ChainRpc))
	require.Equal(t, "chain_rpc_failed", CodeOf(wrapped))
}

func TestMissingFieldCode(t *testing.T) {
	err := MissingFieldErr("callData")
	require.True(t, errors.Is(err, MissingField))
	require.Equal(t, "missing_field_callData", CodeOf(err))
}

func TestForeignErrorDefaults(t *testing.T) {
	err := fmt.Errorf("plain error")
	require.Equal(t, "internal", CodeOf(err))
	require.Equal(t, Kind(""), KindOf(err))
	require.False(t, errors.Is(err, Validation))
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := ChainRpcf(cause, "request failed")
	require.ErrorIs(t, err, cause)
}
