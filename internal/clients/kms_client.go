package clients

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"swap-backend/internal/config"
	"swap-backend/internal/swaperr"
)

// KMSClient signs raw 32-byte digests through the external KMS service. It
// implements userop.DigestSigner for deployments where the delegation key
// never leaves the KMS.
type KMSClient struct {
	baseURL    string
	authToken  string
	keyAlias   string
	httpClient *http.Client
}

// KMSSignRequest digest signature request
type KMSSignRequest struct {
	KeyAlias string `json:"key_alias"`
	Digest   string `json:"digest"` // 32-byte digest (hex)
}

// KMSSignResponse digest signature response
type KMSSignResponse struct {
	Success   bool   `json:"success"`
	Signature string `json:"signature,omitempty"` // 65-byte r‖s‖v (hex), v is yParity
	Error     string `json:"error,omitempty"`
}

// NewKMSClient creates a KMS client. Returns an error instead of a client
// when the capability is not configured, so callers feature-gate digest
// signing rather than crash at first use.
func NewKMSClient(cfg config.KMSConfig) (*KMSClient, error) {
	if !cfg.Enabled || cfg.ServiceURL == "" {
		return nil, swaperr.Validationf("signer_unavailable", "KMS digest signing is not configured")
	}

	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	return &KMSClient{
		baseURL:   cfg.ServiceURL,
		authToken: cfg.AuthToken,
		keyAlias:  cfg.KeyAlias,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SignDigest signs an arbitrary 32-byte digest with the configured key.
func (c *KMSClient) SignDigest(digest [32]byte) (byte, *big.Int, *big.Int, error) {
	req := KMSSignRequest{
		KeyAlias: c.keyAlias,
		Digest:   hex.EncodeToString(digest[:]),
	}

	response, err := c.makeRequest(http.MethodPost, "/api/v1/sign-digest", req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("KMS sign request failed: %w", err)
	}

	var signResp KMSSignResponse
	if err := json.Unmarshal(response, &signResp); err != nil {
		return 0, nil, nil, fmt.Errorf("failed to parse KMS response: %w", err)
	}
	if !signResp.Success {
		return 0, nil, nil, fmt.Errorf("KMS signing failed: %s", signResp.Error)
	}

	sig, err := hex.DecodeString(signResp.Signature)
	if err != nil || len(sig) != 65 {
		return 0, nil, nil, fmt.Errorf("KMS returned malformed signature (%d bytes)", len(sig))
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	return sig[64], r, s, nil
}

// HealthCheck verifies the KMS service is reachable.
func (c *KMSClient) HealthCheck() error {
	response, err := c.makeRequest(http.MethodGet, "/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("KMS health check failed: %w", err)
	}

	var healthResp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(response, &healthResp); err != nil {
		return fmt.Errorf("failed to parse KMS health response: %w", err)
	}
	if healthResp.Status != "healthy" {
		return fmt.Errorf("KMS service unhealthy: %s", healthResp.Status)
	}
	return nil
}

// makeRequest performs an HTTP request against the KMS service.
func (c *KMSClient) makeRequest(method, path string, data interface{}) ([]byte, error) {
	url := c.baseURL + path

	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "swap-backend/1.0")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
		req.Header.Set("X-Service-Name", "swap-backend")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP request failed: status=%d, body=%s", resp.StatusCode, string(responseBody))
	}

	return responseBody, nil
}
