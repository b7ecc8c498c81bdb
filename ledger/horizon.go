package ledger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stellar/go/protocols/horizon"

	"github.com/stellar/stellar-turrets/turret"
)

// HorizonGateway implements Gateway against a Horizon REST endpoint.
//
// Requests are plain HTTP with the caller's context and a bounded client
// timeout; on timeout the operation resolves to an Unavailable error,
// surfaced to callers as retryable.
type HorizonGateway struct {
	horizonURL string
	http       *http.Client
	peers      *http.Client
}

type HorizonOption func(*HorizonGateway)

// WithHTTPClient overrides the client used for Horizon calls.
func WithHTTPClient(c *http.Client) HorizonOption {
	return func(g *HorizonGateway) { g.http = c }
}

// WithPeerHTTPClient overrides the client used for peer turret lookups.
func WithPeerHTTPClient(c *http.Client) HorizonOption {
	return func(g *HorizonGateway) { g.peers = c }
}

// NewHorizonGateway constructs a gateway for the given Horizon base URL.
func NewHorizonGateway(horizonURL string, opts ...HorizonOption) *HorizonGateway {
	g := &HorizonGateway{
		horizonURL: strings.TrimRight(horizonURL, "/"),
		http:       &http.Client{Timeout: 15 * time.Second},
		peers:      &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *HorizonGateway) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	var record horizon.Account
	status, err := g.getJSON(ctx, g.horizonURL+"/accounts/"+url.PathEscape(accountID), &record)
	if err != nil {
		return nil, turret.Wrap(turret.KindUnavailable, "ledger account fetch failed", err)
	}
	switch {
	case status == http.StatusNotFound:
		return nil, turret.New(turret.KindNotFound, fmt.Sprintf("account %s not found", accountID))
	case status != http.StatusOK:
		return nil, turret.New(turret.KindUnavailable, fmt.Sprintf("ledger account fetch returned %d", status))
	}

	seq, err := record.GetSequenceNumber()
	if err != nil {
		return nil, turret.Wrap(turret.KindUnavailable, "ledger account has malformed sequence", err)
	}
	acct := &Account{
		ID:         record.AccountID,
		Sequence:   seq,
		HomeDomain: record.HomeDomain,
		Thresholds: Thresholds{
			Low:    int32(record.Thresholds.LowThreshold),
			Medium: int32(record.Thresholds.MedThreshold),
			High:   int32(record.Thresholds.HighThreshold),
		},
		Data: make(map[string][]byte, len(record.Data)),
	}
	for _, s := range record.Signers {
		acct.Signers = append(acct.Signers, Signer{Key: s.Key, Weight: s.Weight})
	}
	for k, v := range record.Data {
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			// Horizon emits base64; a bad entry means a broken account view.
			return nil, turret.Wrap(turret.KindUnavailable, fmt.Sprintf("account data entry %q is not base64", k), err)
		}
		acct.Data[k] = decoded
	}
	return acct, nil
}

func (g *HorizonGateway) TransactionExists(ctx context.Context, hash string) (bool, error) {
	status, err := g.getJSON(ctx, g.horizonURL+"/transactions/"+url.PathEscape(hash), nil)
	if err != nil {
		return false, turret.Wrap(turret.KindUnavailable, "ledger transaction lookup failed", err)
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, turret.New(turret.KindUnavailable, fmt.Sprintf("ledger transaction lookup returned %d", status))
	}
}

func (g *HorizonGateway) Submit(ctx context.Context, envelopeXDR string) (string, error) {
	form := url.Values{"tx": {envelopeXDR}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.horizonURL+"/transactions", strings.NewReader(form.Encode()))
	if err != nil {
		return "", turret.Wrap(turret.KindUnavailable, "ledger submit request build failed", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", turret.Wrap(turret.KindUnavailable, "ledger submit failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", turret.New(turret.KindUnavailable, fmt.Sprintf("ledger submit returned %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		var prob struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&prob)
		msg := prob.Title
		if msg == "" {
			msg = fmt.Sprintf("ledger rejected transaction (%d)", resp.StatusCode)
		}
		return "", turret.New(turret.KindValidation, msg)
	}

	var record horizon.Transaction
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return "", turret.Wrap(turret.KindUnavailable, "ledger submit response unreadable", err)
	}
	return record.Hash, nil
}

func (g *HorizonGateway) ResolveTxFunctionSigner(ctx context.Context, turretHomeDomain, txFunctionHash string) string {
	if turretHomeDomain == "" {
		return ""
	}
	endpoint := fmt.Sprintf("https://%s/tx-functions/%s", turretHomeDomain, url.PathEscape(txFunctionHash))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ""
	}
	resp, err := g.peers.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	var body struct {
		Signer string `json:"signer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ""
	}
	return body.Signer
}

// getJSON performs a GET and decodes the body into out when the status is
// 200 and out is non-nil. It returns the status code; transport failures are
// returned as errors.
func (g *HorizonGateway) getJSON(ctx context.Context, endpoint string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return 0, err
		}
	}
	return resp.StatusCode, nil
}

var _ Gateway = (*HorizonGateway)(nil)
