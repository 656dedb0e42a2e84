// Package signing computes the shared-secret request signature expected by
// the completion upload endpoint.
//
// The signing string layout is a contract with the server:
//
//	METHOD \n PATH \n CANONICAL_QUERY \n TIMESTAMP \n APP_ID
//
// and the signature is the lowercase hex HMAC-SHA256 of it keyed by the app
// secret.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Header names attached to every signed request.
const (
	HeaderAppID     = "X-App-ID"
	HeaderTimestamp = "X-Timestamp"
	HeaderSignature = "X-Signature"
)

// ErrEmptySecret is returned when signing is attempted without a key.
var ErrEmptySecret = errors.New("signing: empty app secret")

// ErrEmptyAppID is returned when signing is attempted without an app id.
var ErrEmptyAppID = errors.New("signing: empty app id")

// excludedParams are identity and signature parameters that never take part
// in the canonical query, matched case-insensitively.
var excludedParams = map[string]bool{
	"app_id":    true,
	"appid":     true,
	"timestamp": true,
	"signature": true,
	"sign":      true,
}

// escape percent-encodes s per RFC 3986 (spaces become %20, not +).
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// CanonicalQuery returns the percent-encoded key=value pairs of values sorted
// by key then value and joined with '&', excluding identity and signature
// parameters. It is empty when nothing remains.
func CanonicalQuery(values url.Values) string {
	pairs := make([]string, 0, len(values))
	for key, vals := range values {
		if excludedParams[strings.ToLower(key)] {
			continue
		}
		for _, v := range vals {
			pairs = append(pairs, escape(key)+"="+escape(v))
		}
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}

// SigningString joins the request components in the pinned order.
func SigningString(method, path, canonicalQuery, timestamp, appID string) string {
	return strings.Join([]string{method, path, canonicalQuery, timestamp, appID}, "\n")
}

// Sign returns the lowercase hex HMAC-SHA256 of message keyed by secret.
func Sign(secret, message string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Signer attaches signature headers to outgoing requests.
type Signer struct {
	AppID     string
	AppSecret string
}

// Signature is the result of signing one request.
type Signature struct {
	SigningString string
	Timestamp     string
	Value         string
}

// Compute builds the signing string for req at ts and signs it without
// modifying the request.
func (s Signer) Compute(req *http.Request, ts time.Time) (Signature, error) {
	if s.AppID == "" {
		return Signature{}, ErrEmptyAppID
	}
	path := req.URL.EscapedPath()
	if path == "" {
		path = "/"
	}
	stamp := strconv.FormatInt(ts.Unix(), 10)
	msg := SigningString(req.Method, path, CanonicalQuery(req.URL.Query()), stamp, s.AppID)
	sig, err := Sign(s.AppSecret, msg)
	if err != nil {
		return Signature{}, err
	}
	return Signature{SigningString: msg, Timestamp: stamp, Value: sig}, nil
}

// SignRequest computes the signature for req at ts and sets the app id,
// timestamp, and signature headers.
func (s Signer) SignRequest(req *http.Request, ts time.Time) error {
	sig, err := s.Compute(req, ts)
	if err != nil {
		return err
	}
	req.Header.Set(HeaderAppID, s.AppID)
	req.Header.Set(HeaderTimestamp, sig.Timestamp)
	req.Header.Set(HeaderSignature, sig.Value)
	return nil
}
