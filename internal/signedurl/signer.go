// Package signedurl issues and verifies time-limited URLs for photo objects.
// The scheme mirrors cloud-storage V4 query signing: an expiry timestamp and
// an HMAC-SHA256 signature over the storage key and expiry travel as query
// parameters, so the media endpoint can serve objects without session auth.
package signedurl

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

var (
	ErrExpired          = errors.New("signed url expired")
	ErrInvalidSignature = errors.New("invalid signature")
)

type Signer struct {
	secret   []byte
	ttl      time.Duration
	basePath string
	now      func() time.Time
}

// New creates a Signer. basePath is the URL path prefix the media handler is
// mounted on (e.g. "/photos").
func New(secret string, ttl time.Duration, basePath string) *Signer {
	return &Signer{
		secret:   []byte(secret),
		ttl:      ttl,
		basePath: basePath,
		now:      time.Now,
	}
}

// Sign returns a relative URL granting access to storageKey until the TTL
// elapses.
func (s *Signer) Sign(storageKey string) string {
	expires := s.now().Add(s.ttl).Unix()
	sig := s.signature(storageKey, expires)

	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", sig)

	// Keys contain slashes; escape each segment, keep the separators.
	return s.basePath + "/" + escapeKey(storageKey) + "?" + q.Encode()
}

// Verify checks the signature and expiry for storageKey. expires and signature
// are taken from the request query string.
func (s *Signer) Verify(storageKey, expires, signature string) error {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad expiry", ErrInvalidSignature)
	}

	want := s.signature(storageKey, exp)
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return ErrInvalidSignature
	}

	if s.now().Unix() > exp {
		return ErrExpired
	}
	return nil
}

func (s *Signer) signature(storageKey string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%d", storageKey, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

func escapeKey(storageKey string) string {
	// url.PathEscape would escape the "/" separators too.
	out := ""
	for i, seg := range splitSegments(storageKey) {
		if i > 0 {
			out += "/"
		}
		out += url.PathEscape(seg)
	}
	return out
}

func splitSegments(key string) []string {
	var segs []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			segs = append(segs, key[start:i])
			start = i + 1
		}
	}
	return append(segs, key[start:])
}
