package infrastructure

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Sign computes the per-request signature the ad platform expects:
// base64(HMAC-SHA256("{timestamp}.{method}.{path}", secret)).
//
// The path must be the resource path only, without a query string, even
// when the actual request carries query parameters. The platform verifies
// against the bare path, so callers pass a signature path distinct from
// the request target when the two differ.
func Sign(timestamp, method, path, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "." + method + "." + path))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
