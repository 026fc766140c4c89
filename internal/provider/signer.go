package provider

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// SignMethod selects the signing discipline. The value is also sent to the
// provider as the sign_method parameter, so it must match the algorithm used.
type SignMethod string

const (
	// SignMethodSHA256 is the keyed-hash discipline:
	// HMAC-SHA256(secret, apiName ++ sortedParams), uppercase hex.
	SignMethodSHA256 SignMethod = "sha256"

	// SignMethodMD5 is the wrapped-digest discipline used by the legacy
	// gateway: MD5(secret ++ sortedParams ++ secret), uppercase hex.
	SignMethodMD5 SignMethod = "md5"
)

// Sign computes the request signature over params. Keys are sorted in byte
// order and concatenated as key+value. The sign parameter itself is never
// part of the signed input.
func Sign(method SignMethod, apiName string, params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if key == "sign" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var concatenated strings.Builder
	for _, key := range keys {
		concatenated.WriteString(key)
		concatenated.WriteString(params[key])
	}

	switch method {
	case SignMethodMD5:
		sum := md5.Sum([]byte(secret + concatenated.String() + secret))
		return strings.ToUpper(hex.EncodeToString(sum[:]))
	default:
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(apiName + concatenated.String()))
		return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
	}
}
