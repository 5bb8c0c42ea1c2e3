// Copyright 2024 YDC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	// Algorithm is the tag identifying this signing scheme
	Algorithm = "YDC4-HMAC-SHA256"

	// UnsignedPayload is the canonical payload line used when the
	// caller supplies no payload commitment header
	UnsignedPayload = "UNSIGNED-PAYLOAD"

	// HeaderRequestDate carries the request timestamp. Its value, when
	// present, is the signing timestamp; otherwise the current time is
	// used. Format: TimeFormat.
	HeaderRequestDate = "x-request-date"

	// HeaderContentHash commits the signature to the request payload
	// without the signer ever seeing the payload itself
	HeaderContentHash = "x-doc-content-sha256"

	// TimeFormat is the wire format for request timestamps
	TimeFormat = "2006-01-02 15:04:05"

	secretPrefix = "ydc_v4_"
	scopeSuffix  = "doc/ydc_v4_request"
)

// Credentials used to derive request signatures. The secret never
// leaves the process; only HMAC output goes on the wire.
type Credentials struct {
	APIKey    string
	APISecret string
}

// Signer builds Authorization header values for outbound requests.
// Given fixed inputs the output is byte-for-byte deterministic: no
// hidden state, no randomness, and the clock is consulted only when
// the caller omits the x-request-date header.
type Signer struct {
	creds    Credentials
	now      func() time.Time
	collator *collate.Collator
}

// New returns a Signer using the wall clock for requests that do not
// carry their own timestamp
func New(creds Credentials) *Signer {
	return NewWithClock(creds, time.Now)
}

// NewWithClock returns a Signer with an injected clock
func NewWithClock(creds Credentials, now func() time.Time) *Signer {
	return &Signer{
		creds:    creds,
		now:      now,
		collator: collate.New(language.Und),
	}
}

// Sign computes the Authorization header value for one request.
// Headers must be plain strings; there is no error path for
// well-formed inputs. Queries may be nil.
func (s *Signer) Sign(method string, headers map[string]string, queries map[string]string) string {

	lowered := lowercaseHeaders(headers)

	date := lowered[HeaderRequestDate]
	if date == "" {
		date = s.now().Format(TimeFormat)
	}
	dateOnly := strings.SplitN(date, " ", 2)[0]

	signedHeaders, canonicalRequest := s.CanonicalRequest(method, lowered, queries)
	stringToSign := StringToSign(date, canonicalRequest)
	signature := s.signature(dateOnly, stringToSign)

	return fmt.Sprintf("%s Credential=%s/%s,Headers=%s,Signature=%s",
		Algorithm, s.creds.APIKey, dateOnly,
		strings.Join(signedHeaders, ";"), signature)
}

// CanonicalRequest assembles the reproducible request string that the
// signature commits to, returning also the sorted list of header names
// included in it. Header names must already be lowercase.
func (s *Signer) CanonicalRequest(method string, headers map[string]string, queries map[string]string) ([]string, string) {

	lines := []string{strings.ToUpper(method)}
	lines = append(lines, s.canonicalQuery(queries))

	var names []string
	for name := range headers {
		// The transport sets these independently of signing
		if name == "content-type" || name == "content-md5" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	headerLines := make([]string, 0, len(names))
	for _, name := range names {
		headerLines = append(headerLines, fmt.Sprintf("%s:%s", name, headers[name]))
	}
	lines = append(lines, strings.Join(headerLines, "\n"))

	payload := headers[HeaderContentHash]
	if payload == "" {
		payload = UnsignedPayload
	}
	lines = append(lines, payload)

	return names, strings.Join(lines, "\n")
}

// canonicalQuery percent-encodes each key and value and joins the
// pairs in locale collation order of the keys. Empty values stay
// present as "key=" rather than being dropped.
func (s *Signer) canonicalQuery(queries map[string]string) string {
	if len(queries) == 0 {
		return ""
	}
	keys := make([]string, 0, len(queries))
	for k := range queries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.collator.CompareString(keys[i], keys[j]) < 0
	})
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", encode(k), encode(queries[k])))
	}
	return strings.Join(pairs, "&")
}

// StringToSign derives the final signing input from the timestamp and
// the canonical request
func StringToSign(date, canonicalRequest string) string {
	dateOnly := strings.SplitN(date, " ", 2)[0]
	return strings.Join([]string{
		Algorithm,
		date,
		fmt.Sprintf("%s/%s", dateOnly, scopeSuffix),
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")
}

// signature runs the two-step HMAC chain: a per-day signing key
// derived from the secret, then the signature over the string to sign.
// The intermediate key is used in its hex form, matching the server.
func (s *Signer) signature(dateOnly, stringToSign string) string {
	signingKey := hmacHex([]byte(secretPrefix+s.creds.APISecret), dateOnly)
	return hmacHex([]byte(signingKey), stringToSign)
}

// ContentHash returns the hex SHA-256 payload commitment for a body
func ContentHash(body []byte) string {
	return sha256Hex(body)
}

func lowercaseHeaders(headers map[string]string) map[string]string {
	lowered := make(map[string]string, len(headers))
	for name, value := range headers {
		lowered[strings.ToLower(name)] = strings.TrimSpace(value)
	}
	return lowered
}

// encode matches JavaScript encodeURIComponent: spaces become %20 and
// the characters !'()*~ stay literal
func encode(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.Replace(escaped, "+", "%20", -1)
	for literal, coded := range map[string]string{
		"!": "%21", "'": "%27", "(": "%28", ")": "%29", "*": "%2A", "~": "%7E",
	} {
		escaped = strings.Replace(escaped, coded, literal, -1)
	}
	return escaped
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacHex(key []byte, data string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
