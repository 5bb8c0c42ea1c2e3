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
package api

import (
	"encoding/json"

	"github.com/ydc/docpub/settings"
)

// Result is the normalized outcome of one server exchange. On success
// Data holds the payload; on a business failure Code and Msg carry the
// server's verdict.
type Result struct {
	Code int
	Msg  string
	Data json.RawMessage

	ok bool
}

// OK reports whether the exchange succeeded at the business level
func (r *Result) OK() bool { return r.ok }

type flatEnvelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type nestedEnvelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Errcode int             `json:"errcode"`
		Msg     string          `json:"msg"`
		Data    json.RawMessage `json:"data"`
	} `json:"data"`
}

// normalizer reduces one protocol variant's envelope to a Result.
// The variant is fixed by configuration, never guessed from the shape
// of a response.
type normalizer interface {
	normalize(body []byte) (*Result, error)
}

func newNormalizer(p settings.Protocol) normalizer {
	if p == settings.ProtocolNested {
		return nestedNormalizer{}
	}
	return flatNormalizer{}
}

// flatNormalizer handles the single-layer envelope where code 1 is
// success and anything else is a business failure
type flatNormalizer struct{}

func (flatNormalizer) normalize(body []byte) (*Result, error) {
	if len(body) == 0 {
		return nil, Networkf("unexpected empty response")
	}
	var env flatEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, Networkf("unexpected response data: %s", err)
	}
	if env.Code != 1 {
		msg := env.Msg
		if msg == "" {
			msg = "operation failed"
		}
		return &Result{Code: env.Code, Msg: msg}, nil
	}
	return &Result{Data: env.Data, ok: true}, nil
}

// nestedNormalizer handles the two-layer envelope: the outer code is
// transport-level (200 or bust), the inner errcode is the business
// outcome, with 10010 reserved for an expired entitlement
type nestedNormalizer struct{}

func (nestedNormalizer) normalize(body []byte) (*Result, error) {
	if len(body) == 0 {
		return nil, Networkf("unexpected empty response")
	}
	var env nestedEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, Networkf("unexpected response data: %s", err)
	}
	if env.Code != 200 {
		return nil, Networkf("server error (%d): %s", env.Code, env.Msg)
	}
	switch env.Data.Errcode {
	case 0:
		return &Result{Data: env.Data.Data, ok: true}, nil
	case EntitlementExpiredCode:
		return nil, &Error{
			Kind:    KindNotice,
			Code:    EntitlementExpiredCode,
			Message: "Service entitlement has expired",
		}
	default:
		msg := env.Data.Msg
		if msg == "" {
			msg = env.Msg
		}
		if msg == "" {
			msg = "operation failed"
		}
		return &Result{Code: env.Data.Errcode, Msg: msg}, nil
	}
}
