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

import "fmt"

// Kind classifies an operation failure. Propagation rules key off the
// kind, not the concrete error value.
type Kind int

const (

	// KindNetwork is a missing or malformed transport response.
	// Always fatal to the current operation; never retried here.
	KindNetwork Kind = iota

	// KindBusiness is a structured failure code from the server.
	// Aborts the current document; siblings in a batch continue.
	KindBusiness

	// KindAttachment is an unresolvable or invalid attachment
	// reference. Aborts the current document's publish.
	KindAttachment

	// KindNotice is a skippable per-item problem. Surfaced to the
	// user, processing continues.
	KindNotice
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindBusiness:
		return "business"
	case KindAttachment:
		return "attachment"
	case KindNotice:
		return "notice"
	}
	return "unknown"
}

// Error is the one failure type crossing package boundaries in this
// module. Code carries the server's business code when there is one.
type Error struct {
	Kind    Kind
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Networkf returns a network-kind error
func Networkf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNetwork, Message: fmt.Sprintf(format, args...)}
}

// Businessf returns a business-kind error with the server code
func Businessf(code int, format string, args ...interface{}) *Error {
	return &Error{Kind: KindBusiness, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Attachmentf returns an attachment-kind error
func Attachmentf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAttachment, Message: fmt.Sprintf(format, args...)}
}

// Noticef returns a notice-kind error
func Noticef(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotice, Message: fmt.Sprintf(format, args...)}
}

func isKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// IsNetwork reports whether err is a network-kind Error
func IsNetwork(err error) bool { return isKind(err, KindNetwork) }

// IsBusiness reports whether err is a business-kind Error
func IsBusiness(err error) bool { return isKind(err, KindBusiness) }

// IsAttachment reports whether err is an attachment-kind Error
func IsAttachment(err error) bool { return isKind(err, KindAttachment) }

// IsNotice reports whether err is a notice-kind Error
func IsNotice(err error) bool { return isKind(err, KindNotice) }

// EntitlementExpiredCode is the nested-protocol business code meaning
// the tenant's plugin entitlement has lapsed
const EntitlementExpiredCode = 10010

// IsEntitlementExpired reports whether err is the distinguished
// entitlement-expired notice
func IsEntitlementExpired(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == KindNotice && e.Code == EntitlementExpiredCode
}
