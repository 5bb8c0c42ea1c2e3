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
package settings

import (
	"fmt"
	"strings"
	"time"
)

// Endpoint identifies one server operation that has a URL of its own
type Endpoint string

const (
	// Publish uploads a document together with its attachment parts
	Publish Endpoint = "api/plugin/publishWithAttach"

	// Rename updates the remote file name of a published document
	Rename Endpoint = "api/plugin/rename"

	// Remove deletes a published document
	Remove Endpoint = "api/plugin/remove"

	// CheckPublished reports whether a document exists remotely
	CheckPublished Endpoint = "api/plugin/chkPublished"

	// CheckAttachment is the content-hash dedup probe
	CheckAttachment Endpoint = "api/plugin/uploadAttachmentCheckHash"

	// AttachConfig returns the server-side attachment policy
	AttachConfig Endpoint = "api/plugin/attachConf"

	// PluginStatus returns the entitlement state of the tenant
	PluginStatus Endpoint = "api/plugin/status"
)

// Protocol selects which response envelope shape the server speaks.
// It is fixed at configuration time, never guessed from a response.
type Protocol string

const (
	// ProtocolFlat is the single-layer envelope: {code, msg, data}
	ProtocolFlat Protocol = "flat"

	// ProtocolNested wraps a second {errcode, data} layer inside data
	ProtocolNested Protocol = "nested"
)

// Settings carries everything needed to talk to the YDC service.
// Requests capture the values they need at call time, so mutating a
// Settings between calls never corrupts an in-flight signature.
type Settings struct {
	URL       string
	APIKey    string
	APISecret string
	AppID     string
	VaultName string
	Protocol  Protocol

	// Drain intervals for the two background sync queues
	RenameInterval time.Duration
	RemoveInterval time.Duration

	// Pause between documents in a batch publish, to stay under
	// server rate limits
	BatchDelay time.Duration

	// Vault paths matching any of these globs are never published
	IgnorePatterns []string
}

// Valid returns true if the settings are complete enough to sign
// and send a request
func (s *Settings) Valid() bool {
	return s.URL != "" && s.APIKey != "" && s.APISecret != ""
}

// Validate returns an error describing the first missing field
func (s *Settings) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("Service URL is not configured")
	}
	if s.APIKey == "" {
		return fmt.Errorf("API key is not configured")
	}
	if s.APISecret == "" {
		return fmt.Errorf("API secret is not configured")
	}
	return nil
}

// EndpointURL joins the configured base URL with the path for the
// given operation, tolerating trailing slashes in the base
func (s *Settings) EndpointURL(e Endpoint) string {
	base := strings.TrimRight(s.URL, "/")
	return fmt.Sprintf("%s/%s", base, string(e))
}

// Defaults returns settings with the standard sync intervals filled in
func Defaults() *Settings {
	return &Settings{
		Protocol:       ProtocolFlat,
		RenameInterval: 3 * time.Second,
		RemoveInterval: 3 * time.Second,
		BatchDelay:     300 * time.Millisecond,
	}
}
