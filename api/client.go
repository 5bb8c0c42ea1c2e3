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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ydc/docpub/auth"
	"github.com/ydc/docpub/hash"
	"github.com/ydc/docpub/settings"
)

// AttachConfig is the server-side attachment policy
type AttachConfig struct {
	MaxSize int64  `json:"maxSize"`
	Exts    string `json:"exts"`
}

// CheckAttachmentInput keys the content-hash dedup probe
type CheckAttachmentInput struct {
	DocName  string `json:"docName"`
	Vault    string `json:"vault"`
	FileName string `json:"fileName"`
	Hash     string `json:"hash"`
}

// CheckAttachmentResult reports whether content is already stored
// remotely. Has true means no bytes need to be transferred; Key then
// identifies the stored attachment.
type CheckAttachmentResult struct {
	Has bool   `json:"has"`
	URL string `json:"url"`
	Key int64  `json:"id"`
}

// Attachment is one binary part of a publish call
type Attachment struct {
	Name string
	Data []byte
}

// PublishInput is everything needed to publish one document
type PublishInput struct {
	Content     string
	FileName    string
	Vault       string
	Public      bool
	AttachKeys  []int64
	Attachments []Attachment
}

// RenameInput renames a published document remotely. The vault name
// comes from the client settings.
type RenameInput struct {
	FileName    string
	OldFileName string
}

// RemoveInput deletes a published document remotely
type RemoveInput struct {
	FileName string
}

// PluginStatus is the tenant entitlement state
type PluginStatus struct {
	Enable             bool  `json:"enable"`
	ExpireTime         int64 `json:"expireTime"`
	RemainingInDays    int64 `json:"remainingInDays"`
	RemainingInSeconds int64 `json:"remainingInSeconds"`
}

// Client issues signed calls to the document service and reduces both
// envelope variants to one normalized result shape
type Client struct {
	settings  *settings.Settings
	signer    *auth.Signer
	client    *http.Client
	hasher    hash.Hasher
	normalize normalizer
	now       func() time.Time
	log       *logrus.Entry
}

// New returns a Client for the configured service
func New(s *settings.Settings) *Client {
	return NewWithClock(s, time.Now)
}

// NewWithClock returns a Client with an injected clock so tests can
// pin the signing timestamp
func NewWithClock(s *settings.Settings, now func() time.Time) *Client {
	creds := auth.Credentials{APIKey: s.APIKey, APISecret: s.APISecret}
	return &Client{
		settings:  s,
		signer:    auth.NewWithClock(creds, now),
		client:    &http.Client{Timeout: 30 * time.Second},
		hasher:    hash.SHA256(),
		normalize: newNormalizer(s.Protocol),
		now:       now,
		log:       logrus.WithField("component", "api"),
	}
}

// CheckPublished reports whether the document is known remotely
func (c *Client) CheckPublished(ctx context.Context, fileName string) (bool, error) {
	queries := map[string]string{
		"fileName": fileName,
		"vault":    c.settings.VaultName,
	}
	result, err := c.get(ctx, c.settings.EndpointURL(settings.CheckPublished), queries)
	if err != nil {
		return false, err
	}
	if !result.OK() {
		return false, Businessf(result.Code, "Failed to check publish status of %s: %s", fileName, result.Msg)
	}
	var status struct {
		Is int `json:"is"`
	}
	if err := json.Unmarshal(result.Data, &status); err != nil {
		return false, Networkf("unexpected publish status payload: %s", err)
	}
	return status.Is == 1, nil
}

// AttachConfig fetches the attachment policy for this tenant
func (c *Client) AttachConfig(ctx context.Context) (*AttachConfig, error) {
	result, err := c.get(ctx, c.settings.EndpointURL(settings.AttachConfig), nil)
	if err != nil {
		return nil, err
	}
	if !result.OK() {
		return nil, Businessf(result.Code, "Failed to get attachment config: %s", result.Msg)
	}
	var conf AttachConfig
	if err := json.Unmarshal(result.Data, &conf); err != nil {
		return nil, Networkf("unexpected attachment config payload: %s", err)
	}
	return &conf, nil
}

// CheckAttachment asks whether content with this hash is already
// stored for the document
func (c *Client) CheckAttachment(ctx context.Context, input CheckAttachmentInput) (*CheckAttachmentResult, error) {
	fields := []field{
		{"docName", input.DocName},
		{"vault", input.Vault},
		{"hash", input.Hash},
		{"fileName", input.FileName},
	}
	result, err := c.postMultipart(ctx,
		c.settings.EndpointURL(settings.CheckAttachment), fields, nil, c.formCommitment(fields))
	if err != nil {
		return nil, err
	}
	if !result.OK() {
		return nil, Businessf(result.Code, "Failed to check attachment %s: %s", input.FileName, result.Msg)
	}
	var check CheckAttachmentResult
	if err := json.Unmarshal(result.Data, &check); err != nil {
		return nil, Networkf("unexpected attachment check payload: %s", err)
	}
	return &check, nil
}

// PublishDocument uploads the document body together with any pending
// attachment bytes and references to deduplicated attachments
func (c *Client) PublishDocument(ctx context.Context, input PublishInput) error {

	fields := []field{
		{"content", input.Content},
		{"fileName", input.FileName},
		{"vault", input.Vault},
	}
	if input.Public {
		fields = append(fields, field{"isPublic", "1"})
	}
	for _, key := range input.AttachKeys {
		fields = append(fields, field{"attachsUploaded[]", fmt.Sprintf("%d", key)})
	}

	// The commitment covers the form fields only; binary attachment
	// parts never enter the signature
	result, err := c.postMultipart(ctx,
		c.settings.EndpointURL(settings.Publish), fields, input.Attachments, c.formCommitment(fields))
	if err != nil {
		return err
	}
	if !result.OK() {
		return Businessf(result.Code, "Failed to publish %s: %s", input.FileName, result.Msg)
	}
	return nil
}

// RenameDocument updates the remote name of a published document
func (c *Client) RenameDocument(ctx context.Context, input RenameInput) error {
	body := struct {
		File        string `json:"file"`
		FileName    string `json:"fileName"`
		OldFileName string `json:"oldFileName"`
		Vault       string `json:"vault"`
	}{"is", input.FileName, input.OldFileName, c.settings.VaultName}

	result, err := c.postJSON(ctx, c.settings.EndpointURL(settings.Rename), body)
	if err != nil {
		return err
	}
	if !result.OK() {
		return Businessf(result.Code, "Failed to rename %s: %s", input.OldFileName, result.Msg)
	}
	return nil
}

// RemoveDocument deletes a published document remotely
func (c *Client) RemoveDocument(ctx context.Context, input RemoveInput) error {
	body := struct {
		FileName string `json:"fileName"`
		Vault    string `json:"vault"`
	}{input.FileName, c.settings.VaultName}

	result, err := c.postJSON(ctx, c.settings.EndpointURL(settings.Remove), body)
	if err != nil {
		return err
	}
	if !result.OK() {
		return Businessf(result.Code, "Failed to remove %s: %s", input.FileName, result.Msg)
	}
	return nil
}

// Status fetches the tenant entitlement state
func (c *Client) Status(ctx context.Context) (*PluginStatus, error) {
	result, err := c.get(ctx, c.settings.EndpointURL(settings.PluginStatus), nil)
	if err != nil {
		return nil, err
	}
	if !result.OK() {
		return nil, Businessf(result.Code, "Failed to get service status: %s", result.Msg)
	}
	var status PluginStatus
	if err := json.Unmarshal(result.Data, &status); err != nil {
		return nil, Networkf("unexpected status payload: %s", err)
	}
	return &status, nil
}

type field struct {
	name  string
	value string
}

// formCommitment hashes the canonical JSON reconstruction of the form
// fields, which the server rebuilds from field order to verify the
// signature. Values are trimmed strings, repeated "name[]" fields
// collapse into one array under "name", and an absent array leaves no
// key behind.
func (c *Client) formCommitment(fields []field) string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if i > 0 {
			buf.WriteByte(',')
		}
		if strings.HasSuffix(f.name, "[]") {
			buf.Write(jsonString(strings.TrimSuffix(f.name, "[]")))
			buf.WriteString(":[")
			for j := i; j < len(fields) && fields[j].name == f.name; j++ {
				if j > i {
					buf.WriteByte(',')
				}
				buf.Write(jsonString(strings.TrimSpace(fields[j].value)))
				i = j
			}
			buf.WriteByte(']')
			continue
		}
		buf.Write(jsonString(f.name))
		buf.WriteByte(':')
		buf.Write(jsonString(strings.TrimSpace(f.value)))
	}
	buf.WriteByte('}')
	return c.hasher.Bytes(buf.Bytes())
}

// jsonString encodes one string the way JSON.stringify does: no HTML
// escaping, so the hash matches the server's reconstruction
func jsonString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}

// baseHeaders returns the headers required on every signed call.
// The settings values are captured here, at call time.
func (c *Client) baseHeaders(commitment string) map[string]string {
	headers := map[string]string{
		"request-app":      c.settings.AppID,
		"x-request-date":   c.now().Format(auth.TimeFormat),
		"x-requested-with": "XMLHttpRequest",
	}
	if commitment != "" {
		headers[auth.HeaderContentHash] = commitment
	}
	return headers
}

func (c *Client) get(ctx context.Context, endpoint string, queries map[string]string) (*Result, error) {
	headers := c.baseHeaders("")
	authz := c.signer.Sign("GET", headers, queries)

	if len(queries) > 0 {
		values := url.Values{}
		for k, v := range queries {
			values.Set(k, v)
		}
		endpoint = fmt.Sprintf("%s?%s", endpoint, values.Encode())
	}

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, Networkf("Failed to build request: %s", err)
	}
	return c.do(req.WithContext(ctx), headers, authz, "")
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body interface{}) (*Result, error) {
	js, err := json.Marshal(body)
	if err != nil {
		return nil, Networkf("Failed to marshal request: %s", err)
	}
	headers := c.baseHeaders(c.hasher.Bytes(js))
	authz := c.signer.Sign("POST", headers, nil)

	req, err := http.NewRequest("POST", endpoint, bytes.NewReader(js))
	if err != nil {
		return nil, Networkf("Failed to build request: %s", err)
	}
	return c.do(req.WithContext(ctx), headers, authz, "application/json; charset=utf8")
}

func (c *Client) postMultipart(ctx context.Context, endpoint string, fields []field, files []Attachment, commitment string) (*Result, error) {

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, Networkf("Failed to build form: %s", err)
		}
	}
	for _, file := range files {
		part, err := writer.CreateFormFile("attachs[]", file.Name)
		if err != nil {
			return nil, Networkf("Failed to build form: %s", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, Networkf("Failed to build form: %s", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, Networkf("Failed to build form: %s", err)
	}

	headers := c.baseHeaders(commitment)
	authz := c.signer.Sign("POST", headers, nil)

	req, err := http.NewRequest("POST", endpoint, body)
	if err != nil {
		return nil, Networkf("Failed to build request: %s", err)
	}
	return c.do(req.WithContext(ctx), headers, authz, writer.FormDataContentType())
}

func (c *Client) do(req *http.Request, headers map[string]string, authz, contentType string) (*Result, error) {
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	req.Header.Set("Authorization", authz)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.log.WithFields(logrus.Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	}).Debug("request")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, Networkf("Request failed: %s", err)
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, Networkf("Failed to read response: %s", err)
	}
	if resp.StatusCode != 200 {
		return nil, Networkf("Request failed (%d): %s", resp.StatusCode, raw)
	}
	return c.normalize.normalize(raw)
}
