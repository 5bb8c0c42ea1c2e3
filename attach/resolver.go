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
package attach

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ydc/docpub/api"
	"github.com/ydc/docpub/hash"
	"github.com/ydc/docpub/vault"
)

// Embed-style reference: ![[name.ext]] or ![[name.ext|size]]
var embedPattern = regexp.MustCompile(
	`!\[\[(.*?)\.([a-zA-Z0-9]+)\|(.*?)\]\]|!\[\[(.*?)\.([a-zA-Z0-9]+)\]\]`)

// Inline-link reference: ![alt](path.ext)
var inlinePattern = regexp.MustCompile(
	`!\[(.*?)\]\((.*?)\.([a-zA-Z0-9]+)\)`)

// Checker asks the remote service whether content with the given hash
// is already stored. The api Client satisfies this.
type Checker func(ctx context.Context, input api.CheckAttachmentInput) (*api.CheckAttachmentResult, error)

// Resolution is the outcome of one pass over a document. Every
// processed reference contributed exactly one of a dedup key or a
// pending upload buffer, never both.
type Resolution struct {

	// Content is the document text with each processed reference
	// replaced by a placeholder carrying the content hash. The server
	// substitutes the real URL once the attachment is stored.
	Content string

	// AttachKeys are remote ids of attachments that already exist
	AttachKeys []int64

	// Attachments are the buffers that must ride along with the
	// publish call
	Attachments []api.Attachment

	// Notices are per-reference soft failures that did not stop the
	// pass (disallowed extension, oversize, and the like)
	Notices []string
}

// Resolver separates attachment references from a document body,
// deciding per reference between a dedup key and an upload buffer
type Resolver struct {
	vault   vault.Vault
	checker Checker
	hasher  hash.Hasher
}

// NewResolver returns a Resolver for the given vault
func NewResolver(v vault.Vault, checker Checker) *Resolver {
	return &Resolver{
		vault:   v,
		checker: checker,
		hasher:  hash.MD5(),
	}
}

// outcome memoizes the result of processing one reference snippet so
// repeated identical snippets cost one dedup check
type outcome struct {
	skipped bool
}

// Resolve scans the document text for attachment references and
// resolves each one. Unresolvable references and dedup-check failures
// abort the whole pass; per-reference policy violations are collected
// as notices and skipped.
func (r *Resolver) Resolve(ctx context.Context, text string, doc vault.File, conf api.AttachConfig) (*Resolution, error) {

	result := &Resolution{Content: text}
	seen := map[string]outcome{}

	for _, match := range embedPattern.FindAllString(text, -1) {
		inner := match[strings.Index(match, "[[")+2 : strings.Index(match, "]]")]
		parts := strings.SplitN(inner, "|", 2)
		name := parts[0]
		display := name
		if len(parts) == 2 && parts[1] != "" {
			display = fmt.Sprintf("%s|%s", name, parts[1])
		}
		if err := r.reference(ctx, result, seen, doc, conf, match, name, name, display); err != nil {
			return nil, err
		}
	}

	for _, match := range inlinePattern.FindAllString(text, -1) {
		alt := match[strings.Index(match, "[")+1 : strings.Index(match, "]")]
		pathStart := strings.LastIndex(match, "(") + 1
		refPath := match[pathStart : len(match)-1]

		name := alt
		if name == "" {
			name = refPath
		}
		if err := r.reference(ctx, result, seen, doc, conf, match, refPath, name, name); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// reference handles one matched snippet: resolve, policy-check, hash,
// dedup, and placeholder substitution
func (r *Resolver) reference(
	ctx context.Context,
	result *Resolution,
	seen map[string]outcome,
	doc vault.File,
	conf api.AttachConfig,
	match, refPath, name, display string) error {

	// A snippet seen before was already processed and substituted
	// everywhere; identical snippets share one dedup outcome
	if _, done := seen[match]; done {
		return nil
	}

	// Already-external references stay untouched
	if strings.HasPrefix(refPath, "http") {
		return nil
	}

	linked, ok, err := r.vault.ResolveLink(refPath, doc.Path)
	if err != nil {
		return api.Attachmentf("Failed to resolve attachment reference %s: %s", match, err)
	}
	if !ok {
		return api.Attachmentf(
			"Attachment reference %s points to a missing resource, publish aborted", match)
	}

	ext := name[strings.LastIndex(name, ".")+1:]
	if ext == "" {
		return r.skip(result, seen, match,
			fmt.Sprintf("Attachment %s has no extension, skipped", name))
	}
	if !strings.Contains(conf.Exts, ext) {
		return r.skip(result, seen, match,
			fmt.Sprintf("Attachment type %s is not allowed, skipped: %s", ext, name))
	}

	data, err := r.vault.ReadBinary(linked)
	if err != nil {
		return r.skip(result, seen, match,
			fmt.Sprintf("Failed to read attachment %s, skipped: %s", name, err))
	}
	if int64(len(data)) > conf.MaxSize {
		return r.skip(result, seen, match,
			fmt.Sprintf("Attachment %s exceeds the size limit, skipped", name))
	}

	sum := r.hasher.Bytes(data)
	check, err := r.checker(ctx, api.CheckAttachmentInput{
		DocName:  doc.Path,
		Vault:    r.vault.Name(),
		FileName: name,
		Hash:     sum,
	})
	if err != nil {
		// Partial resolution must never surface as success
		return err
	}

	if check.Has {
		result.AttachKeys = append(result.AttachKeys, check.Key)
	} else {
		result.Attachments = append(result.Attachments, api.Attachment{Name: name, Data: data})
	}

	placeholder := fmt.Sprintf("![%s](%s)", display, sum)
	result.Content = strings.Replace(result.Content, match, placeholder, -1)
	seen[match] = outcome{}
	return nil
}

func (r *Resolver) skip(result *Resolution, seen map[string]outcome, match, notice string) error {
	result.Notices = append(result.Notices, notice)
	seen[match] = outcome{skipped: true}
	return nil
}
