package vault

import (
	"strings"

	"github.com/go-yaml/yaml"
)

// Meta is the publish-relevant subset of a document's front matter
type Meta struct {

	// Publish false excludes the document from batch publishes
	Publish *bool `yaml:"publish"`

	// Public marks the document public once published
	Public bool `yaml:"public"`
}

// ShouldPublish reports whether the document participates in batch
// publishes. Documents without front matter participate by default.
func (m Meta) ShouldPublish() bool {
	return m.Publish == nil || *m.Publish
}

// ParseMeta extracts front matter from document text. Malformed yaml
// is treated as no front matter rather than a failure, since arbitrary
// documents may open with a horizontal rule.
func ParseMeta(text string) Meta {
	var meta Meta

	body := strings.TrimPrefix(text, "\uFEFF")
	if !strings.HasPrefix(body, "---\n") && !strings.HasPrefix(body, "---\r\n") {
		return meta
	}
	rest := body[strings.Index(body, "\n")+1:]

	end := strings.Index(rest, "\n---")
	if end < 0 {
		return meta
	}
	block := rest[:end+1]

	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return Meta{}
	}
	return meta
}
