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
package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/ydc/docpub/api"
	"github.com/ydc/docpub/attach"
	"github.com/ydc/docpub/notify"
	"github.com/ydc/docpub/vault"
)

// Service is the remote surface publishing needs. The api Client
// satisfies this.
type Service interface {

	// AttachConfig fetches the attachment policy
	AttachConfig(ctx context.Context) (*api.AttachConfig, error)

	// CheckAttachment is the content-hash dedup probe
	CheckAttachment(ctx context.Context, input api.CheckAttachmentInput) (*api.CheckAttachmentResult, error)

	// PublishDocument uploads one document
	PublishDocument(ctx context.Context, input api.PublishInput) error
}

// Publisher moves documents from the vault to the remote store
type Publisher struct {
	vault    vault.Vault
	service  Service
	resolver *attach.Resolver
	notifier notify.Notifier
	delay    time.Duration
	log      *logrus.Entry
}

// New returns a Publisher. The delay is the pause between documents in
// a batch, keeping the service's rate limits happy.
func New(v vault.Vault, svc Service, notifier notify.Notifier, delay time.Duration) *Publisher {
	if notifier == nil {
		notifier = notify.Discard()
	}
	return &Publisher{
		vault:    v,
		service:  svc,
		resolver: attach.NewResolver(v, svc.CheckAttachment),
		notifier: notifier,
		delay:    delay,
		log:      logrus.WithField("component", "publish"),
	}
}

// PublishOne publishes a single document, fetching the attachment
// policy first
func (p *Publisher) PublishOne(ctx context.Context, file vault.File) error {
	conf := p.attachConfig(ctx)
	return p.publish(ctx, file, conf, false)
}

// PublishBatch publishes the documents one at a time, in order, with
// the configured pause between them. A failed document aborts only
// itself; failures are aggregated and returned after the batch.
func (p *Publisher) PublishBatch(ctx context.Context, files []vault.File) error {

	batch := uuid.NewV4().String()
	log := p.log.WithField("batch", batch)
	log.WithField("documents", len(files)).Info("batch publish started")

	conf := p.attachConfig(ctx)

	var errs *multierror.Error
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.publish(ctx, file, conf, true); err != nil {
			errs = multierror.Append(errs, err)
		}
		if i < len(files)-1 && p.delay > 0 {
			time.Sleep(p.delay)
		}
	}

	log.Info("batch publish finished")
	return errs.ErrorOrNil()
}

// attachConfig fetches the attachment policy; without one, documents
// publish with their references left as-is
func (p *Publisher) attachConfig(ctx context.Context) *api.AttachConfig {
	conf, err := p.service.AttachConfig(ctx)
	if err != nil {
		p.notifier.Warn(fmt.Sprintf("Attachment uploads disabled: %s", err))
		return nil
	}
	return conf
}

// publish runs the full pipeline for one document: read, front matter,
// attachment resolution, upload. Exactly one notice is produced when
// the document aborts.
func (p *Publisher) publish(ctx context.Context, file vault.File, conf *api.AttachConfig, batch bool) error {

	text, err := p.vault.ReadText(file)
	if err != nil {
		err = fmt.Errorf("Failed to read document %s: %s", file.Path, err)
		p.notifier.Error(err.Error())
		return err
	}

	meta := vault.ParseMeta(text)
	if batch && !meta.ShouldPublish() {
		p.notifier.Notify(fmt.Sprintf("Document %s is marked publish: false, skipped", file.Path))
		return nil
	}

	input := api.PublishInput{
		FileName: file.Path,
		Vault:    p.vault.Name(),
		Public:   meta.Public,
		Content:  text,
	}

	if conf != nil {
		resolution, err := p.resolver.Resolve(ctx, text, file, *conf)
		if err != nil {
			p.notifier.Error(fmt.Sprintf("Document %s not published: %s", file.Path, err))
			return err
		}
		for _, notice := range resolution.Notices {
			p.notifier.Warn(notice)
		}
		input.Content = resolution.Content
		input.AttachKeys = resolution.AttachKeys
		input.Attachments = resolution.Attachments
	}

	if err := p.service.PublishDocument(ctx, input); err != nil {
		p.notifier.Error(fmt.Sprintf("Document %s publish failed: %s", file.Path, err))
		return err
	}

	p.notifier.Notify(fmt.Sprintf("Document %s published", notify.Green(file.Path)))
	p.log.WithField("document", file.Path).Debug("published")
	return nil
}
