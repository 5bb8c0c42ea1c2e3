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
package sched

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ydc/docpub/api"
	"github.com/ydc/docpub/notify"
	"github.com/ydc/docpub/queue"
)

// Syncer is the remote surface a drain step needs. The api Client
// satisfies this.
type Syncer interface {

	// CheckPublished reports whether the document exists remotely
	CheckPublished(ctx context.Context, fileName string) (bool, error)

	// RenameDocument updates the remote file name
	RenameDocument(ctx context.Context, input api.RenameInput) error

	// RemoveDocument deletes the remote document
	RemoveDocument(ctx context.Context, input api.RemoveInput) error
}

// Options used to configure the Scheduler
type Options struct {
	Renames        queue.Queue
	Removes        queue.Queue
	Client         Syncer
	Notifier       notify.Notifier
	RenameInterval time.Duration
	RemoveInterval time.Duration
}

// Scheduler drains the rename and remove queues on independent timers
type Scheduler interface {

	// Run blocks until the context is canceled
	Run(context.Context, Options) error
}

// New returns the timer-driven Scheduler
func New() Scheduler {
	return &timerScheduler{}
}

type timerScheduler struct{}

func (s *timerScheduler) Run(ctx context.Context, opts Options) error {

	if opts.RenameInterval <= 0 {
		opts.RenameInterval = 3 * time.Second
	}
	if opts.RemoveInterval <= 0 {
		opts.RemoveInterval = 3 * time.Second
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard()
	}

	var wg sync.WaitGroup
	wg.Add(2)

	// One goroutine per queue: a drain that outlives its interval
	// simply absorbs the ticks that fired meanwhile, so a queue never
	// has two drains in flight at once
	go func() {
		defer wg.Done()
		tick(ctx, opts.RenameInterval, func() {
			drainRename(ctx, opts)
		})
	}()
	go func() {
		defer wg.Done()
		tick(ctx, opts.RemoveInterval, func() {
			drainRemove(ctx, opts)
		})
	}()

	wg.Wait()
	return ctx.Err()
}

func tick(ctx context.Context, interval time.Duration, step func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			step()
		case <-ctx.Done():
			return
		}
	}
}

// drainRename processes at most one pending rename: verify the old
// name is published remotely, then rename it. Failures are logged and
// the entry is dropped; sync is best effort.
func drainRename(ctx context.Context, opts Options) {
	var op queue.RenameOp
	ok, err := opts.Renames.Receive(&op)
	if err != nil {
		logrus.WithError(err).Warn("rename queue receive failed")
		return
	}
	if !ok {
		return
	}

	log := logrus.WithFields(logrus.Fields{
		"queue": opts.Renames.Name(),
		"from":  op.From,
		"to":    op.To.Path,
	})

	published, err := opts.Client.CheckPublished(ctx, op.From)
	if err != nil {
		surface(opts, log, err, "rename status check failed")
		return
	}
	if !published {
		// Nothing to reconcile remotely
		log.Debug("document not published, rename discarded")
		return
	}

	opts.Notifier.Notify("Syncing document rename...")
	if err := opts.Client.RenameDocument(ctx, api.RenameInput{
		FileName:    op.To.Path,
		OldFileName: op.From,
	}); err != nil {
		surface(opts, log, err, "rename sync failed")
		return
	}
	log.Info("rename synced")
}

// drainRemove processes at most one pending remove
func drainRemove(ctx context.Context, opts Options) {
	var op queue.RemoveOp
	ok, err := opts.Removes.Receive(&op)
	if err != nil {
		logrus.WithError(err).Warn("remove queue receive failed")
		return
	}
	if !ok {
		return
	}

	log := logrus.WithFields(logrus.Fields{
		"queue":  opts.Removes.Name(),
		"target": op.Target.Path,
	})

	published, err := opts.Client.CheckPublished(ctx, op.Target.Path)
	if err != nil {
		surface(opts, log, err, "remove status check failed")
		return
	}
	if !published {
		log.Debug("document not published, remove discarded")
		return
	}

	opts.Notifier.Notify("Syncing document removal...")
	if err := opts.Client.RemoveDocument(ctx, api.RemoveInput{
		FileName: op.Target.Path,
	}); err != nil {
		surface(opts, log, err, "remove sync failed")
		return
	}
	log.Info("remove synced")
}

// surface logs a drain failure; only the entitlement notice is pushed
// all the way to the user
func surface(opts Options, log *logrus.Entry, err error, msg string) {
	if api.IsEntitlementExpired(err) {
		opts.Notifier.Warn(err.Error())
	}
	log.WithError(err).Warn(msg)
}
