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
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ydc/docpub/notify"
	"github.com/ydc/docpub/queue"
	"github.com/ydc/docpub/sched"
	"github.com/ydc/docpub/vault"
)

// renameWindow is how long a rename event waits for its matching
// create event before it is treated as a plain removal
const renameWindow = time.Second

// NewWatchCommand returns the watch command
func NewWatchCommand() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the vault and keep remote names in sync",
		Run: func(cmd *cobra.Command, args []string) {

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			closeHandler(cancel)

			s := getSettings()
			v, err := getVault(s)
			if err != nil {
				fatal(err)
			}
			client, err := getClient(s)
			if err != nil {
				fatal(err)
			}

			renames := queue.NewMemory("rename")
			removes := queue.NewMemory("remove")

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				fatal(err)
			}
			defer watcher.Close()
			if err := watchTree(watcher, v.Root()); err != nil {
				fatal(err)
			}

			go watchLoop(ctx, watcher, v, renames, removes)

			scheduler := sched.New()
			scheduler.Run(ctx, sched.Options{
				Renames:        renames,
				Removes:        removes,
				Client:         client,
				Notifier:       notify.Console(),
				RenameInterval: s.RenameInterval,
				RemoveInterval: s.RemoveInterval,
			})
		},
	}
	return cmd
}

// watchTree registers the directory and all its subdirectories
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if filepath.Base(path)[0] == '.' && path != root {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

// watchLoop turns filesystem events into queue operations. A rename
// arrives as a Rename event on the old path followed by a Create on
// the new one; the pair becomes a RenameOp, an unpaired Rename or a
// Remove becomes a RemoveOp.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, v *vault.Dir, renames, removes queue.Queue) {

	log := logrus.WithField("component", "watch")

	var pendingFrom string
	var pendingAt time.Time

	flushPending := func() {
		if pendingFrom == "" {
			return
		}
		if err := removes.Send(queue.RemoveOp{Target: vault.NewFile(pendingFrom)}); err != nil {
			log.WithError(err).Warn("enqueue remove failed")
		}
		pendingFrom = ""
	}

	relDoc := func(path string) (string, bool) {
		rel, err := filepath.Rel(v.Root(), path)
		if err != nil {
			return "", false
		}
		rel = filepath.ToSlash(rel)
		return rel, vault.NewFile(rel).IsDocument()
	}

	for {
		select {

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if pendingFrom != "" && time.Since(pendingAt) > renameWindow {
				flushPending()
			}
			switch {
			case event.Op&fsnotify.Create != 0:
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					watcher.Add(event.Name)
					continue
				}
				rel, isDoc := relDoc(event.Name)
				if !isDoc {
					continue
				}
				if pendingFrom != "" {
					op := queue.RenameOp{From: pendingFrom, To: vault.NewFile(rel)}
					if err := renames.Send(op); err != nil {
						log.WithError(err).Warn("enqueue rename failed")
					} else {
						log.WithFields(logrus.Fields{"from": op.From, "to": rel}).Info("rename queued")
					}
					pendingFrom = ""
				}

			case event.Op&fsnotify.Rename != 0:
				rel, isDoc := relDoc(event.Name)
				if !isDoc {
					continue
				}
				flushPending()
				pendingFrom = rel
				pendingAt = time.Now()

			case event.Op&fsnotify.Remove != 0:
				rel, isDoc := relDoc(event.Name)
				if !isDoc {
					continue
				}
				if err := removes.Send(queue.RemoveOp{Target: vault.NewFile(rel)}); err != nil {
					log.WithError(err).Warn("enqueue remove failed")
				} else {
					log.WithField("target", rel).Info("remove queued")
				}
			}

		case <-time.After(renameWindow):
			if pendingFrom != "" && time.Since(pendingAt) > renameWindow {
				flushPending()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("watcher error")

		case <-ctx.Done():
			return
		}
	}
}

func init() {
	rootCmd.AddCommand(NewWatchCommand())
}
