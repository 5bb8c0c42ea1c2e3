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
	"fmt"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ydc/docpub/notify"
	"github.com/ydc/docpub/publish"
	"github.com/ydc/docpub/vault"
)

func closeHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		fmt.Println(notify.Yellow(" Stopping..."))
	}()
}

// NewPublishCommand returns the publish command
func NewPublishCommand() *cobra.Command {

	var all bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "publish [path]",
		Short: "Publish a document, a folder, or the whole vault",
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

			notifier := notify.Console()
			pub := publish.New(v, client, notifier, s.BatchDelay)

			if !all && len(args) == 0 {
				fatal(fmt.Errorf("Specify a document or folder, or pass --all"))
			}

			if len(args) == 1 && !all {
				target := path.Clean(args[0])
				if f, ok := isDocument(v, target); ok {
					if err := pub.PublishOne(ctx, f); err != nil {
						os.Exit(1)
					}
					return
				}
				files, err := folderDocuments(v, target)
				if err != nil {
					fatal(err)
				}
				runBatch(ctx, pub, files, yes)
				return
			}

			files, err := v.Files()
			if err != nil {
				fatal(err)
			}
			runBatch(ctx, pub, files, yes)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Publish every document in the vault")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func runBatch(ctx context.Context, pub *publish.Publisher, files []vault.File, yes bool) {
	if len(files) == 0 {
		fmt.Println("No documents to publish")
		return
	}
	if !yes && !confirm(fmt.Sprintf("Publish %d documents?", len(files))) {
		fmt.Println("Publish canceled")
		return
	}
	if err := pub.PublishBatch(ctx, files); err != nil {
		os.Exit(1)
	}
}

func isDocument(v *vault.Dir, target string) (vault.File, bool) {
	f := vault.NewFile(target)
	if !f.IsDocument() {
		return vault.File{}, false
	}
	resolved, ok, err := v.ResolveLink(target, "")
	if err != nil {
		fatal(err)
	}
	return resolved, ok
}

func folderDocuments(v *vault.Dir, folder string) ([]vault.File, error) {
	files, err := v.Files()
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimSuffix(folder, "/") + "/"
	var selected []vault.File
	for _, f := range files {
		if strings.HasPrefix(f.Path, prefix) {
			selected = append(selected, f)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("No documents found under %s", folder)
	}
	return selected, nil
}

func init() {
	rootCmd.AddCommand(NewPublishCommand())
}
