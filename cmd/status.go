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
	"time"

	"github.com/spf13/cobra"

	"github.com/ydc/docpub/notify"
)

// NewStatusCommand returns the status command
func NewStatusCommand() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "status [document]",
		Short: "Show a document's remote publish status, or the service entitlement",
		Run: func(cmd *cobra.Command, args []string) {

			ctx := context.Background()

			s := getSettings()
			if _, err := getVault(s); err != nil {
				fatal(err)
			}
			client, err := getClient(s)
			if err != nil {
				fatal(err)
			}

			if len(args) == 0 {
				status, err := client.Status(ctx)
				if err != nil {
					fatal(err)
				}
				if status.Enable {
					expires := time.Unix(status.ExpireTime, 0).Format("2006-01-02")
					fmt.Printf("Service active, %d days remaining (expires %s)\n",
						status.RemainingInDays, expires)
				} else {
					fmt.Println(notify.Red("Service not active"))
				}
				return
			}

			published, err := client.CheckPublished(ctx, args[0])
			if err != nil {
				fatal(err)
			}
			if published {
				fmt.Println(notify.Green("published"))
			} else {
				fmt.Println("not published")
			}
		},
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(NewStatusCommand())
}
