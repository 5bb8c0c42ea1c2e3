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

	"github.com/spf13/cobra"
)

// NewAttachConfigCommand returns the attach-config command
func NewAttachConfigCommand() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "attach-config",
		Short: "Show the server-side attachment policy",
		Run: func(cmd *cobra.Command, args []string) {

			s := getSettings()
			client, err := getClient(s)
			if err != nil {
				fatal(err)
			}

			conf, err := client.AttachConfig(context.Background())
			if err != nil {
				fatal(err)
			}
			fmt.Printf("Max size:   %d bytes\n", conf.MaxSize)
			fmt.Printf("Extensions: %s\n", conf.Exts)
		},
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(NewAttachConfigCommand())
}
