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
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version of the build, set via ldflags
var Version = "dev"

// GitCommit of the build, set via ldflags
var GitCommit = "unknown"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "docpub",
	Short:   "Publish a local document vault to the YDC service",
	Version: fmt.Sprintf("%s, build %s", Version, GitCommit),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Flags available to all subcommands
	rootCmd.PersistentFlags().StringP("url", "u", "", "Service base URL")
	rootCmd.PersistentFlags().StringP("dir", "d", ".", "Vault directory")
	rootCmd.PersistentFlags().String("vault-name", "", "Vault name sent to the service (defaults to the directory name)")
	rootCmd.PersistentFlags().String("app", "", "Tenant application id")
	rootCmd.PersistentFlags().String("key", "", "API key")
	rootCmd.PersistentFlags().String("secret", "", "API secret")
	rootCmd.PersistentFlags().String("protocol", "flat", "Response envelope variant (flat | nested)")
	rootCmd.PersistentFlags().StringSliceP("ignore", "i", nil, "Vault path globs to skip")
	rootCmd.PersistentFlags().Int("rename-interval", 3, "Rename sync interval in seconds")
	rootCmd.PersistentFlags().Int("remove-interval", 3, "Remove sync interval in seconds")
	rootCmd.PersistentFlags().Int("delay", 300, "Pause between batch documents in milliseconds")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
	viper.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))
	viper.BindPFlag("vault-name", rootCmd.PersistentFlags().Lookup("vault-name"))
	viper.BindPFlag("app", rootCmd.PersistentFlags().Lookup("app"))
	viper.BindPFlag("key", rootCmd.PersistentFlags().Lookup("key"))
	viper.BindPFlag("secret", rootCmd.PersistentFlags().Lookup("secret"))
	viper.BindPFlag("protocol", rootCmd.PersistentFlags().Lookup("protocol"))
	viper.BindPFlag("ignore", rootCmd.PersistentFlags().Lookup("ignore"))
	viper.BindPFlag("rename-interval", rootCmd.PersistentFlags().Lookup("rename-interval"))
	viper.BindPFlag("remove-interval", rootCmd.PersistentFlags().Lookup("remove-interval"))
	viper.BindPFlag("delay", rootCmd.PersistentFlags().Lookup("delay"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {

	// Environment variables will be prefixed with "DOCPUB_"
	viper.SetEnvPrefix("docpub")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(".docpub")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.ReadInConfig()

	if viper.GetBool("debug") {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}
}
