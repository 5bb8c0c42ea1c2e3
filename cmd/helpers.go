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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ydc/docpub/api"
	"github.com/ydc/docpub/settings"
	"github.com/ydc/docpub/vault"
)

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}

// getSettings assembles settings from flags, environment, and the
// optional config file
func getSettings() *settings.Settings {
	s := settings.Defaults()
	s.URL = viper.GetString("url")
	s.APIKey = viper.GetString("key")
	s.APISecret = viper.GetString("secret")
	s.AppID = viper.GetString("app")
	s.VaultName = viper.GetString("vault-name")
	s.Protocol = settings.Protocol(viper.GetString("protocol"))
	s.IgnorePatterns = viper.GetStringSlice("ignore")
	s.RenameInterval = time.Duration(viper.GetInt("rename-interval")) * time.Second
	s.RemoveInterval = time.Duration(viper.GetInt("remove-interval")) * time.Second
	s.BatchDelay = time.Duration(viper.GetInt("delay")) * time.Millisecond
	return s
}

// getVault opens the configured vault directory. The vault name
// defaults to the directory basename.
func getVault(s *settings.Settings) (*vault.Dir, error) {
	dir := viper.GetString("dir")
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	v, err := vault.NewDir(absDir, s.VaultName, s.IgnorePatterns)
	if err != nil {
		return nil, err
	}
	if s.VaultName == "" {
		s.VaultName = v.Name()
	}
	return v, nil
}

func getClient(s *settings.Settings) (*api.Client, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return api.New(s), nil
}

// confirm asks for a yes/no answer on stdin
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
