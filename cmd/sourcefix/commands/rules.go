// Copyright 2025 walteh LLC
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

package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/cmd/sourcefix/opts"
	"github.com/walteh/sourcefix/pkg/plugin"
)

// 📋 NewRulesCmd lists the rules a run would load and where each came from
func NewRulesCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the loaded rules",
		Long: `Rules resolves every configured plugin the same way a run does and
prints each rule with its report message, its templates and the resolver
it was found by.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := o.Registry(cmd.Context())
			if err != nil {
				return errors.Errorf("loading rules: %w", err)
			}
			PrintRules(cmd.OutOrStdout(), registry.Rules())
			return nil
		},
	}
}

// PrintRules writes one block per rule
func PrintRules(w io.Writer, rules []*plugin.Rule) {
	for _, r := range rules {
		kind := "report"
		if r.CanFix() {
			kind = "fix"
		}
		fmt.Fprintf(w, "%s %s %s\n",
			color.New(color.Bold).Sprint(r.Name),
			color.New(color.Faint).Sprint("•"),
			color.New(color.FgYellow).Sprint(kind))
		fmt.Fprintf(w, "    %s\n", r.Report)
		fmt.Fprintf(w, "    %s\n", color.New(color.FgCyan).Sprint(r.Source))
		for _, t := range r.Templates() {
			fmt.Fprintf(w, "    - %s\n", t)
		}
	}
}
