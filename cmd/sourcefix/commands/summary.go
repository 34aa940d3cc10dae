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
	"strings"

	"github.com/pterm/pterm"

	"github.com/walteh/sourcefix/pkg/status"
)

// 📊 FormatCounts renders per-status file counts, e.g. "2 fixed, 1 cached"
func FormatCounts(counts map[status.FileStatus]int) string {
	parts := make([]string, 0, len(counts))
	for _, s := range status.StatusNames(counts) {
		parts = append(parts, fmt.Sprintf("%d %s", counts[s], s))
	}
	if len(parts) == 0 {
		return "no files"
	}
	return strings.Join(parts, ", ")
}

// printSummary prints the end of run summary
func printSummary(files, places int, counts map[status.FileStatus]int) {
	line := fmt.Sprintf("%d places in %d files (%s)", places, files, FormatCounts(counts))

	switch {
	case counts[status.StatusCrashed] > 0:
		pterm.Error.WithPrefix(pterm.Prefix{Text: "✗"}).Println(line)
	case places > 0:
		pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠"}).Println(line)
	default:
		pterm.Success.WithPrefix(pterm.Prefix{Text: "✓"}).Println(line)
	}
}
