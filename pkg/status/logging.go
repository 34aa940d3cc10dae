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

package status

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// 🎨 Display configuration
const (
	fileIndent   = 4  // spaces to indent file entries
	nameWidth    = 35 // Base width for filename
	statusWidth  = 10 // Width for status text
	summaryWidth = 12 // Width for the place count
)

// 🎯 FormatFileLine formats one file outcome for the console
func FormatFileLine(path string, status FileStatus, places int) string {
	var prefix string
	switch status {
	case StatusFixed:
		prefix = color.GreenString("✓")
	case StatusReported:
		prefix = color.YellowString("⚠")
	case StatusCrashed:
		prefix = color.RedString("✗")
	case StatusCached:
		prefix = color.CyanString("≡")
	default:
		prefix = color.HiBlackString("-")
	}

	namePart := fmt.Sprintf("%-*s", nameWidth, path)
	statusPart := fmt.Sprintf("%-*s", statusWidth, status.String())
	countPart := fmt.Sprintf("%-*s", summaryWidth, fmt.Sprintf("%d places", places))

	return fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", fileIndent),
		prefix,
		namePart,
		statusPart,
		countPart,
	)
}
