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
)

// FileFormatter defines how file outcomes and progress should be formatted
type FileFormatter interface {
	// FormatFileOperation formats a per-file status message
	FormatFileOperation(path string, status FileStatus, places int) string

	// FormatProgress formats a progress message
	FormatProgress(current, total int) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatFileOperation formats a file status message with emojis
func (f *DefaultFileFormatter) FormatFileOperation(path string, status FileStatus, places int) string {
	switch status {
	case StatusFixed:
		return fmt.Sprintf("🔧 Fixed %s", path)
	case StatusReported:
		return fmt.Sprintf("📝 %d places in %s", places, path)
	case StatusCached:
		return fmt.Sprintf("💾 Cached %s (%d places)", path, places)
	case StatusIgnored:
		return fmt.Sprintf("🙈 Ignored %s", path)
	case StatusCrashed:
		return fmt.Sprintf("❌ Failed %s", path)
	default:
		return fmt.Sprintf("👍 Clean %s", path)
	}
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFileFormatter) FormatProgress(current, total int) string {
	var percentage float64
	if total == 0 {
		percentage = 0
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(current) / float64(total) * 100
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%.0f%%)", current, total, percentage)
}

// FormatError formats an error message with emoji
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}
