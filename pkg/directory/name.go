package directory

import (
	"strings"
	"unicode/utf8"

	. "github.com/weberc2/mono/jfs/pkg/types"
)

// ValidateName refuses names that cannot be stored as a directory entry.
func ValidateName(name string) error {
	if name == "" {
		return EmptyNameErr
	}
	if strings.ContainsRune(name, Separator) {
		return SeparatorInNameErr
	}
	if !utf8.ValidString(name) {
		return InvalidNameErr
	}
	if len(name) > MaxNameLen {
		return NameTooLongErr
	}
	return nil
}
