package util

import (
	"os"
	"path/filepath"
	"strings"
)

// StringListContains returns true if the list of strings contains item.
func StringListContains(list []string, item string) bool {
	if list != nil {
		for i := range list {
			if list[i] == item {
				return true
			}
		}
	}
	return false
}

// StringListContainsFold is like StringListContains, but ignores case.
func StringListContainsFold(list []string, item string) bool {
	for i := range list {
		if strings.EqualFold(list[i], item) {
			return true
		}
	}
	return false
}

// BaseName returns the last segment of a slash-separated object key.
// Unlike path.Base, it returns an empty string for keys that end
// with a slash.
func BaseName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// ExpandTilde expands a leading ~ to the user's home directory.
func ExpandTilde(filePath string) (string, error) {
	if !strings.HasPrefix(filePath, "~") {
		return filePath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, filePath[1:]), nil
}
