package security

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrPathTraversal = errors.New("path traversal detected")
	ErrAbsolutePath  = errors.New("absolute paths are not allowed")
	ErrReservedName  = errors.New("reserved filename not allowed")
	ErrLeadingHyphen = errors.New("filename cannot start with a hyphen")
	ErrEmptyPath     = errors.New("path is empty")

	windowsReservedNames = map[string]bool{
		"con": true, "prn": true, "aux": true, "nul": true,
		"com1": true, "com2": true, "com3": true, "com4": true,
		"com5": true, "com6": true, "com7": true, "com8": true, "com9": true,
		"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true,
		"lpt5": true, "lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
	}
)

// ValidateSavePath accepts relative paths that stay below the output
// directory.
func ValidateSavePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrEmptyPath
	}
	if filepath.IsAbs(path) {
		return ErrAbsolutePath
	}

	cleaned := filepath.Clean(path)
	for _, elem := range strings.Split(filepath.ToSlash(cleaned), "/") {
		if elem == ".." {
			return ErrPathTraversal
		}
	}

	base := filepath.Base(cleaned)
	stem := strings.TrimSuffix(strings.ToLower(base), filepath.Ext(base))
	if windowsReservedNames[stem] {
		return ErrReservedName
	}

	if strings.HasPrefix(base, "-") {
		return ErrLeadingHyphen
	}

	return nil
}

// ResolveSavePath validates name and joins it onto dir.
func ResolveSavePath(dir, name string) (string, error) {
	if err := ValidateSavePath(name); err != nil {
		return "", err
	}
	if dir == "" {
		return filepath.Clean(name), nil
	}
	return filepath.Join(dir, name), nil
}
