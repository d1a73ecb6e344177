package domain

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// maxNamespaceBaseLen bounds the sanitized file-name part of a namespace.
const maxNamespaceBaseLen = 40

var (
	nonAlnumRE  = regexp.MustCompile(`[^A-Za-z0-9]`)
	hyphenRunRE = regexp.MustCompile(`-+`)
	nonNameRE   = regexp.MustCompile(`[^a-z0-9-]`)
)

// NamespaceForFile derives the vector namespace name for a source file.
// It is a pure function of (fileID, fileName), so a file's namespace can be
// rediscovered at any time without a lookup table. The result contains only
// lowercase alphanumerics and hyphens, never starts with a digit or hyphen,
// and is length-bounded.
func NamespaceForFile(fileID int64, fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	base = nonAlnumRE.ReplaceAllString(base, "-")
	base = hyphenRunRE.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	base = strings.ToLower(base)
	if len(base) > maxNamespaceBaseLen {
		base = base[:maxNamespaceBaseLen]
	}
	if base != "" && base[0] >= '0' && base[0] <= '9' {
		base = "file-" + base
	}

	name := "kb-file-" + strconv.FormatInt(fileID, 10) + "-" + base
	name = nonNameRE.ReplaceAllString(name, "")
	name = hyphenRunRE.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	return name
}
