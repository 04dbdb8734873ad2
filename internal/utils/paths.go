package utils

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// NormalizePath maps a file path or file URI to the key used to compare
// locations reported by different tools: "file://" URIs are decoded, "\" is
// replaced by "/", the path is cleaned and case-folded. Tools disagree on
// drive-letter and directory casing for the same checkout, so the key is
// case-insensitive.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(p), "file:") {
		if u, err := url.Parse(p); err == nil {
			p = u.Path
			if u.Host != "" && u.Host != "localhost" {
				p = "//" + u.Host + p
			}
		}
	} else if strings.Contains(p, "%") {
		if decoded, err := url.PathUnescape(p); err == nil {
			p = decoded
		}
	}
	p = strings.ReplaceAll(p, `\`, "/")
	// "/C:/src" from a file URI.
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	unc := strings.HasPrefix(p, "//")
	p = path.Clean(p)
	if unc {
		p = "/" + p
	}
	return strings.ToLower(p)
}

// HasPathSuffix reports whether the normalized path full ends with the
// normalized path suffix at a directory boundary.
func HasPathSuffix(full, suffix string) bool {
	if suffix == "" {
		return false
	}
	if full == suffix {
		return true
	}
	return strings.HasSuffix(full, "/"+strings.TrimPrefix(suffix, "/"))
}

// FindFileInSourceDirs attempts to locate a file, first checking if it's
// absolute, then searching through the provided source directories, then
// trying shorter suffixes of the path below each directory.
func FindFileInSourceDirs(relativePath string, sourceDirs []string) (string, bool) {
	if filepath.IsAbs(relativePath) {
		if _, err := os.Stat(relativePath); err == nil {
			return relativePath, true
		}
	}

	cleaned := filepath.Clean(filepath.FromSlash(strings.ReplaceAll(relativePath, `\`, "/")))
	parts := strings.Split(cleaned, string(os.PathSeparator))
	for _, dir := range sourceDirs {
		dir = filepath.Clean(dir)
		for i := 0; i < len(parts); i++ {
			candidate := filepath.Join(dir, filepath.Join(parts[i:]...))
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true
			}
		}
	}
	return "", false
}

// ResolveSourcePath returns the on-disk location of a path reported relative
// to one of sourceDirs. When nothing exists on disk the path is joined to the
// first source directory, or returned as is.
func ResolveSourcePath(reported string, sourceDirs []string) string {
	if found, ok := FindFileInSourceDirs(reported, sourceDirs); ok {
		return found
	}
	if filepath.IsAbs(reported) || isWindowsAbs(reported) || len(sourceDirs) == 0 {
		return reported
	}
	return strings.TrimRight(sourceDirs[0], `/\`) + "/" + strings.TrimLeft(strings.ReplaceAll(reported, `\`, "/"), "/")
}

func isWindowsAbs(p string) bool {
	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}
