package folio

import (
	"strings"
	"unicode"
)

// SanitizeFilename checks that name addresses a single entry of the flat
// upload directory. It never rewrites the name, so the stored file keeps the
// exact name the client sent.
func SanitizeFilename(name string) (string, error) {
	invalid := func(msg string) (string, error) {
		return "", &ValidationError{Fields: []FieldError{{Field: "filename", Message: msg}}}
	}

	if strings.TrimSpace(name) == "" {
		return invalid("must not be empty")
	}
	if name == "." || name == ".." {
		return invalid("must not be a relative directory reference")
	}
	if strings.ContainsAny(name, `/\`) {
		return invalid("must not contain path separators")
	}
	if strings.Contains(name, "..") {
		return invalid("must not contain '..'")
	}
	if len(name) >= 2 && name[1] == ':' {
		return invalid("must not be an absolute path")
	}
	for _, r := range name {
		if r == 0 || unicode.IsControl(r) {
			return invalid("must not contain control characters")
		}
	}
	if len(name) > 255 {
		return invalid("must be at most 255 bytes")
	}
	return name, nil
}

// NormalizeKind lowercases an upload kind, defaulting to "asset".
func NormalizeKind(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		return UploadKindAsset
	}
	return kind
}
