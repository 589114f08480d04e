package usecase

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/taskforge/attachment-service/internal/domain/apperrors"
)

// maxDisplayNameRunes bounds sanitized display names.
const maxDisplayNameRunes = 255

// Validator runs the ordered upload policy checks over a decoded file part.
// It is pure: identical (filename, size, config) always yields the identical
// verdict and message.
type Validator struct {
	maxFileSize  int64
	allowedTypes map[string]string
	allowedList  string
}

// NewValidator creates a validator for the given per-file size ceiling and
// extension allowlist (lowercase extension -> served Content-Type).
func NewValidator(maxFileSize int64, allowedTypes map[string]string) *Validator {
	normalized := make(map[string]string, len(allowedTypes))
	extensions := make([]string, 0, len(allowedTypes))
	for ext, contentType := range allowedTypes {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		normalized[ext] = contentType
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)

	return &Validator{
		maxFileSize:  maxFileSize,
		allowedTypes: normalized,
		allowedList:  strings.Join(extensions, ", "),
	}
}

// Validate applies the checks in order, short-circuiting on the first
// failure: non-blank filename, extension allowlist, size ceiling. The size
// is the on-disk byte count, never a client-declared length. On success it
// returns the validated lowercase extension.
func (v *Validator) Validate(filename string, size int64) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", apperrors.NewAppError(apperrors.ErrValidation, "File name is required", nil)
	}

	ext := Extension(filename)
	if _, ok := v.allowedTypes[ext]; !ok {
		return "", apperrors.NewAppError(apperrors.ErrValidation,
			fmt.Sprintf("File type not allowed: allowed types are %s", v.allowedList), nil)
	}

	if size > v.maxFileSize {
		return "", apperrors.NewAppError(apperrors.ErrValidation,
			fmt.Sprintf("File is too large: %s exceeds the %s limit",
				humanize.Bytes(uint64(size)), humanize.Bytes(uint64(v.maxFileSize))), nil)
	}

	return ext, nil
}

// ContentTypeFor returns the Content-Type an allowlisted extension is served
// with. Stored extensions always come from the allowlist, so the fallback is
// only a safety net.
func (v *Validator) ContentTypeFor(ext string) string {
	if contentType, ok := v.allowedTypes[strings.ToLower(ext)]; ok {
		return contentType
	}
	return "application/octet-stream"
}

// Extension returns the lowercase substring after the final dot, or "" when
// no dot is present. A trailing dot also yields "".
func Extension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

// SanitizeDisplayName reduces an untrusted client filename to something safe
// to store and echo back: path components on either separator convention are
// stripped, control characters dropped, whitespace trimmed and the length
// bounded. The result is display-only and never used to build a path.
func SanitizeDisplayName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" {
		name = ""
	}

	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)

	runes := []rune(name)
	if len(runes) > maxDisplayNameRunes {
		// Keep the extension visible when truncating.
		ext := Extension(name)
		if ext != "" && len(ext)+1 < maxDisplayNameRunes {
			keep := maxDisplayNameRunes - len(ext) - 1
			name = string(runes[:keep]) + "." + ext
		} else {
			name = string(runes[:maxDisplayNameRunes])
		}
	}
	return name
}
