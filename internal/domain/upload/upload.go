// Package upload holds validation and naming rules for uploaded menu files.
package upload

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/menusearch/internal/domain"
)

// fallbackName is used when nothing of the client filename survives sanitization.
const fallbackName = "upload"

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// AllowedExtensions returns the accepted file extensions.
func AllowedExtensions() []string {
	return []string{"pdf", "png", "jpg", "jpeg"}
}

// Extension returns the lower-cased text after the last dot ("" when there is none).
func Extension(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// Validate checks a client filename against the allow-list.
func Validate(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("%w: no file selected", domain.ErrInvalidUpload)
	}
	if _, ok := contentTypes[Extension(filename)]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedFileType, filename)
	}
	return nil
}

// ContentType returns the MIME type for an allowed filename, "" otherwise.
func ContentType(filename string) string {
	return contentTypes[Extension(filename)]
}

// SecureFilename reduces a client filename to a safe ASCII name: accents are
// decomposed and dropped, path separators and whitespace become underscores,
// and any other character outside [A-Za-z0-9_.-] is removed.
func SecureFilename(filename string) string {
	decomposed := norm.NFKD.String(filename)

	var b strings.Builder
	for _, r := range decomposed {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	ascii := b.String()
	ascii = strings.NewReplacer("/", " ", `\`, " ").Replace(ascii)
	joined := strings.Join(strings.Fields(ascii), "_")
	return strings.Trim(unsafeChars.ReplaceAllString(joined, ""), "._")
}

// BlobPath builds the storage path "<prefix>/<id>_<secure-name>".
// The prefix segment is omitted when prefix is empty.
func BlobPath(prefix, id, filename string) string {
	name := SecureFilename(filename)
	if name == "" || !strings.Contains(name, ".") {
		name = fallbackName + "." + Extension(filename)
	}
	object := id + "_" + name

	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return object
	}
	return path.Join(prefix, object)
}
