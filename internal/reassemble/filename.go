package reassemble

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	anyascii "github.com/anyascii/go"
)

const maxNameLength = 100

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeName turns a model-proposed filename into a safe base name without
// extension: ASCII, lowercase, runs of other characters collapsed to "_".
func SanitizeName(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = anyascii.Transliterate(name)
	name = strings.ToLower(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")

	if len(name) > maxNameLength {
		name = strings.TrimRight(name[:maxNameLength], "_")
	}
	if name == "" {
		return "document"
	}
	return name
}

// nameAllocator hands out unique sanitized names.
type nameAllocator struct {
	used map[string]struct{}
}

func newNameAllocator() *nameAllocator {
	return &nameAllocator{used: make(map[string]struct{})}
}

func (a *nameAllocator) allocate(proposed string) string {
	base := SanitizeName(proposed)
	name := base
	for n := 2; ; n++ {
		if _, taken := a.used[name]; !taken {
			a.used[name] = struct{}{}
			return name
		}
		name = fmt.Sprintf("%s_%d", base, n)
	}
}
