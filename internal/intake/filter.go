package intake

import (
	"fmt"
	"path"
	"strings"

	"github.com/resumeranker/resume-uploader/internal/constants"
)

// Rejection reasons
const (
	ReasonUnsupportedType = "unsupported file type"
	ReasonTooLarge        = "exceeds maximum file size"
	ReasonNotFound        = "not found"
	ReasonDirectory       = "is a directory"
	ReasonNoMatch         = "no files match pattern"
)

// Rejection records a path that intake did not turn into a payload.
type Rejection struct {
	Path   string
	Reason string
}

func (r Rejection) String() string {
	return fmt.Sprintf("%s: %s", r.Path, r.Reason)
}

// Filter decides which files are accepted as resumes.
type Filter struct {
	Extensions []string // lowercase, with leading dot; empty accepts everything
	MaxSize    int64    // bytes; 0 = unlimited
}

// DefaultFilter mirrors the resume picker's accept list.
func DefaultFilter() Filter {
	return Filter{Extensions: ParseExtensions(constants.DefaultAllowedExtensions)}
}

// ParseExtensions splits a comma-separated list like ".pdf, DOCX" into
// normalized extensions.
func ParseExtensions(list string) []string {
	var exts []string
	for _, part := range strings.Split(list, ",") {
		ext := strings.ToLower(strings.TrimSpace(part))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return exts
}

// check returns "" if a file of this name and size is accepted,
// otherwise the rejection reason.
func (f Filter) check(name string, size int64) string {
	if len(f.Extensions) > 0 {
		ext := strings.ToLower(path.Ext(name))
		ok := false
		for _, allowed := range f.Extensions {
			if ext == allowed {
				ok = true
				break
			}
		}
		if !ok {
			return ReasonUnsupportedType
		}
	}
	if f.MaxSize > 0 && size > f.MaxSize {
		return ReasonTooLarge
	}
	return ""
}
