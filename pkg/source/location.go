package source

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidLocation is returned when a URL does not name a directory
// inside a hosted repository tree.
var ErrInvalidLocation = errors.New("not a repository tree URL")

var treeURLRegex = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+)/tree/([^/]+)(?:/(.+?))?/?$`)

// Location identifies a directory inside a hosted repository at a
// specific ref. It is immutable after parsing.
type Location struct {
	Owner string
	Repo  string
	Ref   string
	// Path is the repo-relative, slash-separated directory path.
	// Empty means the repository root.
	Path string
}

// ParseTreeURL parses a repository tree URL of the form
// https://github.com/<owner>/<repo>/tree/<branch>[/<path>], with an
// optional trailing slash. Anything else fails with ErrInvalidLocation.
func ParseTreeURL(raw string) (Location, error) {
	m := treeURLRegex.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return Location{}, fmt.Errorf("%w: %q (expected https://github.com/<owner>/<repo>/tree/<branch>[/<path>])", ErrInvalidLocation, raw)
	}
	return Location{Owner: m[1], Repo: m[2], Ref: m[3], Path: m[4]}, nil
}

// String renders the canonical tree URL for the location.
func (l Location) String() string {
	u := fmt.Sprintf("https://github.com/%s/%s/tree/%s", l.Owner, l.Repo, l.Ref)
	if l.Path != "" {
		u += "/" + l.Path
	}
	return u
}

// Sub returns the location of the named child directory.
func (l Location) Sub(name string) Location {
	child := l
	if l.Path == "" {
		child.Path = name
	} else {
		child.Path = l.Path + "/" + name
	}
	return child
}

// SkillName returns the default install directory name: the last path
// segment, or the repository name when the location is the repo root.
func (l Location) SkillName() string {
	if l.Path == "" {
		return l.Repo
	}
	segs := strings.Split(l.Path, "/")
	return segs[len(segs)-1]
}

// ContentsURL builds the directory listing endpoint for the location.
func (l Location) ContentsURL(apiBase string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s", apiBase, l.Owner, l.Repo, l.Path, l.Ref)
}

// RawFileURL builds the raw download endpoint for the named file under
// the location. Every path segment is percent-encoded independently so
// that names containing spaces or reserved characters survive.
func (l Location) RawFileURL(rawBase, name string) string {
	segs := []string{l.Owner, l.Repo, l.Ref}
	if l.Path != "" {
		segs = append(segs, strings.Split(l.Path, "/")...)
	}
	segs = append(segs, name)

	encoded := make([]string, len(segs))
	for i, s := range segs {
		encoded[i] = url.PathEscape(s)
	}
	return rawBase + "/" + strings.Join(encoded, "/")
}
