package skill

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"sigs.k8s.io/yaml"
)

// SkillFileName is the metadata file every skill package must carry at
// its root.
const SkillFileName = "SKILL.md"

var (
	yamlFrontMatterDelim = []byte{'-', '-', '-'}
	validSkillNameRegex  = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,62}[a-z0-9])?$`)
)

// Frontmatter failures are enumerated so validation can report the exact
// reason per file.
var (
	ErrMissingSkillFile        = errors.New("SKILL.md not found")
	ErrMissingFrontMatter      = errors.New("missing YAML frontmatter ('---' delimiters)")
	ErrUnterminatedFrontMatter = errors.New("frontmatter is not terminated by a closing '---'")
	ErrMissingName             = errors.New("frontmatter is missing required field: name")
	ErrMissingDescription      = errors.New("frontmatter is missing required field: description")
)

// Skill is the parsed metadata of a skill package plus its instruction
// body.
type Skill struct {
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	License       string            `json:"license,omitempty"`
	Compatibility string            `json:"compatibility,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	AllowedTools  string            `json:"allowed-tools,omitempty"` // space delimited string

	dir  string
	body string
}

// Load reads and parses the SKILL.md file in dir.
func Load(dir string) (*Skill, error) {
	data, err := os.ReadFile(filepath.Join(dir, SkillFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %q", ErrMissingSkillFile, dir)
		}
		return nil, fmt.Errorf("reading %s in %q: %w", SkillFileName, dir, err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s in %q: %w", SkillFileName, dir, err)
	}
	s.dir = dir
	return s, nil
}

// Parse splits data into YAML frontmatter and markdown body. The
// frontmatter must open on the first line with '---', close with a second
// '---', and provide at least name and description.
func Parse(data []byte) (*Skill, error) {
	reader := bufio.NewReader(bytes.NewReader(data))

	firstLine, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading frontmatter: %w", err)
	}
	if !bytes.HasPrefix(firstLine, yamlFrontMatterDelim) {
		return nil, ErrMissingFrontMatter
	}

	yamlBuffer := bytes.Buffer{}
	terminated := false
	for {
		line, rerr := reader.ReadBytes('\n')
		if bytes.HasPrefix(line, yamlFrontMatterDelim) {
			terminated = true
			break
		}
		yamlBuffer.Write(line)
		if rerr == io.EOF {
			break
		}
	}
	if !terminated {
		return nil, ErrUnterminatedFrontMatter
	}

	s := &Skill{}
	if err := yaml.Unmarshal(yamlBuffer.Bytes(), s); err != nil {
		return nil, fmt.Errorf("parsing frontmatter YAML: %w", err)
	}
	if s.Name == "" {
		return nil, ErrMissingName
	}
	if s.Description == "" {
		return nil, ErrMissingDescription
	}

	body, _ := io.ReadAll(reader)
	s.body = string(body)
	return s, nil
}

// Dir returns where the skill contents live on disk. Empty for skills
// parsed from raw bytes.
func (s *Skill) Dir() string {
	return s.dir
}

// Body returns the markdown instructions after the frontmatter.
func (s *Skill) Body() string {
	return s.body
}

// Validate checks the metadata conventions beyond the required fields.
func (s *Skill) Validate() error {
	var err error
	if !validSkillNameRegex.MatchString(s.Name) {
		err = errors.Join(err, fmt.Errorf("skill name must be max 64 characters with only lowercase letters, numbers, and hyphens. must not start or end with a hyphen"))
	}

	if len(s.Description) > 1024 {
		err = errors.Join(err, fmt.Errorf("skill description must be max 1024 characters"))
	}
	if len(s.Description) == 0 {
		err = errors.Join(err, fmt.Errorf("skill description must be provided"))
	}

	if len(s.Compatibility) > 500 {
		err = errors.Join(err, fmt.Errorf("compatibility must be max 500 characters"))
	}

	return err
}
