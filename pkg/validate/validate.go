package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/skillpkg/skillpkg/pkg/skill"
	"mvdan.cc/sh/v3/syntax"
	"sigs.k8s.io/yaml"
)

const pySyntaxCheck = "import ast, sys; ast.parse(sys.stdin.read())"

// Tree checks every file under root for syntax errors and returns the
// problems found, formatted as "relative/path: reason". A missing
// SKILL.md at the root is the sole problem reported; otherwise all files
// are visited and all problems collected. The tree is never modified.
func Tree(ctx context.Context, root string) ([]string, error) {
	if _, err := os.Stat(filepath.Join(root, skill.SkillFileName)); err != nil {
		if os.IsNotExist(err) {
			return []string{skill.SkillFileName + " not found at package root"}, nil
		}
		return nil, fmt.Errorf("checking %s: %w", skill.SkillFileName, err)
	}

	var problems []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if ferr := checkFile(ctx, path); ferr != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", filepath.ToSlash(rel), ferr))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return problems, nil
}

// checkFile dispatches on the lowercased file name and extension. Files
// of unknown kinds always pass.
func checkFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Base(path), skill.SkillFileName) {
		return checkFrontmatter(data)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return checkPython(ctx, data)
	case ".sh", ".bash":
		return checkShell(data, filepath.Base(path))
	case ".json":
		return checkJSON(data)
	case ".yaml", ".yml":
		return checkYAML(data)
	}
	return nil
}

func checkFrontmatter(data []byte) error {
	_, err := skill.Parse(data)
	return err
}

// checkPython feeds the source to the system interpreter's ast module
// over stdin. Nothing is executed and nothing is written. When no
// interpreter is installed the check passes vacuously.
func checkPython(ctx context.Context, data []byte) error {
	python, err := exec.LookPath("python3")
	if err != nil {
		return nil
	}

	cmd := exec.CommandContext(ctx, python, "-c", pySyntaxCheck)
	cmd.Stdin = bytes.NewReader(data)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		// CPython prints a full traceback; the last line carries the error.
		if i := strings.LastIndexByte(msg, '\n'); i >= 0 {
			msg = strings.TrimSpace(msg[i+1:])
		}
		return fmt.Errorf("python syntax error: %s", msg)
	}
	return nil
}

func checkShell(data []byte, name string) error {
	if _, err := syntax.NewParser().Parse(bytes.NewReader(data), name); err != nil {
		return fmt.Errorf("shell syntax error: %v", err)
	}
	return nil
}

func checkJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return fmt.Errorf("invalid JSON at line %d: %v", lineOfOffset(data, syntaxErr.Offset), err)
		}
		return fmt.Errorf("invalid JSON: %v", err)
	}
	return nil
}

func checkYAML(data []byte) error {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid YAML: %v", err)
	}
	return nil
}

func lineOfOffset(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return 1 + bytes.Count(data[:offset], []byte{'\n'})
}
