// Package scan detects prompt-injection and exfiltration patterns in
// skill content before it reaches an agent's context window.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

const maxMatchedRunes = 120

// Scan inspects the file or directory at root and reports every
// suspicious pattern found. Hidden files and directories are skipped,
// as are files that are not valid UTF-8.
func Scan(root string) (*Report, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	report := &Report{
		SkillPath:     root,
		FilesScanned:  []string{},
		ScanTimestamp: time.Now().UTC().Format(time.RFC3339),
		Findings:      []Finding{},
	}

	if !info.IsDir() {
		rel := filepath.Base(root)
		if scanFile(root, rel, report) {
			report.FilesScanned = append(report.FilesScanned, rel)
		}
		return report, nil
	}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if slashRel := filepath.ToSlash(rel); scanFile(p, slashRel, report) {
			report.FilesScanned = append(report.FilesScanned, slashRel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return report, nil
}

// scanFile runs every applicable category over one file and reports
// whether the file was scanned. Unreadable and binary files are skipped
// rather than failing the whole scan.
func scanFile(path, rel string, report *Report) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if !utf8.Valid(data) {
		return false
	}

	kind := kindOf(rel)
	lines := strings.Split(string(data), "\n")

	for _, c := range categories {
		if !c.appliesTo(kind) {
			continue
		}
		c.scan(lines, func(line int, description, matched string) {
			report.add(Finding{
				Severity:       c.severity,
				Category:       c.name,
				File:           rel,
				Line:           line,
				Description:    description,
				MatchedText:    truncate(matched),
				Recommendation: c.recommendation,
			})
		})
	}
	return true
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= maxMatchedRunes {
		return s
	}
	return string(runes[:maxMatchedRunes])
}
