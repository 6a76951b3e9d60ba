// Package refs extracts reference directives from declaration files.
//
// A declaration file names the files it depends on with triple-slash
// directives:
//
//	/// <reference path="../node/node.d.ts" />
//
// Paths are relative to the directory of the referencing file. [Extract]
// resolves them into identifiers of the same namespace and silently drops
// anything that cannot be one: absolute paths, URLs, and paths that climb
// above the namespace root. The parser never fails and never logs; callers
// that want to report skipped directives use [Directives].
package refs

import (
	"bufio"
	"bytes"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/dtsm/pkg/catalog"
)

// directiveRE matches one reference directive. Both quote styles and the
// optional self-closing slash are accepted.
var directiveRE = regexp.MustCompile(`^\s*///\s*<reference\s+path\s*=\s*(?:"([^"]*)"|'([^']*)')\s*/?>`)

// Directive is a raw reference directive found in a file.
type Directive struct {
	Line  int    // 1-based line number
	Path  string // path exactly as written
	Valid bool   // whether Path is usable as a relative reference
}

// Directives returns every reference directive in content, in file order.
func Directives(content []byte) []Directive {
	var out []Directive
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if !strings.Contains(text, "reference") {
			continue
		}
		m := directiveRE.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		p := m[1]
		if p == "" {
			p = m[2]
		}
		out = append(out, Directive{Line: line, Path: p, Valid: usable(p)})
	}
	return out
}

// Extract returns the identifiers referenced by the file from. The result
// is sorted and free of duplicates; a file referencing itself is omitted.
func Extract(from string, content []byte) []string {
	dir := path.Dir(from)
	seen := make(map[string]struct{})
	var out []string
	for _, d := range Directives(content) {
		id, ok := Resolve(dir, d)
		if !ok || id == from {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Resolve turns directive d, found in a file under dir, into an identifier.
// It reports false when the directive does not name a file inside the
// namespace.
func Resolve(dir string, d Directive) (string, bool) {
	if !d.Valid {
		return "", false
	}
	id, err := catalog.Normalize(path.Join(dir, d.Path))
	if err != nil {
		return "", false
	}
	return id, true
}

func usable(p string) bool {
	p = strings.TrimSpace(p)
	switch {
	case p == "":
		return false
	case strings.HasPrefix(p, "/"):
		return false
	case strings.Contains(p, "://"):
		return false
	case strings.Contains(p, "\\"):
		return false
	}
	return true
}
