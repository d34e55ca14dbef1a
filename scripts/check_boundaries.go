// check_boundaries enforces the hexagonal import rules of every service
// under contexts/. Run with: go run scripts/check_boundaries.go
package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const moduleName = "atelier"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what a layer may import besides the standard library.
// Entries are relative to the service root unless they start with the module
// name.
type layerRule struct {
	allowed []string
	// thirdParty lists external modules the layer may use.
	thirdParty []string
}

var layerRules = map[string]layerRule{
	"domain": {
		allowed:    []string{"domain"},
		thirdParty: []string{"golang.org/x/text"},
	},
	"ports": {
		allowed: []string{"domain", "ports", moduleName + "/contracts"},
	},
	"application": {
		allowed: []string{"application", "domain", "ports", moduleName + "/contracts"},
	},
}

func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		normalized := filepath.ToSlash(path)
		parts := strings.Split(normalized, "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}

		servicePrefix := fmt.Sprintf("%s/contexts/%s/%s", moduleName, parts[1], parts[2])
		violations = append(violations, validateFile(path, normalized, parts[3], servicePrefix)...)
		return nil
	})

	return violations
}

func validateFile(path string, normalizedPath string, layer string, servicePrefix string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalizedPath, Line: 1, Rule: "file must parse"}}
	}

	rule, layered := layerRules[layer]
	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line
		report := func(msg string) {
			violations = append(violations, violation{File: normalizedPath, Line: line, Import: importPath, Rule: msg})
		}

		if hasPrefix(importPath, moduleName+"/contexts") && !hasPrefix(importPath, servicePrefix) {
			report("cross-service imports are forbidden")
		}
		if !layered {
			continue
		}
		switch {
		case strings.Contains(importPath, "/adapters/"):
			report(layer + " must not import adapters")
		case hasPrefix(importPath, moduleName+"/internal"):
			report(layer + " must not import runtime infrastructure")
		case !isStdlib(importPath) && !rule.permits(importPath, servicePrefix):
			report(layer + " import is outside explicit allowlist")
		}
	}
	return violations
}

func (r layerRule) permits(importPath string, servicePrefix string) bool {
	for _, entry := range r.allowed {
		prefix := entry
		if !strings.HasPrefix(entry, moduleName+"/") {
			prefix = servicePrefix + "/" + entry
		}
		if hasPrefix(importPath, prefix) {
			return true
		}
	}
	for _, external := range r.thirdParty {
		if hasPrefix(importPath, external) {
			return true
		}
	}
	return false
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, moduleName) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
