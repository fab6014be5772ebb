package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var allowed = map[string]map[string]bool{
	"cli": {
		"config":      true,
		"logging":     true,
		"model":       true,
		"params":      true,
		"preflight":   true,
		"preview":     true,
		"processor":   true,
		"resultstore": true,
		"selection":   true,
		"studio":      true,
		"stubserver":  true,
	},
	"studio": {
		"model":       true,
		"processor":   true,
		"resultstore": true,
		"selection":   true,
	},
	"preflight": {
		"config":      true,
		"preview":     true,
		"processor":   true,
		"resultstore": true,
	},
	"config": {
		"model":     true,
		"params":    true,
		"processor": true,
	},
	"logging": {
		"config": true,
	},
	"processor":   {"model": true},
	"params":      {"model": true},
	"selection":   {"model": true},
	"stubserver":  {"model": true},
	"model":       {},
	"resultstore": {},
	"preview":     {},
}

// confined lists third-party import prefixes that only one package may use.
var confined = map[string]string{
	"github.com/charmbracelet/": "cli",
	"github.com/spf13/cobra":    "cli",
	"github.com/gin-gonic/":     "stubserver",
	"github.com/gin-contrib/":   "stubserver",
}

func main() {
	violations := []string{}

	err := filepath.WalkDir("internal", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		srcPkg := sourcePackage(path)
		if srcPkg == "" {
			return nil
		}
		allowMap, ok := allowed[srcPkg]
		if !ok {
			violations = append(violations, fmt.Sprintf("%s: unknown source package %q", path, srcPkg))
			return nil
		}

		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}

		for _, imp := range file.Imports {
			impPath := strings.Trim(imp.Path.Value, "\"")
			if owner, ok := confinedOwner(impPath); ok && owner != srcPkg {
				violations = append(violations, fmt.Sprintf("%s: %s may only be imported by %s", path, impPath, owner))
				continue
			}
			tgtPkg, ok := targetPackage(impPath)
			if !ok {
				continue
			}
			if tgtPkg == srcPkg {
				continue
			}
			if !allowMap[tgtPkg] {
				violations = append(violations, fmt.Sprintf("%s: %s -> %s is forbidden", path, srcPkg, tgtPkg))
			}
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "boundary walk failed: %v\n", err)
		os.Exit(1)
	}

	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "architecture boundary violations detected:")
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "- %s\n", v)
		}
		os.Exit(1)
	}

	fmt.Println("architecture boundary check: OK")
}

func sourcePackage(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) < 2 || parts[0] != "internal" {
		return ""
	}
	return parts[1]
}

func targetPackage(importPath string) (string, bool) {
	const prefix = "tracker-studio/internal/"
	if !strings.HasPrefix(importPath, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(importPath, prefix)
	if rest == "" {
		return "", false
	}
	parts := strings.Split(rest, "/")
	return parts[0], true
}

func confinedOwner(importPath string) (string, bool) {
	for prefix, owner := range confined {
		if strings.HasPrefix(importPath, prefix) {
			return owner, true
		}
	}
	return "", false
}
