// CLAUDE:SUMMARY Main .tex file resolution: conventional names, \documentclass scan, sorted fallback.
// Package texsrc locates the main typesetting source in an extracted file
// set and converts its markup to readable text.
package texsrc

import (
	"bytes"
	"sort"
	"strings"
)

// mainNames are conventional main-file basenames, in priority order.
var mainNames = []string{"main.tex", "paper.tex", "manuscript.tex", "article.tex"}

var documentClass = []byte(`\documentclass`)

// FindMainFile returns the path of the main .tex file, or "" when the set
// contains no .tex file. The same file set always yields the same path:
// candidates are scanned in sorted order since map iteration is randomized.
func FindMainFile(files map[string][]byte) string {
	var texFiles []string
	for name := range files {
		if strings.HasSuffix(strings.ToLower(name), ".tex") {
			texFiles = append(texFiles, name)
		}
	}
	if len(texFiles) == 0 {
		return ""
	}
	sort.Strings(texFiles)

	// Conventional names first. Suffix match, so nested paths qualify.
	for _, want := range mainNames {
		for _, name := range texFiles {
			lower := strings.ToLower(name)
			if lower == want || strings.HasSuffix(lower, "/"+want) {
				return name
			}
		}
	}

	// Then the first file declaring a document class. Content is searched
	// as bytes; files that are not valid text are simply never matched.
	for _, name := range texFiles {
		if containsFold(files[name], documentClass) {
			return name
		}
	}

	return texFiles[0]
}

// containsFold reports whether content contains needle, ASCII case-insensitive.
func containsFold(content, needle []byte) bool {
	if bytes.Contains(content, needle) {
		return true
	}
	return bytes.Contains(bytes.ToLower(content), needle)
}
