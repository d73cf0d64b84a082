package media

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFilter skips files a glob should not pick up as context documents
type IgnoreFilter struct {
	ignore *gitignore.GitIgnore
	root   string
}

// NewIgnoreFilter loads root's .gitignore, falling back to .git/info/exclude
// and then to a built-in list. Repository metadata and env files are always
// skipped.
func NewIgnoreFilter(root string) *IgnoreFilter {
	f := &IgnoreFilter{root: root}
	for _, candidate := range []string{
		filepath.Join(root, ".gitignore"),
		filepath.Join(root, ".git", "info", "exclude"),
	} {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		lines := append(alwaysIgnored(), strings.Split(string(data), "\n")...)
		f.ignore = gitignore.CompileIgnoreLines(lines...)
		return f
	}
	f.ignore = gitignore.CompileIgnoreLines(append(alwaysIgnored(), defaultIgnorePatterns()...)...)
	return f
}

// Ignored reports whether path, absolute or relative to the root, is excluded
func (f *IgnoreFilter) Ignored(path string) bool {
	if f == nil || f.ignore == nil {
		return false
	}
	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(f.root, path)
		if err != nil {
			return false
		}
		rel = r
	}
	return f.ignore.MatchesPath(filepath.ToSlash(rel))
}

func alwaysIgnored() []string {
	return []string{".git/", ".env", ".env.*"}
}

// defaultIgnorePatterns applies when the root has no ignore file
func defaultIgnorePatterns() []string {
	return []string{
		".svn/",
		".hg/",
		"node_modules/",
		"vendor/",
		"target/",
		".vscode/",
		".idea/",
		"*.swp",
		"*~",
		"build/",
		"dist/",
		"__pycache__/",
		"*.pyc",
		"*.class",
		"*.exe",
		"*.dll",
		"*.so",
		"*.dylib",
		"*.log",
		"*.tmp",
		".DS_Store",
		"Thumbs.db",
	}
}
