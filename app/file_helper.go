package app

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/ludo-technologies/bcfg/internal/constants"
)

// FileHelper provides file operation utilities
type FileHelper struct{}

// NewFileHelper creates a new FileHelper
func NewFileHelper() *FileHelper {
	return &FileHelper{}
}

// CollectFixtureFiles collects fixture files from paths. Patterns use
// .gitignore syntax and are matched against the path relative to the
// directory being walked. A .bcfgignore file at the top of a walked
// directory adds to the exclude patterns.
func (h *FileHelper) CollectFixtureFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string
	include := ignore.CompileIgnoreLines(includePatterns...)

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			exclude := ignore.CompileIgnoreLines(excludePatterns...)
			name := filepath.Base(path)
			if include.MatchesPath(name) && !exclude.MatchesPath(name) {
				files = append(files, path)
			}
			continue
		}

		exclude, err := h.compileExcludes(path, excludePatterns)
		if err != nil {
			return nil, err
		}

		err = filepath.WalkDir(path, func(filePath string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if filePath == path {
				return nil
			}

			rel, err := filepath.Rel(path, filePath)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				// Skip excluded directories early
				if !recursive || exclude.MatchesPath(rel+"/") {
					return filepath.SkipDir
				}
				return nil
			}

			if include.MatchesPath(rel) && !exclude.MatchesPath(rel) {
				files = append(files, filePath)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// compileExcludes combines the exclude patterns with the ignore file of root
func (h *FileHelper) compileExcludes(root string, excludePatterns []string) (*ignore.GitIgnore, error) {
	ignoreFile := filepath.Join(root, constants.IgnoreFileName)
	exists, err := h.FileExists(ignoreFile)
	if err != nil {
		return nil, err
	}
	if !exists {
		return ignore.CompileIgnoreLines(excludePatterns...), nil
	}
	return ignore.CompileIgnoreFileAndLines(ignoreFile, excludePatterns...)
}

// IsFixtureFile reports whether path has a YAML extension
func (h *FileHelper) IsFixtureFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// FileExists checks if a regular file exists
func (h *FileHelper) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// ResolveFilePaths resolves file paths, returning existing files directly
// or collecting files from directories
func ResolveFilePaths(
	fileHelper *FileHelper,
	paths []string,
	recursive bool,
	includePatterns []string,
	excludePatterns []string,
) ([]string, error) {
	// Check if all paths are already files
	allFiles := true
	for _, path := range paths {
		exists, err := fileHelper.FileExists(path)
		if err != nil || !exists {
			allFiles = false
			break
		}
	}

	// Explicit files are taken as given
	if allFiles {
		return paths, nil
	}

	return fileHelper.CollectFixtureFiles(paths, recursive, includePatterns, excludePatterns)
}
