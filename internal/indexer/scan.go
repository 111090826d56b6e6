package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// supportedExtensions are the corpus file formats the pipeline ingests.
var supportedExtensions = map[string]struct{}{
	".txt": {},
	".md":  {},
	".pdf": {},
}

// ScannedFile is a corpus file found during scanning.
type ScannedFile struct {
	RelPath string // relative path from the corpus root, forward slashes
	AbsPath string // absolute file path
}

// ScanDir walks the corpus directory and returns all supported files in
// lexical path order. Hidden files and directories (dot-prefixed) are
// skipped.
func ScanDir(ctx context.Context, root string) ([]ScannedFile, error) {
	var files []ScannedFile

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			// The root itself may be dot-prefixed; only skip hidden
			// directories below it.
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		if _, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}

		files = append(files, ScannedFile{
			RelPath: filepath.ToSlash(relPath),
			AbsPath: path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan corpus %s: %w", root, err)
	}

	return files, nil
}
