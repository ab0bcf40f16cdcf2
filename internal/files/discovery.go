package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// ErrNoDatasets is returned when a directory holds no dataset file
var ErrNoDatasets = errors.New("no dataset files found")

// releasePattern matches the release prefix of a published file, e.g. 24Q4
var releasePattern = regexp.MustCompile(`^(\d{2})Q([1-4])`)

// FileInfo represents information about a discovered dataset file
type FileInfo struct {
	Path    string
	Name    string
	Format  string
	Release string
	Size    int64
	ModTime time.Time
}

// Discovery finds dataset files relative to a base directory
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindDatasets lists the CSV and XLSX files in dir, oldest release first.
// Files without a release prefix sort before released ones, by mtime.
func (d *Discovery) FindDatasets(dir string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		format := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
		if format != "csv" && format != "xlsx" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Format:  format,
			Release: releaseOf(name),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Release != files[j].Release {
			return files[i].Release < files[j].Release
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})

	return files, nil
}

// GetLatestFile returns the most recent release
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}
	return files[len(files)-1], true
}

// ResolveDataset returns path unchanged when it names a file, and the latest
// dataset inside it when it names a directory.
func ResolveDataset(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		// Missing files are reported by the loader with its own error kind
		return path, nil
	}

	files, err := NewDiscovery("").FindDatasets(path)
	if err != nil {
		return "", err
	}
	latest, ok := GetLatestFile(files)
	if !ok {
		return "", fmt.Errorf("%w in %s", ErrNoDatasets, path)
	}
	return latest.Path, nil
}

// releaseOf turns a "24Q4-..." prefix into the sortable label "2024Q4"
func releaseOf(name string) string {
	m := releasePattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return "20" + m[1] + "Q" + m[2]
}
