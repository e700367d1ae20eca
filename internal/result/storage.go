package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileStamp is the layout used in run file names. Microseconds keep
// separate batches apart; the iteration suffix keeps runs of one batch apart.
const FileStamp = "2006-01-02_15-04-05.000000"

// AggregatePrefix marks aggregate documents stored next to run files.
const AggregatePrefix = "aggregate-"

func DomainDir(appDir, domain string) string {
	return filepath.Join(appDir, domain)
}

// EnsureDomainDir creates <appDir>/<domain> and returns its absolute path.
func EnsureDomainDir(appDir, domain string) (string, error) {
	dir, err := filepath.Abs(DomainDir(appDir, domain))
	if err != nil {
		return "", fmt.Errorf("resolving domain dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating domain dir: %w", err)
	}
	return dir, nil
}

// RunFilePath returns the result path for one iteration.
func RunFilePath(appDir, domain string, iteration int, now time.Time) string {
	name := fmt.Sprintf("%s_%03d.json", now.UTC().Format(FileStamp), iteration)
	return filepath.Join(DomainDir(appDir, domain), name)
}

// ListRunFiles returns the stored run files of a domain in lexical order,
// which is chronological given the file naming.
func ListRunFiles(appDir, domain string) ([]string, error) {
	dir := DomainDir(appDir, domain)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading domain dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, AggregatePrefix) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// WriteAggregate writes v as indented JSON followed by a newline.
func WriteAggregate(path string, v any) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling aggregate: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
