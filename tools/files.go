package tools

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lexcodex/quill/parse"
)

var errBinaryFile = errors.New("binary file detected")

const (
	defaultReadLimit   = 64 * 1024
	defaultMatchLimit  = 100
	maxSearchFileBytes = 4 * 1024 * 1024
)

// ListFiles enumerates directory entries.
type ListFiles struct {
	BasePath string
}

func (t *ListFiles) Name() string { return "list_files" }
func (t *ListFiles) Description() string {
	return "Lists files and directories under a path."
}
func (t *ListFiles) Parameters() []Param {
	return []Param{
		{Name: "path", Type: "string", Description: "Directory to list", Default: "."},
		{Name: "recursive", Type: "boolean", Description: "Descend into subdirectories", Default: false},
		{Name: "include_hidden", Type: "boolean", Description: "Include dotfiles", Default: false},
		{Name: "sort_by", Type: "string", Description: "One of name, size, modified", Default: "name"},
	}
}

type fileEntry struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	IsDir    bool   `json:"is_dir"`
	Modified int64  `json:"modified"`
}

func (t *ListFiles) Execute(ctx context.Context, args *parse.Object) (*Result, error) {
	dir := resolvePath(t.BasePath, argString(args, "path", "."))
	recursive := argBool(args, "recursive", false)
	includeHidden := argBool(args, "include_hidden", false)
	sortBy := argString(args, "sort_by", "name")

	var entries []fileEntry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path == dir {
			return nil
		}
		name := d.Name()
		hidden := strings.HasPrefix(name, ".")
		if d.IsDir() {
			if name == ".git" || (hidden && !includeHidden) {
				return fs.SkipDir
			}
			if !recursive {
				entries = append(entries, entryFor(dir, path, d))
				return fs.SkipDir
			}
			entries = append(entries, entryFor(dir, path, d))
			return nil
		}
		if hidden && !includeHidden {
			return nil
		}
		entries = append(entries, entryFor(dir, path, d))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortEntries(entries, sortBy)
	return &Result{Success: true, Data: map[string]interface{}{
		"path":     dir,
		"contents": entries,
	}}, nil
}

func entryFor(root, path string, d fs.DirEntry) fileEntry {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	e := fileEntry{Name: rel, IsDir: d.IsDir()}
	if info, err := d.Info(); err == nil {
		e.Size = info.Size()
		e.Modified = info.ModTime().Unix()
	}
	return e
}

func sortEntries(entries []fileEntry, by string) {
	switch by {
	case "size":
		sort.Slice(entries, func(i, j int) bool { return entries[i].Size > entries[j].Size })
	case "modified":
		sort.Slice(entries, func(i, j int) bool { return entries[i].Modified > entries[j].Modified })
	default:
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	}
}

// ReadFile reads a UTF-8 file from disk.
type ReadFile struct {
	BasePath string
}

func (t *ReadFile) Name() string { return "read_file" }
func (t *ReadFile) Description() string {
	return "Reads a text file from disk, truncated at max_bytes."
}
func (t *ReadFile) Parameters() []Param {
	return []Param{
		{Name: "path", Type: "string", Description: "File to read", Required: true},
		{Name: "max_bytes", Type: "integer", Description: "Truncation limit", Default: defaultReadLimit},
	}
}

func (t *ReadFile) Execute(ctx context.Context, args *parse.Object) (*Result, error) {
	rel := argString(args, "path", "")
	if rel == "" {
		return nil, errors.New("path argument required")
	}
	path := resolvePath(t.BasePath, rel)
	limit := argInt(args, "max_bytes", defaultReadLimit)
	if limit <= 0 {
		limit = defaultReadLimit
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !isText(data) {
		return nil, errBinaryFile
	}
	truncated := false
	if int64(len(data)) > limit {
		data = data[:limit]
		truncated = true
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Data: map[string]interface{}{
		"path":      path,
		"content":   string(data),
		"size":      info.Size(),
		"truncated": truncated,
	}}, nil
}

// SearchText scans files under a directory for a literal substring.
type SearchText struct {
	BasePath string
}

func (t *SearchText) Name() string { return "search_text" }
func (t *SearchText) Description() string {
	return "Searches files for a literal text pattern."
}
func (t *SearchText) Parameters() []Param {
	return []Param{
		{Name: "pattern", Type: "string", Description: "Substring to find", Required: true},
		{Name: "path", Type: "string", Description: "Directory to search", Default: "."},
		{Name: "max_matches", Type: "integer", Description: "Stop after this many matches", Default: defaultMatchLimit},
	}
}

type textMatch struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

var errMatchLimit = errors.New("match limit reached")

func (t *SearchText) Execute(ctx context.Context, args *parse.Object) (*Result, error) {
	pattern := argString(args, "pattern", "")
	if pattern == "" {
		return nil, errors.New("pattern argument required")
	}
	dir := resolvePath(t.BasePath, argString(args, "path", "."))
	limit := argInt(args, "max_matches", defaultMatchLimit)
	if limit <= 0 {
		limit = defaultMatchLimit
	}

	var matches []textMatch
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > maxSearchFileBytes {
			return nil
		}
		found, err := scanFile(path, pattern, func(line int, text string) bool {
			rel, relErr := filepath.Rel(dir, path)
			if relErr != nil {
				rel = path
			}
			matches = append(matches, textMatch{File: rel, Line: line, Content: text})
			return int64(len(matches)) < limit
		})
		if err != nil {
			// Unreadable or binary files are skipped, not fatal.
			return nil
		}
		if found && int64(len(matches)) >= limit {
			return errMatchLimit
		}
		return nil
	})
	if err != nil && !errors.Is(err, errMatchLimit) {
		return nil, err
	}
	return &Result{Success: true, Data: map[string]interface{}{
		"pattern": pattern,
		"matches": matches,
		"count":   len(matches),
	}}, nil
}

func scanFile(path, pattern string, emit func(line int, text string) bool) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	found := false
	line := 1
	for scanner.Scan() {
		text := scanner.Text()
		if strings.Contains(text, "\x00") {
			return found, errBinaryFile
		}
		if strings.Contains(text, pattern) {
			found = true
			if !emit(line, text) {
				return true, nil
			}
		}
		line++
	}
	return found, scanner.Err()
}

func resolvePath(base, path string) string {
	if path == "" {
		path = "."
	}
	if base == "" {
		return filepath.Clean(path)
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func isText(data []byte) bool {
	for _, b := range data {
		if b == 0 {
			return false
		}
	}
	return true
}
