// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a .env file into the process environment.
// Lines have the form KEY=VALUE; blank lines, lines starting with # and
// lines without "=" are ignored. Values follow dotenv rules: surrounding
// quotes are removed, an "export " prefix is accepted, and $VAR references
// are expanded except inside single quotes. The only key the service needs
// is ANTHROPIC_API_KEY.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/subosito/gotenv"
)

// FileName is the name of the file searched for by Candidates.
const FileName = ".env"

// Candidates returns the .env paths to try, in order: the executable's
// directory, that directory's parent, then the working directory.
func Candidates() []string {
	exe, err := os.Executable()
	if err != nil {
		return []string{FileName}
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	dir := filepath.Dir(exe)
	return []string{
		filepath.Join(dir, FileName),
		filepath.Join(filepath.Dir(dir), FileName),
		FileName,
	}
}

// Find returns the first path in paths that exists as a regular file, or
// "" when none does.
func Find(paths []string) string {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Load parses the first existing file in paths. A missing file is not an
// error; Load returns an empty map and "". The path actually read is
// returned alongside its values.
func Load(paths []string) (map[string]string, string, error) {
	path := Find(paths)
	if path == "" {
		return map[string]string{}, "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("reading %s: %w", path, err)
	}
	return parse(string(data)), path, nil
}

// parse reads KEY=VALUE lines one at a time so a line gotenv rejects is
// skipped without losing the lines around it.
func parse(content string) map[string]string {
	values := map[string]string{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, "=") {
			continue
		}
		env, err := gotenv.StrictParse(strings.NewReader(line))
		if err != nil {
			continue
		}
		for k, v := range env {
			values[k] = v
		}
	}
	return values
}

// Apply exports values into the process environment, replacing any
// existing values.
func Apply(values map[string]string) error {
	for k, v := range values {
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("setting %s: %w", k, err)
		}
	}
	return nil
}
