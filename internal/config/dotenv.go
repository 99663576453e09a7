package config

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// envEntry is one KEY=VALUE assignment read from a dotenv file.
type envEntry struct {
	key   string
	value string
}

// loadDotEnv applies a dotenv file to the process environment before the
// env struct tags in Load are parsed. A missing file is not an error and
// variables that are already set win over the file.
func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	entries, err := parseDotEnv(f)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if os.Getenv(e.key) != "" {
			continue
		}
		_ = os.Setenv(e.key, e.value)
	}
	return nil
}

// parseDotEnv reads assignments in file order. Blank lines, comments and
// lines without "=" are skipped.
func parseDotEnv(r io.Reader) ([]envEntry, error) {
	var entries []envEntry
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if e, ok := parseDotEnvLine(sc.Text()); ok {
			entries = append(entries, e)
		}
	}
	return entries, sc.Err()
}

// parseDotEnvLine accepts an optional "export " prefix. Quoted values keep
// everything between the quotes; unquoted values lose a trailing " # comment".
func parseDotEnvLine(line string) (envEntry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return envEntry{}, false
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

	key, value, ok := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return envEntry{}, false
	}
	return envEntry{key: key, value: unquote(strings.TrimSpace(value))}, true
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	if i := strings.Index(v, " #"); i >= 0 {
		return strings.TrimSpace(v[:i])
	}
	return v
}
