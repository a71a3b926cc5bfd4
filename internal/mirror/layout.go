package mirror

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// InvalidLayoutError reports an input/output pair that cannot be mirrored.
type InvalidLayoutError struct {
	Input  string
	Output string
	Reason string
}

func (e *InvalidLayoutError) Error() string {
	return fmt.Sprintf("invalid layout: %s (input %s, output %s)", e.Reason, e.Input, e.Output)
}

// Layout is a validated pair of roots with symlinks resolved.
type Layout struct {
	Input  string
	Output string
}

// CheckLayout validates input and output without touching the filesystem
// beyond stat calls. The output may not exist yet; the part of it that does
// exist is resolved so that symlinks and relative paths cannot hide an
// output nested in the input.
func CheckLayout(input, output string) (Layout, error) {
	info, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Layout{}, &InvalidLayoutError{Input: input, Output: output, Reason: "input does not exist"}
		}
		return Layout{}, fmt.Errorf("stat input: %w", err)
	}
	if !info.IsDir() {
		return Layout{}, &InvalidLayoutError{Input: input, Output: output, Reason: "input is not a directory"}
	}

	in, err := resolve(input)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve input: %w", err)
	}
	out, err := resolve(output)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve output: %w", err)
	}

	if contains(in, out) {
		return Layout{}, &InvalidLayoutError{Input: input, Output: output, Reason: "output is inside input"}
	}

	if info, err := os.Stat(out); err == nil && !info.IsDir() {
		return Layout{}, &InvalidLayoutError{Input: input, Output: output, Reason: "output is not a directory"}
	}

	return Layout{Input: in, Output: out}, nil
}

// resolve makes path absolute and evaluates symlinks in its longest existing
// prefix. The missing remainder is appended unchanged.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	var missing []string
	for cur := abs; ; {
		real, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{real}, missing...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		missing = append([]string{filepath.Base(cur)}, missing...)
		cur = parent
	}
}

// contains reports whether path is root or lies below it.
func contains(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
