package policy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrAborted is returned when the operator declines to clean a non-empty
// output directory. Nothing has been written when it is returned.
var ErrAborted = errors.New("aborted by operator")

// CleanMode is the policy for a non-empty output root.
type CleanMode int

const (
	CleanNo CleanMode = iota
	CleanYes
	CleanAsk
)

func (c CleanMode) String() string {
	switch c {
	case CleanYes:
		return "yes"
	case CleanAsk:
		return "ask"
	default:
		return "no"
	}
}

// ParseCleanMode converts a --clean-output value. The empty string is CleanNo.
func ParseCleanMode(s string) (CleanMode, error) {
	switch strings.ToLower(s) {
	case "", "no":
		return CleanNo, nil
	case "yes":
		return CleanYes, nil
	case "ask":
		return CleanAsk, nil
	}
	return CleanNo, fmt.Errorf("unknown clean-output value %q (want yes, no or ask)", s)
}

// DecideClean returns Write to leave root as it is, Overwrite to empty it
// first, or Abort. Only CleanAsk consults confirm.
func DecideClean(root string, mode CleanMode, confirm Confirmer) Decision {
	switch mode {
	case CleanYes:
		return Overwrite
	case CleanNo:
		return Write
	}

	if confirm == nil {
		return Abort
	}
	ok, err := confirm.Confirm(fmt.Sprintf("Output directory %s is not empty. Remove its contents?", root), false)
	if err != nil || !ok {
		return Abort
	}
	return Overwrite
}

// PrepareOutput applies mode to root before a build. A missing or empty root
// needs nothing. The root directory itself is never removed.
func PrepareOutput(root string, mode CleanMode, confirm Confirmer) error {
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	switch DecideClean(root, mode, confirm) {
	case Abort:
		return fmt.Errorf("clean %s: %w", root, ErrAborted)
	case Overwrite:
		for _, e := range entries {
			if err := os.RemoveAll(filepath.Join(root, e.Name())); err != nil {
				return fmt.Errorf("clean output directory: %w", err)
			}
		}
	}
	return nil
}
