// Package policy decides what happens when md2html is about to write over
// something that already exists.
package policy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Mode is the per-file overwrite mode.
type Mode int

const (
	ModeInteractive Mode = iota
	ModeSkip
	ModeOverwrite
)

func (m Mode) String() string {
	switch m {
	case ModeSkip:
		return "skip"
	case ModeOverwrite:
		return "overwrite"
	default:
		return "interactive"
	}
}

// ParseMode converts a config value to a Mode. The empty string is
// ModeInteractive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "interactive":
		return ModeInteractive, nil
	case "skip":
		return ModeSkip, nil
	case "overwrite":
		return ModeOverwrite, nil
	}
	return ModeInteractive, fmt.Errorf("unknown overwrite mode %q (want skip, overwrite or interactive)", s)
}

// Decision is the outcome for one output path.
type Decision int

const (
	Write Decision = iota
	Skip
	Overwrite
	Abort
)

func (d Decision) String() string {
	switch d {
	case Skip:
		return "skip"
	case Overwrite:
		return "overwrite"
	case Abort:
		return "abort"
	default:
		return "write"
	}
}

// Confirmer asks the operator a yes/no question. def is the answer assumed
// when the operator just presses enter.
type Confirmer interface {
	Confirm(question string, def bool) (bool, error)
}

// Answer is a reply to a file conflict prompt.
type Answer int

const (
	AnswerNo Answer = iota
	AnswerYes
	// AnswerAll overwrites this file and every later conflict.
	AnswerAll
	// AnswerNone skips this file and every later conflict.
	AnswerNone
)

// ConflictResolver may be implemented by a Confirmer that can offer run-wide
// answers for file conflicts.
type ConflictResolver interface {
	ResolveConflict(path string) (Answer, error)
}

// Gate applies the per-file overwrite policy. In interactive mode an answer
// of AnswerAll or AnswerNone switches the mode for the rest of the run.
type Gate struct {
	mode    Mode
	confirm Confirmer
}

// NewGate returns a Gate in the given mode. A nil confirm makes interactive
// mode behave like skip.
func NewGate(mode Mode, confirm Confirmer) *Gate {
	return &Gate{mode: mode, confirm: confirm}
}

// Mode returns the current mode.
func (o *Gate) Mode() Mode {
	return o.mode
}

// Decide returns Write when nothing exists at path and otherwise applies the
// mode. A failed or declined prompt is a Skip.
func (o *Gate) Decide(path string) Decision {
	if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
		return Write
	}

	switch o.mode {
	case ModeSkip:
		return Skip
	case ModeOverwrite:
		return Overwrite
	}

	if o.confirm == nil {
		return Skip
	}

	if r, ok := o.confirm.(ConflictResolver); ok {
		answer, err := r.ResolveConflict(path)
		if err != nil {
			return Skip
		}
		switch answer {
		case AnswerYes:
			return Overwrite
		case AnswerAll:
			o.mode = ModeOverwrite
			return Overwrite
		case AnswerNone:
			o.mode = ModeSkip
		}
		return Skip
	}

	ok, err := o.confirm.Confirm(fmt.Sprintf("File %s already exists. Overwrite?", path), false)
	if err != nil || !ok {
		return Skip
	}
	return Overwrite
}
