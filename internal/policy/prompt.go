package policy

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/andresfelipemendez/md2html/internal/output"
)

// Prompter asks questions on a terminal. It implements both Confirmer and
// ConflictResolver.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	styles output.Styles
}

func NewPrompter(in io.Reader, out io.Writer, color bool) *Prompter {
	return &Prompter{
		in:     bufio.NewReader(in),
		out:    out,
		styles: output.NewStyles(color),
	}
}

// Confirm accepts y/yes and n/no; anything else, including an empty line,
// gives def.
func (p *Prompter) Confirm(question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	fmt.Fprintf(p.out, "%s %s ", p.styles.Warning.Render("?"), question+" "+p.styles.Dim.Render(hint))

	response, err := p.readLine()
	if err != nil {
		return def, err
	}
	switch response {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return def, nil
}

// ResolveConflict asks about one existing file. Besides y and n, o overwrites
// all remaining conflicts and s skips them.
func (p *Prompter) ResolveConflict(path string) (Answer, error) {
	fmt.Fprintf(p.out, "%s File %s already exists. Overwrite? %s ",
		p.styles.Warning.Render("?"), p.styles.Bold.Render(path), p.styles.Dim.Render("(y/N/o/s)"))

	response, err := p.readLine()
	if err != nil {
		return AnswerNo, err
	}
	switch response {
	case "y", "yes":
		return AnswerYes, nil
	case "o":
		return AnswerAll, nil
	case "s":
		return AnswerNone, nil
	}
	return AnswerNo, nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}
