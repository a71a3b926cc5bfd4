package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/andresfelipemendez/md2html/internal/config"
	"github.com/andresfelipemendez/md2html/internal/logger"
	"github.com/andresfelipemendez/md2html/internal/mirror"
	"github.com/andresfelipemendez/md2html/internal/output"
	"github.com/andresfelipemendez/md2html/internal/page"
	"github.com/andresfelipemendez/md2html/internal/policy"
	"github.com/andresfelipemendez/md2html/internal/templates"
)

type rootFlags struct {
	configPath   string
	noCopy       bool
	cleanOutput  string
	templateVars []string
	skip         bool
	overwrite    bool
	interactive  bool
	quiet        bool
	verbose      bool
	debug        bool
	color        string

	templateExt      string
	markdownExts     []string
	highlightStyle   string
	highlightClasses bool
	emoji            bool
	backlinks        bool
}

// newRootCmd creates the md2html command.
func newRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "md2html <input> <output>",
		Short: "Convert a Markdown tree to HTML",
		Long: `md2html mirrors an input directory into an output directory.

Markdown files become HTML pages rendered through Jinja-style templates,
YAML frontmatter becomes meta tags and template variables, template files
are never copied, and everything else is copied verbatim.

A page's template is, in order: the one named by its "template" frontmatter
key, <name>.jinja next to it, a template named after an enclosing folder,
<root>.jinja at the input root, or the built-in default.

Wiki-links [[Name]] point to Name.html beside the page. Spaces in the name
are kept in the link text and percent-encoded in the href, so [[My Page]]
links to My%20Page.html, which browsers open as "My Page.html".

Names passed with --template-var must use only letters, digits and
underscores. Frontmatter keys outside that set still become meta tags but
are not available as template variables.`,
		Example: `  md2html notes public
  md2html notes public --overwrite --clean-output yes
  md2html notes public -s --template-var site="My Garden" --no-copy`,
		Args:          cobra.ExactArgs(2),
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, &flags, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "YAML config file (default $XDG_CONFIG_HOME/md2html/config.yaml)")
	f.BoolVar(&flags.noCopy, "no-copy", false, "Do not copy non-Markdown files")
	f.StringVar(&flags.cleanOutput, "clean-output", "", "Empty a non-empty output directory first: yes, no or ask (default no)")
	f.StringArrayVar(&flags.templateVars, "template-var", nil, "Template variable as KEY=VALUE (repeatable)")

	f.BoolVarP(&flags.skip, "skip", "s", false, "Skip existing output files")
	f.BoolVarP(&flags.overwrite, "overwrite", "w", false, "Overwrite existing output files")
	f.BoolVarP(&flags.interactive, "interactive", "i", false, "Ask before overwriting each existing file (default)")
	cmd.MarkFlagsMutuallyExclusive("skip", "overwrite", "interactive")

	f.BoolVarP(&flags.quiet, "quiet", "q", false, "Only report errors")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Report every file")
	f.BoolVar(&flags.debug, "debug", false, "Report diagnostic detail")
	cmd.MarkFlagsMutuallyExclusive("quiet", "verbose", "debug")

	f.StringVar(&flags.color, "color", "auto", "Color output: auto, always or never")
	f.StringVar(&flags.templateExt, "template-ext", "", "Template file suffix (default .jinja)")
	f.StringSliceVar(&flags.markdownExts, "markdown-ext", nil, "Markdown file suffixes (default .md,.markdown)")
	f.StringVar(&flags.highlightStyle, "highlight-style", "", "Chroma style for code blocks (default github)")
	f.BoolVar(&flags.highlightClasses, "highlight-classes", false, "Emit CSS classes instead of inline styles for code blocks")
	f.BoolVar(&flags.emoji, "emoji", false, "Render :shortcode: emoji")
	f.BoolVar(&flags.backlinks, "backlinks", false, "Give every page a backlinks variable listing the pages that wiki-link to it")

	lipgloss.SetHasDarkBackground(true)

	return cmd
}

// resolveConfig loads the config file and applies the flags the user set.
func resolveConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("no-copy") {
		cfg.Copy = !flags.noCopy
	}
	if f.Changed("clean-output") {
		cfg.CleanOutput = flags.cleanOutput
	}
	switch {
	case flags.skip:
		cfg.Mode = policy.ModeSkip.String()
	case flags.overwrite:
		cfg.Mode = policy.ModeOverwrite.String()
	case flags.interactive:
		cfg.Mode = policy.ModeInteractive.String()
	}
	switch {
	case flags.quiet:
		cfg.Verbosity = logger.VerbosityQuiet.String()
	case flags.verbose:
		cfg.Verbosity = logger.VerbosityVerbose.String()
	case flags.debug:
		cfg.Verbosity = logger.VerbosityDebug.String()
	}
	if f.Changed("template-ext") {
		cfg.TemplateExt = flags.templateExt
	}
	if f.Changed("markdown-ext") {
		cfg.MarkdownExts = flags.markdownExts
	}
	if f.Changed("highlight-style") {
		cfg.HighlightStyle = flags.highlightStyle
	}
	if f.Changed("highlight-classes") {
		cfg.HighlightClasses = flags.highlightClasses
	}
	if f.Changed("emoji") {
		cfg.Emoji = flags.emoji
	}
	if f.Changed("backlinks") {
		cfg.Backlinks = flags.backlinks
	}

	vars, err := config.ParseVars(flags.templateVars)
	if err != nil {
		return nil, err
	}
	for k, v := range vars {
		cfg.TemplateVars[k] = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runConvert(cmd *cobra.Command, flags *rootFlags, input, out string) error {
	cfg, err := resolveConfig(cmd, flags)
	if err != nil {
		return output.NewUserErrorWithCause(err.Error(), err)
	}

	// Validate has already accepted these values.
	mode, _ := policy.ParseMode(cfg.Mode)
	clean, _ := policy.ParseCleanMode(cfg.CleanOutput)
	verbosity, _ := logger.ParseVerbosity(cfg.Verbosity)

	color := output.ResolveColorMode(flags.color, output.IsTTY(cmd.ErrOrStderr()))
	log := logger.New(cmd.ErrOrStderr(), verbosity)
	log.Debug("config", "mode", mode, "clean", clean, "copy", cfg.Copy, "vars", len(cfg.TemplateVars))

	summary, err := mirror.Run(cmd.Context(), mirror.Options{
		Input:      input,
		Output:     out,
		Copy:       cfg.Copy,
		Clean:      clean,
		Mode:       mode,
		Confirm:    policy.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr(), color),
		Globals:    cfg.TemplateVars,
		Classifier: templates.NewClassifier(cfg.MarkdownExts, cfg.TemplateExt),
		Renderer: page.NewRenderer(page.Options{
			HighlightStyle:   cfg.HighlightStyle,
			HighlightClasses: cfg.HighlightClasses,
			Emoji:            cfg.Emoji,
		}),
		Logger:    log,
		Backlinks: cfg.Backlinks,
	})
	if err != nil {
		return exitError(err)
	}

	if n := len(summary.Failed); n > 0 {
		return output.NewSystemError(fmt.Sprintf("%d of %d files failed", n, n+summary.Converted+summary.Copied))
	}
	return nil
}

// exitError maps a fatal run error to its exit code.
func exitError(err error) error {
	var layoutErr *mirror.InvalidLayoutError
	switch {
	case errors.As(err, &layoutErr):
		return output.NewUserErrorWithCause(err.Error(), err)
	case errors.Is(err, policy.ErrAborted):
		return output.NewConflictErrorWithCause(err.Error(), err)
	case errors.Is(err, context.Canceled):
		return output.NewSystemErrorWithCause("interrupted", err)
	default:
		return output.NewSystemErrorWithCause(err.Error(), err)
	}
}
