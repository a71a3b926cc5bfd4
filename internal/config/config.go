// Package config holds the settings of a conversion run. Values come from
// built-in defaults, then an optional YAML file, then command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/andresfelipemendez/md2html/internal/logger"
	"github.com/andresfelipemendez/md2html/internal/page"
	"github.com/andresfelipemendez/md2html/internal/policy"
	"github.com/andresfelipemendez/md2html/internal/templates"
)

// Config is the file form of the command-line options.
type Config struct {
	Copy             bool              `yaml:"copy"`
	CleanOutput      string            `yaml:"clean_output"`
	Mode             string            `yaml:"mode"`
	Verbosity        string            `yaml:"verbosity"`
	TemplateVars     map[string]string `yaml:"template_vars"`
	MarkdownExts     []string          `yaml:"markdown_exts"`
	TemplateExt      string            `yaml:"template_ext"`
	HighlightStyle   string            `yaml:"highlight_style"`
	HighlightClasses bool              `yaml:"highlight_classes"`
	Emoji            bool              `yaml:"emoji"`
	Backlinks        bool              `yaml:"backlinks"`
}

// Default returns the configuration used when nothing else is given.
func Default() *Config {
	return &Config{
		Copy:           true,
		CleanOutput:    policy.CleanNo.String(),
		Mode:           policy.ModeInteractive.String(),
		Verbosity:      logger.VerbosityNormal.String(),
		TemplateVars:   map[string]string{},
		MarkdownExts:   append([]string(nil), templates.DefaultMarkdownExts...),
		TemplateExt:    templates.DefaultTemplateExt,
		HighlightStyle: page.DefaultHighlightStyle,
	}
}

// Path returns the per-user config file location. Can be overridden for
// testing.
var Path = func() string {
	return filepath.Join(xdg.ConfigHome, "md2html", "config.yaml")
}

// Load reads path over the defaults. An empty path means Path(), which may
// be absent; an explicitly named file must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = Path()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are an error.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.TemplateVars == nil {
		cfg.TemplateVars = map[string]string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that every enumerated setting has a known value.
func (c *Config) Validate() error {
	if _, err := policy.ParseMode(c.Mode); err != nil {
		return err
	}
	if _, err := policy.ParseCleanMode(c.CleanOutput); err != nil {
		return err
	}
	if _, err := logger.ParseVerbosity(c.Verbosity); err != nil {
		return err
	}
	if len(c.MarkdownExts) == 0 {
		return errors.New("markdown_exts cannot be empty")
	}
	if c.TemplateExt == "" {
		return errors.New("template_ext cannot be empty")
	}
	tmpl := normalizeExt(c.TemplateExt)
	for _, ext := range c.MarkdownExts {
		if normalizeExt(ext) == tmpl {
			return fmt.Errorf("template_ext %q is also a Markdown suffix", c.TemplateExt)
		}
	}
	for key := range c.TemplateVars {
		if err := checkVarKey(key); err != nil {
			return err
		}
	}
	if c.HighlightStyle != "" && !page.ValidStyle(c.HighlightStyle) {
		return fmt.Errorf("unknown highlight_style %q", c.HighlightStyle)
	}
	return nil
}

// ParseVars turns repeated KEY=VALUE arguments into a map. The value may
// contain further '=' characters; later duplicates win.
func ParseVars(args []string) (map[string]string, error) {
	vars := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("template variable %q is not KEY=VALUE", arg)
		}
		if key == "" {
			return nil, fmt.Errorf("template variable %q has an empty key", arg)
		}
		if err := checkVarKey(key); err != nil {
			return nil, err
		}
		vars[key] = value
	}
	return vars, nil
}

func checkVarKey(key string) error {
	if !page.ValidKey(key) {
		return fmt.Errorf("template variable %q: name must use only letters, digits and underscores", key)
	}
	return nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
