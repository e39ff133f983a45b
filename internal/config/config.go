package config

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Config is the simulator configuration.
type Config struct {
	// LogLevel is the global logging threshold ("trace" through "off").
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// LogFile redirects log output to a file. Empty means stderr.
	LogFile string `toml:"log_file" yaml:"log_file"`

	// DefaultEOL is the line ending for content without any newline:
	// "lf" or "crlf".
	DefaultEOL string `toml:"default_eol" yaml:"default_eol"`

	// MaxFindResults caps find-files results when the caller passes no cap.
	// Zero means unlimited.
	MaxFindResults int `toml:"max_find_results" yaml:"max_find_results"`

	// RemoteName, when set, makes a workspace with folders report the
	// remote workspace type.
	RemoteName string `toml:"remote_name" yaml:"remote_name"`

	// ReadOnlySchemes lists URI schemes whose file systems reject writes.
	ReadOnlySchemes []string `toml:"read_only_schemes" yaml:"read_only_schemes"`

	// WordPattern overrides the default word pattern used for word ranges.
	WordPattern string `toml:"word_pattern" yaml:"word_pattern"`

	// FileAssociations maps file name patterns ("*.go", "Makefile") to
	// language identifiers.
	FileAssociations map[string]string `toml:"file_associations" yaml:"file_associations"`

	// FilesExclude patterns are applied by find-files when the caller gives
	// no exclude pattern.
	FilesExclude []string `toml:"files_exclude" yaml:"files_exclude"`

	// SearchExclude patterns are added to FilesExclude for find-files.
	SearchExclude []string `toml:"search_exclude" yaml:"search_exclude"`

	// WatcherExclude patterns suppress file watcher notifications.
	WatcherExclude []string `toml:"watcher_exclude" yaml:"watcher_exclude"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		LogLevel:       "off",
		DefaultEOL:     "lf",
		MaxFindResults: 0,
		FilesExclude: []string{
			"**/.git",
			"**/.svn",
			"**/.hg",
			"**/.DS_Store",
			"**/Thumbs.db",
		},
		SearchExclude: []string{
			"**/node_modules",
			"**/bower_components",
		},
		WatcherExclude: []string{
			"**/.git/objects/**",
			"**/node_modules/**",
		},
		FileAssociations: map[string]string{
			"*.go":             "go",
			"*.mod":            "go.mod",
			"*.ts":             "typescript",
			"*.tsx":            "typescriptreact",
			"*.js":             "javascript",
			"*.jsx":            "javascriptreact",
			"*.json":           "json",
			"*.py":             "python",
			"*.rs":             "rust",
			"*.java":           "java",
			"*.c":              "c",
			"*.h":              "c",
			"*.cpp":            "cpp",
			"*.cs":             "csharp",
			"*.rb":             "ruby",
			"*.md":             "markdown",
			"*.yaml":           "yaml",
			"*.yml":            "yaml",
			"*.toml":           "toml",
			"*.xml":            "xml",
			"*.html":           "html",
			"*.css":            "css",
			"*.sh":             "shellscript",
			"*.lua":            "lua",
			"*.txt":            "plaintext",
			"Makefile":         "makefile",
			"Dockerfile":       "dockerfile",
			"*.code-workspace": "jsonc",
		},
	}
}

// Merge returns base overridden by the non-zero fields of override.
// Exclude lists are combined without duplicates; file associations are
// merged key by key.
func Merge(base, override *Config) *Config {
	if base == nil && override == nil {
		return Default()
	}
	if base == nil {
		c := override.clone()
		return c
	}
	if override == nil {
		return base.clone()
	}

	result := base.clone()

	if override.LogLevel != "" {
		result.LogLevel = override.LogLevel
	}
	if override.LogFile != "" {
		result.LogFile = override.LogFile
	}
	if override.DefaultEOL != "" {
		result.DefaultEOL = override.DefaultEOL
	}
	if override.MaxFindResults != 0 {
		result.MaxFindResults = override.MaxFindResults
	}
	if override.RemoteName != "" {
		result.RemoteName = override.RemoteName
	}
	if override.WordPattern != "" {
		result.WordPattern = override.WordPattern
	}

	result.ReadOnlySchemes = mergeStringSlices(result.ReadOnlySchemes, override.ReadOnlySchemes)
	result.FilesExclude = mergeStringSlices(result.FilesExclude, override.FilesExclude)
	result.SearchExclude = mergeStringSlices(result.SearchExclude, override.SearchExclude)
	result.WatcherExclude = mergeStringSlices(result.WatcherExclude, override.WatcherExclude)

	if len(override.FileAssociations) > 0 {
		if result.FileAssociations == nil {
			result.FileAssociations = make(map[string]string, len(override.FileAssociations))
		}
		for k, v := range override.FileAssociations {
			result.FileAssociations[k] = v
		}
	}

	return result
}

func (c *Config) clone() *Config {
	out := *c
	out.ReadOnlySchemes = append([]string(nil), c.ReadOnlySchemes...)
	out.FilesExclude = append([]string(nil), c.FilesExclude...)
	out.SearchExclude = append([]string(nil), c.SearchExclude...)
	out.WatcherExclude = append([]string(nil), c.WatcherExclude...)
	if c.FileAssociations != nil {
		out.FileAssociations = make(map[string]string, len(c.FileAssociations))
		for k, v := range c.FileAssociations {
			out.FileAssociations[k] = v
		}
	}
	return &out
}

func mergeStringSlices(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var result []string
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	return result
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.DefaultEOL) {
	case "", "lf", "crlf":
	default:
		return fmt.Errorf("config: default_eol must be \"lf\" or \"crlf\", got %q", c.DefaultEOL)
	}
	if c.MaxFindResults < 0 {
		return fmt.Errorf("config: max_find_results must not be negative, got %d", c.MaxFindResults)
	}
	if c.WordPattern != "" {
		if _, err := regexp.Compile(c.WordPattern); err != nil {
			return fmt.Errorf("config: word_pattern: %w", err)
		}
	}
	return nil
}

// EOL returns the default line terminator as a string.
func (c *Config) EOL() string {
	if strings.EqualFold(c.DefaultEOL, "crlf") {
		return "\r\n"
	}
	return "\n"
}

// LanguageID returns the language identifier for a file path, or "" when no
// association matches. Exact file names win over extension patterns.
func (c *Config) LanguageID(p string) string {
	name := path.Base(p)
	if lang, ok := c.FileAssociations[name]; ok {
		return lang
	}
	if ext := path.Ext(name); ext != "" {
		if lang, ok := c.FileAssociations["*"+ext]; ok {
			return lang
		}
	}
	return ""
}

// IsReadOnlyScheme reports whether scheme is configured read-only.
func (c *Config) IsReadOnlyScheme(scheme string) bool {
	for _, s := range c.ReadOnlySchemes {
		if strings.EqualFold(s, scheme) {
			return true
		}
	}
	return false
}

// FindExcludes returns the patterns applied by find-files when the caller
// supplies no exclude.
func (c *Config) FindExcludes() []string {
	return mergeStringSlices(c.FilesExclude, c.SearchExclude)
}
