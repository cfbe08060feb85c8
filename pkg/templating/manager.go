package templating

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// TemplateManager is the central controller for the templating engine. It
// owns the template set, the helper configuration, and the loaded template
// cache, and is responsible for loading, parsing, and executing templates.
// All methods are concurrent-safe.
type TemplateManager struct {
	logger      *slog.Logger
	config      *TemplateConfig
	set         *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
	names       []string
	templateDir string
	mu          sync.RWMutex
}

// NewTemplateManager creates, initializes, and returns a new TemplateManager.
// It requires a logger, the host's named-route reversal function (may be nil
// when a static media URL is configured), a configuration, and the path to
// the data directory which must contain a "templates" subdirectory. It
// performs an initial Refresh to load all templates.
func NewTemplateManager(logger *slog.Logger, reverse ReverseFunc, config *TemplateConfig, dataDir string) (*TemplateManager, error) {
	if err := RegisterHelpers(); err != nil {
		return nil, fmt.Errorf("failed to register template helpers: %w", err)
	}
	setMediaResolver(config.StaticMediaURL, reverse)

	templateDir := filepath.Join(dataDir, "templates")
	loader, err := pongo2.NewLocalFileSystemLoader(templateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create template loader: %w", err)
	}

	tm := &TemplateManager{
		logger:      logger,
		config:      config,
		set:         pongo2.NewSet("cloudbrowse", loader),
		templateDir: templateDir,
	}

	if err := tm.Refresh(); err != nil {
		return nil, err
	}

	logger.Info("Template manager initialized", "templates", len(tm.names))
	return tm, nil
}

// Refresh reloads all *.html templates from the template directory. It allows
// updates to templates without restarting the application; a parse failure in
// any file rejects the whole reload and keeps the previous set.
func (tm *TemplateManager) Refresh() error {
	entries, err := os.ReadDir(tm.templateDir)
	if err != nil {
		return fmt.Errorf("failed to read template directory: %w", err)
	}

	parsed := make(map[string]*pongo2.Template)
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".html" {
			continue
		}
		tpl, err := tm.set.FromFile(e.Name())
		if err != nil {
			tm.logger.Error("failed to parse template file", "name", e.Name(), "error", err)
			return fmt.Errorf("failed to parse template %q: %w", e.Name(), err)
		}
		parsed[e.Name()] = tpl
		names = append(names, e.Name())
	}
	sort.Strings(names)

	if len(names) == 0 {
		tm.logger.Warn("No template files found", "dir", tm.templateDir)
	}

	tm.mu.Lock()
	tm.templates = parsed
	tm.names = names
	tm.mu.Unlock()

	tm.logger.Info("Loaded template files", "count", len(names))
	return nil
}

// Execute renders a specific template by name, writing the output to the
// provided io.Writer. The context supplies the template's variables,
// including the message sequence the cloud_browser_messages tag looks up.
func (tm *TemplateManager) Execute(w io.Writer, name string, ctx pongo2.Context) error {
	tm.mu.RLock()
	tpl, ok := tm.templates[name]
	tm.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %q is undefined", name)
	}
	return tpl.ExecuteWriter(ctx, w)
}

// ExecuteTemplateString parses and executes a raw template string. This is
// ideal for testing or previewing templates without saving them to disk.
func (tm *TemplateManager) ExecuteTemplateString(w io.Writer, content string, ctx pongo2.Context) error {
	tpl, err := tm.set.FromString(content)
	if err != nil {
		return fmt.Errorf("failed to parse string template: %w", err)
	}
	return tpl.ExecuteWriter(ctx, w)
}

// SetConfig applies a new configuration to the TemplateManager, including the
// media resolver's static base URL.
func (tm *TemplateManager) SetConfig(config *TemplateConfig) {
	tm.mu.Lock()
	tm.config = config
	tm.mu.Unlock()

	resolverMu.Lock()
	staticMediaURL = config.StaticMediaURL
	resolverMu.Unlock()
}

// GetConfig returns a copy of the current configuration.
// This mainly exists for concurrency-safety reasons.
func (tm *TemplateManager) GetConfig() TemplateConfig {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return *tm.config
}

// GetTemplateNames returns the sorted names of the loaded templates.
func (tm *TemplateManager) GetTemplateNames() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	names := make([]string, len(tm.names))
	copy(names, tm.names)
	return names
}

// GetTemplateDir returns the directory the TemplateManager loads from.
func (tm *TemplateManager) GetTemplateDir() string {
	return tm.templateDir
}
