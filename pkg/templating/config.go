package templating

// TemplateConfig holds all configuration options for the templating engine.
type TemplateConfig struct {
	// StaticMediaURL is the base URL under which the application's static
	// media is served by something other than this process (a CDN, a
	// front-end web server). When empty, media URLs are resolved through
	// the host's named-route reversal instead.
	StaticMediaURL string `json:"static_media_url"`

	// WatchDebounceMs is how long the template watcher waits after the last
	// filesystem event before reloading, so editors that write in several
	// steps trigger a single refresh.
	WatchDebounceMs int `json:"watch_debounce_ms"`
}

// DefaultConfig returns a TemplateConfig with safe default values. The
// static media URL is unset by default, which routes media URL resolution
// through the host application.
func DefaultConfig() *TemplateConfig {
	return &TemplateConfig{
		StaticMediaURL:  "",
		WatchDebounceMs: 250,
	}
}
