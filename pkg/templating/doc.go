/*
Package templating wraps a Django-syntax template engine (pongo2) for the
cloudbrowse web application and registers the application's custom template
helpers into it:

  - the truncatechars filter, character-boundary string truncation,
  - the filesizeformat filter, humanized byte sizes for object listings,
  - the cloud_browser_media_url tag, resolving static asset URLs against
    either a configured base URL or the host's named-route table,
  - the cloud_browser_messages tag, rendering flash messages grouped by
    (severity, category).

The TemplateManager loads templates from a directory, supports hot-reloading
via Refresh or a filesystem watcher, and executes them with a render context.
All methods are concurrent-safe.
*/
package templating
