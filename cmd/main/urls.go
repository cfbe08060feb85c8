package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cloudbrowse/cloudbrowse/pkg/templating"
)

// routePatterns is the named-route table the template layer reverses against.
// Each pattern holds one %s placeholder per route argument.
var routePatterns = map[string]string{
	templating.MediaRouteName: "/cb_media/%s",
}

// reverse resolves a route name and its arguments into a URL path. Unknown
// route names and argument-count mismatches are errors; the template layer
// surfaces them as render errors.
func reverse(name string, args ...string) (string, error) {
	pattern, ok := routePatterns[name]
	if !ok {
		return "", fmt.Errorf("no route named %q", name)
	}
	if want := strings.Count(pattern, "%s"); len(args) != want {
		return "", fmt.Errorf("route %q takes %d argument(s), got %d", name, want, len(args))
	}

	escaped := make([]any, len(args))
	for i, arg := range args {
		escaped[i] = escapePathPreservingSlashes(arg)
	}
	return fmt.Sprintf(pattern, escaped...), nil
}

// escapePathPreservingSlashes escapes each path segment individually so that
// media paths like "css/app.css" keep their separators.
func escapePathPreservingSlashes(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
