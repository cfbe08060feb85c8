package templating

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/cloudbrowse/cloudbrowse/pkg/messages"
)

// MediaRouteName is the host route the media URL tag reverses when no static
// media base URL is configured.
const MediaRouteName = "cloud_browser_media"

// ReverseFunc resolves a named route plus its arguments into a URL. The host
// application supplies one when constructing the TemplateManager.
type ReverseFunc func(name string, args ...string) (string, error)

// ErrNoResolver is returned when media URL resolution is attempted with
// neither a static base URL nor a reverse function configured.
var ErrNoResolver = errors.New("templating: no media URL resolver configured")

// The media tag reads its configuration through package state because tag
// registration in the engine is global. It mirrors how the host settings are
// resolved once at startup.
var (
	resolverMu     sync.RWMutex
	staticMediaURL string
	reverseFn      ReverseFunc
)

func setMediaResolver(baseURL string, reverse ReverseFunc) {
	resolverMu.Lock()
	defer resolverMu.Unlock()
	staticMediaURL = baseURL
	reverseFn = reverse
}

// SanitizeRelPath normalizes a media path argument: surrounding quote
// characters are dropped and a single leading path separator is removed.
func SanitizeRelPath(relPath string) string {
	relPath = strings.Trim(relPath, `'"`)
	return strings.TrimPrefix(relPath, "/")
}

// ResolveMediaURL resolves a sanitized relative media path into a URL. With a
// static media base URL configured the two are joined with exactly one
// separator; otherwise the path is handed to the host's named-route reversal
// under MediaRouteName, and any reversal error propagates untranslated.
func ResolveMediaURL(relPath string) (string, error) {
	resolverMu.RLock()
	base, reverse := staticMediaURL, reverseFn
	resolverMu.RUnlock()

	if base != "" {
		return strings.TrimRight(base, "/") + "/" + relPath, nil
	}
	if reverse == nil {
		return "", ErrNoResolver
	}
	return reverse(MediaRouteName, relPath)
}

// mediaURLNode is the parsed form of a cloud_browser_media_url tag. The
// sanitized path is fixed at parse time; only URL resolution happens per
// render.
type mediaURLNode struct {
	relPath  string
	position *pongo2.Token
}

func (n *mediaURLNode) Execute(ctx *pongo2.ExecutionContext, w pongo2.TemplateWriter) *pongo2.Error {
	url, err := ResolveMediaURL(n.relPath)
	if err != nil {
		return ctx.Error(fmt.Sprintf("cloud_browser_media_url: %v", err), n.position)
	}
	if _, err = w.WriteString(url); err != nil {
		return ctx.Error(err.Error(), n.position)
	}
	return nil
}

// tagMediaURLParser parses {% cloud_browser_media_url "css/app.css" %}.
// Anything other than exactly one string argument is a template syntax error.
func tagMediaURLParser(_ *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	pathToken := arguments.MatchType(pongo2.TokenString)
	if pathToken == nil {
		return nil, arguments.Error("'cloud_browser_media_url' takes one quoted path argument", start)
	}
	if arguments.Remaining() > 0 {
		return nil, arguments.Error("'cloud_browser_media_url' takes one argument", start)
	}
	return &mediaURLNode{
		relPath:  SanitizeRelPath(pathToken.Val),
		position: pathToken,
	}, nil
}

// RenderMessages renders the grouped (severity, category) markup for a run of
// flash messages. Groups appear in severity-then-category order; messages
// within a group keep their original relative order. Message texts and
// category labels are HTML-escaped. A pure function: rendering the same
// sequence twice yields byte-identical output.
func RenderMessages(msgs []messages.Message) string {
	var b strings.Builder
	for _, g := range messages.Classify(msgs) {
		tags := html.EscapeString(g.Tags)
		b.WriteString(`<div class="cloud-browser-messages ` + tags + "\">\n")
		b.WriteString(`  <ul class="messages-list-` + tags + `">`)
		for _, text := range g.Texts {
			b.WriteString("<li>" + html.EscapeString(text) + "</li>")
		}
		b.WriteString("</ul>\n</div>\n")
	}
	return b.String()
}

// messagesNode is the parsed form of a cloud_browser_messages tag. The
// expression naming the message sequence is resolved at parse time and
// evaluated against the render context on every execution.
type messagesNode struct {
	expr     pongo2.IEvaluator
	position *pongo2.Token
}

func (n *messagesNode) Execute(ctx *pongo2.ExecutionContext, w pongo2.TemplateWriter) *pongo2.Error {
	value, perr := n.expr.Evaluate(ctx)
	if perr != nil {
		return perr
	}
	if value.IsNil() {
		return ctx.Error("cloud_browser_messages: message variable is not in the render context", n.position)
	}
	msgs, ok := value.Interface().([]messages.Message)
	if !ok {
		return ctx.Error("cloud_browser_messages: message variable must be a []messages.Message", n.position)
	}
	if _, err := w.WriteString(RenderMessages(msgs)); err != nil {
		return ctx.Error(err.Error(), n.position)
	}
	return nil
}

// tagMessagesParser parses {% cloud_browser_messages messages %}. Exactly one
// argument, the context variable holding the message sequence.
func tagMessagesParser(_ *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	if arguments.Remaining() == 0 {
		return nil, arguments.Error("'cloud_browser_messages' takes one argument", start)
	}
	expr, err := arguments.ParseExpression()
	if err != nil {
		return nil, err
	}
	if arguments.Remaining() > 0 {
		return nil, arguments.Error("'cloud_browser_messages' takes one argument", start)
	}
	return &messagesNode{expr: expr, position: start}, nil
}

var registerOnce sync.Once

// RegisterHelpers installs the cloudbrowse filters and tags into the engine.
// Registration is global to the engine and happens once per process; the
// TemplateManager calls this during construction.
func RegisterHelpers() error {
	var err error
	registerOnce.Do(func() {
		if err = registerFilter("truncatechars", filterTruncateChars); err != nil {
			return
		}
		if err = registerFilter("filesizeformat", filterFilesizeFormat); err != nil {
			return
		}
		if err = pongo2.RegisterTag("cloud_browser_media_url", tagMediaURLParser); err != nil {
			return
		}
		err = pongo2.RegisterTag("cloud_browser_messages", tagMessagesParser)
	})
	return err
}
