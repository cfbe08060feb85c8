package templating

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/flosch/pongo2/v6"
)

// DefaultTruncateSuffix is appended to truncated strings when the template
// author does not supply one.
const DefaultTruncateSuffix = "..."

// TruncateChars truncates value on a character (rune) boundary so that the
// result, suffix included, occupies at most length characters. Values at or
// under the limit are returned unchanged. When the suffix alone does not fit
// within the limit, the keep-length clamps to zero and the result is the
// suffix by itself.
func TruncateChars(value string, length int, suffix string) string {
	runes := []rune(value)
	if len(runes) <= length {
		return value
	}
	keep := length - len([]rune(suffix))
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + suffix
}

// filterTruncateChars implements the truncatechars filter:
//
//	{{ object.Name|truncatechars:22 }}
//
// An absent or unparseable length argument leaves the value untouched. That
// lenient fallback lets templates apply the filter with author-supplied
// variables without guarding them first.
func filterTruncateChars(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	length, ok := truncateLength(param)
	if !ok {
		return in, nil
	}
	return pongo2.AsValue(TruncateChars(in.String(), length, DefaultTruncateSuffix)), nil
}

// truncateLength extracts an integer length from the filter parameter,
// reporting whether one was actually present and parseable.
func truncateLength(param *pongo2.Value) (int, bool) {
	if param == nil || param.IsNil() {
		return 0, false
	}
	if param.IsInteger() {
		return param.Integer(), true
	}
	n, err := strconv.Atoi(strings.TrimSpace(param.String()))
	if err != nil {
		return 0, false
	}
	return n, true
}

// filterFilesizeFormat implements the filesizeformat filter, rendering byte
// counts the way object listings expect them ("1.5 MiB").
func filterFilesizeFormat(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var size uint64
	if i := in.Integer(); i > 0 {
		size = uint64(i)
	}
	return pongo2.AsValue(humanize.IBytes(size)), nil
}

// registerFilter installs a filter, replacing an engine builtin of the same
// name when one exists so our semantics win.
func registerFilter(name string, fn pongo2.FilterFunction) error {
	if pongo2.FilterExists(name) {
		return pongo2.ReplaceFilter(name, fn)
	}
	return pongo2.RegisterFilter(name, fn)
}
