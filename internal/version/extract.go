package version

import (
	"regexp"
)

// DefaultProduct is the file-name prefix the vendor uses for its builds.
const DefaultProduct = "Cursor"

// Extractor pulls a three-segment version out of a vendor download URL.
// The version must directly follow "<product>-" and the product token
// must start at a path or word boundary, so "NotCursor-1.2.3" and bare
// numeric substrings elsewhere in the URL never match.
type Extractor struct {
	re *regexp.Regexp
}

func NewExtractor(product string) *Extractor {
	return &Extractor{
		re: regexp.MustCompile(`(?:^|[^A-Za-z0-9])` + regexp.QuoteMeta(product) + `-(\d+\.\d+\.\d+)`),
	}
}

// Extract returns the version token and true, or "" and false when the URL
// does not carry one.
func (e *Extractor) Extract(url string) (string, bool) {
	m := e.re.FindStringSubmatch(url)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

var defaultExtractor = NewExtractor(DefaultProduct)

// Extract runs the default product extractor.
func Extract(url string) (string, bool) {
	return defaultExtractor.Extract(url)
}
