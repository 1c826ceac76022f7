package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	priceRegex = regexp.MustCompile(`€\s*([0-9][0-9.,]*)`)
	sizeRegex  = regexp.MustCompile(`(\d+)\s*m[²2]`)
	roomsRegex = regexp.MustCompile(`(\d+)\s*(?:kamers?|slaapkamers?|rooms?|bedrooms?)`)
	spaceRegex = regexp.MustCompile(`\s+`)
)

// ParsePrice extracts a monthly rent in whole euros from free text.
// Dutch formatting: "." separates thousands, "," starts the cents, which are
// truncated. Returns false when no price is present.
func ParsePrice(s string) (int, bool) {
	m := priceRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	raw := m[1]
	// Cut the cents suffix before stripping thousands separators, otherwise
	// "1.234,50" would read as 123450.
	if i := strings.IndexByte(raw, ','); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.ReplaceAll(raw, ".", "")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseSize extracts a floor area and returns it as display text ("43m²").
func ParseSize(s string) (string, bool) {
	m := sizeRegex.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1] + "m²", true
}

// ParseRooms extracts a room count from Dutch or English phrasing.
func ParseRooms(s string) (int, bool) {
	m := roomsRegex.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// CleanText collapses whitespace runs left behind by HTML extraction.
func CleanText(s string) string {
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}

// AbsoluteURL resolves href against the agency base URL.
func AbsoluteURL(baseURL, href string) string {
	switch {
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return strings.TrimSuffix(baseURL, "/") + href
	default:
		return strings.TrimSuffix(baseURL, "/") + "/" + href
	}
}

var refSuffixRegex = regexp.MustCompile(`-ref-\d+$`)

// AddressFromPath rebuilds a display address from a detail-page path like
// /woningaanbod/huur/groningen/hoendiep/61-a → "Hoendiep 61A".
func AddressFromPath(path string) string {
	path = strings.TrimSuffix(path, "/")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return ""
	}
	street := parts[len(parts)-2]
	number := houseNumber(refSuffixRegex.ReplaceAllString(parts[len(parts)-1], ""))

	words := strings.Split(strings.ReplaceAll(street, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ") + " " + number
}

// houseNumber turns a slug segment like "61-a" into display form "61A".
func houseNumber(slug string) string {
	parts := strings.Split(slug, "-")
	out := parts[0]
	for _, p := range parts[1:] {
		out += strings.ToUpper(p)
	}
	return out
}
