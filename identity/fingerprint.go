// Package identity derives a stable cross-run identity for listings.
// Scrape IDs regenerate on every run; the fingerprint is what lets the
// persistence layer recognize "this is the same property as last time".
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var (
	// Dutch address tokens that vary between agency renderings of the
	// same street.
	streetReplacements = map[string]string{
		"straat":      "str",
		"laan":        "ln",
		"weg":         "wg",
		"singel":      "sngl",
		"plein":       "pln",
		"diep":        "dp",
		"kade":        "kd",
		"appartement": "app",
		"studio":      "",
		"kamer":       "",
	}
	multiSpaceRegex = regexp.MustCompile(`\s+`)
	nonAlnumRegex   = regexp.MustCompile(`[^a-z0-9\s]`)
	postalCodeRegex = regexp.MustCompile(`\b(\d{4})\s*[A-Za-z]{2}\b`)
)

// Fingerprint hashes the normalized address together with the agency so two
// agencies listing the same street number stay distinct records.
func Fingerprint(agencyID, title, location string) string {
	normalized := NormalizeAddress(title)
	input := fmt.Sprintf("%s|%s|%s", strings.ToLower(agencyID), normalized, PostalDistrict(title+" "+location))
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

// NormalizeAddress lowercases, strips punctuation and collapses the street
// suffixes agencies abbreviate inconsistently.
func NormalizeAddress(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	addr = postalCodeRegex.ReplaceAllString(addr, " ")
	addr = nonAlnumRegex.ReplaceAllString(addr, " ")
	for full, abbrev := range streetReplacements {
		addr = strings.ReplaceAll(addr, full, abbrev)
	}
	addr = multiSpaceRegex.ReplaceAllString(addr, " ")
	return strings.TrimSpace(addr)
}

// PostalDistrict returns the four-digit part of the first Dutch postal code
// found, or "" when the text carries none.
func PostalDistrict(s string) string {
	m := postalCodeRegex.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}
