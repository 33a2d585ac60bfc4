package sanitizer

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reValidPhone = regexp.MustCompile(`^(?:|\+?[0-9][0-9 \-()]{6,20})$`)

	// Regions tried when a phone number arrives without a country prefix.
	fallbackRegions = []string{"KE", "US", "GB"}
)

// SanitizeText trims and collapses whitespace in human-entered text such as
// titles, names and addresses.
func SanitizeText(input string) string {
	p := Pipeline{TrimAndNormalize}
	return p.Apply(input)
}

// SanitizeEmail lowercases and trims an email address.
func SanitizeEmail(input string) string {
	p := Pipeline{strings.TrimSpace, strings.ToLower}
	return p.Apply(input)
}

// SanitizeLabel normalizes search labels (city, county, amenity): trimmed,
// collapsed whitespace, lowercased.
func SanitizeLabel(input string) string {
	p := Pipeline{TrimAndNormalize, strings.ToLower}
	return p.Apply(input)
}

// SanitizeSlice applies a strategy to every element, dropping empties and
// duplicates while preserving order.
func SanitizeSlice(values []string, strategy Strategy) []string {
	seen := make(map[string]struct{})
	out := []string{}

	for _, v := range values {
		s := strategy(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}

// SanitizePhone formats a phone number to E.164 when it parses in one of the
// fallback regions. Unparseable input is returned as given so validation can
// report it.
func SanitizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" || !reValidPhone.MatchString(phone) {
		return phone
	}

	for _, region := range fallbackRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err == nil && phonenumbers.IsValidNumber(parsed) {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}
	return phone
}
