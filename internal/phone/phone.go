// Package phone normalizes contact phone numbers to E.164.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidPhone is returned for input that does not parse to a valid number
var ErrInvalidPhone = errors.New("invalid phone number")

// Normalizer parses numbers, treating those without a country code as belonging
// to its default region
type Normalizer struct {
	defaultRegion string
}

// NewNormalizer creates a normalizer for an ISO 3166 region such as "NO" or "US"
func NewNormalizer(defaultRegion string) *Normalizer {
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" {
		region = "NO"
	}
	return &Normalizer{defaultRegion: region}
}

// Normalize returns raw in E.164 form. Blank input is returned as "".
func (n *Normalizer) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	parsed, err := phonenumbers.Parse(raw, n.defaultRegion)
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
