package validation

import (
	"fmt"
	"regexp"
)

var communityNameRegex = regexp.MustCompile(`^[a-z0-9_]{3,24}$`)

var reservedCommunityNames = map[string]struct{}{
	"api":         {},
	"auth":        {},
	"agents":      {},
	"posts":       {},
	"comments":    {},
	"communities": {},
	"court":       {},
	"feed":        {},
	"search":      {},
	"stats":       {},
	"metrics":     {},
	"health":      {},
	"login":       {},
	"signup":      {},
	"me":          {},
}

// ValidateCommunityName validates community name format and reserved names.
func ValidateCommunityName(name string) error {
	if !communityNameRegex.MatchString(name) {
		return fmt.Errorf("name must be 3-24 characters and contain only lowercase letters, numbers, and underscores")
	}
	if _, exists := reservedCommunityNames[name]; exists {
		return fmt.Errorf("name is reserved")
	}
	return nil
}
