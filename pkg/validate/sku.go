package validate

import "regexp"

var skuPattern = regexp.MustCompile(`^[A-Z0-9_-]{1,64}$`)

// IsSKU expects an already normalized (upper-cased, trimmed) SKU.
func IsSKU(s string) bool {
	return skuPattern.MatchString(s)
}
