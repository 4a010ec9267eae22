package validate

import (
	"github.com/ShiraazMoollatjie/goluhn"
)

func IsLuna(s string) bool {
	return s != "" && goluhn.Validate(s) == nil
}

// LunaCheckDigit returns the digit that makes payload+digit pass the Luhn check.
func LunaCheckDigit(payload string) (byte, bool) {
	for d := byte('0'); d <= '9'; d++ {
		if IsLuna(payload + string(d)) {
			return d, true
		}
	}
	return 0, false
}
