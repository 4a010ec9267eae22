package fulfillmentservice

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/GlebRadaev/codeshop/pkg/validate"
)

const orderIDPayloadDigits = 19

var orderIDSpace = new(big.Int).Exp(big.NewInt(10), big.NewInt(orderIDPayloadDigits), nil)

// LuhnIDGenerator mints 20-digit order ids: 19 random digits and a Luhn check digit,
// so a mistyped id can be rejected before it reaches the store.
type LuhnIDGenerator struct {
	random io.Reader
}

func NewLuhnIDGenerator() *LuhnIDGenerator {
	return &LuhnIDGenerator{random: rand.Reader}
}

func (g *LuhnIDGenerator) NewOrderID() (string, error) {
	n, err := rand.Int(g.random, orderIDSpace)
	if err != nil {
		return "", fmt.Errorf("read random order id: %w", err)
	}
	digits := n.Text(10)
	payload := strings.Repeat("0", orderIDPayloadDigits-len(digits)) + digits
	check, ok := validate.LunaCheckDigit(payload)
	if !ok {
		return "", errors.New("no luhn check digit for order id")
	}
	return payload + string(check), nil
}

// IsOrderID reports whether id has the shape NewOrderID produces.
func IsOrderID(id string) bool {
	return len(id) == orderIDPayloadDigits+1 && validate.IsLuna(id)
}
