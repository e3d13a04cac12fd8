package curve

import (
	"fmt"
	"strings"
)

// Multiplier classifies the quote/base reserve ratio against the market price.
type Multiplier uint8

const (
	// One means the reserve ratio equals the market price.
	One Multiplier = iota
	// AboveOne means quote/base exceeds the market price; base is scarce.
	AboveOne
	// BelowOne means quote/base is under the market price; quote is scarce.
	BelowOne
)

// MultiplierFromByte validates the record encoding of a Multiplier.
func MultiplierFromByte(b byte) (Multiplier, error) {
	m := Multiplier(b)
	switch m {
	case One, AboveOne, BelowOne:
		return m, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidMultiplier, b)
	}
}

func (m Multiplier) String() string {
	switch m {
	case One:
		return "one"
	case AboveOne:
		return "above_one"
	case BelowOne:
		return "below_one"
	default:
		return fmt.Sprintf("multiplier(%d)", uint8(m))
	}
}

// SwapDirection says which token the trader pays in.
type SwapDirection uint8

const (
	SellBase SwapDirection = iota
	SellQuote
)

// ParseSwapDirection accepts "sell_base" or "sell_quote".
func ParseSwapDirection(s string) (SwapDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sell_base", "sellbase":
		return SellBase, nil
	case "sell_quote", "sellquote":
		return SellQuote, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

func (d SwapDirection) String() string {
	switch d {
	case SellBase:
		return "sell_base"
	case SellQuote:
		return "sell_quote"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}
