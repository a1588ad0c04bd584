package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// CurrencyPair identifies a tradable market by its base and counter
// currency codes. It is a plain value; no registry is consulted.
type CurrencyPair struct {
	Base    string
	Counter string
}

func NewCurrencyPair(base, counter string) CurrencyPair {
	return CurrencyPair{Base: base, Counter: counter}
}

// ToSymbol renders the pair as the flat symbol form used by the
// derivatives protocol: base and counter concatenated, no separator.
func (p CurrencyPair) ToSymbol() string {
	return p.Base + p.Counter
}

func (p CurrencyPair) String() string {
	return p.Base + "/" + p.Counter
}

// PairFromSymbol splits a flat symbol into a CurrencyPair using a lexical
// heuristic: the counter is assumed to be 4 characters when the symbol
// ends in "USDT" (case-insensitive) and 3 otherwise. If the character
// just before the counter is not a letter, the base ends one character
// earlier, which strips the digit of numeric-suffixed contract symbols.
//
// The heuristic is lossy: any counter currency whose code length does not
// match the assumption parses incorrectly. Symbols shorter than the
// assumed counter plus one base character fail with ErrMalformedSymbol.
func PairFromSymbol(symbol string) (CurrencyPair, error) {
	counterLen := 3
	if len(symbol) >= 4 && strings.EqualFold(symbol[len(symbol)-4:], "USDT") {
		counterLen = 4
	}

	counterStart := len(symbol) - counterLen
	if counterStart < 1 {
		return CurrencyPair{}, fmt.Errorf("symbol %q: %w", symbol, ErrMalformedSymbol)
	}

	baseEnd := counterStart
	if !unicode.IsLetter(rune(symbol[counterStart-1])) {
		baseEnd = counterStart - 1
	}

	return CurrencyPair{
		Base:    symbol[:baseEnd],
		Counter: symbol[counterStart:],
	}, nil
}
