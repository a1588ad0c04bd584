package domain

// Balance holds the available and total amounts of one currency inside a
// wallet.
type Balance struct {
	Currency  string
	Available float64
	Total     float64
}

// Wallet is one account wallet, keyed by the exchange-assigned id.
type Wallet struct {
	ID       string
	Balances map[string]Balance // keyed by currency code
}

// Balance looks up the balance of a currency; ok is false when the wallet
// holds nothing in that currency.
func (w Wallet) Balance(currency string) (Balance, bool) {
	b, ok := w.Balances[currency]
	return b, ok
}

// AccountInfo is the account snapshot returned by a connection. Wallets
// keeps the connection's enumeration order, so "first wallet" is stable
// across reads of the same snapshot.
type AccountInfo struct {
	Wallets []Wallet
}

// Wallet selects a wallet by id, or the first enumerated wallet when id
// is empty. ok is false for an empty account or an unknown id.
func (a *AccountInfo) Wallet(id string) (Wallet, bool) {
	if len(a.Wallets) == 0 {
		return Wallet{}, false
	}
	if id == "" {
		return a.Wallets[0], true
	}
	for _, w := range a.Wallets {
		if w.ID == id {
			return w, true
		}
	}
	return Wallet{}, false
}
