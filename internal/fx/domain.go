// Package fx resolves currency exchange rates from the currency_exchange
// table, caching answers in Redis.
package fx

import (
	"errors"
	"time"
)

// Sides a rate may be restricted to.
const (
	ForSelling = "for_selling"
	ForBuying  = "for_buying"
)

var (
	// ErrRateNotFound is returned when neither the pair nor its inverse has a rate.
	ErrRateNotFound = errors.New("fx: exchange rate not found")
	// ErrInvalidCurrency is returned for a code that is not ISO 4217.
	ErrInvalidCurrency = errors.New("fx: invalid currency")
	// ErrInvalidDate is returned for a transaction date that does not parse.
	ErrInvalidDate = errors.New("fx: invalid transaction date")
)

// Query identifies one rate lookup.
type Query struct {
	Date time.Time
	From string
	To   string
	Side string
}

// Pair is a currency pair that has at least one recorded rate.
type Pair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Rate is one currency_exchange row.
type Rate struct {
	Date         string  `yaml:"date" json:"date"`
	From         string  `yaml:"from" json:"from"`
	To           string  `yaml:"to" json:"to"`
	ExchangeRate float64 `yaml:"rate" json:"rate"`
	ForSelling   bool    `yaml:"for_selling" json:"for_selling"`
	ForBuying    bool    `yaml:"for_buying" json:"for_buying"`
}
