package companies

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

func validate(c Company) error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("company name is required")
	}
	if c.DefaultCurrency == "" {
		return nil
	}
	if _, err := currency.ParseISO(c.DefaultCurrency); err != nil {
		return fmt.Errorf("company %s: default currency %q: %w", c.Name, c.DefaultCurrency, err)
	}
	return nil
}
