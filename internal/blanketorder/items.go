package blanketorder

import (
	"context"
	"log/slog"

	"github.com/odyssey-erp/blanketorder/internal/form"
)

// ItemController keeps the company currency rate of item rows in step with
// their rate.
type ItemController struct{}

// Bind registers the item row handlers on f.
func (ItemController) Bind(f *form.Form) {
	f.OnRow(ItemDoctype, "rate", itemRateChanged)
}

func itemRateChanged(ctx context.Context, f *form.Form, row *form.Row) {
	base := form.Multiply(row.Float("rate"), f.Float("conversion_rate"))
	if err := f.SetRowValue(row.Parentfield, row.Name, "base_rate", base); err != nil {
		f.Logger().Warn("update base rate", slog.String("row", row.Name), slog.Any("error", err))
	}
}
