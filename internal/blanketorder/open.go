package blanketorder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/blanketorder/internal/form"
)

// Runtime carries what every Blanket Order form is opened with.
type Runtime struct {
	Controller *Controller
	Fetcher    form.Fetcher
	Mapper     form.Mapper
	Translator form.Translator
	Observer   form.Observer
	Logger     *slog.Logger
}

// Open builds a form for doc, binds the handlers and runs the load lifecycle.
// The caller owns the returned form and must Close it.
func (rt Runtime) Open(ctx context.Context, doc Document) (*form.Form, error) {
	if rt.Controller == nil {
		return nil, fmt.Errorf("%w: controller", ErrMissingService)
	}
	m, err := Meta()
	if err != nil {
		return nil, err
	}
	opts := doc.FormOptions()
	opts.Meta = m
	opts.Logger = rt.Logger
	opts.Fetcher = rt.Fetcher
	opts.Mapper = rt.Mapper
	opts.Translator = rt.Translator
	opts.Observer = rt.Observer

	f := form.New(opts)
	rt.Controller.Bind(f)
	ItemController{}.Bind(f)
	if err := f.Open(ctx); err != nil {
		f.Close()
		return nil, fmt.Errorf("open blanket order %s: %w", doc.Name, err)
	}
	return f, nil
}
