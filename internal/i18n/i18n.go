// Package i18n translates user-facing form labels.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var translations = map[language.Tag]map[string]string{
	language.Indonesian: {
		"View Orders":           "Lihat Pesanan",
		"Create Sales Order":    "Buat Pesanan Penjualan",
		"Create Purchase Order": "Buat Pesanan Pembelian",
		"Error":                 "Kesalahan",
		"Rate":                  "Harga",
		"Exchange Rate":         "Kurs",
		"Terms":                 "Syarat",
	},
}

var cat = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, entries := range translations {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(fmt.Sprintf("i18n: %s %q: %v", tag, key, err))
			}
		}
	}
	return b
}

// Translator renders labels in one language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a translator for lang, a BCP 47 tag. Unsupported or empty
// languages fall back to English, which leaves labels as written.
func New(lang string) (*Translator, error) {
	tag := language.English
	if lang != "" {
		parsed, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("i18n: parse language %q: %w", lang, err)
		}
		matcher := language.NewMatcher(cat.Languages())
		_, idx, conf := matcher.Match(parsed)
		if conf != language.No {
			tag = cat.Languages()[idx]
		}
	}
	return &Translator{tag: tag, printer: message.NewPrinter(tag, message.Catalog(cat))}, nil
}

// Language reports the language labels are rendered in.
func (t *Translator) Language() language.Tag { return t.tag }

// Translate returns the translation of s, or s when none exists.
func (t *Translator) Translate(s string) string {
	if t == nil || s == "" || strings.Contains(s, "%") {
		return s
	}
	return t.printer.Sprintf(s)
}
