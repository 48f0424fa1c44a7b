package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var supported = []language.Tag{language.English, language.SimplifiedChinese}

var (
	matcher = language.NewMatcher(supported)
	builtin = newCatalog()
)

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range simplifiedChinese {
		if err := b.SetString(language.SimplifiedChinese, key, text); err != nil {
			panic(fmt.Sprintf("i18n: register %q: %v", key, err))
		}
		if err := b.SetString(language.English, key, key); err != nil {
			panic(fmt.Sprintf("i18n: register %q: %v", key, err))
		}
	}
	return b
}

// Translator looks up user-facing text by its English message.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a translator for a BCP 47 tag such as "zh-CN". Unsupported
// languages fall back to English.
func New(lang string) (*Translator, error) {
	lang = strings.TrimSpace(lang)
	tag := language.English
	if lang != "" {
		parsed, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("parse language %q: %w", lang, err)
		}
		_, idx, _ := matcher.Match(parsed)
		tag = supported[idx]
	}
	return &Translator{tag: tag, printer: message.NewPrinter(tag, message.Catalog(builtin))}, nil
}

// English returns the identity translator.
func English() *Translator {
	t, _ := New("en")
	return t
}

// Language returns the matched language tag.
func (t *Translator) Language() language.Tag {
	return t.tag
}

// Translate returns msg in the translator's language, or msg unchanged when
// no translation exists.
func (t *Translator) Translate(msg string) string {
	if t == nil {
		return msg
	}
	return t.printer.Sprintf(message.Key(msg, escapeVerbs(msg)))
}

// Translatef translates a message key containing verbs and formats it.
func (t *Translator) Translatef(key string, args ...any) string {
	if t == nil {
		return fmt.Sprintf(key, args...)
	}
	return t.printer.Sprintf(key, args...)
}

func escapeVerbs(msg string) string {
	return strings.ReplaceAll(msg, "%", "%%")
}
