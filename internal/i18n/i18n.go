// Package i18n resolves operator-facing message keys to localized text.
package i18n

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Supported language codes.
const (
	English = "en"
	Hebrew  = "he"
)

// Params are substituted into {placeholder} markers.
type Params map[string]any

// Catalog holds the messages of every supported language.
type Catalog struct {
	messages map[string]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
}

// New returns the built-in catalog (English and Hebrew).
func New() *Catalog {
	tags := []language.Tag{language.English, language.Hebrew}
	return &Catalog{
		messages: map[string]map[string]string{
			English: messagesEN,
			Hebrew:  messagesHE,
		},
		tags:    tags,
		matcher: language.NewMatcher(tags),
	}
}

// Normalize maps any language code ("he-IL", "iw", "EN") to a supported
// code, English when nothing matches.
func (c *Catalog) Normalize(lang string) string {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return English
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No {
		return English
	}
	base, _ := c.tags[idx].Base()
	return base.String()
}

// Supported reports whether lang is one of the catalog languages exactly.
func (c *Catalog) Supported(lang string) bool {
	_, ok := c.messages[lang]
	return ok
}

// Resolve returns the message for key in lang with params substituted.
// Unknown languages fall back to English; keys missing in a language fall
// back to English, then to the key itself.
func (c *Catalog) Resolve(lang, key string, params Params) string {
	text, ok := c.messages[c.Normalize(lang)][key]
	if !ok {
		text, ok = c.messages[English][key]
	}
	if !ok {
		return key
	}
	if len(params) == 0 {
		return text
	}

	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Keys returns the sorted message keys defined for lang.
func (c *Catalog) Keys(lang string) []string {
	keys := make([]string, 0, len(c.messages[lang]))
	for k := range c.messages[lang] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// FormatAmount renders a money amount with two decimals and locale grouping.
func (c *Catalog) FormatAmount(lang string, v float64) string {
	p := message.NewPrinter(language.Make(c.Normalize(lang)))
	return p.Sprint(number.Decimal(v, number.Scale(2)))
}

// FormatCount renders an integer with locale grouping.
func (c *Catalog) FormatCount(lang string, n int) string {
	p := message.NewPrinter(language.Make(c.Normalize(lang)))
	return p.Sprint(number.Decimal(n))
}
