// Package i18n provides the message lookup every user-facing label goes
// through. Message ids are the English strings; a catalog maps them to a
// translation and falls back to the id itself.
package i18n

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed locales/*.toml
var locales embed.FS

// Func looks up the translation of msgid.
type Func func(msgid string) string

// Identity returns every msgid unchanged.
func Identity(msgid string) string { return msgid }

// Catalog is a TOML message table:
//
//	locale = "zh_CN"
//	[messages]
//	"Manual Refresh" = "手动刷新"
type Catalog struct {
	Locale   string            `toml:"locale"`
	Messages map[string]string `toml:"messages"`
}

// T returns the translation of msgid, or msgid when there is none.
func (c *Catalog) T(msgid string) string {
	if c == nil {
		return msgid
	}
	if s, ok := c.Messages[msgid]; ok && s != "" {
		return s
	}
	return msgid
}

// Func returns c.T as a lookup function.
func (c *Catalog) Func() Func {
	return c.T
}

// Builtin returns the embedded catalog for locale. English and the C locale
// yield an empty catalog.
func Builtin(locale string) (*Catalog, error) {
	locale = normalize(locale)
	if locale == "" || locale == "en" || locale == "c" || strings.HasPrefix(locale, "en_") {
		return &Catalog{Locale: "en"}, nil
	}
	data, err := locales.ReadFile("locales/" + locale + ".toml")
	if err != nil {
		return nil, fmt.Errorf("no built-in catalog for locale %q", locale)
	}
	return parse(string(data))
}

// LoadFile reads a catalog from a TOML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return parse(string(data))
}

// Load returns the catalog at path when set, otherwise the built-in one.
// Entries of the file override the built-in catalog of the same locale.
func Load(locale, path string) (*Catalog, error) {
	base, err := Builtin(locale)
	if err != nil && path == "" {
		return nil, err
	}
	if path == "" {
		return base, nil
	}

	file, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return file, nil
	}
	merged := &Catalog{Locale: base.Locale, Messages: make(map[string]string, len(base.Messages)+len(file.Messages))}
	for k, v := range base.Messages {
		merged.Messages[k] = v
	}
	for k, v := range file.Messages {
		merged.Messages[k] = v
	}
	if file.Locale != "" {
		merged.Locale = file.Locale
	}
	return merged, nil
}

func parse(data string) (*Catalog, error) {
	var c Catalog
	if _, err := toml.Decode(data, &c); err != nil {
		return nil, fmt.Errorf("error decoding catalog: %w", err)
	}
	return &c, nil
}

// normalize maps "zh-CN", "zh_CN.UTF-8" and "zh_cn" to "zh_CN".
func normalize(locale string) string {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	locale = strings.ReplaceAll(locale, "-", "_")
	lang, region, ok := strings.Cut(locale, "_")
	if !ok {
		return strings.ToLower(lang)
	}
	return strings.ToLower(lang) + "_" + strings.ToUpper(region)
}
