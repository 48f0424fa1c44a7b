// Package i18n holds the bootstrap's user-facing text in English and
// Simplified Chinese, keyed by the English message and served through a
// golang.org/x/text message catalog.
package i18n
