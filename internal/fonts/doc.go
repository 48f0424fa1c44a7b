// Package fonts installs Noto fonts on Linux hosts so burned-in subtitles can
// render CJK text. Failures are reported to the caller and never abort a
// bootstrap.
package fonts
