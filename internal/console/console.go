package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"wheelhouse/internal/i18n"
)

// Kind selects the colour of a panel or line.
type Kind int

const (
	KindInfo Kind = iota
	KindSuccess
	KindWarn
	KindError
	KindHeading
)

func (k Kind) colors() text.Colors {
	switch k {
	case KindSuccess:
		return text.Colors{text.FgGreen}
	case KindWarn:
		return text.Colors{text.FgYellow}
	case KindError:
		return text.Colors{text.FgRed}
	case KindHeading:
		return text.Colors{text.Bold, text.FgMagenta}
	default:
		return text.Colors{text.FgCyan}
	}
}

const banner = `
          _               _ _
__      _| |__   ___  ___| | |__   ___  _   _ ___  ___
\ \ /\ / / '_ \ / _ \/ _ \ | '_ \ / _ \| | | / __|/ _ \
 \ V  V /| | | |  __/  __/ | | | | (_) | |_| \__ \  __/
  \_/\_/ |_| |_|\___|\___|_|_| |_|\___/ \__,_|___/\___|
`

// Option configures a Console.
type Option func(*Console)

// WithColor forces colour on or off.
func WithColor(enabled bool) Option {
	return func(c *Console) {
		c.color = enabled
	}
}

// WithTranslator sets the language of panel text.
func WithTranslator(tr *i18n.Translator) Option {
	return func(c *Console) {
		if tr != nil {
			c.tr = tr
		}
	}
}

// Console renders the bootstrap's user-facing panels.
type Console struct {
	out   io.Writer
	color bool
	tr    *i18n.Translator
}

// New returns a console writing to out. Colour defaults to on when out is a
// terminal.
func New(out io.Writer, opts ...Option) *Console {
	if out == nil {
		out = io.Discard
	}
	c := &Console{out: out, color: ShouldColorize(out), tr: i18n.English()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Writer returns the underlying output.
func (c *Console) Writer() io.Writer {
	return c.out
}

// T translates msg.
func (c *Console) T(msg string) string {
	return c.tr.Translate(msg)
}

// Tf translates a message with verbs and formats it.
func (c *Console) Tf(key string, args ...any) string {
	return c.tr.Translatef(key, args...)
}

// Banner prints the logo in a double-ruled box.
func (c *Console) Banner() {
	style := table.StyleDouble
	if c.color {
		style.Color.Border = text.Colors{text.FgHiBlue}
		style.Color.Row = text.Colors{text.FgHiBlue}
	}
	c.render(style, strings.Trim(banner, "\n"))
}

// Panel prints body inside a rounded box coloured by kind.
func (c *Console) Panel(kind Kind, body string) {
	style := table.StyleRounded
	if c.color {
		style.Color.Border = kind.colors()
		style.Color.Row = kind.colors()
	}
	c.render(style, strings.TrimRight(body, "\n"))
}

// Line prints a single coloured line without a box.
func (c *Console) Line(kind Kind, msg string) {
	if c.color {
		msg = kind.colors().Sprint(msg)
	}
	fmt.Fprintln(c.out, msg)
}

func (c *Console) render(style table.Style, body string) {
	tw := table.NewWriter()
	tw.SetStyle(style)
	tw.AppendRow(table.Row{body})
	fmt.Fprintln(c.out, tw.Render())
}

// ShouldColorize reports whether writer is a terminal.
func ShouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
