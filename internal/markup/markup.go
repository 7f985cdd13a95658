package markup

import (
	"github.com/kyokomi/emoji/v2"
	"github.com/valyala/bytebufferpool"
)

type Style int

const (
	Plain Style = iota
	Bold
	Italic
	Underline
)

type Fragment struct {
	Style Style
	Text  string
}

// Styled text, built fragment by fragment. Emoji are kept
// as :shortcodes: until the text is rendered
type Text []Fragment

func (t Text) Add(style Style, text string) Text {
	return append(t, Fragment{style, text})
}

func (t Text) Plain(text string) Text {
	return t.Add(Plain, text)
}

func (t Text) Bold(text string) Text {
	return t.Add(Bold, text)
}

func (t Text) Italic(text string) Text {
	return t.Add(Italic, text)
}

func (t Text) Underline(text string) Text {
	return t.Add(Underline, text)
}

func (t Text) Append(other Text) Text {
	return append(t, other...)
}

// Discord flavoured markdown. Emoji shortcodes are left
// for Discord to render and special characters are not escaped
func (t Text) Markdown() string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	for _, f := range t {
		marker := markers[f.Style]
		_, _ = buf.WriteString(marker)
		_, _ = buf.WriteString(f.Text)
		_, _ = buf.WriteString(marker)
	}
	return buf.String()
}

var markers = map[Style]string{
	Bold:      "**",
	Italic:    "*",
	Underline: "__",
}

var ansi = map[Style]string{
	Bold:      "\x1b[1m",
	Italic:    "\x1b[3m",
	Underline: "\x1b[4m",
}

const ansiReset = "\x1b[0m"

// Text for a terminal, with ANSI styling and emoji rendered
func (t Text) Terminal() string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	for _, f := range t {
		text := emoji.Sprint(f.Text)
		if code, ok := ansi[f.Style]; ok && text != "" {
			_, _ = buf.WriteString(code + text + ansiReset)
		} else {
			_, _ = buf.WriteString(text)
		}
	}
	return buf.String()
}

// Text without any styling, emoji rendered
func (t Text) String() string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	for _, f := range t {
		_, _ = buf.WriteString(f.Text)
	}
	return emoji.Sprint(buf.String())
}
