package tgui

import "html"

// H is HTML that is safe to send with ParseMode="HTML".
type H string

func (h H) String() string { return string(h) }

// Esc escapes text for Telegram HTML.
func Esc(s string) H { return H(html.EscapeString(s)) }

func wrap(tag string, inner H) H { return H("<" + tag + ">" + inner.String() + "</" + tag + ">") }

func B(s string) H { return wrap("b", Esc(s)) }

// Line is prefix followed by escaped text. The prefix is taken as-is.
func Line(prefix string, text string) H { return H(prefix) + Esc(text) }
