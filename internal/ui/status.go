package ui

import "fmt"

// Kind classifies a notice.
type Kind int

const (
	KindInfo Kind = iota
	KindOK
	KindWarn
	KindError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func (k Kind) label() string {
	switch k {
	case KindOK:
		return "OK"
	case KindWarn:
		return "WARN"
	case KindError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (k Kind) color() string {
	switch k {
	case KindOK:
		return ansiGreen
	case KindWarn:
		return ansiYellow
	case KindError:
		return ansiRed
	default:
		return ansiBlue
	}
}

func renderNotice(kind Kind, message string, colorize bool) string {
	line := fmt.Sprintf("[%s] %s", kind.label(), message)
	if colorize {
		return kind.color() + line + ansiReset
	}
	return line
}
