package normalise

import (
	"fmt"
	"strings"
	"time"
)

// FormatDate renders t with a date-fns style pattern. Supported tokens:
// yyyy yy MMMM MMM MM M dd d EEEE EEE HH H mm ss. Text in single quotes is
// copied literally; '' yields a quote.
func FormatDate(t time.Time, pattern string) string {
	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		c := runes[i]
		if c == '\'' {
			j := i + 1
			if j < len(runes) && runes[j] == '\'' {
				b.WriteRune('\'')
				i += 2
				continue
			}
			for j < len(runes) && runes[j] != '\'' {
				b.WriteRune(runes[j])
				j++
			}
			i = j + 1
			continue
		}

		n := 1
		for i+n < len(runes) && runes[i+n] == c {
			n++
		}
		b.WriteString(token(t, c, n))
		i += n
	}
	return b.String()
}

func token(t time.Time, c rune, n int) string {
	switch c {
	case 'y':
		if n == 2 {
			return fmt.Sprintf("%02d", t.Year()%100)
		}
		return fmt.Sprintf("%04d", t.Year())
	case 'M':
		switch {
		case n >= 4:
			return t.Month().String()
		case n == 3:
			return t.Month().String()[:3]
		case n == 2:
			return fmt.Sprintf("%02d", int(t.Month()))
		default:
			return fmt.Sprintf("%d", int(t.Month()))
		}
	case 'd':
		if n >= 2 {
			return fmt.Sprintf("%02d", t.Day())
		}
		return fmt.Sprintf("%d", t.Day())
	case 'E':
		if n >= 4 {
			return t.Weekday().String()
		}
		return t.Weekday().String()[:3]
	case 'H':
		if n >= 2 {
			return fmt.Sprintf("%02d", t.Hour())
		}
		return fmt.Sprintf("%d", t.Hour())
	case 'm':
		return fmt.Sprintf("%02d", t.Minute())
	case 's':
		return fmt.Sprintf("%02d", t.Second())
	default:
		return strings.Repeat(string(c), n)
	}
}
