package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/i18n"
	"github.com/custodia-labs/factura-cli/internal/logger"
)

// Ensure consoleSink implements the interface.
var _ driven.EventSink = (*consoleSink)(nil)

// consoleSink prints run events as lines and queues challenges for the
// prompt loop. It never blocks the run.
type consoleSink struct {
	mu         sync.Mutex
	out        io.Writer
	cat        *i18n.Catalogue
	challenges chan domain.Challenge
}

func newConsoleSink(out io.Writer, cat *i18n.Catalogue) *consoleSink {
	return &consoleSink{out: out, cat: cat, challenges: make(chan domain.Challenge, 8)}
}

// Progress implements driven.EventSink.
func (s *consoleSink) Progress(e domain.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Percent != nil {
		fmt.Fprintf(s.out, "[%s] %s %d%%\n", e.SiteName, s.cat.T(e.MessageKey), *e.Percent)
		return
	}
	fmt.Fprintf(s.out, "[%s] %s\n", e.SiteName, s.cat.T(e.MessageKey))
}

// Notify implements driven.EventSink.
func (s *consoleSink) Notify(n domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := s.cat.T(n.MessageKey)
	if n.SiteName != "" {
		line = fmt.Sprintf("[%s] %s", n.SiteName, line)
	}
	if n.Detail != "" && n.Severity != domain.SeverityInfo {
		line += ": " + n.Detail
	}
	fmt.Fprintf(s.out, "%s %s\n", severityMark(n.Severity), line)
}

// Challenge implements driven.EventSink.
func (s *consoleSink) Challenge(c domain.Challenge) {
	select {
	case s.challenges <- c:
	default:
		logger.Warn("challenge for %s dropped: prompt queue full", c.SiteName)
	}
}

func severityMark(sev domain.Severity) string {
	switch sev {
	case domain.SeverityError:
		return "✗"
	case domain.SeverityWarning:
		return "!"
	case domain.SeveritySuccess:
		return "✓"
	default:
		return "-"
	}
}

// challengePrompter reads challenge answers from the terminal.
type challengePrompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
	cat    *i18n.Catalogue
}

func newChallengePrompter(in io.Reader, out io.Writer, cat *i18n.Catalogue) *challengePrompter {
	return &challengePrompter{in: in, reader: bufio.NewReader(in), out: out, cat: cat}
}

// promptText renders the question shown for c.
func promptText(cat *i18n.Catalogue, c domain.Challenge) string {
	if c.Kind == domain.ChallengeSecurityQuestion {
		return cat.T(i18n.KeyAnswerQuestion, c.SiteName, c.Prompt)
	}
	return cat.T(i18n.KeyEnterCode, c.SiteName)
}

// Ask shows the prompt and returns the trimmed answer. Input on a terminal
// is not echoed.
func (p *challengePrompter) Ask(c domain.Challenge) (string, error) {
	fmt.Fprintf(p.out, "%s (%s): ", promptText(p.cat, c), p.cat.T(i18n.KeySkipHint))

	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		answer, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(answer)), nil
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
