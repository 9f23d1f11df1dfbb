package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sakif/found/internal/gate"
	"github.com/sakif/found/internal/model"
)

// console is the terminal: prompts read whole lines from in, everything
// else goes to out.
type console struct {
	in  *bufio.Reader
	out io.Writer
}

func newConsole(in io.Reader, out io.Writer) *console {
	return &console{in: bufio.NewReader(in), out: out}
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) success(format string, args ...any) {
	fmt.Fprintln(c.out, "✓ "+fmt.Sprintf(format, args...))
}

func (c *console) fail(format string, args ...any) {
	fmt.Fprintln(c.out, "✗ "+fmt.Sprintf(format, args...))
}

// prompt prints label and returns the next line without its line ending.
// A final line without a newline is still returned; io.EOF is only
// reported once input is exhausted.
func (c *console) prompt(label string) (string, error) {
	fmt.Fprintf(c.out, "%s: ", label)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// screen prints the header for a gate screen.
func (c *console) screen(s gate.Screen) {
	switch s {
	case gate.ScreenSplash:
		c.printf("Found.\n")
	case gate.ScreenBlank:
	default:
		c.printf("\n== %s ==\n", s)
	}
}

func (c *console) slide(slide gate.Slide, index int, button string) {
	c.printf("\n[%d/%d] %s\n%s\n", index+1, len(gate.Slides), slide.Title, slide.Description)
	c.printf("(press Enter: %s)\n", button)
}

const notSet = "Not set"

// profile prints p the way the profile screen shows it; a nil profile gets
// the empty-state placeholders.
func (c *console) profile(email string, p *model.Profile) {
	if p == nil {
		p = &model.Profile{Email: email}
	}
	c.printf("  %-10s %s\n", "Name:", orNotSet(p.Name))
	c.printf("  %-10s %s\n", "Email:", p.Email)
	c.printf("  %-10s %s\n", "Role:", orNotSet(p.Role))
	c.printf("  %-10s %s\n", "Location:", orNotSet(p.Location))
	c.printf("  %-10s %s\n", "Domain:", orNotSet(p.Domain))
	c.printf("  %-10s %s\n", "Skills:", joinOrNotSet(p.Skills))
	c.printf("  %-10s %s\n", "Interests:", joinOrNotSet(p.Interests))
}

func orNotSet(s *string) string {
	if s == nil || *s == "" {
		return notSet
	}
	return *s
}

func joinOrNotSet(tags []string) string {
	if len(tags) == 0 {
		return notSet
	}
	return strings.Join(tags, ", ")
}
