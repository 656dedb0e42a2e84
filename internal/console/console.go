// Package console implements the terminal collaborators of the timer: a
// prompt surface that keeps drafts, a notifier that prints, and a parser for
// the line commands typed while the timer runs.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/Tiliavir/trivial-pomodoro/internal/completion"
)

// Prompter shows completion prompts as text and keeps one draft per prompt.
// Commands without an explicit target address the newest open prompt.
type Prompter struct {
	mu     sync.Mutex
	out    io.Writer
	order  []completion.Handle
	prompt map[completion.Handle]completion.Prompt
	drafts map[completion.Handle]draft
}

type draft struct {
	description string
	tags        []string
}

// NewPrompter returns a Prompter writing to out.
func NewPrompter(out io.Writer) *Prompter {
	return &Prompter{
		out:    out,
		prompt: make(map[completion.Handle]completion.Prompt),
		drafts: make(map[completion.Handle]draft),
	}
}

// Present prints p and makes it the newest prompt.
func (p *Prompter) Present(pr completion.Prompt) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = append(p.order, pr.Handle)
	p.prompt[pr.Handle] = pr
	fmt.Fprintf(p.out, "Work interval %s–%s finished. What did you get done?\n",
		pr.Interval.Start.Format("15:04"), pr.EndTime.Format("15:04"))
	fmt.Fprintln(p.out, `  d <text> to draft, "submit [text] [#tag ...]", "skip" or "dismiss"`)
}

// Draft returns the draft held for h.
func (p *Prompter) Draft(h completion.Handle) (string, []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d := p.drafts[h]
	return d.description, append([]string(nil), d.tags...)
}

// Close forgets h.
func (p *Prompter) Close(h completion.Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.prompt, h)
	delete(p.drafts, h)
	for i, o := range p.order {
		if o == h {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Newest returns the most recently presented open prompt.
func (p *Prompter) Newest() (completion.Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.order) == 0 {
		return "", false
	}
	return p.order[len(p.order)-1], true
}

// SetDraft replaces the draft of the newest prompt. It reports false when no
// prompt is open.
func (p *Prompter) SetDraft(description string, tags []string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.order) == 0 {
		return false
	}
	h := p.order[len(p.order)-1]
	p.drafts[h] = draft{description: description, tags: append([]string(nil), tags...)}
	return true
}

// Open returns the number of prompts waiting.
func (p *Prompter) Open() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}

// Notifier prints notifications and informational messages. Sounds are a
// terminal bell.
type Notifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewNotifier returns a Notifier writing to out.
func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

// Play rings the terminal bell.
func (n *Notifier) Play(string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprint(n.out, "\a")
}

// Notify prints a notification line.
func (n *Notifier) Notify(title, body, category string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "[%s] %s: %s\n", category, title, body)
}

// Inform prints an informational message.
func (n *Notifier) Inform(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "info: %s\n", message)
}
