package console

import (
	"errors"
	"fmt"
	"strings"
)

// Action is what a typed command asks for.
type Action int

const (
	StartStop Action = iota
	SkipRest
	SetDraft
	Submit
	Skip
	Dismiss
	Status
	Help
	Quit
)

// Command is one parsed input line.
type Command struct {
	Action      Action
	Description string
	Tags        []string
	// HasText is set when the line carried text or tags after the verb.
	HasText bool
}

// ErrEmpty is returned for a blank line.
var ErrEmpty = errors.New("empty command")

var verbs = map[string]Action{
	"s":         StartStop,
	"start":     StartStop,
	"stop":      StartStop,
	"k":         SkipRest,
	"skip-rest": SkipRest,
	"d":         SetDraft,
	"draft":     SetDraft,
	"submit":    Submit,
	"skip":      Skip,
	"dismiss":   Dismiss,
	"status":    Status,
	"?":         Help,
	"help":      Help,
	"q":         Quit,
	"quit":      Quit,
}

// Parse reads one command line. Words starting with # after the verb are
// tags; the remaining words form the description.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrEmpty
	}
	action, ok := verbs[strings.ToLower(fields[0])]
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q, type help for a list", fields[0])
	}

	cmd := Command{Action: action}
	var words []string
	for _, f := range fields[1:] {
		if tag := strings.TrimPrefix(f, "#"); tag != f {
			if tag != "" {
				cmd.Tags = append(cmd.Tags, tag)
			}
			continue
		}
		words = append(words, f)
	}
	cmd.Description = strings.Join(words, " ")
	cmd.HasText = len(fields) > 1
	return cmd, nil
}

// Usage lists the commands.
const Usage = `Commands:
  s, start, stop         start or stop the timer
  k, skip-rest           end the current rest and start working
  d <text> [#tag ...]    set the draft for the newest prompt
  submit [text] [#tag]   submit the newest prompt (uses the draft when no text)
  skip                   skip the newest prompt
  dismiss                close the newest prompt without a description
  status                 show the timer state
  q, quit                exit`
