// Package parser turns plain-text captain commands such as
// "burn 10 0 0 in 2 hours" into structured commands for the CLI.
//
// Parsing is keyword driven: each keyword claims the surrounding tokens as
// its arguments ("burn" the three numbers after it, a time unit the count
// before it), and tokens claimed by no keyword are ignored filler like
// "in".
package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ZDSRepositories/dotwar/pkg/physics"
)

// Verb is the action a command requests.
type Verb string

const (
	VerbBurn   Verb = "burn"
	VerbScan   Verb = "scan"
	VerbAgenda Verb = "agenda"
)

// Command is a fully parsed captain command. At most one of At and In is
// set; both zero means "now".
type Command struct {
	Verb  Verb
	Accel physics.Vector3 // burn only, km/hr²
	At    time.Time
	In    time.Duration
}

// aliases maps token spellings to their canonical keyword.
var aliases = map[string]string{
	"second": "seconds",
	"minute": "minutes",
	"hour":   "hours",
	"day":    "days",
}

// timeUnits maps time keywords to their duration.
var timeUnits = map[string]time.Duration{
	"seconds": time.Second,
	"minutes": time.Minute,
	"hours":   time.Hour,
	"days":    24 * time.Hour,
}

// atLayout accepts "at YYYY-MM-DD HH:MM" in local time.
const atLayout = "2006-01-02 15:04"

// Parse parses one command line.
func Parse(input string) (Command, error) {
	tokens := strings.Fields(strings.ToLower(input))
	for i, tok := range tokens {
		if canonical, ok := aliases[tok]; ok {
			tokens[i] = canonical
		}
	}
	if len(tokens) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	var cmd Command
	for i, tok := range tokens {
		switch {
		case tok == "burn":
			if cmd.Verb != "" {
				return Command{}, fmt.Errorf("command has more than one verb")
			}
			accel, err := parseAccel(tokens, i)
			if err != nil {
				return Command{}, err
			}
			cmd.Verb = VerbBurn
			cmd.Accel = accel

		case tok == "scan" || tok == "agenda":
			if cmd.Verb != "" {
				return Command{}, fmt.Errorf("command has more than one verb")
			}
			cmd.Verb = Verb(tok)

		case timeUnits[tok] != 0:
			if cmd.In != 0 || !cmd.At.IsZero() {
				return Command{}, fmt.Errorf("command has more than one execution time")
			}
			count, err := argBefore(tokens, i)
			if err != nil {
				return Command{}, err
			}
			cmd.In = time.Duration(count * float64(timeUnits[tok]))

		case tok == "at":
			if cmd.In != 0 || !cmd.At.IsZero() {
				return Command{}, fmt.Errorf("command has more than one execution time")
			}
			if i+2 >= len(tokens) {
				return Command{}, fmt.Errorf("'at' expects a date and time, like 'at 2024-05-01 13:30'")
			}
			at, err := time.ParseInLocation(atLayout, tokens[i+1]+" "+tokens[i+2], time.Local)
			if err != nil {
				return Command{}, fmt.Errorf("'at' expects a date and time, like 'at 2024-05-01 13:30': %w", err)
			}
			cmd.At = at
		}
	}

	if cmd.Verb == "" {
		return Command{}, fmt.Errorf("no verb in command; expected burn, scan or agenda")
	}
	if cmd.Verb != VerbBurn && (cmd.In != 0 || !cmd.At.IsZero()) {
		return Command{}, fmt.Errorf("%s takes no execution time", cmd.Verb)
	}
	return cmd, nil
}

// parseAccel reads the three acceleration components following a burn
// keyword.
func parseAccel(tokens []string, i int) (physics.Vector3, error) {
	if i+3 >= len(tokens) {
		return physics.Vector3{}, fmt.Errorf("burn expects three acceleration components, like 'burn 10 0 0'")
	}
	var parts [3]float64
	for n := 0; n < 3; n++ {
		v, err := strconv.ParseFloat(tokens[i+1+n], 64)
		if err != nil {
			return physics.Vector3{}, fmt.Errorf("burn expected a number at position %d but found %q", i+1+n, tokens[i+1+n])
		}
		parts[n] = v
	}
	return physics.Vector3{X: parts[0], Y: parts[1], Z: parts[2]}, nil
}

// argBefore reads the numeric count preceding a time unit, as in
// "2 hours".
func argBefore(tokens []string, i int) (float64, error) {
	if i == 0 {
		return 0, fmt.Errorf("%s expects a count before it, like 'in 2 %s'", tokens[i], tokens[i])
	}
	v, err := strconv.ParseFloat(tokens[i-1], 64)
	if err != nil {
		return 0, fmt.Errorf("%s expected a number before it but found %q", tokens[i], tokens[i-1])
	}
	return v, nil
}
