// Command fincalc is a terminal front end to the amount calculator.
//
// With arguments it evaluates them as one expression and prints the result.
// Without arguments it reads keypad input line by line: named keys (AC, C,
// DEL, +/-, =) are whitespace separated tokens, anything else is pressed one
// character at a time.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"fintrack/internal/calc"
)

var (
	displayColor = color.New(color.FgCyan, color.Bold)
	amountColor  = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
)

func main() {
	color.NoColor = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())

	if len(os.Args) > 1 {
		os.Exit(evaluateOnce(os.Stdout, os.Stderr, strings.Join(os.Args[1:], " ")))
	}
	if err := repl(os.Stdin, os.Stdout); err != nil {
		errorColor.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func evaluateOnce(stdout, stderr io.Writer, expr string) int {
	v, err := calc.Evaluate(expr)
	if err != nil {
		errorColor.Fprintln(stderr, err)
		return 1
	}
	amountColor.Fprintln(stdout, formatResult(v))
	return 0
}

func repl(in io.Reader, out io.Writer) error {
	c := calc.NewCalculator(func(v float64) {
		amountColor.Fprintf(out, "amount %s\n", formatResult(v))
	})
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd())
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "exit" {
			return nil
		}
		display := press(c, out, keys(line))
		displayColor.Fprintln(out, display)
	}
}

// press feeds keys to c and returns the final display. The first error
// stops the line.
func press(c *calc.Calculator, out io.Writer, keys []string) string {
	for _, k := range keys {
		if _, err := c.Press(k); err != nil {
			errorColor.Fprintln(out, err)
			break
		}
	}
	return c.Display()
}

var namedKeys = map[string]bool{
	calc.KeyAllClear:   true,
	calc.KeyClear:      true,
	calc.KeyDelete:     true,
	calc.KeyToggleSign: true,
	calc.KeyEquals:     true,
}

// keys splits a line into keypad presses.
func keys(line string) []string {
	var out []string
	for _, field := range strings.Fields(line) {
		if namedKeys[strings.ToUpper(field)] {
			out = append(out, strings.ToUpper(field))
			continue
		}
		for _, r := range field {
			out = append(out, string(r))
		}
	}
	return out
}

func formatResult(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
