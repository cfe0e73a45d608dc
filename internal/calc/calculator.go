package calc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Keypad keys besides digits, ".", operators and parentheses.
const (
	KeyAllClear   = "AC"
	KeyClear      = "C"
	KeyToggleSign = "+/-"
	KeyPercent    = "%"
	KeyEquals     = "="
	KeyDelete     = "DEL"
)

// ErrorDisplay is shown after a failed evaluation.
const ErrorDisplay = "Error"

// ErrUnknownKey is returned by Press for keys that are not on the keypad.
var ErrUnknownKey = errors.New("unknown key")

// AmountFunc receives the value of a successful "=".
type AmountFunc func(float64)

// Calculator is the keypad state machine behind the amount field. The
// display string is the expression being typed. A Calculator is not safe
// for concurrent use.
type Calculator struct {
	display  string
	failed   bool
	onAmount AmountFunc
}

// NewCalculator returns a calculator showing "0". onAmount may be nil.
func NewCalculator(onAmount AmountFunc) *Calculator {
	return &Calculator{display: "0", onAmount: onAmount}
}

// Display returns the current display text.
func (c *Calculator) Display() string {
	if c.failed {
		return ErrorDisplay
	}
	return c.display
}

// Failed reports whether the last evaluation failed.
func (c *Calculator) Failed() bool { return c.failed }

// Reset clears the display back to "0".
func (c *Calculator) Reset() {
	c.display = "0"
	c.failed = false
}

// Press applies one key and returns the new display. Evaluation errors put
// the calculator in the error state, show ErrorDisplay and are returned to
// the caller; the amount callback only runs on success.
func (c *Calculator) Press(key string) (string, error) {
	switch key {
	case KeyAllClear, KeyClear:
		c.Reset()
		return c.Display(), nil
	case KeyEquals:
		if c.failed {
			return c.Display(), fmt.Errorf("evaluate %q: %w", ErrorDisplay, ErrInvalidExpression)
		}
		_, err := c.Equals()
		return c.Display(), err
	}

	if !isInputKey(key) && key != KeyToggleSign && key != KeyPercent && key != KeyDelete {
		return c.Display(), fmt.Errorf("press %q: %w", key, ErrUnknownKey)
	}

	if c.failed {
		c.Reset()
	}

	switch key {
	case KeyToggleSign:
		c.toggleSign()
	case KeyPercent:
		if err := c.percent(); err != nil {
			return c.Display(), err
		}
	case KeyDelete:
		c.deleteLast()
	default:
		if c.display == "0" && key != "." {
			c.display = key
		} else {
			c.display += key
		}
	}
	return c.Display(), nil
}

// Equals evaluates the display. A leading "-", from the sign toggle or
// from a negative result, is read as a subtraction from zero, so the
// display always means what it shows.
func (c *Calculator) Equals() (float64, error) {
	src := c.display
	if strings.HasPrefix(src, "-") {
		src = "0" + src
	}
	v, err := Evaluate(src)
	if err != nil {
		c.failed = true
		return 0, fmt.Errorf("evaluate %q: %w", c.display, err)
	}
	if v == 0 {
		v = 0 // drop negative zero
	}
	c.display = formatValue(v)
	if c.onAmount != nil {
		c.onAmount(v)
	}
	return v, nil
}

func (c *Calculator) toggleSign() {
	if rest, ok := strings.CutPrefix(c.display, "-"); ok {
		c.display = rest
		return
	}
	c.display = "-" + c.display
}

// percent divides a plain numeric display by 100.
func (c *Calculator) percent() error {
	v, err := strconv.ParseFloat(c.display, 64)
	if err != nil {
		c.failed = true
		return fmt.Errorf("percent of %q: %w", c.display, ErrInvalidExpression)
	}
	c.display = formatValue(v / 100)
	return nil
}

func (c *Calculator) deleteLast() {
	c.display = c.display[:len(c.display)-1]
	if c.display == "" || c.display == "-" {
		c.display = "0"
	}
}

func isInputKey(key string) bool {
	if len(key) != 1 {
		return false
	}
	k := key[0]
	return isDigit(k) || k == '.' || isOperator(k) || k == '(' || k == ')'
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
