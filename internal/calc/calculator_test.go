package calc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(t *testing.T, c *Calculator, keys ...string) string {
	t.Helper()
	var display string
	for _, k := range keys {
		var err error
		display, err = c.Press(k)
		require.NoError(t, err, "key %q", k)
	}
	return display
}

func TestCalculatorTyping(t *testing.T) {
	c := NewCalculator(nil)
	assert.Equal(t, "0", c.Display())

	assert.Equal(t, "7", press(t, c, "7"))
	assert.Equal(t, "7+2*3", press(t, c, "+", "2", "*", "3"))

	c.Reset()
	assert.Equal(t, "0.5", press(t, c, ".", "5"))
}

func TestCalculatorEqualsUpdatesAmount(t *testing.T) {
	var amounts []float64
	c := NewCalculator(func(v float64) { amounts = append(amounts, v) })

	display := press(t, c, "1", "2", ".", "5", "+", "7", ".", "5", "=")
	assert.Equal(t, "20", display)
	assert.Equal(t, []float64{20}, amounts)

	// Typing continues from the result.
	assert.Equal(t, "20/4", press(t, c, "/", "4"))
	assert.Equal(t, "5", press(t, c, "="))
	assert.Equal(t, []float64{20, 5}, amounts)
}

func TestCalculatorErrorKeepsAmount(t *testing.T) {
	calls := 0
	c := NewCalculator(func(float64) { calls++ })

	press(t, c, "5", "/", "0")
	display, err := c.Press(KeyEquals)
	require.ErrorIs(t, err, ErrDivisionByZero)
	assert.Equal(t, ErrorDisplay, display)
	assert.True(t, c.Failed())
	assert.Zero(t, calls)

	display, err = c.Press(KeyEquals)
	require.ErrorIs(t, err, ErrInvalidExpression)
	assert.Equal(t, ErrorDisplay, display)

	// Any input key starts over.
	assert.Equal(t, "3", press(t, c, "3"))
	assert.False(t, c.Failed())
}

func TestCalculatorMalformed(t *testing.T) {
	c := NewCalculator(nil)
	press(t, c, "2", "+", "*", "3")
	_, err := c.Press(KeyEquals)
	require.ErrorIs(t, err, ErrInvalidExpression)
	assert.Equal(t, ErrorDisplay, c.Display())
}

func TestCalculatorClear(t *testing.T) {
	for _, key := range []string{KeyClear, KeyAllClear} {
		c := NewCalculator(nil)
		press(t, c, "9", "9")
		assert.Equal(t, "0", press(t, c, key))
	}
}

func TestCalculatorToggleSign(t *testing.T) {
	var got float64
	c := NewCalculator(func(v float64) { got = v })

	assert.Equal(t, "-2+3", press(t, c, "2", "+", "3", KeyToggleSign))
	assert.Equal(t, "1", press(t, c, KeyEquals))
	assert.Equal(t, 1.0, got)

	assert.Equal(t, "-1", press(t, c, KeyToggleSign))
	assert.Equal(t, "1", press(t, c, KeyToggleSign))

	c.Reset()
	assert.Equal(t, "-6", press(t, c, "2", "*", "3", KeyToggleSign, KeyEquals))
	assert.Equal(t, -6.0, got)
}

func TestCalculatorContinueAfterNegativeResult(t *testing.T) {
	var amounts []float64
	c := NewCalculator(func(v float64) { amounts = append(amounts, v) })

	assert.Equal(t, "-2", press(t, c, "3", "-", "5", KeyEquals))
	assert.Equal(t, "-2+3", press(t, c, "+", "3"))
	assert.Equal(t, "1", press(t, c, KeyEquals))
	assert.Equal(t, []float64{-2, 1}, amounts)

	assert.Equal(t, "-3", press(t, c, "-", "4", KeyEquals))
	assert.Equal(t, "-3*2", press(t, c, "*", "2"))
	assert.Equal(t, "-6", press(t, c, KeyEquals))
	assert.Equal(t, []float64{-2, 1, -3, -6}, amounts)
}

func TestCalculatorPercent(t *testing.T) {
	c := NewCalculator(nil)
	assert.Equal(t, "0.5", press(t, c, "5", "0", KeyPercent))

	c.Reset()
	press(t, c, "5", "+", "1")
	display, err := c.Press(KeyPercent)
	require.ErrorIs(t, err, ErrInvalidExpression)
	assert.Equal(t, ErrorDisplay, display)
}

func TestCalculatorDelete(t *testing.T) {
	c := NewCalculator(nil)
	assert.Equal(t, "1", press(t, c, "1", "2", KeyDelete))
	assert.Equal(t, "0", press(t, c, KeyDelete))
	assert.Equal(t, "0", press(t, c, KeyDelete))

	assert.Equal(t, "0", press(t, c, "4", KeyToggleSign, KeyDelete))
}

func TestCalculatorUnknownKey(t *testing.T) {
	c := NewCalculator(nil)
	press(t, c, "8")
	display, err := c.Press("sqrt")
	require.ErrorIs(t, err, ErrUnknownKey)
	assert.Equal(t, "8", display)
}

func TestSessions(t *testing.T) {
	s := NewSessions(10, time.Minute)

	for _, k := range []string{"4", "*", "2"} {
		_, err := s.Press("a", k)
		require.NoError(t, err)
	}
	res, err := s.Press("b", "9")
	require.NoError(t, err)
	assert.Equal(t, "9", res.Display)
	assert.Nil(t, res.Amount)

	res, err = s.Press("a", KeyEquals)
	require.NoError(t, err)
	assert.Equal(t, "8", res.Display)
	require.NotNil(t, res.Amount)
	assert.Equal(t, 8.0, *res.Amount)

	res, err = s.Press("a", "1")
	require.NoError(t, err)
	assert.Nil(t, res.Amount)

	s.Drop("a")
	res, err = s.Press("a", "3")
	require.NoError(t, err)
	assert.Equal(t, "3", res.Display)
}
