package currency

import (
	"fmt"
	"math"
	"strings"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// zero-decimal currencies are shown without a fractional part
var zeroDecimal = map[string]bool{
	"IDR": true,
	"JPY": true,
	"KRW": true,
}

// Format renders an amount for display, e.g. "$1,234.50" or "IDR 1.250.000".
func Format(amount float64, code string) string {
	code = strings.ToUpper(code)
	if code == "IDR" {
		return FormatIDR(amount)
	}

	negative := amount < 0
	if negative {
		amount = -amount
	}

	var body string
	if zeroDecimal[code] {
		body = addThousandsSeparator(fmt.Sprintf("%.0f", math.Round(amount)), ",")
	} else {
		cents := math.Round(amount * 100)
		whole := math.Floor(cents / 100)
		frac := int(cents - whole*100)
		body = fmt.Sprintf("%s.%02d", addThousandsSeparator(fmt.Sprintf("%.0f", whole), ","), frac)
	}

	prefix := code + " "
	if sym, ok := symbols[code]; ok {
		prefix = sym
	}

	result := prefix + body
	if negative {
		result = "-" + result
	}
	return result
}

func FormatIDR(amount float64) string {
	rounded := math.Round(amount)

	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	intStr := fmt.Sprintf("%.0f", rounded)
	formatted := addThousandsSeparator(intStr, ".")

	result := "IDR " + formatted
	if negative {
		result = "-" + result
	}

	return result
}

func addThousandsSeparator(s string, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	numSeps := (n - 1) / 3
	result := make([]byte, n+numSeps)

	j := len(result) - 1
	for i := n - 1; i >= 0; i-- {
		result[j] = s[i]
		j--

		pos := n - i
		if pos%3 == 0 && i > 0 {
			result[j] = sep[0]
			j--
		}
	}

	return string(result)
}
