package wizard

import "strings"

// FormatCardNumber groups the card digits in fours: "4111111111111111"
// becomes "4111 1111 1111 1111".
func FormatCardNumber(v string) string {
	raw := stripSpaces(v)
	var b strings.Builder
	n := 0
	for _, r := range raw {
		if n > 0 && n%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

// FormatExpiry keeps digits only and inserts the slash: "1229" becomes
// "12/29". Extra digits are dropped.
func FormatExpiry(v string) string {
	d := digitsOnly(v)
	if len(d) < 2 {
		return d
	}
	if len(d) > 4 {
		d = d[:4]
	}
	return d[:2] + "/" + d[2:]
}

// FormatCVC keeps digits only
func FormatCVC(v string) string {
	return digitsOnly(v)
}

func digitsOnly(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
