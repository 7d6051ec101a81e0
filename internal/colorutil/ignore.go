package colorutil

import "strings"

// Background shades of the dashboard panels. Pixels of these exact colors
// never count towards a sample.
var ignored = map[RGB]struct{}{
	{R: 0, G: 0, B: 0}:       {},
	{R: 255, G: 255, B: 255}: {},
	{R: 17, G: 18, B: 23}:    {}, // dark canvas
	{R: 24, G: 27, B: 31}:    {}, // dark panel
	{R: 34, G: 37, B: 43}:    {}, // dark panel border
	{R: 32, G: 34, B: 38}:    {},
	{R: 247, G: 248, B: 250}: {}, // light canvas
}

// ShouldIgnore reports whether c is one of the known background shades.
func ShouldIgnore(c RGB) bool {
	_, ok := ignored[c]
	return ok
}

// ShouldIgnoreCSS is ShouldIgnore for CSS color strings; it also covers the
// "transparent" keyword and fully transparent rgba values.
func ShouldIgnoreCSS(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "transparent" {
		return true
	}
	if strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")") {
		parts := strings.Split(s[5:len(s)-1], ",")
		if len(parts) == 4 {
			if a := strings.TrimSpace(parts[3]); a == "0" || a == "0.0" {
				return true
			}
		}
	}
	c, err := Parse(s)
	if err != nil {
		return false
	}
	return ShouldIgnore(c)
}
