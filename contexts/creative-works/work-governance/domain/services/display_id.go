package services

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const fallbackInitial = "W"

// DisplayID builds the human-readable work label: the uppercased initial of
// every title word with diacritics folded, followed by the creation time in
// Unix milliseconds. "Été à Paris" at 1700000000000 gives "EAP1700000000000".
func DisplayID(title string, createdAt time.Time) string {
	return TitleAcronym(title) + strconv.FormatInt(createdAt.UnixMilli(), 10)
}

func TitleAcronym(title string) string {
	folded := foldDiacritics(title)
	var b strings.Builder
	for _, word := range strings.Fields(folded) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
	}
	if b.Len() == 0 {
		return fallbackInitial
	}
	return b.String()
}

func foldDiacritics(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}
