package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const slugAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Slugify lowercases s, folds accents ("Très bon état" -> "tres-bon-etat")
// and joins the remaining alphanumeric runs with single dashes.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return b.String()
}

// RandomSuffix returns n random base-36 characters.
func RandomSuffix(n int) string {
	max := big.NewInt(int64(len(slugAlphabet)))
	out := make([]byte, n)
	for i := range out {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			out[i] = slugAlphabet[i%len(slugAlphabet)]
			continue
		}
		out[i] = slugAlphabet[v.Int64()]
	}
	return string(out)
}

// ListingSlug derives a listing slug from its title plus a random suffix.
func ListingSlug(title string) string {
	base := Slugify(title)
	if base == "" {
		base = "annonce"
	}
	return base + "-" + RandomSuffix(5)
}
