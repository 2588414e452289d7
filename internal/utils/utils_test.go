package utils

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"iPhone 15 Pro Max":      "iphone-15-pro-max",
		"  Très bon état  ":      "tres-bon-etat",
		"Galaxy S24 Ultra (256)": "galaxy-s24-ultra-256",
		"ÉCRAN---OLED":           "ecran-oled",
		"!!!":                    "",
		"Sony WH-1000XM5":        "sony-wh-1000xm5",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestListingSlug(t *testing.T) {
	re := regexp.MustCompile(`^macbook-air-m2-[0-9a-z]{5}$`)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		s := ListingSlug("MacBook Air M2")
		if !re.MatchString(s) {
			t.Fatalf("unexpected slug %q", s)
		}
		seen[s] = true
	}
	if len(seen) < 2 {
		t.Error("suffix does not look random")
	}
	if s := ListingSlug("???"); !strings.HasPrefix(s, "annonce-") {
		t.Errorf("empty title slug = %q", s)
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "admin", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseAccessToken("secret", tok.Token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 42 || claims.Role != "admin" || claims.JTI != tok.JTI {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.Exp.Unix() != tok.Exp.Unix() {
		t.Errorf("exp = %v, want %v", claims.Exp, tok.Exp)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, _ := NewAccessToken("secret", 7, "user", time.Hour)
	expired, _ := NewAccessToken("secret", 7, "user", -time.Minute)
	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "7", "exp": time.Now().Add(time.Hour).Unix()})
	noneRaw, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	noSubRaw, _ := noSub.SignedString([]byte("secret"))

	cases := map[string]struct{ secret, raw string }{
		"wrong secret": {"other", good.Token},
		"expired":      {"secret", expired.Token},
		"alg none":     {"secret", noneRaw},
		"missing sub":  {"secret", noSubRaw},
		"garbage":      {"secret", "not.a.jwt"},
	}
	for name, c := range cases {
		if _, err := ParseAccessToken(c.secret, c.raw); err != ErrInvalidToken {
			t.Errorf("%s: err = %v, want ErrInvalidToken", name, err)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Passw0rd", 4)
	if err != nil {
		t.Fatal(err)
	}
	if hash == "Passw0rd" {
		t.Fatal("password stored in plaintext")
	}
	if !VerifyPassword(hash, "Passw0rd") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "passw0rd") {
		t.Error("wrong password accepted")
	}
}
