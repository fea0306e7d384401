package xid

import (
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Cafe Latte":       "cafe-latte",
		"  Iced  Mocha  ":  "iced-mocha",
		"COF-AME":          "cof-ame",
		"Ube & Cheese!":    "ube-cheese",
		"Americano":        "americano",
		"---":              "",
		"Matcha (Grade A)": "matcha-grade-a",
	}
	for input, want := range cases {
		if got := Slug(input); got != want {
			t.Fatalf("Slug(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNewCarriesPrefix(t *testing.T) {
	id := New("TXN")
	if !strings.HasPrefix(id, "TXN-") {
		t.Fatalf("id: %s", id)
	}
	if id == New("TXN") {
		t.Fatalf("ids must differ between calls")
	}
}

func TestVoidToken(t *testing.T) {
	token := VoidToken()
	if !strings.HasPrefix(token, "VOID-") {
		t.Fatalf("token: %s", token)
	}
	if rest := strings.TrimPrefix(token, "VOID-"); rest != strings.ToUpper(rest) {
		t.Fatalf("suffix not uppercase: %s", token)
	}
}
