package identity_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmerrifield20/anchorledger/internal/identity"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestTokenIssuer(t *testing.T) *identity.TokenIssuer {
	t.Helper()
	ti, err := identity.NewTokenIssuer([]byte(testSecret), "anchord-test", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return ti
}

func TestNewTokenIssuer_weakSecret(t *testing.T) {
	if _, err := identity.NewTokenIssuer([]byte("short"), "x", 0); !errors.Is(err, identity.ErrWeakSecret) {
		t.Fatalf("want ErrWeakSecret, got %v", err)
	}
}

func TestTokenIssuer_Issue(t *testing.T) {
	ti := newTestTokenIssuer(t)

	token, err := ti.Issue("0xOther")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("expected 3-part JWT, got %d parts", len(parts))
	}

	if _, err := ti.Issue("  "); !errors.Is(err, identity.ErrEmptySubject) {
		t.Errorf("blank subject: want ErrEmptySubject, got %v", err)
	}
}

func TestTokenIssuer_Verify_valid(t *testing.T) {
	ti := newTestTokenIssuer(t)

	token, err := ti.Issue("alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ti.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if claims.Submitter() != "alice@example.com" {
		t.Errorf("Submitter: got %q", claims.Submitter())
	}
	if claims.ID == "" {
		t.Error("token ID (jti) should be set")
	}
}

func TestTokenIssuer_Verify_expired(t *testing.T) {
	ti, _ := identity.NewTokenIssuer([]byte(testSecret), "anchord-test", -time.Minute)

	token, err := ti.Issue("alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ti.Verify(token); err == nil {
		t.Error("expected error for expired token, got nil")
	}
}

func TestTokenIssuer_Verify_tamperedSignature(t *testing.T) {
	ti := newTestTokenIssuer(t)

	token, _ := ti.Issue("alice")
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	mid := len(sig) / 2
	if sig[mid] == 'a' {
		sig[mid] = 'b'
	} else {
		sig[mid] = 'a'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := ti.Verify(tampered); err == nil {
		t.Error("expected error for tampered token, got nil")
	}
}

func TestTokenIssuer_Verify_wrongIssuer(t *testing.T) {
	ti1, _ := identity.NewTokenIssuer([]byte(testSecret), "anchord-a", time.Hour)
	ti2, _ := identity.NewTokenIssuer([]byte(testSecret), "anchord-b", time.Hour)

	token, _ := ti1.Issue("alice")
	if _, err := ti2.Verify(token); err == nil {
		t.Error("expected error for wrong issuer, got nil")
	}
}

func TestTokenIssuer_Verify_wrongSecret(t *testing.T) {
	ti1 := newTestTokenIssuer(t)
	ti2, _ := identity.NewTokenIssuer([]byte("another-secret-of-enough-length"), "anchord-test", time.Hour)

	token, _ := ti1.Issue("alice")
	if _, err := ti2.Verify(token); err == nil {
		t.Error("expected error for token signed with another secret")
	}
}

func TestTokenIssuer_Verify_rejectsNoneAlg(t *testing.T) {
	ti := newTestTokenIssuer(t)
	claims := jwt.RegisteredClaims{
		Issuer:    "anchord-test",
		Subject:   "mallory",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ti.Verify(unsigned); err == nil {
		t.Error("alg=none token accepted")
	}
}
