package csrf

import (
	"strings"
	"testing"
	"time"
)

func newTestGuard() (*Guard, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewGuard([]byte("csrf-secret"))
	g.now = func() time.Time { return now }
	return g, &now
}

func TestGenerateAndValidate_Success(t *testing.T) {
	t.Parallel()

	g, _ := newTestGuard()
	tok := g.Generate("S1")

	if !g.Validate(tok, "S1", time.Hour) {
		t.Fatalf("expected token to validate for its own session")
	}
}

func TestValidate_WrongSession(t *testing.T) {
	t.Parallel()

	g, _ := newTestGuard()
	tok := g.Generate("S1")

	if g.Validate(tok, "S2", time.Hour) {
		t.Fatalf("token for S1 validated against S2")
	}
}

func TestValidate_Expired(t *testing.T) {
	t.Parallel()

	g, now := newTestGuard()
	tok := g.Generate("S1")

	*now = now.Add(time.Hour + time.Second)

	if g.Validate(tok, "S1", time.Hour) {
		t.Fatalf("token validated after max age elapsed")
	}
}

func TestValidate_TamperedSignature(t *testing.T) {
	t.Parallel()

	g, _ := newTestGuard()
	tok := g.Generate("S1")

	// flip one character of the signature portion
	last := tok[len(tok)-1]
	var flipped byte = '0'
	if last == '0' {
		flipped = '1'
	}
	tampered := tok[:len(tok)-1] + string(flipped)

	if g.Validate(tampered, "S1", time.Hour) {
		t.Fatalf("tampered token validated")
	}
}

func TestValidate_MalformedTokens(t *testing.T) {
	t.Parallel()

	g, _ := newTestGuard()

	for _, tok := range []string{
		"",
		"just-one-part",
		"two:parts",
		"a:b:c:d",
		"S1:not-a-number:deadbeef",
	} {
		if g.Validate(tok, "S1", time.Hour) {
			t.Fatalf("malformed token %q validated", tok)
		}
	}
}

func TestGenerate_Shape(t *testing.T) {
	t.Parallel()

	g, _ := newTestGuard()
	tok := g.Generate("S1")

	parts := strings.Split(tok, ":")
	if len(parts) != 3 {
		t.Fatalf("expected three colon-delimited parts, got %d", len(parts))
	}
	if parts[0] != "S1" {
		t.Fatalf("expected session id prefix, got %q", parts[0])
	}
	if len(parts[2]) != 64 {
		t.Fatalf("expected hex sha256 signature, got length %d", len(parts[2]))
	}
}

func TestValidate_DistinctSecretsDisagree(t *testing.T) {
	t.Parallel()

	g1, _ := newTestGuard()
	g2 := NewGuard([]byte("other-secret"))

	tok := g1.Generate("S1")
	if g2.Validate(tok, "S1", time.Hour) {
		t.Fatalf("token validated under a different secret")
	}
}
