package password

import (
	"strings"
	"testing"
)

func testParams() Params {
	// Low-cost params keep the test suite fast; shape is identical to prod.
	return Params{
		MemoryKiB:   8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashAndVerify_OK(t *testing.T) {
	p := testParams()

	h, err := p.Hash("korrektes pferd batterie klammer")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(h, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash format: %q", h)
	}

	ok, err := p.Verify(h, "korrektes pferd batterie klammer")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatalf("expected match")
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	p := testParams()

	h, err := p.Hash("korrektes pferd batterie klammer")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := p.Verify(h, "wrong password")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatch")
	}
}

func TestVerify_InvalidHash(t *testing.T) {
	p := testParams()

	for _, h := range []string{"", "not-a-hash", "$argon2i$v=19$m=8,t=1,p=1$c2FsdA$aGFzaA"} {
		ok, err := p.Verify(h, "whatever")
		if err != ErrInvalidHash {
			t.Fatalf("Verify(%q): err = %v, want ErrInvalidHash", h, err)
		}
		if ok {
			t.Fatalf("Verify(%q): expected false", h)
		}
	}
}

func TestVerify_RejectsOversizedParams(t *testing.T) {
	p := testParams()

	// A hash claiming far more memory than our limits allow must be refused
	// before any argon2 work happens.
	hostile := "$argon2id$v=19$m=1048576,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g"
	ok, err := p.Verify(hostile, "whatever")
	if err != ErrInvalidHash {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
	if ok {
		t.Fatalf("expected false")
	}
}

func TestHashesAreSalted(t *testing.T) {
	p := testParams()

	h1, err := p.Hash("same password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	h2, err := p.Hash("same password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("two hashes of the same password must differ (random salt)")
	}
}
