package base62

import (
	"math/rand"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := []int64{0, 1, 61, 62, 63, 12345, 1_000_000_000, 999_999_999_999}
	for _, n := range cases {
		enc := Encode(n)
		dec, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode(%q) returned error: %v", enc, err)
		}
		if dec != n {
			t.Fatalf("round trip mismatch: n=%d encoded=%q decoded=%d", n, enc, dec)
		}
	}
}

func TestRoundTripRandom(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		n := r.Int63n(1_000_000_000_000_000_000)
		if Decode2(t, n) != n {
			t.Fatalf("round trip mismatch for %d", n)
		}
	}
}

func Decode2(t *testing.T, n int64) int64 {
	t.Helper()
	dec, err := Decode(Encode(n))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	return dec
}

func TestEncodeZero(t *testing.T) {
	if got := Encode(0); got != "a" {
		t.Fatalf("Encode(0) = %q, want %q", got, "a")
	}
}

func TestEncodeMinLen(t *testing.T) {
	enc := EncodeMinLen(63, 10)
	if len(enc) < 10 {
		t.Fatalf("EncodeMinLen returned length %d, want >= 10", len(enc))
	}
	plain := Encode(63)
	if enc[len(enc)-len(plain):] != plain {
		t.Fatalf("EncodeMinLen(63, 10) = %q does not end with Encode(63) = %q", enc, plain)
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode("abc!def"); err == nil {
		t.Fatal("expected error for invalid character")
	}
	if _, err := Decode(""); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("abcXYZ012") {
		t.Fatal("expected valid alphanumeric string to be valid")
	}
	if IsValid("abc-def") {
		t.Fatal("expected hyphenated string to be invalid for base62")
	}
	if IsValid("") {
		t.Fatal("expected empty string to be invalid")
	}
}
