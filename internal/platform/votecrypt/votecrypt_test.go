package votecrypt

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := New(bytes.Repeat([]byte{0x42}, KeySize))
	if err != nil {
		t.Fatalf("new codec failed: %v", err)
	}
	return codec
}

func TestRoundTrip(t *testing.T) {
	codec := testCodec(t)
	token, err := codec.Encrypt("candidate:77", "election-1")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	plaintext, err := codec.Decrypt(token, "election-1")
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if plaintext != "candidate:77" {
		t.Fatalf("round trip mismatch: got %q", plaintext)
	}
}

func TestAssociatedDataBinding(t *testing.T) {
	codec := testCodec(t)
	token, err := codec.Encrypt("candidate:77", "election-1")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if _, err := codec.Decrypt(token, "election-2"); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity for foreign election id, got %v", err)
	}
}

func TestNonceFreshness(t *testing.T) {
	codec := testCodec(t)
	first, err := codec.Encrypt("candidate:77", "election-1")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	second, err := codec.Encrypt("candidate:77", "election-1")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if first == second {
		t.Fatal("two encryptions of the same plaintext produced identical tokens")
	}
}

func TestDecryptRejectsMalformedTokens(t *testing.T) {
	codec := testCodec(t)
	if _, err := codec.Decrypt("not-hex!", "election-1"); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for non-hex token, got %v", err)
	}
	short := hex.EncodeToString([]byte{0x01, 0x02, 0x03})
	if _, err := codec.Decrypt(short, "election-1"); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for short token, got %v", err)
	}
}

func TestDecryptRejectsTamperedToken(t *testing.T) {
	codec := testCodec(t)
	token, err := codec.Encrypt("candidate:77", "election-1")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	last := token[len(token)-1]
	replacement := "0"
	if strings.HasSuffix(token, "0") {
		replacement = "1"
	}
	tampered := token[:len(token)-1] + replacement
	if tampered == token {
		t.Fatalf("failed to flip token suffix %q", string(last))
	}
	if _, err := codec.Decrypt(tampered, "election-1"); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity for tampered token, got %v", err)
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	codec := testCodec(t)
	other, err := New(bytes.Repeat([]byte{0x24}, KeySize))
	if err != nil {
		t.Fatalf("new codec failed: %v", err)
	}
	token, err := codec.Encrypt("candidate:77", "election-1")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if _, err := other.Decrypt(token, "election-1"); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity under wrong key, got %v", err)
	}
}

func TestNewRejectsBadKeyLength(t *testing.T) {
	if _, err := New([]byte("short")); err == nil {
		t.Fatal("expected error for short key")
	}
}
