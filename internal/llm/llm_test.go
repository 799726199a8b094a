package llm

import (
	"encoding/base64"
	"testing"
)

func TestParseDataURL(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(raw)

	mimeType, data, err := ParseDataURL(dataURL)
	if err != nil {
		t.Fatalf("parse data URL: %v", err)
	}
	if mimeType != "image/jpeg" {
		t.Fatalf("expected mime image/jpeg, got %q", mimeType)
	}
	if len(data) != len(raw) {
		t.Fatalf("expected %d bytes, got %d", len(raw), len(data))
	}
	for i := range raw {
		if data[i] != raw[i] {
			t.Fatalf("byte %d differs", i)
		}
	}
}

func TestParseDataURLRejectsPlainURL(t *testing.T) {
	if _, _, err := ParseDataURL("https://example.com/cat.png"); err == nil {
		t.Fatal("expected error for non-data URL")
	}
}

func TestParseDataURLRejectsMissingComma(t *testing.T) {
	if _, _, err := ParseDataURL("data:image/png;base64"); err == nil {
		t.Fatal("expected error for malformed data URL")
	}
}

func TestParseDataURLRejectsBadBase64(t *testing.T) {
	if _, _, err := ParseDataURL("data:image/png;base64,!!!not-base64!!!"); err == nil {
		t.Fatal("expected error for invalid base64 payload")
	}
}
