package usbcore

import "testing"

func TestReformatSerial24Chars(t *testing.T) {
	in := "001122334455667788990011"
	if len(in) != 24 {
		t.Fatalf("test fixture must be 24 chars, got %d", len(in))
	}
	want := "00112233-4455667788990011"
	if got := reformatSerial(in); got != want {
		t.Errorf("reformatSerial(%q) = %q, want %q", in, got, want)
	}
}

func TestReformatSerialNon24CharsUnchanged(t *testing.T) {
	cases := []string{"", "short", "00112233-4455667788990011"}
	for _, s := range cases {
		if got := reformatSerial(s); got != s {
			t.Errorf("reformatSerial(%q) = %q, want unchanged", s, got)
		}
	}
}

func TestDecodeLangID(t *testing.T) {
	data := []byte{4, 3, 0x09, 0x04}
	langID, ok := decodeLangID(data)
	if !ok {
		t.Fatal("expected ok")
	}
	if langID != 0x0409 {
		t.Errorf("langID = %#x, want 0x0409", langID)
	}
}

func TestDecodeLangIDTooShort(t *testing.T) {
	if _, ok := decodeLangID([]byte{1, 2}); ok {
		t.Error("expected not ok for short buffer")
	}
}

func TestDecodeUTF16LEStringASCII(t *testing.T) {
	// "AB" as UTF-16LE string descriptor body, with the 2-byte
	// length/type header prefix.
	data := []byte{6, 0x03, 'A', 0, 'B', 0}
	if got := decodeUTF16LEString(data); got != "AB" {
		t.Errorf("decodeUTF16LEString = %q, want %q", got, "AB")
	}
}

func TestDecodeUTF16LEStringSubstitutesNonASCII(t *testing.T) {
	data := []byte{6, 0x03, 'A', 0, 0x20, 0x20}
	if got := decodeUTF16LEString(data); got != "A?" {
		t.Errorf("decodeUTF16LEString = %q, want %q", got, "A?")
	}
}

func TestDecodeUTF16LEStringStopsAtNUL(t *testing.T) {
	data := []byte{8, 0x03, 'A', 0, 0, 0, 'B', 0}
	if got := decodeUTF16LEString(data); got != "A" {
		t.Errorf("decodeUTF16LEString = %q, want %q", got, "A")
	}
}
