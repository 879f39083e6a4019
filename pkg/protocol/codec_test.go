package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestEncoderDecoderRoundTrip(t *testing.T) {
	enc := NewEncoder()
	enc.WriteByte(0x07)
	enc.WriteSByte(-1)
	enc.WriteShort(-12345)
	enc.WriteInt(123456789)
	enc.WriteString("Notch", 64)
	enc.WriteFixedBytes([]byte{0xde, 0xad}, 4)

	dec := NewDecoder(enc.Bytes())

	b, err := dec.ReadByte()
	if err != nil || b != 0x07 {
		t.Errorf("ReadByte() = %v, %v, want 0x07", b, err)
	}
	sb, err := dec.ReadSByte()
	if err != nil || sb != -1 {
		t.Errorf("ReadSByte() = %v, %v, want -1", sb, err)
	}
	s, err := dec.ReadShort()
	if err != nil || s != -12345 {
		t.Errorf("ReadShort() = %v, %v, want -12345", s, err)
	}
	i, err := dec.ReadInt()
	if err != nil || i != 123456789 {
		t.Errorf("ReadInt() = %v, %v, want 123456789", i, err)
	}
	str, err := dec.ReadString(64)
	if err != nil || str != "Notch" {
		t.Errorf("ReadString() = %q, %v, want Notch", str, err)
	}
	raw, err := dec.ReadBytes(4)
	if err != nil || !bytes.Equal(raw, []byte{0xde, 0xad, 0x00, 0x00}) {
		t.Errorf("ReadBytes() = %v, %v, want [de ad 00 00]", raw, err)
	}
	if !dec.EOF() {
		t.Errorf("Remaining() = %d, want 0", dec.Remaining())
	}
}

func TestShortIsBigEndian(t *testing.T) {
	enc := NewEncoder()
	enc.WriteShort(0x0102)
	if !bytes.Equal(enc.Bytes(), []byte{0x01, 0x02}) {
		t.Errorf("WriteShort(0x0102) = %v, want [01 02]", enc.Bytes())
	}

	enc.Reset()
	enc.WriteInt(0x01020304)
	if !bytes.Equal(enc.Bytes(), []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Errorf("WriteInt(0x01020304) = %v, want [01 02 03 04]", enc.Bytes())
	}
}

func TestDecoderShortBuffer(t *testing.T) {
	dec := NewDecoder([]byte{0x01})
	if _, err := dec.ReadShort(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadShort() error = %v, want unexpected EOF", err)
	}
	if _, err := dec.ReadInt(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadInt() error = %v, want unexpected EOF", err)
	}
	if _, err := dec.ReadString(64); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadString() error = %v, want unexpected EOF", err)
	}

	// The one remaining byte is still readable.
	if b, err := dec.ReadByte(); err != nil || b != 0x01 {
		t.Errorf("ReadByte() = %v, %v, want 0x01", b, err)
	}
}

func TestPackString(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  []byte
	}{
		{
			name:  "pads_with_spaces",
			in:    "hi",
			width: 4,
			want:  []byte{'h', 'i', ' ', ' '},
		},
		{
			name:  "exact_width",
			in:    "abcd",
			width: 4,
			want:  []byte{'a', 'b', 'c', 'd'},
		},
		{
			name:  "truncates",
			in:    "abcdef",
			width: 4,
			want:  []byte{'a', 'b', 'c', 'd'},
		},
		{
			name:  "empty",
			in:    "",
			width: 2,
			want:  []byte{' ', ' '},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := PackString(tc.in, tc.width)
			if !bytes.Equal(got, tc.want) {
				t.Errorf("PackString(%q, %d) = %v, want %v", tc.in, tc.width, got, tc.want)
			}
		})
	}
}

func TestUnpackString(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{
			name: "strips_space_padding",
			in:   []byte("hi  "),
			want: "hi",
		},
		{
			name: "strips_nul_padding",
			in:   []byte{'h', 'i', 0x00, 0x00},
			want: "hi",
		},
		{
			name: "ignores_non_ascii",
			in:   []byte{'h', 0xff, 'i', 0xc3},
			want: "hi",
		},
		{
			name: "keeps_interior_control_bytes",
			in:   []byte{'h', 0x01, 'i', ' '},
			want: "h\x01i",
		},
		{
			name: "strips_leading_spaces",
			in:   []byte("  hi"),
			want: "hi",
		},
		{
			name: "interior_spaces_survive",
			in:   []byte(" a b "),
			want: "a b",
		},
		{
			name: "empty",
			in:   []byte{' ', ' ', 0x00},
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := UnpackString(tc.in); got != tc.want {
				t.Errorf("UnpackString(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	for _, s := range []string{"", "x", "Notch", "hello world", "sixty-four-characters-is-quite-a-lot-of-room-for-a-chat-message"} {
		got := UnpackString(PackString(s, 64))
		if got != s {
			t.Errorf("round trip of %q = %q", s, got)
		}
	}
}

// FuzzUnpackString checks that arbitrary wire bytes never produce padding
// or non-ASCII bytes in the decoded string.
func FuzzUnpackString(f *testing.F) {
	f.Add([]byte("hello   "))
	f.Add([]byte{0x00, 0xff, 'a', ' '})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		s := UnpackString(data)
		if len(s) > len(data) {
			t.Fatalf("decoded string longer than input: %d > %d", len(s), len(data))
		}
		if len(s) > 0 && (s[0] == ' ' || s[len(s)-1] == ' ' || s[0] == 0x00 || s[len(s)-1] == 0x00) {
			t.Fatalf("padding survived: %q", s)
		}
		for i := 0; i < len(s); i++ {
			if s[i] > 0x7f {
				t.Fatalf("non-ASCII byte 0x%02x in %q", s[i], s)
			}
		}
	})
}
