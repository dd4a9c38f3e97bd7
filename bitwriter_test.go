package jpegli

import (
	"bytes"
	"testing"
)

func TestBitWriterByteStuffing(t *testing.T) {
	w := newBitWriter()
	w.WriteBits(0xFF, 8)
	w.WriteBits(0xA5, 8)
	got := w.Bytes()
	want := []byte{0xFF, 0x00, 0xA5}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestBitWriterStuffsFinalPaddedByte(t *testing.T) {
	w := newBitWriter()
	// Seven 1-bits; padding with ones completes a 0xFF byte that still
	// needs a stuff byte.
	w.WriteBits(0x7F, 7)
	w.Pad()
	got := w.Bytes()
	want := []byte{0xFF, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestBitWriterPad(t *testing.T) {
	tests := []struct {
		name string
		bits uint32
		n    uint
		want []byte
	}{
		{"empty", 0, 0, nil},
		{"three bits", 0b101, 3, []byte{0xBF}},
		{"aligned", 0xA5, 8, []byte{0xA5}},
		{"nine bits", 0x1A5, 9, []byte{0xD2, 0xFF, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newBitWriter()
			w.WriteBits(tt.bits, tt.n)
			w.Pad()
			if !bytes.Equal(w.Bytes(), tt.want) {
				t.Errorf("got % X, want % X", w.Bytes(), tt.want)
			}
		})
	}
}

func TestBitWriterMSBFirst(t *testing.T) {
	w := newBitWriter()
	w.WriteBits(1, 1)
	w.WriteBits(0, 1)
	w.WriteBits(1, 2)
	w.WriteBits(0xF, 4)
	got := w.Bytes()
	// 1 0 01 1111 -> 0x9F
	if len(got) != 1 || got[0] != 0x9F {
		t.Errorf("got % X, want 9F", got)
	}
}

func TestBitWriterRawBytesNotStuffed(t *testing.T) {
	w := newBitWriter()
	w.WriteBits(0xFF, 8)
	w.Pad()
	w.WriteRawBytes(0xFF, 0xD3)
	got := w.Bytes()
	want := []byte{0xFF, 0x00, 0xFF, 0xD3}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestBitWriterReset(t *testing.T) {
	w := newBitWriter()
	w.WriteBits(0xABCD, 16)
	w.Reset()
	w.WriteBits(0x12, 8)
	if !bytes.Equal(w.Bytes(), []byte{0x12}) {
		t.Errorf("got % X after reset", w.Bytes())
	}
}
