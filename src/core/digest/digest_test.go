package digest_test

import (
	"testing"

	"accmeta/src/core/digest"
)

func TestTextDeterministic(t *testing.T) {
	sql := "SELECT * FROM Customers WHERE Region = 'West';"

	first := digest.Text(sql)
	second := digest.Text(sql)

	if first != second {
		t.Errorf("Text() not deterministic: %s != %s", first, second)
	}
}

func TestTextDistinctInputs(t *testing.T) {
	a := digest.Text("SELECT 1;")
	b := digest.Text("SELECT 2;")

	if a == b {
		t.Errorf("Text() returned the same digest for different inputs: %s", a)
	}
}

func TestTextKnownVector(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty string",
			in:   "",
			want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name: "abc",
			in:   "abc",
			want: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := digest.Text(tt.in)
			if got != tt.want {
				t.Errorf("Text(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestBytesMatchesText(t *testing.T) {
	if digest.Bytes([]byte("Option Explicit")) != digest.Text("Option Explicit") {
		t.Error("Bytes() and Text() disagree on the same content")
	}
}
