package coinutil

import "testing"

const units = 1_000_000 // test coin with 6 decimal places

func TestParseCoin(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"0.3", 300_000},
		{"1", 1_000_000},
		{"0.000001", 1},
		{"12.5", 12_500_000},
		{"0", 0},
	}
	for _, c := range cases {
		got, err := ParseCoin(c.in, units)
		if err != nil {
			t.Fatalf("ParseCoin(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseCoin(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseCoinRejectsBadInput(t *testing.T) {
	if _, err := ParseCoin("abc", units); err == nil {
		t.Fatal("expected error for non-numeric input")
	}
	if _, err := ParseCoin("-1", units); err == nil {
		t.Fatal("expected error for negative input")
	}
}

func TestFormatRoundTrip(t *testing.T) {
	if got := Format(300_000, units); got != "0.3" {
		t.Fatalf("Format = %q, want %q", got, "0.3")
	}
	if got := FromCoin(ToCoin(1_234_567, units), units); got != 1_234_567 {
		t.Fatalf("round trip = %d, want 1234567", got)
	}
}
