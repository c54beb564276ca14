package util

import "testing"

func TestLastDigit(t *testing.T) {
    cases := []struct {
        price float64
        want  int
    }{
        {7678.08, 8},
        {6558.77, 7},
        {100.5, 5},
        {9, 9},
        {1234.0, 4},
    }
    for _, c := range cases {
        if got := LastDigit(c.price); got != c.want {
            t.Fatalf("LastDigit(%v) = %d, want %d", c.price, got, c.want)
        }
    }
}

func TestLastDigitString(t *testing.T) {
    if got := LastDigitString("7678.80"); got != 0 {
        t.Fatalf("trailing zero quote: got %d want 0", got)
    }
    if got := LastDigitString("-12.3"); got != 3 {
        t.Fatalf("negative quote: got %d want 3", got)
    }
    if got := LastDigitString(""); got != 0 {
        t.Fatalf("empty quote: got %d want 0", got)
    }
}
