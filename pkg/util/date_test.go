package util

import (
    "testing"
    "time"
)

func TestDayStart(t *testing.T) {
    in := time.Date(2024, 10, 10, 17, 42, 9, 120, time.UTC)
    got := DayStart(in)
    want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
    if !got.Equal(want) {
        t.Fatalf("got %v want %v", got, want)
    }
}

func TestSameDay(t *testing.T) {
    a := time.Date(2024, 10, 10, 0, 0, 1, 0, time.UTC)
    b := time.Date(2024, 10, 10, 23, 59, 59, 0, time.UTC)
    c := time.Date(2024, 10, 11, 0, 0, 0, 0, time.UTC)
    if !SameDay(a, b) {
        t.Fatalf("expected same day")
    }
    if SameDay(b, c) {
        t.Fatalf("expected different day")
    }
}
