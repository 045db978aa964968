package util

import (
	"testing"
	"time"
)

func TestMonthKey(t *testing.T) {
	d := time.Date(2025, 3, 7, 15, 4, 5, 0, time.UTC)
	if got := MonthKey(d); got != "2025-03" {
		t.Errorf("Expected 2025-03, got %s", got)
	}
}

func TestAddMonths_SameDay(t *testing.T) {
	d := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	got := AddMonths(d, 2)
	want := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	// Jan 31 + 1 month clamps to Feb 28 in a non-leap year
	d := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	got := AddMonths(d, 1)
	want := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestAddMonths_ClampsToLeapDay(t *testing.T) {
	d := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	got := AddMonths(d, 1)
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestAddMonths_YearWrap(t *testing.T) {
	d := time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC)
	got := AddMonths(d, 3)
	want := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestAddMonths_ManyMonths(t *testing.T) {
	d := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	got := AddMonths(d, 25)
	want := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestTruncateToDay(t *testing.T) {
	d := time.Date(2025, 5, 20, 23, 59, 59, 0, time.UTC)
	got := TruncateToDay(d)
	want := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want, got)
	}
}
