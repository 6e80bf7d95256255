package main

import (
	"errors"
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	results := []gameResult{
		{Winner: 1, Reason: "alignment", Moves: 40, Elapsed: 20 * time.Second},
		{Winner: 2, Reason: "capture", Moves: 60, Elapsed: 40 * time.Second},
		{Winner: 1, Reason: "capture-threat", Moves: 50, Elapsed: 30 * time.Second},
		{Winner: 0, Moves: 90, Elapsed: 30 * time.Second},
		{Err: errors.New("timeout")},
	}

	s := summarize(results)
	if s.Games != 5 || s.Completed != 4 || s.Failures != 1 {
		t.Fatalf("counts wrong: %+v", s)
	}
	if s.BlackWins != 2 || s.WhiteWins != 1 || s.Draws != 1 {
		t.Fatalf("outcomes wrong: %+v", s)
	}
	if s.ByReason["alignment"] != 1 || s.ByReason["capture"] != 1 || s.ByReason["capture-threat"] != 1 {
		t.Fatalf("reasons wrong: %+v", s.ByReason)
	}
	if s.AvgMoves != 60 {
		t.Fatalf("average moves wrong: %v", s.AvgMoves)
	}
	if s.AvgSeconds != 30 {
		t.Fatalf("average seconds wrong: %v", s.AvgSeconds)
	}
}

func TestSummarizeAllFailures(t *testing.T) {
	results := []gameResult{
		{Err: errors.New("a")},
		{Err: errors.New("b")},
	}
	s := summarize(results)
	if s.Completed != 0 || s.Failures != 2 {
		t.Fatalf("counts wrong: %+v", s)
	}
	if s.AvgMoves != 0 || s.AvgSeconds != 0 {
		t.Fatalf("averages over zero games must stay zero: %+v", s)
	}
}

func TestHTTPStatusError(t *testing.T) {
	err := &httpStatusError{Method: "POST", Path: "/api/games", Status: 409, Body: "occupied"}
	want := "POST /api/games -> 409: occupied"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}
