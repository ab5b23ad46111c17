package main

import (
	"fmt"
	"strconv"
	"strings"
)

// rangeRequest is a parsed "<begin>-<end>" style positional argument.
// hasEnd distinguishes "<begin>-" (read to end of stream) from a bound
// range; single-number arguments ("<N>") parse to {begin: N, end: N+1,
// hasEnd: true}.
type rangeRequest struct {
	begin  uint64
	end    uint64
	hasEnd bool
}

// parseRange parses the second positional argument of the non-build CLI
// forms. It never mutates its input and never touches argv directly, so it
// can be unit tested without a process around it.
func parseRange(s string) (rangeRequest, error) {
	if s == "" {
		return rangeRequest{}, fmt.Errorf("empty range")
	}

	if !strings.Contains(s, "-") {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return rangeRequest{}, fmt.Errorf("invalid offset %q: %w", s, err)
		}
		return rangeRequest{begin: n, end: n + 1, hasEnd: true}, nil
	}

	i := strings.IndexByte(s, '-')
	beginStr, endStr := s[:i], s[i+1:]

	var begin uint64
	if beginStr != "" {
		n, err := strconv.ParseUint(beginStr, 10, 64)
		if err != nil {
			return rangeRequest{}, fmt.Errorf("invalid range start %q: %w", s, err)
		}
		begin = n
	}

	if endStr == "" {
		return rangeRequest{begin: begin, hasEnd: false}, nil
	}
	end, err := strconv.ParseUint(endStr, 10, 64)
	if err != nil {
		return rangeRequest{}, fmt.Errorf("invalid range end %q: %w", s, err)
	}
	if end < begin {
		return rangeRequest{}, fmt.Errorf("range end before start in %q", s)
	}
	return rangeRequest{begin: begin, end: end, hasEnd: true}, nil
}
