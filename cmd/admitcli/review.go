package main

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"admitcli/internal/matcher"
	"admitcli/pkg/contracts/domain"
)

// review asks for a group code for every ambiguous row. Every candidate is
// listed with its fields; an answer up to the candidate count picks that
// candidate and anything else is taken as the code. A blank answer skips the
// row, "b" goes back and "q" or end of input stops the review keeping the
// choices made so far.
func review(s matcher.Session, in io.Reader, w io.Writer) (matcher.Session, error) {
	scanner := bufio.NewScanner(in)
	for {
		rec, ok := s.Current()
		if !ok {
			return s, nil
		}

		fmt.Fprintf(w, "\n[%d/%d] row %d\n", s.Cursor()+1, s.Len(), rec.Index+1)
		for _, k := range matcher.PlanKeyFields {
			if v := rec.Fields.Text(k); v != "" {
				fmt.Fprintf(w, "  %s: %s\n", k, v)
			}
		}
		for i, c := range rec.Candidates {
			code := c.Code
			if code == "" {
				code = noCode
			}
			fmt.Fprintf(w, "  %d) %s%s\n", i+1, code, candidateFields(c.Fields))
		}
		if cur, ok := s.Choice(s.Cursor()); ok {
			fmt.Fprintf(w, "  chosen: %s\n", cur)
		}
		fmt.Fprint(w, "code (number, code, blank to skip, b back, q quit): ")

		if !scanner.Scan() {
			fmt.Fprintln(w)
			return s, scanner.Err()
		}
		answer := strings.TrimSpace(scanner.Text())
		last := s.Cursor() == s.Len()-1

		switch answer {
		case "q":
			return s, nil
		case "b":
			s = s.Back()
			continue
		case "":
		default:
			code := answer
			if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(rec.Candidates) {
				code = rec.Candidates[n-1].Code
			}
			var err error
			if s, err = s.Select(code); err != nil {
				return s, err
			}
		}

		if last {
			return s, nil
		}
		s = s.Advance()
	}
}

// noCode stands in for a candidate whose plan row has no group code.
const noCode = "(no code)"

// candidateFields renders the non-empty fields of a candidate, plan key
// fields first and the rest by name.
func candidateFields(fields domain.Row) string {
	seen := make(map[string]bool, len(matcher.PlanKeyFields))
	var parts []string
	for _, k := range matcher.PlanKeyFields {
		seen[k] = true
		if v := fields.Text(k); v != "" {
			parts = append(parts, k+": "+v)
		}
	}
	var rest []string
	for k := range fields {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		if v := fields.Text(k); v != "" {
			parts = append(parts, k+": "+v)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "  " + strings.Join(parts, ", ")
}
