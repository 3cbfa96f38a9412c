package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/advising/internal/advising/application/queries"
	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/google/uuid"
)

// PrintJSON writes v indented.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintSession writes one session as a detail block, or as JSON with --json.
func PrintSession(w io.Writer, s queries.SessionDTO) error {
	if JSONOutput() {
		return PrintJSON(w, s)
	}

	fmt.Fprintf(w, "Session:  %s\n", s.ID)
	fmt.Fprintf(w, "  When:     %s %s-%s\n", s.Date, s.StartTime, s.EndTime)
	fmt.Fprintf(w, "  Student:  %s\n", s.StudentID)
	fmt.Fprintf(w, "  Advisor:  %s\n", s.AdvisorID)
	fmt.Fprintf(w, "  Location: %s\n", s.Location)
	fmt.Fprintf(w, "  Status:   %s\n", s.Status)
	if s.CancellationReason != "" {
		fmt.Fprintf(w, "  Reason:   %s\n", s.CancellationReason)
	}
	if s.Notes != "" {
		fmt.Fprintf(w, "  Notes:    %s\n", s.Notes)
	}
	return nil
}

// PrintSessionRows writes a compact table of sessions under a heading.
func PrintSessionRows(w io.Writer, heading string, sessions []queries.SessionDTO) {
	fmt.Fprintf(w, "\n  %s (%d)\n", strings.ToUpper(heading), len(sessions))
	fmt.Fprintln(w, "  "+strings.Repeat("-", 72))
	if len(sessions) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	for _, s := range sessions {
		fmt.Fprintf(w, "  %s  %s %s  %-10s  %-16s  %s\n",
			shortID(s.ID), s.Date, s.StartTime, s.Status, s.Location, shortID(counterpart(s)))
	}
}

// counterpart is the other participant from the caller's point of view.
func counterpart(s queries.SessionDTO) uuid.UUID {
	if a := GetApp(); a != nil && a.Caller.ID == s.AdvisorID {
		return s.StudentID
	}
	return s.AdvisorID
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// ParseID parses a UUID argument, naming the argument on failure.
func ParseID(name, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a UUID", domain.ErrInvalidRequest, name)
	}
	return id, nil
}
