package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// statusFlag filters ticket listings by status. Empty matches everything.
type statusFlag struct {
	value string
}

var statusAliases = map[string]string{
	"pending":      "Pending",
	"completed":    "Completed",
	"done":         "Completed",
	"inaccessible": "Inaccessible",
	"blocked":      "Inaccessible",
}

func (s *statusFlag) String() string { return s.value }

func (s *statusFlag) Set(raw string) error {
	v, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return fmt.Errorf("unknown status %q (pending, completed, inaccessible)", raw)
	}
	s.value = v
	return nil
}

func (s *statusFlag) Type() string { return "status" }

func (s *statusFlag) Matches(status string) bool {
	return s.value == "" || s.value == status
}

func addStatusFlag(fs *pflag.FlagSet, s *statusFlag) {
	fs.Var(s, "status", "only list tickets with this status")
}
