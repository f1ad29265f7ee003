package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/mudra/internal/scenario"
)

// runReplay runs a scenario through a fresh engine, writes each event as a
// JSON line and fails when the events differ from the scenario's expectations.
func runReplay(name string, w io.Writer) error {
	var (
		s   *scenario.Scenario
		err error
	)
	if _, statErr := os.Stat(name); statErr == nil {
		s, err = scenario.ParseFile(name)
	} else {
		s, err = scenario.Load(name)
	}
	if err != nil {
		return err
	}

	got, err := s.Run()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	for _, e := range got {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}

	if s.Expect == nil {
		return nil
	}
	if diff := cmp.Diff(s.Expect, got); diff != "" {
		return fmt.Errorf("scenario %s: events mismatch (-want +got):\n%s", s.Name, diff)
	}
	return nil
}
