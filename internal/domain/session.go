package domain

import "time"

// Session describes one invocation of the run command. It is written to the
// record directory before any test starts and rewritten when the run exits
// cleanly, so a leftover session with CleanExit=false means the previous
// process died.
type Session struct {
	RunID      string    `json:"run_id"`
	Epoch      string    `json:"epoch"`
	Policy     string    `json:"policy"`
	ReplayFile string    `json:"replay_file,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	CleanExit  bool      `json:"clean_exit"`
	Workers    int       `json:"workers"`
	Collected  int       `json:"collected"`
	Selected   int       `json:"selected"`
	Crashed    []string  `json:"crashed,omitempty"`
}
