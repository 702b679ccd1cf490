package cli

import "ptr/internal/config"

// Flags holds command-line flags
type Flags struct {
	Processors   int
	TestPath     string
	NameFilter   string
	RecordDir    string
	ReplayFile   string
	Resume       bool
	NoAutoResume bool
	FailFast     bool
	PrepareDB    bool
	Migrate      bool
	NoFresh      bool
	Plain        bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		Processors:   f.Processors,
		TestPath:     f.TestPath,
		NameFilter:   f.NameFilter,
		RecordDir:    f.RecordDir,
		ReplayFile:   f.ReplayFile,
		Resume:       f.Resume,
		NoAutoResume: f.NoAutoResume,
		FailFast:     f.FailFast,
		PrepareDB:    f.PrepareDB,
		Migrate:      f.Migrate,
		NoFresh:      f.NoFresh,
		Plain:        f.Plain,
	}
}
