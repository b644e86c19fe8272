// Package version хранит сведения о сборке printshop.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func init() {
	if commit != "unknown" {
		return
	}
	// go install без -ldflags: берём ревизию из build info.
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value
		case "vcs.time":
			date = s.Value
		}
	}
}

// Info returns version information populated via -ldflags.
func Info() (v, c, d string) { return version, commit, date }

// GetVersion возвращает семантическую версию сборки.
func GetVersion() string { return version }

// GetCommit возвращает git-ревизию сборки.
func GetCommit() string { return commit }

// GetDate возвращает время сборки.
func GetDate() string { return date }

// String возвращает версию, ревизию и дату сборки одной строкой для логов.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
