package ui

import "time"

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusWarn
	statusError
)

// status is the one-line message under the grid.
type status struct {
	text  string
	level statusLevel
	at    time.Time
}

func infoStatus(text string) status  { return status{text: text, level: statusInfo, at: time.Now()} }
func warnStatus(text string) status  { return status{text: text, level: statusWarn, at: time.Now()} }
func errorStatus(text string) status { return status{text: text, level: statusError, at: time.Now()} }
