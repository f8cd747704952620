package check

import (
	"fmt"
)

// Status is the outcome of a single provisioning check.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusWarn Status = "WARN"
)

// Result holds the outcome of one check. Created once per check per run,
// appended to the reporter and never mutated afterwards.
type Result struct {
	Name    string
	Status  Status
	Message string
	// Remedy is the literal command to run manually after a failure.
	Remedy string
}

// PendingAction is a side effect recorded during a check and executed once,
// after all checks complete and the summary has been printed.
type PendingAction struct {
	Name string
	Run  func() error
}

func Pass(msg string, args ...interface{}) Result {
	return Result{Status: StatusPass, Message: fmt.Sprintf(msg, args...)}
}

func Warn(msg string, args ...interface{}) Result {
	return Result{Status: StatusWarn, Message: fmt.Sprintf(msg, args...)}
}

func Fail(msg string) Result {
	return Result{Status: StatusFail, Message: msg}
}

// FailWithRemedy pairs a failure message with the command to run manually.
func FailWithRemedy(msg, remedy string) Result {
	return Result{Status: StatusFail, Message: msg, Remedy: remedy}
}
