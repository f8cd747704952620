package runner

import (
	"context"
	"fmt"
	"strings"
)

// Response is a canned result for one command in a Fake runner.
type Response struct {
	Stdout string
	Err    error
}

// Fake is a Runner for tests. Commands are matched by their rendered command
// line; the longest matching prefix wins, so a test can pin "lsblk -J" without
// spelling out every column flag. Every call is recorded in order.
type Fake struct {
	Responses map[string]Response
	Calls     []string
}

func NewFake() *Fake {
	return &Fake{Responses: make(map[string]Response)}
}

func (f *Fake) On(cmdPrefix string, stdout string, err error) *Fake {
	f.Responses[cmdPrefix] = Response{Stdout: stdout, Err: err}
	return f
}

func (f *Fake) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	line := CommandLine(name, args...)
	f.Calls = append(f.Calls, line)

	best := ""
	for prefix := range f.Responses {
		if strings.HasPrefix(line, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return nil, fmt.Errorf("fake runner: no response for %q", line)
	}
	resp := f.Responses[best]
	return []byte(resp.Stdout), resp.Err
}

// CalledWith reports whether any recorded call starts with the given prefix.
func (f *Fake) CalledWith(prefix string) bool {
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
