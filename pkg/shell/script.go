package shell

import (
	"fmt"
	"strings"
	"sync"
)

// Script is a scripted Runner for tests.
//
// Responses are registered against a command prefix ("adb devices",
// "xcrun simctl boot", ...). Each registered response is consumed in order,
// so a prefix can answer differently across successive polls; the last
// response sticks once the queue is drained. Every invocation is recorded
// in Calls for assertions.
type Script struct {
	mu        sync.Mutex
	responses map[string][]Response
	Calls     []string
}

// Response is one scripted command result.
type Response struct {
	Out string
	Err error
}

// NewScript creates an empty scripted runner.
func NewScript() *Script {
	return &Script{responses: make(map[string][]Response)}
}

// On registers responses for invocations whose command line starts with
// prefix. Returns the Script for chaining.
func (s *Script) On(prefix string, responses ...Response) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[prefix] = append(s.responses[prefix], responses...)
	return s
}

// Output replays the scripted response for the invocation.
// Unmatched invocations fail loudly so tests never pass by accident.
func (s *Script) Output(name string, args ...string) (string, error) {
	line := commandLine(name, args)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, line)

	prefix, ok := s.match(line)
	if !ok {
		return "", fmt.Errorf("unscripted command: %s", line)
	}

	queue := s.responses[prefix]
	resp := queue[0]
	if len(queue) > 1 {
		s.responses[prefix] = queue[1:]
	}
	return resp.Out, resp.Err
}

// Start records the invocation and replays a scripted error, if any.
func (s *Script) Start(name string, args ...string) error {
	line := commandLine(name, args)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, line)

	prefix, ok := s.match(line)
	if !ok {
		return nil // detached starts default to success
	}

	queue := s.responses[prefix]
	resp := queue[0]
	if len(queue) > 1 {
		s.responses[prefix] = queue[1:]
	}
	return resp.Err
}

// CallCount returns how many recorded invocations start with prefix.
func (s *Script) CallCount(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// match finds the longest registered prefix matching line.
// Longest wins so "adb -s emulator-5554 shell getprop sys.boot_completed"
// can coexist with a catch-all "adb -s emulator-5554 shell getprop".
func (s *Script) match(line string) (string, bool) {
	best := ""
	for prefix, queue := range s.responses {
		if len(queue) == 0 {
			continue
		}
		if strings.HasPrefix(line, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	return best, best != ""
}

func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
