// Package validation collects every rule a request breaks so the caller can
// fix them all at once.
package validation

import (
	"fmt"
	"strings"
)

// Error lists every violated rule of one request.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// Collector accumulates problems; the zero value is ready to use.
type Collector struct {
	problems []string
}

func (c *Collector) Add(problem string) {
	c.problems = append(c.problems, problem)
}

func (c *Collector) Addf(format string, args ...any) {
	c.Add(fmt.Sprintf(format, args...))
}

// Require adds "<field> is required" when value is blank.
func (c *Collector) Require(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.Addf("%s is required", field)
	}
}

func (c *Collector) Empty() bool {
	return len(c.problems) == 0
}

// Err returns nil when nothing was collected.
func (c *Collector) Err() error {
	if len(c.problems) == 0 {
		return nil
	}
	return &Error{Problems: append([]string(nil), c.problems...)}
}
