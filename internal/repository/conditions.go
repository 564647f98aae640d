package repository

import (
	"fmt"
	"strings"
)

// conditions accumulates AND-ed predicates with positional arguments.
// Each predicate uses %d where its placeholder number goes.
type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) add(predicate string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(predicate, len(c.args)))
}

func (c *conditions) addRaw(predicate string) {
	c.clauses = append(c.clauses, predicate)
}

// where renders "WHERE ..." or an empty string.
func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(c.clauses, " AND ")
}

// next is the placeholder number the next argument will take.
func (c *conditions) next() int {
	return len(c.args) + 1
}
