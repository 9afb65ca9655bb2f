package agent

import (
	"fmt"
	"strings"
)

// ledgerTail bounds how much history the planner prompt carries: enough for
// short-term memory, small enough to keep prompts cheap.
const ledgerTail = 300

// ledger is the append-only record of prior step outcomes.
type ledger struct {
	sb strings.Builder
}

func (l *ledger) add(step int, format string, args ...any) {
	l.sb.WriteString(fmt.Sprintf("\n[%d] ", step))
	l.sb.WriteString(fmt.Sprintf(format, args...))
}

// tail returns the most recent ledgerTail characters.
func (l *ledger) tail() string {
	s := l.sb.String()
	if len(s) > ledgerTail {
		return s[len(s)-ledgerTail:]
	}
	return s
}
