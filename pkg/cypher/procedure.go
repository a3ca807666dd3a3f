package cypher

import (
	"strings"
)

// CallProcedure builds "CALL name('a','b') YIELD x, y". Arguments are sent as
// string literals; yield may be empty.
func CallProcedure(name string, args []string, yield []string) string {
	var sb strings.Builder
	sb.WriteString("CALL ")
	sb.WriteString(name)
	sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeString(&sb, a)
	}
	sb.WriteByte(')')
	if len(yield) > 0 {
		sb.WriteString(" YIELD ")
		sb.WriteString(strings.Join(yield, ", "))
	}
	return sb.String()
}
