package nbt

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the compound in a compact textual form for log messages.
func (c *Compound) String() string {
	var sb strings.Builder
	writeValue(&sb, c)
	return sb.String()
}

func writeValue(sb *strings.Builder, v interface{}) {
	switch val := v.(type) {
	case *Compound:
		sb.WriteByte('{')
		first := true
		val.Range(func(name string, child interface{}) bool {
			if !first {
				sb.WriteByte(',')
			}
			first = false
			sb.WriteString(name)
			sb.WriteByte(':')
			writeValue(sb, child)
			return true
		})
		sb.WriteByte('}')
	case *List:
		sb.WriteByte('[')
		for i, child := range val.Value {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeValue(sb, child)
		}
		sb.WriteByte(']')
	case string:
		sb.WriteString(strconv.Quote(val))
	case int8:
		fmt.Fprintf(sb, "%db", val)
	case int16:
		fmt.Fprintf(sb, "%ds", val)
	case int64:
		fmt.Fprintf(sb, "%dL", val)
	case float32:
		fmt.Fprintf(sb, "%gf", val)
	case []byte:
		fmt.Fprintf(sb, "[B;%d bytes]", len(val))
	default:
		fmt.Fprintf(sb, "%v", val)
	}
}
