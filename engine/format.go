package engine

import "strconv"

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
