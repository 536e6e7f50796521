package nm

import (
	"bufio"
	"bytes"
	"strings"
)

// splitTerse splits one line of nmcli -t output into fields. Separators are
// unescaped colons; "\:" and "\\" decode to ":" and "\".
func splitTerse(line string) []string {
	var (
		fields []string
		cur    strings.Builder
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case c == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(fields, cur.String())
}

// terseRecords splits output into lines and each line into n fields. Lines
// with a different field count are skipped.
func terseRecords(out []byte, n int) [][]string {
	var records [][]string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		f := splitTerse(line)
		if len(f) != n {
			continue
		}
		records = append(records, f)
	}
	return records
}

// signalToDBm converts nmcli's 0..100 signal quality back to dBm.
// NetworkManager maps -100..-40 dBm linearly onto 0..100%, so several
// percentages share one dBm value; callers keep the percentage as well.
func signalToDBm(percent int) int {
	return -40 - (100-clampPercent(percent))*60/100
}

func clampPercent(percent int) int {
	return min(max(percent, 0), 100)
}
