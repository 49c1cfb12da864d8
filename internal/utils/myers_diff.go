package utils

import (
	"strings"
)

type Operation string

const (
	ADD Operation = "add"
	SUB Operation = "sub"
	EQ  Operation = "eq"
)

// Run is a maximal sequence of lines sharing the same edit operation.
type Run struct {
	Op    Operation
	Lines []string
}

// Text joins the lines of the run back together.
func (r Run) Text() string {
	return strings.Join(r.Lines, "")
}

// SplitLines splits s after every line terminator, keeping the terminator on each line.
// A trailing line without terminator is returned as its own line.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// DiffLines computes the Myers shortest edit script from src to dst and groups it into runs
// in document order.
func DiffLines(src, dst []string) []Run {
	script := shortestEditScript(src, dst)

	var runs []Run
	srcIndex, dstIndex := 0, 0
	appendLine := func(op Operation, line string) {
		if len(runs) > 0 && runs[len(runs)-1].Op == op {
			runs[len(runs)-1].Lines = append(runs[len(runs)-1].Lines, line)
			return
		}
		runs = append(runs, Run{Op: op, Lines: []string{line}})
	}

	for _, op := range script {
		switch op {
		case ADD:
			appendLine(op, dst[dstIndex])
			dstIndex++
		case EQ:
			appendLine(op, src[srcIndex])
			srcIndex++
			dstIndex++
		case SUB:
			appendLine(op, src[srcIndex])
			srcIndex++
		}
	}

	return runs
}

// HasChanges reports whether any run is an addition or removal.
func HasChanges(runs []Run) bool {
	for _, r := range runs {
		if r.Op != EQ {
			return true
		}
	}
	return false
}

// RenderDiff prints runs line by line with "+ ", "- " or "  " prefixes.
func RenderDiff(runs []Run) string {
	var b strings.Builder
	for _, r := range runs {
		prefix := "  "
		switch r.Op {
		case ADD:
			prefix = "+ "
		case SUB:
			prefix = "- "
		}
		for _, line := range r.Lines {
			b.WriteString(prefix)
			b.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func shortestEditScript(src, dst []string) []Operation {
	n := len(src)
	m := len(dst)
	max := n + m // nolint: predeclared
	var trace []map[int]int
	var x, y int

loop:
	for d := 0; d <= max; d++ {
		v := make(map[int]int, d+2) //nolint: mnd
		trace = append(trace, v)
		if d == 0 {
			t := 0
			for len(src) > t && len(dst) > t && src[t] == dst[t] {
				t++
			}
			v[0] = t
			if t == len(src) && t == len(dst) { //nolint: gocritic
				break loop
			}
			continue
		}
		lastV := trace[d-1]
		for k := -d; k <= d; k += 2 {
			if k == -d || (k != d && lastV[k-1] < lastV[k+1]) {
				x = lastV[k+1]
			} else {
				x = lastV[k-1] + 1
			}
			y = x - k
			for x < n && y < m && src[x] == dst[y] {
				x, y = x+1, y+1
			}
			v[k] = x
			if x == n && y == m {
				break loop
			}
		}
	}

	// walk the trace backwards from (n, m) to recover the edits
	var script []Operation
	x = n
	y = m
	var k, prevK, prevX, prevY int
	for d := len(trace) - 1; d > 0; d-- {
		k = x - y
		lastV := trace[d-1]
		if k == -d || (k != d && lastV[k-1] < lastV[k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX = lastV[prevK]
		prevY = prevX - prevK
		for x > prevX && y > prevY {
			script = append(script, EQ)
			x--
			y--
		}
		if x == prevX {
			script = append(script, ADD)
		} else {
			script = append(script, SUB)
		}
		x, y = prevX, prevY
	}
	for i := 0; i < trace[0][0]; i++ {
		script = append(script, EQ)
	}

	return reverse(script)
}

func reverse(s []Operation) []Operation {
	result := make([]Operation, len(s))
	for i, v := range s {
		result[len(s)-1-i] = v
	}
	return result
}
