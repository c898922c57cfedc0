// Package meter provides running-average accumulators and a plain-text
// progress display for long fill and training loops.
package meter

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type AverageMeter struct {
	Name   string
	Format string

	Val   float64
	Sum   float64
	Count int
	Avg   float64
}

func NewAverageMeter(name, format string) *AverageMeter {
	if format == "" {
		format = "%f"
	}
	return &AverageMeter{Name: name, Format: format}
}

func (m *AverageMeter) Reset() {
	m.Val, m.Sum, m.Avg = 0, 0, 0
	m.Count = 0
}

func (m *AverageMeter) Update(val float64, n int) {
	m.Val = val
	m.Sum += val * float64(n)
	m.Count += n
	m.Avg = m.Sum / float64(m.Count)
}

func (m *AverageMeter) String() string {
	return fmt.Sprintf("%s "+m.Format+" ("+m.Format+")", m.Name, m.Val, m.Avg)
}

type ProgressMeter struct {
	total  int
	meters []*AverageMeter
	prefix string
	out    io.Writer
}

func NewProgressMeter(numBatches int, meters []*AverageMeter, prefix string) *ProgressMeter {
	return &ProgressMeter{total: numBatches, meters: meters, prefix: prefix, out: os.Stdout}
}

func (p *ProgressMeter) SetOutput(w io.Writer) { p.out = w }

func (p *ProgressMeter) Display(batch int) {
	digits := len(strconv.Itoa(p.total))
	entries := []string{fmt.Sprintf("%s[%*d/%d]", p.prefix, digits, batch, p.total)}
	for _, m := range p.meters {
		entries = append(entries, m.String())
	}
	fmt.Fprintln(p.out, strings.Join(entries, "\t"))
}
