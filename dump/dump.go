// Package dump prints snapshots of the pager as text tables.
package dump

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"

	"gitlab.com/akita/lrusim/pager"
)

var (
	occupiedColor = color.New(color.FgGreen)
	dirtyColor    = color.New(color.FgYellow, color.Bold)
	freeColor     = color.New(color.FgHiBlack)
)

// Write prints the frame table and every page table of s to w.
func Write(w io.Writer, s pager.Snapshot) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Current memory layout at time %s is:\n", s.Clock)
	fmt.Fprintf(&b, "%10s %-9s %-9s %-6s %-5s %s\n",
		"", "Occupied", "DirtyBit", "Owner", "Page", "LastRef")

	for i, f := range s.Frames {
		fmt.Fprintf(&b, "%10s ", fmt.Sprintf("Frame %d:", i))
		switch {
		case !f.Occupied:
			freeColor.Fprintf(&b, "%-9s %-9d %-6s %-5s %s\n",
				"No", 0, "-", "-", "-")
		case f.Dirty:
			dirtyColor.Fprintf(&b, "%-9s %-9d %-6d %-5d %s\n",
				"Yes", 1, f.Owner, f.Page, f.LastRef)
		default:
			occupiedColor.Fprintf(&b, "%-9s %-9d %-6d %-5d %s\n",
				"Yes", 0, f.Owner, f.Page, f.LastRef)
		}
	}

	for slot, entries := range s.PageTables {
		fmt.Fprintf(&b, "P%d page table: [", slot)
		for page, ref := range entries {
			if page > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(ref.String())
		}
		b.WriteString("]\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// An Observer writes every snapshot it receives and logs a summary line.
type Observer struct {
	lock   sync.Mutex
	w      io.Writer
	logger *slog.Logger
}

// NewObserver returns an Observer that prints to w. A nil w only logs. A nil
// logger means slog.Default().
func NewObserver(w io.Writer, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Observer{
		w:      w,
		logger: logger.With("component", "dump"),
	}
}

// ObserveSnapshot prints s.
func (o *Observer) ObserveSnapshot(s pager.Snapshot) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.logger.Info("snapshot",
		"time", s.Clock.String(),
		"occupied", s.NumOccupied(),
		"dirty", s.NumDirty())

	if o.w == nil {
		return
	}

	if err := Write(o.w, s); err != nil {
		o.logger.Error("cannot write snapshot", "error", err)
	}
}
