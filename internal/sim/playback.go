package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"netnexus-sim/internal/telemetry"
)

// Replay feeds a recorded session back into a writer. States drives the
// timeline; node load rows stamped with a state row's timestamp follow that
// row, and events are released once the timeline reaches them. Nodes and
// Events are optional.
type Replay struct {
	States io.Reader
	Nodes  io.Reader
	Events io.Reader
	// Speed >0 scales the recorded gaps between ticks; <=0 replays without
	// delay.
	Speed float64
}

// ReplayStats counts what a replay delivered.
type ReplayStats struct {
	States int
	Nodes  int
	Events int
}

// rowStream decodes JSONL rows one ahead so streams can be merged by time.
type rowStream[T any] struct {
	dec  *json.Decoder
	next *T
	name string
}

func newRowStream[T any](r io.Reader, name string) *rowStream[T] {
	if r == nil {
		return nil
	}
	return &rowStream[T]{dec: json.NewDecoder(r), name: name}
}

// peek returns the next row without consuming it; nil at the end.
func (s *rowStream[T]) peek() (*T, error) {
	if s == nil {
		return nil, nil
	}
	if s.next != nil {
		return s.next, nil
	}
	var row T
	if err := s.dec.Decode(&row); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s log: %w", s.name, err)
	}
	s.next = &row
	return s.next, nil
}

func (s *rowStream[T]) pop() { s.next = nil }

// Run replays every row. Writers without node load or event support only
// receive state rows.
func (r Replay) Run(writer StateWriter) (ReplayStats, error) {
	var stats ReplayStats
	states := newRowStream[telemetry.StateRow](r.States, "state")
	nodes := newRowStream[telemetry.NodeLoadRow](r.Nodes, "node")
	events := newRowStream[telemetry.EventRow](r.Events, "event")
	nw, _ := writer.(nodeLoadWriter)
	ew, _ := writer.(eventWriter)

	flushEvents := func(until time.Time) error {
		for {
			ev, err := events.peek()
			if err != nil || ev == nil {
				return err
			}
			if !until.IsZero() && ev.Timestamp.After(until) {
				return nil
			}
			events.pop()
			if ew == nil {
				continue
			}
			if err := ew.WriteEvent(*ev); err != nil {
				return err
			}
			stats.Events++
		}
	}

	var prev time.Time
	for {
		row, err := states.peek()
		if err != nil {
			return stats, err
		}
		if row == nil {
			break
		}
		states.pop()
		if !prev.IsZero() && r.Speed > 0 {
			if gap := time.Duration(float64(row.Timestamp.Sub(prev)) / r.Speed); gap > 0 {
				time.Sleep(gap)
			}
		}
		if err := writer.WriteState(*row); err != nil {
			return stats, err
		}
		stats.States++

		var batch []telemetry.NodeLoadRow
		for {
			n, err := nodes.peek()
			if err != nil {
				return stats, err
			}
			if n == nil || n.Timestamp.After(row.Timestamp) {
				break
			}
			nodes.pop()
			if n.Timestamp.Equal(row.Timestamp) {
				batch = append(batch, *n)
			}
		}
		if nw != nil && len(batch) > 0 {
			if err := nw.WriteNodeLoads(batch); err != nil {
				return stats, err
			}
			stats.Nodes += len(batch)
		}
		if err := flushEvents(row.Timestamp); err != nil {
			return stats, err
		}
		prev = row.Timestamp
	}
	// outcome events land after the last recorded tick
	return stats, flushEvents(time.Time{})
}

// ReplayLog replays state rows from r to writer. A speed >0 accelerates playback.
// If speed <= 0, no artificial delay is inserted.
func ReplayLog(r io.Reader, writer StateWriter, speed float64) error {
	_, err := Replay{States: r, Speed: speed}.Run(writer)
	return err
}

// ReplaySession replays the export written by --log-file. base may name the
// prefix or the .state file itself; the .nodes and .events siblings are
// replayed when present.
func ReplaySession(base string, writer StateWriter, speed float64) (ReplayStats, error) {
	base = strings.TrimSuffix(base, ".state")
	sf, err := os.Open(base + ".state")
	if err != nil {
		return ReplayStats{}, err
	}
	defer sf.Close()
	rp := Replay{States: sf, Speed: speed}
	if nf, err := os.Open(base + ".nodes"); err == nil {
		defer nf.Close()
		rp.Nodes = nf
	}
	if ef, err := os.Open(base + ".events"); err == nil {
		defer ef.Close()
		rp.Events = ef
	}
	return rp.Run(writer)
}
