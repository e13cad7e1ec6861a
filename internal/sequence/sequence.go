// Package sequence assigns dense integer positions to ordered sibling lists
// (topics within an issue, links within a topic or the unassigned pool).
// After any structural change positions are re-derived as 0..len-1; there is
// no sparse or gap-based numbering. Each operation reports only the ids whose
// position actually changed, so a no-op never marks entities dirty.
package sequence

import "fmt"

// Move is one (id, newPosition) pair produced by a structural operation.
type Move struct {
	ID       string
	Position int
}

// InsertAt places id at index and shifts later siblings right.
// The empty list accepts only index 0.
func InsertAt(ids []string, id string, index int) ([]string, []Move, error) {
	if index < 0 || index > len(ids) {
		return nil, nil, fmt.Errorf("insert at %d: index out of range [0..%d]", index, len(ids))
	}

	next := make([]string, 0, len(ids)+1)
	next = append(next, ids[:index]...)
	next = append(next, id)
	next = append(next, ids[index:]...)

	moves := []Move{{ID: id, Position: index}}
	for i := index + 1; i < len(next); i++ {
		moves = append(moves, Move{ID: next[i], Position: i})
	}
	return next, moves, nil
}

// MoveTo relocates the sibling at from to index to. Equal indices are a
// no-op and yield zero moves.
func MoveTo(ids []string, from, to int) ([]string, []Move, error) {
	if from < 0 || from >= len(ids) {
		return nil, nil, fmt.Errorf("move from %d: index out of range [0..%d)", from, len(ids))
	}
	if to < 0 || to >= len(ids) {
		return nil, nil, fmt.Errorf("move to %d: index out of range [0..%d)", to, len(ids))
	}
	if from == to {
		return append([]string(nil), ids...), nil, nil
	}

	next := make([]string, 0, len(ids))
	next = append(next, ids[:from]...)
	next = append(next, ids[from+1:]...)

	tail := append([]string(nil), next[to:]...)
	next = append(next[:to], ids[from])
	next = append(next, tail...)

	return next, diff(ids, next), nil
}

// RemoveAt drops the sibling at index and shifts later siblings left.
func RemoveAt(ids []string, index int) ([]string, []Move, error) {
	if index < 0 || index >= len(ids) {
		return nil, nil, fmt.Errorf("remove at %d: index out of range [0..%d)", index, len(ids))
	}

	next := make([]string, 0, len(ids)-1)
	next = append(next, ids[:index]...)
	next = append(next, ids[index+1:]...)

	var moves []Move
	for i := index; i < len(next); i++ {
		moves = append(moves, Move{ID: next[i], Position: i})
	}
	return next, moves, nil
}

// diff reports positions in next that differ from the previous assignment,
// where prev[i] held position i.
func diff(prev, next []string) []Move {
	at := make(map[string]int, len(prev))
	for i, id := range prev {
		at[id] = i
	}

	var moves []Move
	for i, id := range next {
		if old, ok := at[id]; !ok || old != i {
			moves = append(moves, Move{ID: id, Position: i})
		}
	}
	return moves
}
