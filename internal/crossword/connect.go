package crossword

import "errors"

// ErrNoWords is returned when connectivity is asked of an empty grid.
var ErrNoWords = errors.New("no words")

// IsConnected walks the occupied cells from the first anchor through
// orthogonal neighbours. The grid is connected iff every occupied cell, not
// only every anchor, is reached.
func IsConnected(g *Grid, anchors []Coord) (bool, error) {
	reached, err := reachable(g, anchors)
	if err != nil {
		return false, err
	}
	return reached == g.Len(), nil
}

// reachable counts the occupied cells reachable from anchors[0].
func reachable(g *Grid, anchors []Coord) (int, error) {
	if g == nil || g.Len() == 0 || len(anchors) == 0 {
		return 0, ErrNoWords
	}

	start := anchors[0]
	if !g.Occupied(start) {
		return 0, nil
	}

	visited := map[Coord]struct{}{start: {}}
	stack := []Coord{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, n := range cur.neighbors() {
			if _, seen := visited[n]; seen || !g.Occupied(n) {
				continue
			}
			visited[n] = struct{}{}
			stack = append(stack, n)
		}
	}

	return len(visited), nil
}
