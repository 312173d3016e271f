package export

// GridKey addresses one cell of a weekly grid.
type GridKey struct {
	Day    string
	Period int
}

// WeeklyGrid lays out one class's lessons as a period-by-day matrix ready
// for rendering.
type WeeklyGrid struct {
	Title   string
	Days    []string
	Periods []int
	Cells   map[GridKey]string
}

// Cell returns the label for a day/period pair, empty when unassigned.
func (g WeeklyGrid) Cell(day string, period int) string {
	return g.Cells[GridKey{Day: day, Period: period}]
}
