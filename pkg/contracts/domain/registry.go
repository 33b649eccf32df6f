package domain

// EnrichedRegistry is the station registry extended with one column per month
type EnrichedRegistry struct {
	Columns  []string
	Months   []MonthKey
	Stations []Station
	// Cells is indexed [station][month]
	Cells [][]OptionalFloat
}

// NewEnrichedRegistry creates a registry with every month cell missing
func NewEnrichedRegistry(reg *Registry, months []MonthKey) *EnrichedRegistry {
	cells := make([][]OptionalFloat, len(reg.Stations))
	for i := range cells {
		cells[i] = make([]OptionalFloat, len(months))
	}
	return &EnrichedRegistry{
		Columns:  reg.Columns,
		Months:   months,
		Stations: reg.Stations,
		Cells:    cells,
	}
}

// Header returns the registry columns followed by the month columns
func (e *EnrichedRegistry) Header() []string {
	header := make([]string, 0, len(e.Columns)+len(e.Months))
	header = append(header, e.Columns...)
	for _, m := range e.Months {
		header = append(header, m.String())
	}
	return header
}

// Value returns the cell for a station index and month
func (e *EnrichedRegistry) Value(station int, month MonthKey) OptionalFloat {
	for j, m := range e.Months {
		if m == month {
			return e.Cells[station][j]
		}
	}
	return Missing()
}

// FilledCells counts non-missing month cells
func (e *EnrichedRegistry) FilledCells() int {
	n := 0
	for _, row := range e.Cells {
		for _, c := range row {
			if c.Valid {
				n++
			}
		}
	}
	return n
}

// Completeness returns the percentage of non-missing month cells
func (e *EnrichedRegistry) Completeness() float64 {
	total := len(e.Stations) * len(e.Months)
	if total == 0 {
		return 0
	}
	return float64(e.FilledCells()) / float64(total) * 100
}
