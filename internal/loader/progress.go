package loader

import "time"

// Progress receives per-table load events. Implementations must be safe to
// call from the goroutine running LoadAll.
type Progress interface {
	StartTable(tier int, table string, totalRows int64)
	UpdateTable(table string, rowsWritten int64)
	FinishTable(table string, rows int64, duration time.Duration)
	FailTable(table string, err error)
}

type noProgress struct{}

func (noProgress) StartTable(int, string, int64) {}
func (noProgress) UpdateTable(string, int64) {}
func (noProgress) FinishTable(string, int64, time.Duration) {}
func (noProgress) FailTable(string, error) {}
