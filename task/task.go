package task

import "fmt"

// Row is one computed line of the image, ready to be written.
type Row struct {
	Codes []int
	Index int
}

func (r *Row) String() string {
	output := "{Row "
	output += fmt.Sprintf("Index: %d ", r.Index)
	output += fmt.Sprintf("Column Count: %d}", len(r.Codes))
	return output
}

// Owner returns the worker that computes and writes row. Rows are striped across workers so the owners
// of rows 0, 1, 2, ... are 0, 1, ..., workers-1, 0, 1, ...
func Owner(row int, workers int) int {
	return row % workers
}

// Assignment walks the rows owned by one worker in ascending order: WorkerID, WorkerID+Workers, ...
type Assignment struct {
	Rows     int
	WorkerID int
	Workers  int
}

func NewAssignment(workerID int, workers int, rows int) Assignment {
	return Assignment{
		Rows:     rows,
		WorkerID: workerID,
		Workers:  workers,
	}
}

func (a *Assignment) String() string {
	output := "{Assignment "
	output += fmt.Sprintf("Worker: %d/%d ", a.WorkerID, a.Workers)
	output += fmt.Sprintf("Rows: %d ", a.Count())
	output += fmt.Sprintf("Image Rows: %d}", a.Rows)
	return output
}

// First is the lowest owned row. It is past the end when the worker owns nothing.
func (a *Assignment) First() int {
	return a.WorkerID
}

func (a *Assignment) Next(row int) int {
	return row + a.Workers
}

func (a *Assignment) Done(row int) bool {
	return row >= a.Rows
}

// Count is the number of rows owned by the worker.
func (a *Assignment) Count() int {
	if a.WorkerID >= a.Rows {
		return 0
	}
	return (a.Rows-a.WorkerID-1)/a.Workers + 1
}
