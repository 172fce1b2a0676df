package scheduler

import (
	"container/heap"

	"github.com/maheshrc27/viralflow/internal/models"
)

type entry struct {
	job   *models.ScheduledJob
	index int
}

// jobQueue is a min-heap of pending jobs ordered by schedule time.
type jobQueue []*entry

func (q jobQueue) Len() int { return len(q) }

func (q jobQueue) Less(i, j int) bool {
	a, b := q[i].job, q[j].job
	if a.ScheduleTime.Equal(b.ScheduleTime) {
		return a.ID < b.ID
	}
	return a.ScheduleTime.Before(b.ScheduleTime)
}

func (q jobQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *jobQueue) Push(x any) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *jobQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

func (q jobQueue) peek() *entry {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}

var _ heap.Interface = (*jobQueue)(nil)
