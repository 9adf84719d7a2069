package domain

import (
	"golang.org/x/exp/slices"
)

// HostQueue is the FIFO of member ids waiting to host. It does not check for
// duplicates and is not safe for concurrent use; the room serializes access.
type HostQueue struct {
	list []string
}

func NewHostQueue() *HostQueue {
	return &HostQueue{}
}

func (q HostQueue) Len() int {
	return len(q.list)
}

func (q HostQueue) Contains(memberId string) bool {
	return slices.Contains(q.list, memberId)
}

func (q HostQueue) List() []string {
	return slices.Clone(q.list)
}

func (q *HostQueue) Enqueue(memberId string) {
	q.list = append(q.list, memberId)
}

// PopEligible pops from the head until hasMedia accepts an id. Rejected ids
// are dropped for good.
func (q *HostQueue) PopEligible(hasMedia func(memberId string) bool) (string, bool) {
	for len(q.list) > 0 {
		head := q.list[0]
		q.list = q.list[1:]

		if hasMedia(head) {
			return head, true
		}
	}

	return "", false
}

func (q *HostQueue) Remove(memberId string) bool {
	before := len(q.list)
	q.list = slices.DeleteFunc(q.list, func(id string) bool {
		return id == memberId
	})

	return len(q.list) != before
}
