package domain

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type VoteSet struct {
	voters map[string]struct{}
}

func NewVoteSet() *VoteSet {
	return &VoteSet{voters: make(map[string]struct{})}
}

// Toggle adds the voter if absent and removes it otherwise. It reports
// whether the voter is in the set afterwards.
func (v *VoteSet) Toggle(memberId string) bool {
	if _, ok := v.voters[memberId]; ok {
		delete(v.voters, memberId)
		return false
	}

	v.voters[memberId] = struct{}{}
	return true
}

func (v *VoteSet) Remove(memberId string) bool {
	if _, ok := v.voters[memberId]; !ok {
		return false
	}

	delete(v.voters, memberId)
	return true
}

func (v VoteSet) Has(memberId string) bool {
	_, ok := v.voters[memberId]
	return ok
}

func (v VoteSet) Len() int {
	return len(v.voters)
}

func (v VoteSet) List() []string {
	ids := maps.Keys(v.voters)
	slices.Sort(ids)
	return ids
}
