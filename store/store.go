// Package store implements the Job Store: two partitions,
// pending and finished, keyed by job id, each with secondary indexes kept
// as sorted slices rather than a tree or ordered-map structure — the only
// reads the engine performs are single-key loads and bounded range scans,
// which sort.Search serves directly.
package store

import (
	"sort"

	schedulererrors "github.com/warpscheduler/core/schedulererrors"
	"github.com/warpscheduler/core/sched"
)

// rewardEntry is one row of the by_reward index: unique (reward, id),
// ordered by reward descending then id ascending, so keepers scanning the
// index see the highest-reward job first.
type rewardEntry struct {
	reward uint64
	id     uint64
}

// publishEntry is one row of the by_publish_time index: a multi-index on
// last_update_time, ordered ascending then by id for a stable tiebreak.
type publishEntry struct {
	publishTime uint64
	id          uint64
}

// Store holds the pending and finished job partitions.
type Store struct {
	pending  map[uint64]*sched.Job
	finished map[uint64]*sched.Job

	byReward      []rewardEntry // sorted, reward descending
	byPublishTime []publishEntry // sorted, publish time ascending
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		pending:  make(map[uint64]*sched.Job),
		finished: make(map[uint64]*sched.Job),
	}
}

// Get returns the job with id, searching pending then finished.
func (s *Store) Get(id uint64) (*sched.Job, error) {
	if j, ok := s.pending[id]; ok {
		return j, nil
	}
	if j, ok := s.finished[id]; ok {
		return j, nil
	}
	return nil, schedulererrors.JobDoesNotExist(id)
}

// IsPending reports whether id currently lives in the pending partition.
func (s *Store) IsPending(id uint64) bool {
	_, ok := s.pending[id]
	return ok
}

// InsertPending adds a fresh job to the pending partition and its
// secondary indexes. Fails JobAlreadyExists if id is already present in
// either partition.
func (s *Store) InsertPending(j *sched.Job) error {
	if _, ok := s.pending[j.ID]; ok {
		return schedulererrors.JobAlreadyExists(j.ID)
	}
	if _, ok := s.finished[j.ID]; ok {
		return schedulererrors.JobAlreadyExists(j.ID)
	}

	s.pending[j.ID] = j
	s.insertRewardIndex(j.Reward, j.ID)
	s.insertPublishIndex(j.LastUpdateTime, j.ID)
	return nil
}

// UpdatePending replaces the stored job for an id still in pending,
// re-keying the secondary indexes when reward or last_update_time changed.
func (s *Store) UpdatePending(j *sched.Job) error {
	old, ok := s.pending[j.ID]
	if !ok {
		return schedulererrors.JobDoesNotExist(j.ID)
	}

	if old.Reward != j.Reward {
		s.removeRewardIndex(old.Reward, j.ID)
		s.insertRewardIndex(j.Reward, j.ID)
	}
	if old.LastUpdateTime != j.LastUpdateTime {
		s.removePublishIndex(old.LastUpdateTime, j.ID)
		s.insertPublishIndex(j.LastUpdateTime, j.ID)
	}

	s.pending[j.ID] = j
	return nil
}

// Finish moves a pending job to the finished partition, removing it from
// the secondary indexes (which only ever index pending jobs — keepers only
// need to range-scan over work still up for grabs).
func (s *Store) Finish(j *sched.Job) error {
	if _, ok := s.pending[j.ID]; !ok {
		return schedulererrors.JobDoesNotExist(j.ID)
	}

	delete(s.pending, j.ID)
	s.removeRewardIndex(j.Reward, j.ID)
	s.removePublishIndex(j.LastUpdateTime, j.ID)
	s.finished[j.ID] = j
	return nil
}

func (s *Store) insertRewardIndex(reward, id uint64) {
	e := rewardEntry{reward: reward, id: id}
	i := sort.Search(len(s.byReward), func(i int) bool {
		return rewardLess(e, s.byReward[i])
	})
	s.byReward = append(s.byReward, rewardEntry{})
	copy(s.byReward[i+1:], s.byReward[i:])
	s.byReward[i] = e
}

func (s *Store) removeRewardIndex(reward, id uint64) {
	e := rewardEntry{reward: reward, id: id}
	i := sort.Search(len(s.byReward), func(i int) bool {
		return !rewardLess(s.byReward[i], e)
	})
	if i < len(s.byReward) && s.byReward[i] == e {
		s.byReward = append(s.byReward[:i], s.byReward[i+1:]...)
	}
}

// rewardLess orders a before b: higher reward first, then lower id.
func rewardLess(a, b rewardEntry) bool {
	if a.reward != b.reward {
		return a.reward > b.reward
	}
	return a.id < b.id
}

func (s *Store) insertPublishIndex(publishTime, id uint64) {
	e := publishEntry{publishTime: publishTime, id: id}
	i := sort.Search(len(s.byPublishTime), func(i int) bool {
		return !publishLess(s.byPublishTime[i], e)
	})
	s.byPublishTime = append(s.byPublishTime, publishEntry{})
	copy(s.byPublishTime[i+1:], s.byPublishTime[i:])
	s.byPublishTime[i] = e
}

func (s *Store) removePublishIndex(publishTime, id uint64) {
	e := publishEntry{publishTime: publishTime, id: id}
	i := sort.Search(len(s.byPublishTime), func(i int) bool {
		return !publishLess(s.byPublishTime[i], e)
	})
	if i < len(s.byPublishTime) && s.byPublishTime[i] == e {
		s.byPublishTime = append(s.byPublishTime[:i], s.byPublishTime[i+1:]...)
	}
}

func publishLess(a, b publishEntry) bool {
	if a.publishTime != b.publishTime {
		return a.publishTime < b.publishTime
	}
	return a.id < b.id
}

// ListPendingByReward returns up to limit pending jobs ordered by the
// by_reward index (highest reward first), optionally resuming after
// startAfter.
func (s *Store) ListPendingByReward(limit int, startAfter *uint64) []*sched.Job {
	start := 0
	if startAfter != nil {
		for i, e := range s.byReward {
			if e.id == *startAfter {
				start = i + 1
				break
			}
		}
	}
	out := make([]*sched.Job, 0, limit)
	for i := start; i < len(s.byReward) && len(out) < limit; i++ {
		out = append(out, s.pending[s.byReward[i].id])
	}
	return out
}

// ListPendingByPublishTime returns up to limit pending jobs ordered by the
// by_publish_time index (oldest first unless reverse is set).
func (s *Store) ListPendingByPublishTime(limit int, reverse bool) []*sched.Job {
	out := make([]*sched.Job, 0, limit)
	if reverse {
		for i := len(s.byPublishTime) - 1; i >= 0 && len(out) < limit; i-- {
			out = append(out, s.pending[s.byPublishTime[i].id])
		}
		return out
	}
	for i := 0; i < len(s.byPublishTime) && len(out) < limit; i++ {
		out = append(out, s.pending[s.byPublishTime[i].id])
	}
	return out
}

// AllFinished returns every job in the finished partition, in no particular
// order — used by QueryJobs when no owner is given but the filter could
// still match a terminal job (e.g. job_status=Executed).
func (s *Store) AllFinished() []*sched.Job {
	out := make([]*sched.Job, 0, len(s.finished))
	for _, j := range s.finished {
		out = append(out, j)
	}
	return out
}

// AllByOwner returns every job (pending and finished) owned by owner, in
// no particular order — used by QueryJobs{owner}.
func (s *Store) AllByOwner(owner string) []*sched.Job {
	var out []*sched.Job
	for _, j := range s.pending {
		if j.Owner == owner {
			out = append(out, j)
		}
	}
	for _, j := range s.finished {
		if j.Owner == owner {
			out = append(out, j)
		}
	}
	return out
}
