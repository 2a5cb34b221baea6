package store

import (
	"testing"

	"github.com/warpscheduler/core/sched"
)

func job(id uint64, owner string, reward, publishTime uint64) *sched.Job {
	return &sched.Job{ID: id, Owner: owner, Reward: reward, LastUpdateTime: publishTime, Status: sched.StatusPending}
}

func TestInsertPending_RejectsDuplicateID(t *testing.T) {
	s := New()
	if err := s.InsertPending(job(1, "owner1", 100, 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.InsertPending(job(1, "owner1", 200, 20)); err == nil {
		t.Fatal("expected JobAlreadyExists")
	}
}

func TestGet_FindsPendingThenFinished(t *testing.T) {
	s := New()
	j := job(1, "owner1", 100, 10)
	if err := s.InsertPending(j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := s.Get(1)
	if err != nil || got.ID != 1 {
		t.Fatalf("got (%v, %v)", got, err)
	}

	j.Status = sched.StatusExecuted
	if err := s.Finish(j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err = s.Get(1)
	if err != nil || got.Status != sched.StatusExecuted {
		t.Fatalf("got (%v, %v)", got, err)
	}
}

func TestGet_MissingJob(t *testing.T) {
	s := New()
	if _, err := s.Get(42); err == nil {
		t.Fatal("expected JobDoesNotExist")
	}
}

func TestListPendingByReward_DescendingOrder(t *testing.T) {
	s := New()
	_ = s.InsertPending(job(1, "owner1", 100, 10))
	_ = s.InsertPending(job(2, "owner1", 300, 20))
	_ = s.InsertPending(job(3, "owner1", 200, 30))

	got := s.ListPendingByReward(10, nil)
	wantIDs := []uint64{2, 3, 1}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d jobs, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Fatalf("position %d: got job %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestListPendingByReward_Pagination(t *testing.T) {
	s := New()
	_ = s.InsertPending(job(1, "owner1", 100, 10))
	_ = s.InsertPending(job(2, "owner1", 300, 20))
	_ = s.InsertPending(job(3, "owner1", 200, 30))

	first := s.ListPendingByReward(1, nil)
	if len(first) != 1 || first[0].ID != 2 {
		t.Fatalf("got %v", first)
	}

	startAfter := first[0].ID
	rest := s.ListPendingByReward(10, &startAfter)
	if len(rest) != 2 || rest[0].ID != 3 || rest[1].ID != 1 {
		t.Fatalf("got %v", rest)
	}
}

func TestListPendingByPublishTime_AscendingAndReverse(t *testing.T) {
	s := New()
	_ = s.InsertPending(job(1, "owner1", 100, 30))
	_ = s.InsertPending(job(2, "owner1", 100, 10))
	_ = s.InsertPending(job(3, "owner1", 100, 20))

	asc := s.ListPendingByPublishTime(10, false)
	wantAsc := []uint64{2, 3, 1}
	for i, id := range wantAsc {
		if asc[i].ID != id {
			t.Fatalf("ascending position %d: got %d, want %d", i, asc[i].ID, id)
		}
	}

	desc := s.ListPendingByPublishTime(10, true)
	wantDesc := []uint64{1, 3, 2}
	for i, id := range wantDesc {
		if desc[i].ID != id {
			t.Fatalf("reverse position %d: got %d, want %d", i, desc[i].ID, id)
		}
	}
}

func TestFinish_RemovesFromSecondaryIndexes(t *testing.T) {
	s := New()
	j := job(1, "owner1", 100, 10)
	_ = s.InsertPending(j)

	j.Status = sched.StatusCancelled
	if err := s.Finish(j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := s.ListPendingByReward(10, nil); len(got) != 0 {
		t.Fatalf("expected no pending jobs left, got %v", got)
	}
	if s.IsPending(1) {
		t.Fatal("expected job to have left the pending partition")
	}
}

func TestUpdatePending_ReKeysRewardIndex(t *testing.T) {
	s := New()
	j := job(1, "owner1", 100, 10)
	_ = s.InsertPending(j)

	j2 := job(1, "owner1", 500, 10)
	if err := s.UpdatePending(j2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := s.ListPendingByReward(10, nil)
	if len(got) != 1 || got[0].Reward != 500 {
		t.Fatalf("got %v", got)
	}
}

func TestAllByOwner(t *testing.T) {
	s := New()
	_ = s.InsertPending(job(1, "owner1", 100, 10))
	_ = s.InsertPending(job(2, "owner2", 100, 10))
	j3 := job(3, "owner1", 100, 10)
	_ = s.InsertPending(j3)
	j3.Status = sched.StatusExecuted
	_ = s.Finish(j3)

	got := s.AllByOwner("owner1")
	if len(got) != 2 {
		t.Fatalf("expected 2 jobs for owner1, got %d", len(got))
	}
}
