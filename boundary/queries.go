package boundary

import (
	"encoding/json"
	"fmt"

	"github.com/warpscheduler/core/sched"
	"github.com/warpscheduler/core/schedulererrors"
)

// QueryJobBody is the decoded payload of a QueryJob request.
type QueryJobBody struct {
	ID uint64 `json:"id"`
}

func (d *Dispatcher) queryJob(req Request) (*Response, error) {
	var body QueryJobBody
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, fmt.Errorf("decode query_job: %w", err)
	}
	job, err := d.engine.Store().Get(body.ID)
	if err != nil {
		return nil, err
	}
	return &Response{Job: job}, nil
}

// QueryJobsBody is the decoded payload of a QueryJobs request: a non-empty
// Ids lists specific jobs directly and every other field is ignored;
// otherwise Owner, Name, JobStatus and StartAfter each narrow the result
// set when set, and all set filters apply together. Limit is capped at 1000.
type QueryJobsBody struct {
	Ids        []uint64    `json:"ids"`
	Owner      string      `json:"owner"`
	Name       string      `json:"name"`
	JobStatus  sched.Status `json:"job_status"`
	Limit      int         `json:"limit"`
	StartAfter *uint64     `json:"start_after"`
	Reverse    bool        `json:"reverse"`
}

const maxQueryJobsLimit = 1000

func (d *Dispatcher) queryJobs(req Request) (*Response, error) {
	var body QueryJobsBody
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, fmt.Errorf("decode query_jobs: %w", err)
	}
	limit := body.Limit
	if limit <= 0 || limit > maxQueryJobsLimit {
		limit = maxQueryJobsLimit
	}

	store := d.engine.Store()

	if len(body.Ids) > 0 {
		jobs := make([]*sched.Job, 0, len(body.Ids))
		for _, id := range body.Ids {
			job, err := store.Get(id)
			if err != nil {
				continue
			}
			jobs = append(jobs, job)
		}
		return &Response{Jobs: jobs}, nil
	}

	var candidates []*sched.Job
	switch {
	case body.Owner != "":
		candidates = store.AllByOwner(body.Owner)
	default:
		// No owner narrows the scan to a single partition, so the default
		// candidate set draws from both: pending jobs in publish-time order,
		// followed by finished jobs, so a job_status-only filter (e.g.
		// "Executed") can still match a terminal job.
		candidates = store.ListPendingByPublishTime(limit, body.Reverse)
		candidates = append(candidates, store.AllFinished()...)
	}

	filtered := make([]*sched.Job, 0, len(candidates))
	for _, job := range candidates {
		if body.Name != "" && job.Name != body.Name {
			continue
		}
		if body.JobStatus != "" && job.Status != body.JobStatus {
			continue
		}
		if body.StartAfter != nil && job.ID <= *body.StartAfter {
			continue
		}
		filtered = append(filtered, job)
		if len(filtered) >= limit {
			break
		}
	}

	return &Response{Jobs: filtered}, nil
}

// QueryAccountBody is the decoded payload of a QueryAccount request.
type QueryAccountBody struct {
	Owner string `json:"owner"`
}

func (d *Dispatcher) queryAccount(req Request) (*Response, error) {
	var body QueryAccountBody
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, fmt.Errorf("decode query_account: %w", err)
	}
	return &Response{Account: d.accountView(body.Owner)}, nil
}

// QueryAccountsBody is the decoded payload of a QueryAccounts request.
type QueryAccountsBody struct {
	Owners []string `json:"owners"`
}

func (d *Dispatcher) queryAccounts(req Request) (*Response, error) {
	var body QueryAccountsBody
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, fmt.Errorf("decode query_accounts: %w", err)
	}
	views := make([]*AccountView, 0, len(body.Owners))
	for _, owner := range body.Owners {
		views = append(views, d.accountView(owner))
	}
	return &Response{Accounts: views}, nil
}

func (d *Dispatcher) accountView(owner string) *AccountView {
	accounts := d.engine.Accounts()
	return &AccountView{
		Owner: owner,
		Free:  accounts.FreeAddresses(owner),
		InUse: accounts.InUseAddresses(owner),
	}
}

func (d *Dispatcher) queryConfig() (*Response, error) {
	return &Response{Config: d.engine.Config()}, nil
}

// QueryJobAccountBody is the decoded payload of a QueryJobAccount request.
type QueryJobAccountBody struct {
	JobID uint64 `json:"job_id"`
}

func (d *Dispatcher) queryJobAccount(req Request) (*Response, error) {
	var body QueryJobAccountBody
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, fmt.Errorf("decode query_job_account: %w", err)
	}
	job, err := d.engine.Store().Get(body.JobID)
	if err != nil {
		return nil, err
	}
	if job.Account == "" {
		return nil, schedulererrors.AccountDoesNotExist(job.Owner)
	}
	return &Response{Account: &AccountView{Owner: job.Owner, Free: nil, InUse: map[string]uint64{job.Account: job.ID}}}, nil
}
