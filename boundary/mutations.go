package boundary

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/warpscheduler/core/config"
	"github.com/warpscheduler/core/engine"
	"github.com/warpscheduler/core/sched"
)

// CreateJobBody is the decoded payload of a CreateJob request.
type CreateJobBody struct {
	Owner              string             `json:"owner"`
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	Labels             map[string]string  `json:"labels"`
	Condition          *sched.Condition   `json:"condition"`
	TerminateCondition *sched.Condition   `json:"terminate_condition"`
	Vars               []sched.Variable   `json:"vars"`
	Msgs               []sched.Message    `json:"msgs"`
	Reward             uint64             `json:"reward"`
	Recurring          bool               `json:"recurring"`
	RequeueOnEvict     bool               `json:"requeue_on_evict"`
	Account            string             `json:"account"`
	AssetsToWithdraw   []string           `json:"assets_to_withdraw"`
	Now                uint64             `json:"now"`
}

func (d *Dispatcher) createJob(ctx context.Context, req Request) (*Response, error) {
	var body CreateJobBody
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, fmt.Errorf("decode create_job: %w", err)
	}
	owner := body.Owner
	if owner == "" {
		owner = req.Sender
	}

	res, err := d.engine.Create(ctx, engine.CreateRequest{
		Owner:              owner,
		Name:               body.Name,
		Description:        body.Description,
		Labels:             body.Labels,
		Condition:          body.Condition,
		TerminateCondition: body.TerminateCondition,
		Vars:               body.Vars,
		Msgs:               body.Msgs,
		Reward:             body.Reward,
		Recurring:          body.Recurring,
		RequeueOnEvict:     body.RequeueOnEvict,
		Account:            body.Account,
		AssetsToWithdraw:   body.AssetsToWithdraw,
		Now:                body.Now,
	})
	if err != nil {
		d.logOutcome(ctx, "create_job", 0, req.Sender, err)
		return nil, err
	}
	d.logOutcome(ctx, "create_job", res.Job.ID, req.Sender, nil)
	return resultToResponse(res), nil
}

// UpdateJobBody is the decoded payload of an UpdateJob request.
type UpdateJobBody struct {
	ID          uint64            `json:"id"`
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Labels      map[string]string `json:"labels"`
	AddedReward uint64            `json:"added_reward"`
	Now         uint64            `json:"now"`
}

func (d *Dispatcher) updateJob(ctx context.Context, req Request) (*Response, error) {
	var body UpdateJobBody
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, fmt.Errorf("decode update_job: %w", err)
	}

	res, err := d.engine.Update(ctx, engine.UpdateRequest{
		JobID:       body.ID,
		Sender:      req.Sender,
		Name:        body.Name,
		Description: body.Description,
		Labels:      body.Labels,
		AddedReward: body.AddedReward,
		Now:         body.Now,
	})
	d.logOutcome(ctx, "update_job", body.ID, req.Sender, err)
	if err != nil {
		return nil, err
	}
	return resultToResponse(res), nil
}

// DeleteJobBody is the decoded payload of a DeleteJob request.
type DeleteJobBody struct {
	ID uint64 `json:"id"`
}

func (d *Dispatcher) deleteJob(ctx context.Context, req Request) (*Response, error) {
	var body DeleteJobBody
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, fmt.Errorf("decode delete_job: %w", err)
	}

	res, err := d.engine.Delete(ctx, engine.DeleteRequest{JobID: body.ID, Sender: req.Sender})
	d.logOutcome(ctx, "delete_job", body.ID, req.Sender, err)
	if err != nil {
		return nil, err
	}
	return resultToResponse(res), nil
}

// ExecuteJobBody is the decoded payload of an ExecuteJob request.
type ExecuteJobBody struct {
	ID             uint64            `json:"id"`
	ExternalInputs map[string]string `json:"external_inputs"`
}

func (d *Dispatcher) executeJob(ctx context.Context, req Request) (*Response, error) {
	var body ExecuteJobBody
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, fmt.Errorf("decode execute_job: %w", err)
	}

	res, err := d.engine.Execute(ctx, engine.ExecuteRequest{
		JobID:          body.ID,
		Executor:       req.Sender,
		ExternalInputs: body.ExternalInputs,
	})
	d.logOutcome(ctx, "execute_job", body.ID, req.Sender, err)
	if err != nil {
		return nil, err
	}
	return resultToResponse(res), nil
}

// EvictJobBody is the decoded payload of an EvictJob request.
type EvictJobBody struct {
	ID  uint64 `json:"id"`
	Now uint64 `json:"now"`
}

func (d *Dispatcher) evictJob(ctx context.Context, req Request) (*Response, error) {
	var body EvictJobBody
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, fmt.Errorf("decode evict_job: %w", err)
	}

	res, err := d.engine.Evict(ctx, engine.EvictRequest{JobID: body.ID, Caller: req.Sender, Now: body.Now})
	d.logOutcome(ctx, "evict_job", body.ID, req.Sender, err)
	if err != nil {
		return nil, err
	}
	return resultToResponse(res), nil
}

func (d *Dispatcher) updateConfig(req Request) (*Response, error) {
	var patch config.ConfigPatch
	if err := json.Unmarshal(req.Payload, &patch); err != nil {
		return nil, fmt.Errorf("decode update_config: %w", err)
	}

	cfg, err := d.engine.UpdateConfig(req.Sender, patch)
	d.logOutcome(context.Background(), "update_config", 0, req.Sender, err)
	if err != nil {
		return nil, err
	}
	return &Response{Config: cfg}, nil
}

func (d *Dispatcher) logOutcome(ctx context.Context, method string, jobID uint64, sender string, err error) {
	if d.logger == nil {
		return
	}
	entry := d.logger.WithContext(ctx).WithFields(mapOf(method, jobID, sender))
	if err != nil {
		entry.WithError(err).Warn("boundary request failed")
		return
	}
	entry.Info("boundary request committed")
}

func mapOf(method string, jobID uint64, sender string) map[string]interface{} {
	return map[string]interface{}{"method": method, "job_id": jobID, "sender": sender}
}
