package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/warpscheduler/core/boundary"
	"github.com/warpscheduler/core/config"
	"github.com/warpscheduler/core/schedulererrors"
)

// serverNow stamps the block-clock value the engine trusts for grace-period
// and anti-starvation checks. HTTP callers are untrusted external
// principals, so a client-supplied "now" field in the request body is
// always overwritten with this before the request reaches the engine — it
// is decoded only to keep the wire shape usable by the in-process
// boundary.Dispatcher, which test and direct callers may still drive with
// an explicit Now.
func serverNow() uint64 {
	return uint64(time.Now().Unix())
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, method boundary.Method, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		badRequest(w, "failed to encode request")
		return
	}

	resp, err := s.dispatcher.Dispatch(r.Context(), boundary.Request{
		Sender:  senderOf(r),
		Method:  method,
		Payload: raw,
	})
	if err != nil {
		writeDispatchError(w, err)
		return
	}

	status := http.StatusOK
	switch method {
	case boundary.MethodCreateJob:
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

func writeDispatchError(w http.ResponseWriter, err error) {
	status := schedulererrors.HTTPStatusOf(err)
	code := ""
	if se, ok := schedulererrors.As(err); ok {
		code = string(se.Code)
	}
	writeError(w, status, code, err.Error())
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var body boundary.CreateJobBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Owner == "" {
		body.Owner = senderOf(r)
	}
	body.Now = serverNow()
	s.dispatch(w, r, boundary.MethodCreateJob, body)
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	var body boundary.UpdateJobBody
	if !decodeJSON(w, r, &body) {
		return
	}
	body.ID = id
	body.Now = serverNow()
	s.dispatch(w, r, boundary.MethodUpdateJob, body)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	s.dispatch(w, r, boundary.MethodDeleteJob, boundary.DeleteJobBody{ID: id})
}

func (s *Server) handleExecuteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	var body boundary.ExecuteJobBody
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &body) {
			return
		}
	}
	body.ID = id
	s.dispatch(w, r, boundary.MethodExecuteJob, body)
}

func (s *Server) handleEvictJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	var body boundary.EvictJobBody
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &body) {
			return
		}
	}
	body.ID = id
	body.Now = serverNow()
	s.dispatch(w, r, boundary.MethodEvictJob, body)
}

func (s *Server) handleQueryJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	s.dispatch(w, r, boundary.MethodQueryJob, boundary.QueryJobBody{ID: id})
}

func (s *Server) handleQueryJobs(w http.ResponseWriter, r *http.Request) {
	body := boundary.QueryJobsBody{
		Owner:   r.URL.Query().Get("owner"),
		Name:    r.URL.Query().Get("name"),
		Limit:   queryInt(r, "limit", 100),
		Reverse: queryBool(r, "reverse"),
	}
	s.dispatch(w, r, boundary.MethodQueryJobs, body)
}

func (s *Server) handleQueryAccount(w http.ResponseWriter, r *http.Request) {
	owner := mux.Vars(r)["owner"]
	s.dispatch(w, r, boundary.MethodQueryAccount, boundary.QueryAccountBody{Owner: owner})
}

func (s *Server) handleQueryJobAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	s.dispatch(w, r, boundary.MethodQueryJobAccount, boundary.QueryJobAccountBody{JobID: id})
}

func (s *Server) handleQueryConfig(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, boundary.MethodQueryConfig, struct{}{})
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var patch config.ConfigPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	s.dispatch(w, r, boundary.MethodUpdateConfig, patch)
}
