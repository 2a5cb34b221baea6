package schedulererrors

import (
	"errors"
	"net/http"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without underlying error",
			err:  New(CodeUnauthorized, "test message"),
			want: "[UNAUTHORIZED] test message",
		},
		{
			name: "with underlying error",
			err:  Wrap(CodeInternal, "test message", errors.New("underlying")),
			want: "[INTERNAL] test message: underlying",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(CodeInternal, "test", underlying)

	if got := err.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}
}

func TestError_WithDetails(t *testing.T) {
	err := New(CodeInvalidCondition, "test")
	err.WithDetails("reason", "uninitialized referent").WithDetails("job_id", uint64(1))

	if len(err.Details) != 2 {
		t.Fatalf("Details length = %d, want 2", len(err.Details))
	}
	if err.Details["reason"] != "uninitialized referent" {
		t.Errorf("Details[reason] = %v", err.Details["reason"])
	}
}

func TestJobNotActive_HTTPStatus(t *testing.T) {
	err := JobNotActive(42)
	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("HTTPStatus = %d, want %d", err.HTTPStatus, http.StatusConflict)
	}
	if err.Details["job_id"] != uint64(42) {
		t.Errorf("Details[job_id] = %v, want 42", err.Details["job_id"])
	}
}

func TestAs(t *testing.T) {
	err := EvictionPeriodNotElapsed(7, 5, 100)
	wrapped := errors.New("context: " + err.Error())
	_ = wrapped

	se, ok := As(err)
	if !ok {
		t.Fatal("As() ok = false, want true")
	}
	if se.Code != CodeEvictionPeriodNotElapsed {
		t.Errorf("Code = %v", se.Code)
	}
}

func TestHTTPStatusOf_NonSchedulerError(t *testing.T) {
	if got := HTTPStatusOf(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("HTTPStatusOf() = %d, want %d", got, http.StatusInternalServerError)
	}
}
