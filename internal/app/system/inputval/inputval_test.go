package inputval

import (
	"errors"
	"strings"
	"testing"

	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
)

type inviteInput struct {
	Email string `json:"editorEmail" validate:"required,email"`
	Role  string `json:"role" validate:"required,team_role"`
}

type statusInput struct {
	Status string `json:"status" validate:"required,task_status"`
}

func TestStruct_Valid(t *testing.T) {
	if err := Struct("test", inviteInput{Email: "e@example.com", Role: "video_editor"}); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
	if err := Struct("test", statusInput{Status: "in_progress"}); err != nil {
		t.Fatalf("expected valid status, got %v", err)
	}
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct("team.Invite", inviteInput{Email: "not-an-email", Role: "producer"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	msg := apperr.Message(err)
	if !strings.Contains(msg, "editorEmail must be a valid email") {
		t.Errorf("message missing email detail: %q", msg)
	}
	if !strings.Contains(msg, "role must be one of") {
		t.Errorf("message missing role detail: %q", msg)
	}
}

func TestStruct_UnknownTaskStatus(t *testing.T) {
	err := Struct("tasks.SetStatus", statusInput{Status: "done"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
