package validation

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kbukum/video-transcribe-mcp/errors"
)

func TestValidatorRequired(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"yt-dlp", false},
		{"", true},
		{"   ", true},
	}
	for _, tt := range tests {
		if got := New().Required("binary", tt.value).HasErrors(); got != tt.wantErr {
			t.Errorf("Required(%q) HasErrors = %v, want %v", tt.value, got, tt.wantErr)
		}
	}
}

func TestValidatorOptionalUUID(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"", false},
		{uuid.NewString(), false},
		{"bad-uuid", true},
	}
	for _, tt := range tests {
		if got := New().OptionalUUID("request_id", tt.value).HasErrors(); got != tt.wantErr {
			t.Errorf("OptionalUUID(%q) HasErrors = %v, want %v", tt.value, got, tt.wantErr)
		}
	}
}

func TestValidatorMinAndPositive(t *testing.T) {
	v := New().Min("beam_size", 0, 1).Positive("timeout", 0)
	if len(v.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %v", v.Errors())
	}
	if New().Min("beam_size", 5, 1).Positive("timeout", 60).HasErrors() {
		t.Error("expected no errors for valid values")
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"stdio", "http"}
	if New().OneOf("transport", "stdio", allowed).HasErrors() {
		t.Error("expected stdio to be allowed")
	}
	if New().OneOf("transport", "", allowed).HasErrors() {
		t.Error("expected empty value to pass")
	}
	v := New().OneOf("transport", "grpc", allowed)
	if !v.HasErrors() || !strings.Contains(v.Errors()[0].Message, "stdio, http") {
		t.Errorf("unexpected errors: %v", v.Errors())
	}
}

func TestValidatorCustom(t *testing.T) {
	if !New().Custom(false, "url", "needs url when backend is sidecar").HasErrors() {
		t.Error("expected error when condition is false")
	}
	if New().Custom(true, "url", "unused").HasErrors() {
		t.Error("expected no error when condition is true")
	}
}

func TestValidatorValidate(t *testing.T) {
	if New().Validate() != nil {
		t.Error("expected nil with no errors")
	}
	if New().Err() != nil {
		t.Error("expected nil error with no errors")
	}

	appErr := New().Required("binary", "").Min("beam_size", 0, 1).Validate()
	if appErr == nil {
		t.Fatal("expected AppError")
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	if appErr.Message != "binary: is required; beam_size: must be at least 1" {
		t.Errorf("unexpected message %q", appErr.Message)
	}
	if fields, ok := appErr.Details["fields"].([]FieldError); !ok || len(fields) != 2 {
		t.Errorf("unexpected details: %v", appErr.Details)
	}

	missing := New().Required("url", " ").Validate()
	if missing == nil || missing.Code != errors.ErrCodeMissingField {
		t.Errorf("expected MISSING_FIELD, got %v", missing)
	}
}

type urlArgs struct {
	URL      string `json:"url" validate:"required"`
	Language string `json:"language,omitempty"`
}

type listArgs struct {
	Limit *int `json:"limit" validate:"omitempty,gte=0"`
}

type untagged struct {
	FilePath string `validate:"required"`
}

func intPtr(n int) *int { return &n }

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantMsg string
	}{
		{"valid url", urlArgs{URL: "https://youtu.be/x"}, ""},
		{"missing url", urlArgs{Language: "en"}, "url: is required"},
		{"nil limit", listArgs{}, ""},
		{"zero limit", listArgs{Limit: intPtr(0)}, ""},
		{"negative limit", listArgs{Limit: intPtr(-1)}, "limit: must be at least 0"},
		{"snake case fallback", untagged{}, "file_path: is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if tt.wantMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", appErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"URL":      "u_r_l",
		"FilePath": "file_path",
		"limit":    "limit",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
