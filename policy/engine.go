// Package policy evaluates upload requests against a rego policy.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"

	"github.com/theyashgrover/gpt-clone/internal/attachment"
)

// Decisions returned by the upload policy.
const (
	DecisionAllow      = "allow"
	DecisionRejectType = "reject_type"
	DecisionRejectSize = "reject_size"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.upload_policy.decision"),
		rego.Module("upload_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// NewEngineFromFile loads the policy from path, or uses DefaultPolicy when path is empty.
func NewEngineFromFile(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return NewEngine(ctx, string(content))
}

// UploadInput is the document the policy evaluates.
type UploadInput struct {
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Name     string `json:"name,omitempty"`
}

// Evaluate returns the policy decision for an upload.
func (e *Engine) Evaluate(ctx context.Context, input UploadInput) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// A policy without a default rejects.
		return DecisionRejectType, nil
	}

	val := results[0].Expressions[0].Value
	if s, ok := val.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("unexpected policy result type %T", val)
}

// CheckUpload maps the decision onto the attachment errors.
func (e *Engine) CheckUpload(ctx context.Context, input UploadInput) error {
	decision, err := e.Evaluate(ctx, input)
	if err != nil {
		return err
	}
	switch decision {
	case DecisionAllow:
		return nil
	case DecisionRejectSize:
		return attachment.ErrTooLarge
	default:
		return attachment.ErrTypeNotAllowed
	}
}

// DefaultPolicy mirrors the allow-list and size bound in package attachment.
const DefaultPolicy = `
package upload_policy

max_size = 10485760

allowed_types = {
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
	"text/csv",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

default decision = "reject_type"

decision = "allow" {
	allowed_types[input.mime_type]
	input.size <= max_size
}

decision = "reject_size" {
	allowed_types[input.mime_type]
	input.size > max_size
}
`
