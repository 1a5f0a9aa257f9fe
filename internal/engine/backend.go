package engine

import "context"

// Backend is the remote job-processing service consumed by the engine.
// The production implementation lives in internal/backend; tests use fakes.
type Backend interface {
	SubmitGeneration(ctx context.Context, req SubmitRequest) (SubmitResult, error)
	ListGenerations(ctx context.Context, userID string, limit int) ([]RemoteGeneration, error)
	GetBalance(ctx context.Context, userID string) (float64, error)
	GetTrialStatus(ctx context.Context, userID string) (bool, error)
}

// httpError lets the engine classify backend failures without depending on a
// concrete client type. A 402 status denotes insufficient balance.
type httpError interface {
	error
	StatusCode() int
}
