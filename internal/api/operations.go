// Package api exposes the scoring engine to a host process through a closed
// operation table, served over HTTP and over line-delimited JSON on stdio.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/haimeda/statement-scorer/internal/core/domain"
	scorerrors "github.com/haimeda/statement-scorer/internal/core/errors"
	"github.com/haimeda/statement-scorer/internal/process/batch"
	"github.com/haimeda/statement-scorer/internal/process/resources"
)

// Operation names a host-callable operation.
type Operation string

// Operations.
const (
	OpHealth           Operation = "health"
	OpCompare          Operation = "compare"
	OpCompareBatch     Operation = "compare_batch"
	OpCompareAll       Operation = "compare_all"
	OpWorkerCount      Operation = "worker_count"
	OpVRAMInfo         Operation = "vram_info"
	OpReleaseResources Operation = "release_resources"
	OpModelStatus      Operation = "model_status"
)

// Service is the engine surface the operations call.
type Service interface {
	Health() string
	Compare(ctx context.Context, s1, s2 string) domain.ComparisonResult
	CompareBatch(ctx context.Context, pairs []domain.Pair) []domain.ComparisonResult
	CompareAll(ctx context.Context, inputs, outputs []string) []domain.ComparisonResult
	WorkerCount(ctx context.Context) int
	VRAMInfo(ctx context.Context) resources.VRAMInfo
	Release(ctx context.Context)
	ModelStatus() string
}

// PairArgs names two statements.
type PairArgs struct {
	Statement1 string `json:"statement1"`
	Statement2 string `json:"statement2"`
}

// CompareBatchArgs lists the pairs of a batch.
type CompareBatchArgs struct {
	Pairs []PairArgs `json:"pairs"`
}

// CompareAllArgs lists both sides of a cross-product comparison.
type CompareAllArgs struct {
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// BatchResponse carries batch results and the batch ID used in logs.
type BatchResponse struct {
	BatchID string                    `json:"batch_id"`
	Results []domain.ComparisonResult `json:"results"`
}

// WorkerCountResponse reports the worker count.
type WorkerCountResponse struct {
	Workers int `json:"workers"`
}

// StatusResponse carries a status string.
type StatusResponse struct {
	Status string `json:"status"`
}

// route binds an operation to its HTTP method and path.
type route struct {
	method string
	path   string
	handle func(ctx context.Context, svc Service, args json.RawMessage) (any, error)
}

var operations = map[Operation]route{
	OpHealth:           {http.MethodGet, "/healthz", health},
	OpCompare:          {http.MethodPost, "/v1/compare", compare},
	OpCompareBatch:     {http.MethodPost, "/v1/compare/batch", compareBatch},
	OpCompareAll:       {http.MethodPost, "/v1/compare/all", compareAll},
	OpWorkerCount:      {http.MethodGet, "/v1/resources/workers", workerCount},
	OpVRAMInfo:         {http.MethodGet, "/v1/resources/vram", vramInfo},
	OpReleaseResources: {http.MethodPost, "/v1/resources/release", releaseResources},
	OpModelStatus:      {http.MethodGet, "/v1/model/status", modelStatus},
}

// Dispatch runs op with JSON-encoded args. Unknown operations fail with ErrUnknownOperation
// and undecodable args with ErrInvalidInput.
func Dispatch(ctx context.Context, svc Service, op Operation, args json.RawMessage) (any, error) {
	r, ok := operations[op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", scorerrors.ErrUnknownOperation, op)
	}

	return r.handle(ctx, svc, args)
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}

	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %w", scorerrors.ErrInvalidInput, err)
	}

	return nil
}

func health(_ context.Context, svc Service, _ json.RawMessage) (any, error) {
	return svc.Health(), nil
}

func compare(ctx context.Context, svc Service, args json.RawMessage) (any, error) {
	var a PairArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	return svc.Compare(ctx, a.Statement1, a.Statement2), nil
}

func compareBatch(ctx context.Context, svc Service, args json.RawMessage) (any, error) {
	var a CompareBatchArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	pairs := make([]domain.Pair, len(a.Pairs))
	for i, p := range a.Pairs {
		pairs[i] = domain.NewPair(p.Statement1, p.Statement2)
	}

	ctx, id := withBatchID(ctx)

	return BatchResponse{BatchID: id, Results: svc.CompareBatch(ctx, pairs)}, nil
}

func compareAll(ctx context.Context, svc Service, args json.RawMessage) (any, error) {
	var a CompareAllArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	ctx, id := withBatchID(ctx)

	return BatchResponse{BatchID: id, Results: svc.CompareAll(ctx, a.Inputs, a.Outputs)}, nil
}

func workerCount(ctx context.Context, svc Service, _ json.RawMessage) (any, error) {
	return WorkerCountResponse{Workers: svc.WorkerCount(ctx)}, nil
}

func vramInfo(ctx context.Context, svc Service, _ json.RawMessage) (any, error) {
	return svc.VRAMInfo(ctx), nil
}

func releaseResources(ctx context.Context, svc Service, _ json.RawMessage) (any, error) {
	svc.Release(ctx)

	return StatusResponse{Status: "released"}, nil
}

func modelStatus(_ context.Context, svc Service, _ json.RawMessage) (any, error) {
	return StatusResponse{Status: svc.ModelStatus()}, nil
}

func withBatchID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()

	return batch.WithBatchID(ctx, id), id
}
