package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/haimeda/statement-scorer/internal/platform/observability"
)

const (
	transportStdio = "stdio"

	// opLabelUnknown replaces operation names outside the table in metric labels.
	opLabelUnknown = "unknown"

	stdioInitialBuffer = 64 << 10
	stdioMaxLine       = 64 << 20
)

// Request is one stdio request line.
type Request struct {
	ID   json.RawMessage `json:"id"`
	Op   Operation       `json:"op"`
	Args json.RawMessage `json:"args"`
}

// Response is one stdio response line. Exactly one of Result and Error is set.
type Response struct {
	ID     json.RawMessage `json:"id"`
	Result any             `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ServeStdio answers one JSON request per input line until in is exhausted or ctx ends.
// Malformed lines get an error response; only I/O failures stop the loop.
func ServeStdio(ctx context.Context, svc Service, in io.Reader, out io.Writer, logger *zerolog.Logger) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, stdioInitialBuffer), stdioMaxLine)

	enc := json.NewEncoder(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := handleLine(ctx, svc, line, logger)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading requests: %w", err)
	}

	return nil
}

func handleLine(ctx context.Context, svc Service, line []byte, logger *zerolog.Logger) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		observability.OperationRequests.WithLabelValues(transportStdio, opLabelUnknown, "error").Inc()

		return Response{Error: fmt.Sprintf("malformed request: %v", err)}
	}

	label := operationLabel(req.Op)

	result, err := Dispatch(ctx, svc, req.Op, req.Args)
	if err != nil {
		observability.OperationRequests.WithLabelValues(transportStdio, label, "error").Inc()
		logger.Warn().Err(err).Str(logFieldOperation, label).Msg("operation failed")

		return Response{ID: req.ID, Error: err.Error()}
	}

	observability.OperationRequests.WithLabelValues(transportStdio, label, "ok").Inc()

	return Response{ID: req.ID, Result: result}
}

// operationLabel keeps metric label values within the operation table.
func operationLabel(op Operation) string {
	if _, ok := operations[op]; !ok {
		return opLabelUnknown
	}

	return string(op)
}
