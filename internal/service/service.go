// Package service implements the document workflows: the permission engine that
// gates every operation, the document lifecycle orchestrator, account workflows
// and the orphan sweeper.
//
// Every workflow is a sequential pipeline; the first failing step ends it and its
// typed failure is returned unchanged.
package service

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docvault/internal/token"
)

var tracer = otel.Tracer("docvault/internal/service")

// actorFrom resolves the verified identity behind a bearer token.
func actorFrom(tokens token.Service, raw string) (token.Payload, error) {
	return tokens.Verify(raw)
}

// actorIDFrom is actorFrom for workflows that only need the user id.
func actorIDFrom(tokens token.Service, raw string) (string, error) {
	p, err := actorFrom(tokens, raw)
	if err != nil {
		return "", err
	}
	return p.UserID, nil
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
