package graph

import (
	"context"
	"errors"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/gragdev/grag/domain/fault"
)

// Neo4j status code fragments used for classification. The server reports
// a missing vector index through a procedure failure whose message names
// the index, not through a dedicated status code.
const (
	codeUnauthorized     = "Security.Unauthorized"
	codeAuthRateLimit    = "Security.AuthenticationRateLimit"
	codeCredentialsExp   = "Security.CredentialsExpired"
	msgNoSuchIndex       = "no such vector schema index"
	msgIndexDoesNotExist = "index does not exist"
)

// classifyConnectError maps a connectivity-check failure onto the
// taxonomy: rejected credentials are 2002, everything else 2001.
func classifyConnectError(err error) error {
	if isAuthError(err) {
		return fault.New(fault.CodeGraphAuth, "graph credentials rejected", fault.WithCause(err))
	}
	return fault.New(fault.CodeGraphConnect, "cannot connect to graph", fault.WithCause(err))
}

// classifyQueryError maps a query execution failure onto the taxonomy.
// Timeouts and cancellations are 2004 with kind=Timeout in the details; a
// missing vector index is 2003; everything else is 2004.
func classifyQueryError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fault.New(fault.CodeGraphQuery, "graph query timed out",
			fault.WithDetail("kind", "Timeout"),
			fault.WithCause(err),
		)
	}
	if isAuthError(err) {
		return fault.New(fault.CodeGraphAuth, "graph credentials rejected", fault.WithCause(err))
	}
	if isIndexMissing(err) {
		return fault.New(fault.CodeGraphIndexMissing, "vector index not found", fault.WithCause(err))
	}
	return fault.New(fault.CodeGraphQuery, "graph query failed", fault.WithCause(err))
}

func isAuthError(err error) bool {
	var neoErr *neo4j.Neo4jError
	if !errors.As(err, &neoErr) {
		return false
	}
	return strings.Contains(neoErr.Code, codeUnauthorized) ||
		strings.Contains(neoErr.Code, codeAuthRateLimit) ||
		strings.Contains(neoErr.Code, codeCredentialsExp)
}

func isIndexMissing(err error) bool {
	var neoErr *neo4j.Neo4jError
	if !errors.As(err, &neoErr) {
		return false
	}
	msg := strings.ToLower(neoErr.Msg)
	return strings.Contains(msg, msgNoSuchIndex) ||
		strings.Contains(msg, msgIndexDoesNotExist) ||
		strings.Contains(neoErr.Code, "Schema.IndexNotFound")
}
