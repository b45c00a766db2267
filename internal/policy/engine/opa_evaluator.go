package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"auth-service/internal/platform/rbac"
)

const scopeQuery = "data.auth.scope.allow"

// DefaultScopePolicy lets admins act on any tenant, managers on their own tenant only,
// and anyone on a resource they own.
const DefaultScopePolicy = `package auth.scope

default allow := false

allow if input.subject.role == "admin"

allow if {
	input.subject.role == "manager"
	input.subject.tenant_id != ""
	input.resource.tenant_id == input.subject.tenant_id
}

allow if {
	input.resource.owner_id != ""
	input.resource.owner_id == input.subject.user_id
}
`

// OPAScopeEvaluator is a rbac.ScopeChecker backed by an in-process Rego policy.
// The policy must define data.auth.scope.allow.
type OPAScopeEvaluator struct {
	query rego.PreparedEvalQuery
}

var _ rbac.ScopeChecker = (*OPAScopeEvaluator)(nil)

// NewOPAScopeEvaluator compiles policy (DefaultScopePolicy when empty) and prepares the allow query.
func NewOPAScopeEvaluator(ctx context.Context, policy string) (*OPAScopeEvaluator, error) {
	if strings.TrimSpace(policy) == "" {
		policy = DefaultScopePolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"scope.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile scope policy: %w", err)
	}
	q, err := rego.New(
		rego.Query(scopeQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare scope policy: %w", err)
	}
	return &OPAScopeEvaluator{query: q}, nil
}

// Allow evaluates the policy for subject acting on resource. An undefined result is a denial.
func (e *OPAScopeEvaluator) Allow(ctx context.Context, subject rbac.Subject, resource rbac.Resource) (bool, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(subject, resource)))
	if err != nil {
		return false, fmt.Errorf("eval scope policy: %w", err)
	}
	return rs.Allowed(), nil
}

// HealthCheck verifies that the prepared policy evaluates and still grants an admin access.
// Does not touch the database. Returns nil on success.
func (e *OPAScopeEvaluator) HealthCheck(ctx context.Context) error {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(rbac.Subject{UserID: "healthcheck", Role: "admin"}, rbac.Resource{})))
	if err != nil {
		return fmt.Errorf("eval scope policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return errors.New("scope policy query returned no result")
	}
	return nil
}

func buildInput(subject rbac.Subject, resource rbac.Resource) map[string]interface{} {
	return map[string]interface{}{
		"subject": map[string]interface{}{
			"user_id":   subject.UserID,
			"role":      subject.Role,
			"tenant_id": subject.TenantID,
		},
		"resource": map[string]interface{}{
			"tenant_id": resource.TenantID,
			"owner_id":  resource.OwnerID,
		},
	}
}
