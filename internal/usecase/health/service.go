package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckPending indicates search indexes that are still building.
	CheckPending CheckResult = "pending"
)

// Component names used as Report.Checks keys.
const (
	ComponentDatabase  = "database"
	ComponentLLMConfig = "llm_config"
	ComponentLLM       = "llm"
	ComponentIndexes   = "search_indexes"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db         DBPinger
	model      ModelChecker
	config     ConfigValidator
	indexes    IndexChecker
	collection string
	expected   []string
}

// New creates a Service. model can be nil.
func New(db DBPinger, model ModelChecker) *Service {
	return &Service{db: db, model: model}
}

// WithConfigValidator adds the LLM configuration check.
func (s *Service) WithConfigValidator(v ConfigValidator) *Service {
	s.config = v
	return s
}

// WithIndexes adds the search index readiness check for collection.
func (s *Service) WithIndexes(c IndexChecker, collection string, expected ...string) *Service {
	s.indexes = c
	s.collection = collection
	s.expected = expected
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	dbOK := s.db.Ping(ctx) == nil
	checks[ComponentDatabase] = result(dbOK)

	if s.config != nil {
		checks[ComponentLLMConfig] = result(s.config.ValidateLLMConfiguration())
	}

	if s.model != nil {
		checks[ComponentLLM] = result(s.model.HealthCheck(ctx) == nil)
	}

	if s.indexes != nil && dbOK {
		_, settled, err := s.indexes.Check(ctx, s.collection, s.expected...)
		switch {
		case err != nil:
			checks[ComponentIndexes] = CheckError
		case !settled:
			checks[ComponentIndexes] = CheckPending
		default:
			checks[ComponentIndexes] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}
	if !dbOK {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
