package health

import "context"

// Pinger checks one dependency's connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker probes the embedding provider.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks over the metadata store, the vector
// store, and the embedding provider.
type Service struct {
	metadata  Pinger
	vectors   Pinger
	embedding EmbeddingChecker
}

// New creates a Service. vectors and embedding can be nil.
func New(metadata, vectors Pinger, embedding EmbeddingChecker) *Service {
	return &Service{metadata: metadata, vectors: vectors, embedding: embedding}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["metadata"] = checkOf(s.metadata.Ping(ctx))

	if s.vectors != nil {
		checks["vectors"] = checkOf(s.vectors.Ping(ctx))
	}
	if s.embedding != nil {
		checks["embedding"] = checkOf(s.embedding.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func checkOf(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
