package insights

import (
	"fmt"
	"time"

	"github.com/ettle/strcase"

	"github.com/goliatone/go-docintel/pkg/sources"
)

// Deployment statuses.
const (
	StatusSuccess   = "success"
	StatusDeploying = "deploying"
	StatusPending   = "pending"
	StatusFailed    = "failed"
	StatusRollback  = "rollback"
)

var (
	deploymentComponents = []string{"ML Pipeline", "Vector DB", "API Gateway", "Cache Layer", "Search Engine", "Auth Service"}
	deploymentStatuses   = []string{StatusSuccess, StatusDeploying, StatusPending, StatusFailed, StatusRollback}
)

// DefaultDeploymentComponent and DefaultDeploymentVersion fill manual deployments.
const (
	DefaultDeploymentComponent = "ML Pipeline"
	DefaultDeploymentVersion   = "v2.1.0"
)

// Deployment is one component rollout.
type Deployment struct {
	ID           string            `json:"id"`
	Component    string            `json:"component"`
	ComponentKey string            `json:"component_key"`
	Version      string            `json:"version"`
	Status       string            `json:"status"`
	Progress     int               `json:"progress"`
	Timestamp    time.Time         `json:"timestamp"`
	Metrics      DeploymentMetrics `json:"metrics"`
}

// DeploymentMetrics are the live numbers of a rollout.
type DeploymentMetrics struct {
	ResponseTime int     `json:"response_time"`
	ErrorRate    float64 `json:"error_rate"`
	Throughput   int     `json:"throughput"`
}

// SystemHealth is the availability snapshot shown next to deployments.
type SystemHealth struct {
	Overall    float64            `json:"overall"`
	Components map[string]float64 `json:"components"`
}

// DeploymentBoard is the hot swap view model.
type DeploymentBoard struct {
	Deployments []Deployment `json:"deployments"`
	ActiveID    string       `json:"active_id,omitempty"`
	Health      SystemHealth `json:"health"`
}

// DefaultSystemHealth returns the baseline health snapshot.
func DefaultSystemHealth() SystemHealth {
	return SystemHealth{
		Overall: 98.5,
		Components: map[string]float64{
			"database": 99.2,
			"api":      97.8,
			"cache":    98.9,
			"ml":       96.5,
		},
	}
}

// Deployments maps each commit to a simulated rollout. Components are
// assigned by position and wrap around once the fixed list is exhausted.
func (s *Synthesizer) Deployments(commits []sources.Commit) (DeploymentBoard, error) {
	board := DeploymentBoard{
		Deployments: make([]Deployment, 0, len(commits)),
		Health:      DefaultSystemHealth(),
	}
	for idx, commit := range commits {
		if len(commit.SHA) < 8 {
			return DeploymentBoard{}, fmt.Errorf("insights: commit %d has short sha %q", idx, commit.SHA)
		}
		component := deploymentComponents[idx%len(deploymentComponents)]
		board.Deployments = append(board.Deployments, Deployment{
			ID:           commit.SHA[:8],
			Component:    component,
			ComponentKey: strcase.ToKebab(component),
			Version:      fmt.Sprintf("v%d.%d.%d", between(s.gen, 1, 5), s.gen.IntN(10), s.gen.IntN(10)),
			Status:       pick(s.gen, deploymentStatuses),
			Progress:     s.gen.IntN(100),
			Timestamp:    commit.Commit.Author.Date,
			Metrics: DeploymentMetrics{
				ResponseTime: between(s.gen, 50, 200),
				ErrorRate:    s.gen.Float64() * 2,
				Throughput:   between(s.gen, 500, 1000),
			},
		})
	}
	board.ActiveID = firstDeploying(board.Deployments)
	return board, nil
}

// Active returns the deployment currently rolling out.
func (b DeploymentBoard) Active() (Deployment, bool) {
	for _, d := range b.Deployments {
		if d.ID == b.ActiveID && b.ActiveID != "" {
			return d, true
		}
	}
	return Deployment{}, false
}

// Initiate returns a copy of the board with a new deploying rollout at the
// front. Empty component or version fall back to the defaults.
func (b DeploymentBoard) Initiate(id, component, version string, at time.Time) DeploymentBoard {
	if component == "" {
		component = DefaultDeploymentComponent
	}
	if version == "" {
		version = DefaultDeploymentVersion
	}
	next := Deployment{
		ID:           id,
		Component:    component,
		ComponentKey: strcase.ToKebab(component),
		Version:      version,
		Status:       StatusDeploying,
		Timestamp:    at,
	}
	out := DeploymentBoard{
		Deployments: make([]Deployment, 0, len(b.Deployments)+1),
		ActiveID:    id,
		Health:      b.Health,
	}
	out.Deployments = append(out.Deployments, next)
	out.Deployments = append(out.Deployments, b.Deployments...)
	return out
}

// Throughput returns the component labels and throughput values for charting.
func (b DeploymentBoard) Throughput() ([]string, []float64) {
	labels := make([]string, len(b.Deployments))
	values := make([]float64, len(b.Deployments))
	for i, d := range b.Deployments {
		labels[i] = d.Component
		values[i] = float64(d.Metrics.Throughput)
	}
	return labels, values
}

func firstDeploying(deployments []Deployment) string {
	for _, d := range deployments {
		if d.Status == StatusDeploying {
			return d.ID
		}
	}
	return ""
}
