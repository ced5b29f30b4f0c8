package insights

import (
	"fmt"
	"strconv"

	"github.com/goliatone/go-docintel/pkg/sources"
)

// Model statuses.
const (
	ModelActive   = "active"
	ModelInactive = "inactive"
	ModelLoading  = "loading"
)

const fleetSize = 8

var modelNames = []string{
	"GPT-4-Turbo", "Claude-3-Opus", "Gemini-Pro", "LLaMA-2-70B",
	"BERT-Large", "RoBERTa-Base", "T5-11B", "PaLM-2",
}

// Model is one served model.
type Model struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	Performance int     `json:"performance"`
	Cost        float64 `json:"cost"`
	Latency     int     `json:"latency"`
	Accuracy    int     `json:"accuracy"`
	Version     string  `json:"version"`
}

// ModelStats aggregates the fleet.
type ModelStats struct {
	Total      int     `json:"total"`
	Active     int     `json:"active"`
	AvgLatency float64 `json:"avg_latency"`
	TotalCost  float64 `json:"total_cost"`
}

// ModelFleet is the AI models view model.
type ModelFleet struct {
	Models []Model    `json:"models"`
	Stats  ModelStats `json:"stats"`
}

// Models maps the first eight users to a model fleet.
func (s *Synthesizer) Models(users []sources.User) (ModelFleet, error) {
	if len(users) > fleetSize {
		users = users[:fleetSize]
	}
	models := make([]Model, 0, len(users))
	for idx, user := range users {
		models = append(models, Model{
			ID:          strconv.Itoa(user.ID),
			Name:        modelNames[idx],
			Type:        modelType(idx),
			Status:      modelStatus(idx),
			Performance: between(s.gen, 70, 40),
			Cost:        s.gen.Float64()*0.01 + 0.001,
			Latency:     between(s.gen, 100, 500),
			Accuracy:    between(s.gen, 85, 20),
			Version:     fmt.Sprintf("v%d.%d", between(s.gen, 1, 5), s.gen.IntN(10)),
		})
	}
	return ModelFleet{Models: models, Stats: modelStats(models)}, nil
}

// Toggle returns a copy of the fleet with the model's status flipped
// between active and inactive. Any non-active status becomes active.
func (f ModelFleet) Toggle(id string) (ModelFleet, error) {
	models := make([]Model, len(f.Models))
	copy(models, f.Models)
	found := false
	for i := range models {
		if models[i].ID != id {
			continue
		}
		found = true
		if models[i].Status == ModelActive {
			models[i].Status = ModelInactive
		} else {
			models[i].Status = ModelActive
		}
	}
	if !found {
		return f, fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}
	return ModelFleet{Models: models, Stats: modelStats(models)}, nil
}

func modelType(idx int) string {
	switch {
	case idx < 3:
		return "llm"
	case idx < 6:
		return "embedding"
	default:
		return "reranker"
	}
}

func modelStatus(idx int) string {
	switch idx % 3 {
	case 0:
		return ModelActive
	case 1:
		return ModelInactive
	default:
		return ModelLoading
	}
}

func modelStats(models []Model) ModelStats {
	stats := ModelStats{Total: len(models)}
	if len(models) == 0 {
		return stats
	}
	latency := 0
	for _, m := range models {
		if m.Status == ModelActive {
			stats.Active++
		}
		latency += m.Latency
		stats.TotalCost += m.Cost
	}
	stats.AvgLatency = float64(latency) / float64(len(models))
	return stats
}
