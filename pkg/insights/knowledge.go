package insights

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-docintel/pkg/sources"
)

// Node kinds.
const (
	NodeDocument = "document"
	NodeConcept  = "concept"
	NodeEntity   = "entity"
)

// linkSpan is how many following nodes each node links to.
const linkSpan = 2

// Node is a knowledge graph vertex.
type Node struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Type        string  `json:"type"`
	Connections int     `json:"connections"`
	Relevance   float64 `json:"relevance"`
}

// Edge connects two nodes.
type Edge struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Strength float64 `json:"strength"`
	Kind     string  `json:"kind"`
}

// GraphStats summarizes a graph.
type GraphStats struct {
	TotalNodes       int     `json:"total_nodes"`
	TotalConnections int     `json:"total_connections"`
	AvgConnectivity  float64 `json:"avg_connectivity"`
	Clusters         int     `json:"clusters"`
}

// KnowledgeGraph is the knowledge tab view model.
type KnowledgeGraph struct {
	Nodes []Node     `json:"nodes"`
	Edges []Edge     `json:"edges"`
	Stats GraphStats `json:"stats"`
}

// KnowledgeGraph builds one node per repository and links each node to the
// next two.
func (s *Synthesizer) KnowledgeGraph(repos []sources.Repository) (KnowledgeGraph, error) {
	nodes := make([]Node, 0, len(repos))
	for idx, repo := range repos {
		relevance := float64(repo.Stars) / 100
		if relevance > 100 {
			relevance = 100
		}
		nodes = append(nodes, Node{
			ID:          strconv.FormatInt(repo.ID, 10),
			Label:       repo.Name,
			Type:        nodeType(idx),
			Connections: repo.Stars/1000 + 1,
			Relevance:   relevance,
		})
	}
	var edges []Edge
	for i := range nodes {
		for j := i + 1; j < min(i+1+linkSpan, len(nodes)); j++ {
			kind := "contextual"
			strength := s.gen.Float64() * 100
			if s.gen.Float64() > 0.5 {
				kind = "semantic"
			}
			edges = append(edges, Edge{
				Source:   nodes[i].ID,
				Target:   nodes[j].ID,
				Strength: strength,
				Kind:     kind,
			})
		}
	}
	return KnowledgeGraph{Nodes: nodes, Edges: edges, Stats: graphStats(nodes, edges)}, nil
}

// Filter keeps nodes whose label contains term, ignoring case, and the edges
// between them. Stats describe the unfiltered graph.
func (g KnowledgeGraph) Filter(term string) KnowledgeGraph {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return g
	}
	kept := map[string]bool{}
	out := KnowledgeGraph{Stats: g.Stats}
	for _, node := range g.Nodes {
		if strings.Contains(strings.ToLower(node.Label), term) {
			kept[node.ID] = true
			out.Nodes = append(out.Nodes, node)
		}
	}
	for _, edge := range g.Edges {
		if kept[edge.Source] && kept[edge.Target] {
			out.Edges = append(out.Edges, edge)
		}
	}
	return out
}

func nodeType(idx int) string {
	switch idx % 3 {
	case 0:
		return NodeDocument
	case 1:
		return NodeConcept
	default:
		return NodeEntity
	}
}

func graphStats(nodes []Node, edges []Edge) GraphStats {
	stats := GraphStats{
		TotalNodes:       len(nodes),
		TotalConnections: len(edges),
		Clusters:         len(nodes) / 4,
	}
	if len(nodes) == 0 {
		return stats
	}
	total := 0
	for _, n := range nodes {
		total += n.Connections
	}
	stats.AvgConnectivity = float64(total) / float64(len(nodes))
	return stats
}
