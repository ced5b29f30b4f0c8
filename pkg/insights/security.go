package insights

import (
	"errors"
	"strconv"
	"time"

	"github.com/goliatone/go-docintel/pkg/sources"
)

// Severities, lowest first.
var Severities = []string{"low", "medium", "high", "critical"}

var (
	securityRoles    = []string{"Admin", "Analyst", "Viewer", "Editor"}
	securityStatuses = []string{"active", "inactive", "suspended"}
	permissionSet    = []string{"read", "write", "delete"}
	eventTypes       = []string{"login", "access", "alert", "permission"}
	eventLocations   = []string{"New York", "London", "Tokyo", "Sydney"}
)

const actionLength = 50

var errNoSecurityUsers = errors.New("insights: security events require at least one user")

// SecurityUser is an account in the access list.
type SecurityUser struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	LastAccess  time.Time `json:"last_access"`
	Permissions []string  `json:"permissions"`
	Status      string    `json:"status"`
}

// SecurityEvent is one audit log entry.
type SecurityEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	User      string    `json:"user"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Severity  string    `json:"severity"`
	Location  string    `json:"location"`
}

// SecurityOverview is the security tab view model.
type SecurityOverview struct {
	Users    []SecurityUser  `json:"users"`
	Events   []SecurityEvent `json:"events"`
	Severity map[string]int  `json:"severity"`
}

// Security maps users to accounts and posts to audit events attributed to
// random accounts.
func (s *Synthesizer) Security(users []sources.User, posts []sources.Post) (SecurityOverview, error) {
	if len(users) > fleetSize {
		users = users[:fleetSize]
	}
	if len(users) == 0 && len(posts) > 0 {
		return SecurityOverview{}, errNoSecurityUsers
	}
	now := s.now()
	overview := SecurityOverview{
		Users:    make([]SecurityUser, 0, len(users)),
		Events:   make([]SecurityEvent, 0, len(posts)),
		Severity: make(map[string]int, len(Severities)),
	}
	for _, sev := range Severities {
		overview.Severity[sev] = 0
	}
	for _, user := range users {
		overview.Users = append(overview.Users, SecurityUser{
			ID:          strconv.Itoa(user.ID),
			Name:        user.Name,
			Email:       user.Email,
			Role:        pick(s.gen, securityRoles),
			LastAccess:  now.Add(-time.Duration(s.gen.Float64() * float64(7*24*time.Hour))),
			Permissions: append([]string(nil), permissionSet[:between(s.gen, 1, len(permissionSet))]...),
			Status:      pick(s.gen, securityStatuses),
		})
	}
	for _, post := range posts {
		event := SecurityEvent{
			ID:        strconv.Itoa(post.ID),
			Type:      pick(s.gen, eventTypes),
			User:      pick(s.gen, overview.Users).Name,
			Action:    truncate(post.Title, actionLength) + "...",
			Timestamp: now.Add(-time.Duration(s.gen.Float64() * float64(24*time.Hour))),
			Severity:  pick(s.gen, Severities),
			Location:  pick(s.gen, eventLocations),
		}
		overview.Severity[event.Severity]++
		overview.Events = append(overview.Events, event)
	}
	return overview, nil
}

// BySeverity returns the events at sev; an empty sev returns every event.
func (o SecurityOverview) BySeverity(sev string) []SecurityEvent {
	if sev == "" {
		return o.Events
	}
	var out []SecurityEvent
	for _, e := range o.Events {
		if e.Severity == sev {
			out = append(out, e)
		}
	}
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
