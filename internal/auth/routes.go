package auth

import (
	"sort"
	"strings"

	"github.com/spec-kit/quizgate/internal/domain"
)

// Access says whether a route needs a credential.
type Access int

const (
	AccessProtected Access = iota
	AccessPublic
)

// RouteKind selects how denials are rendered: API routes get status codes,
// page routes get redirects.
type RouteKind int

const (
	KindPage RouteKind = iota
	KindAPI
)

// RouteRule classifies every path under Prefix. An empty Role on a protected
// rule admits any authenticated role.
type RouteRule struct {
	Prefix   string
	Exact    bool
	Access   Access
	Kind     RouteKind
	Role     domain.Role
	AuthPage bool
}

func (r RouteRule) matches(path string) bool {
	if r.Exact || r.Prefix == "/" {
		return path == r.Prefix
	}
	if !strings.HasPrefix(path, r.Prefix) {
		return false
	}
	rest := path[len(r.Prefix):]
	return rest == "" || rest[0] == '/' || strings.HasSuffix(r.Prefix, "/")
}

// RouteTable maps request paths to rules by longest matching prefix.
type RouteTable struct {
	rules    []RouteRule
	fallback RouteRule
}

// NewRouteTable copies rules; fallback classifies paths no rule matches.
func NewRouteTable(rules []RouteRule, fallback RouteRule) *RouteTable {
	sorted := make([]RouteRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i].Prefix) != len(sorted[j].Prefix) {
			return len(sorted[i].Prefix) > len(sorted[j].Prefix)
		}
		return sorted[i].Exact && !sorted[j].Exact
	})
	return &RouteTable{rules: sorted, fallback: fallback}
}

// Classify returns the rule governing path.
func (t *RouteTable) Classify(path string) RouteRule {
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	for _, rule := range t.rules {
		if rule.matches(path) {
			return rule
		}
	}
	return t.fallback
}

// DefaultRoutes is the route classification used by the service.
func DefaultRoutes() *RouteTable {
	return NewRouteTable([]RouteRule{
		{Prefix: "/", Exact: true, Access: AccessPublic, Kind: KindPage},
		{Prefix: "/login", Access: AccessPublic, Kind: KindPage, AuthPage: true},
		{Prefix: "/signup", Access: AccessPublic, Kind: KindPage, AuthPage: true},
		{Prefix: "/static", Access: AccessPublic, Kind: KindPage},
		{Prefix: "/health", Access: AccessPublic, Kind: KindAPI},
		{Prefix: "/api/auth", Access: AccessPublic, Kind: KindAPI},
		{Prefix: "/api", Access: AccessProtected, Kind: KindAPI},
		{Prefix: "/api/student", Access: AccessProtected, Kind: KindAPI, Role: domain.RoleStudent},
		{Prefix: "/api/instructor", Access: AccessProtected, Kind: KindAPI, Role: domain.RoleInstructor},
		{Prefix: "/student", Access: AccessProtected, Kind: KindPage, Role: domain.RoleStudent},
		{Prefix: "/instructor", Access: AccessProtected, Kind: KindPage, Role: domain.RoleInstructor},
	}, RouteRule{Access: AccessProtected, Kind: KindPage})
}
