package policy

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/monaam/reviewflow-sub000/internal/domain/review"
)

// PolicyFileEnv points at a YAML file replacing the embedded role table.
const PolicyFileEnv = "REVIEWFLOW_ROLE_POLICY_FILE"

//go:embed roles.yaml
var rolesFS embed.FS

type Capability string

const (
	CapGlobalAccess     Capability = "global_access"
	CapUpload           Capability = "upload"
	CapApprove          Capability = "approve"
	CapSendToClient     Capability = "send_to_client"
	CapLock             Capability = "lock"
	CapComment          Capability = "comment"
	CapModerate         Capability = "moderate"
	CapManageRequests   Capability = "manage_requests"
	CapClientRestricted Capability = "client_restricted"
)

var knownCapabilities = map[Capability]bool{
	CapGlobalAccess: true, CapUpload: true, CapApprove: true, CapSendToClient: true,
	CapLock: true, CapComment: true, CapModerate: true, CapManageRequests: true,
	CapClientRestricted: true,
}

type yamlPolicy struct {
	Version int                 `yaml:"version"`
	Roles   map[string][]string `yaml:"roles"`
}

// Policy maps roles to capabilities and answers access questions about actors.
type Policy struct {
	roles map[review.Role]map[Capability]bool
}

// Default returns the embedded role table.
func Default() *Policy {
	data, err := rolesFS.ReadFile("roles.yaml")
	if err != nil {
		panic(fmt.Sprintf("policy: embedded roles.yaml: %v", err))
	}
	p, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("policy: embedded roles.yaml: %v", err))
	}
	return p
}

// Load reads path when set, otherwise the file named by PolicyFileEnv, otherwise the embedded table.
func Load(path string) (*Policy, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(PolicyFileEnv))
	}
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role policy %q: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Policy, error) {
	var spec yamlPolicy
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse role policy: %w", err)
	}
	if len(spec.Roles) == 0 {
		return nil, fmt.Errorf("role policy defines no roles")
	}
	p := &Policy{roles: map[review.Role]map[Capability]bool{}}
	for name, caps := range spec.Roles {
		role, ok := review.ParseRole(name)
		if !ok {
			return nil, fmt.Errorf("role policy: unknown role %q", name)
		}
		set := map[Capability]bool{}
		for _, c := range caps {
			capability := Capability(strings.ToLower(strings.TrimSpace(c)))
			if !knownCapabilities[capability] {
				return nil, fmt.Errorf("role policy: role %q has unknown capability %q", name, c)
			}
			set[capability] = true
		}
		p.roles[role] = set
	}
	return p, nil
}

func (p *Policy) Can(role review.Role, c Capability) bool {
	if p == nil {
		return false
	}
	return p.roles[role][c]
}

// Capabilities lists the capabilities of role in stable order.
func (p *Policy) Capabilities(role review.Role) []Capability {
	if p == nil {
		return nil
	}
	out := make([]Capability, 0, len(p.roles[role]))
	for c := range p.roles[role] {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p *Policy) ClientRestricted(a review.Actor) bool {
	return p.Can(a.Role, CapClientRestricted)
}

// CanAccessProject is true for global-access roles and project members.
func (p *Policy) CanAccessProject(a review.Actor, projectID uuid.UUID) bool {
	if a.UserID == uuid.Nil {
		return false
	}
	return p.Can(a.Role, CapGlobalAccess) || a.MemberOf(projectID)
}

// VisibleStatuses returns nil when the actor sees every status.
func (p *Policy) VisibleStatuses(a review.Actor) []review.AssetStatus {
	if p.ClientRestricted(a) {
		return review.ClientFacingStatuses
	}
	return nil
}

// CanSee applies project access plus the client visibility filter.
func (p *Policy) CanSee(a review.Actor, asset *review.Asset) bool {
	if asset == nil || !p.CanAccessProject(a, asset.ProjectID) {
		return false
	}
	if p.ClientRestricted(a) {
		return asset.Status.ClientFacing()
	}
	return true
}

// TriggersReview reports whether opening the asset should move it into in_review.
func (p *Policy) TriggersReview(a review.Actor, asset *review.Asset) bool {
	return p.CanSee(a, asset) && p.Can(a.Role, CapApprove) && !p.ClientRestricted(a)
}

// CanDecide covers approve and request-revision. Status is left to the
// transition table so a decided asset reports an invalid transition.
func (p *Policy) CanDecide(a review.Actor, asset *review.Asset) bool {
	return p.CanSee(a, asset) && p.Can(a.Role, CapApprove)
}

func (p *Policy) CanUpload(a review.Actor, projectID uuid.UUID) bool {
	return p.CanAccessProject(a, projectID) && p.Can(a.Role, CapUpload) && !p.Can(a.Role, CapClientRestricted)
}

func (p *Policy) CanSendToClient(a review.Actor, asset *review.Asset) bool {
	return p.CanSee(a, asset) && p.Can(a.Role, CapSendToClient)
}

func (p *Policy) CanLock(a review.Actor, asset *review.Asset) bool {
	return p.CanSee(a, asset) && p.Can(a.Role, CapLock)
}

func (p *Policy) CanComment(a review.Actor, asset *review.Asset) bool {
	return p.CanSee(a, asset) && p.Can(a.Role, CapComment)
}

// CanResolve allows the uploader, moderators, and restricted reviewers on client-facing assets.
func (p *Policy) CanResolve(a review.Actor, asset *review.Asset) bool {
	if !p.CanSee(a, asset) {
		return false
	}
	if asset.UploaderID == a.UserID || p.Can(a.Role, CapModerate) {
		return true
	}
	return p.ClientRestricted(a) && asset.Status.ClientFacing()
}

func (p *Policy) CanDeleteComment(a review.Actor, asset *review.Asset, c *review.Comment) bool {
	if c == nil || !p.CanSee(a, asset) {
		return false
	}
	return c.AuthorID == a.UserID || p.Can(a.Role, CapModerate)
}

func (p *Policy) CanDeleteAsset(a review.Actor, asset *review.Asset) bool {
	if !p.CanSee(a, asset) {
		return false
	}
	return asset.UploaderID == a.UserID || p.Can(a.Role, CapModerate)
}

func (p *Policy) CanManageRequests(a review.Actor, projectID uuid.UUID) bool {
	return p.CanAccessProject(a, projectID) && p.Can(a.Role, CapManageRequests)
}

// MemberCanSee is CanSee for a project member identified only by membership row.
func (p *Policy) MemberCanSee(m review.ProjectMember, asset *review.Asset) bool {
	role, ok := review.ParseRole(m.Role)
	if !ok {
		return false
	}
	return p.CanSee(review.Actor{UserID: m.UserID, Role: role, ProjectIDs: []uuid.UUID{m.ProjectID}}, asset)
}
