// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package access

import "fmt"

// Permission is the access level being requested.
type Permission int

const (
	// PermissionRead grants read-only access to a resource.
	PermissionRead Permission = iota + 1
	// PermissionWrite grants mutation access to a resource.
	PermissionWrite
)

// String returns the canonical name of the permission.
func (p Permission) String() string {
	switch p {
	case PermissionRead:
		return "READ"
	case PermissionWrite:
		return "WRITE"
	}
	return "UNKNOWN"
}

// UserContext identifies the requesting user. It is constructed per-request
// from the authentication collaborator and never persisted.
type UserContext struct {
	UserId  string
	Groups  []string
	IsAdmin bool
}

// ResourceContext describes the protected object. It is supplied by the
// resource's own repository via a Policy lookup.
type ResourceContext struct {
	ResourceId    string
	ResourceType  string // e.g. "collection", "repository", "document"
	AllowedGroups []string
	OwnerId       string
	IsPrivate     bool
}

// AccessDecision is the outcome of evaluating a user's permission against a
// resource. Immutable once constructed.
type AccessDecision struct {
	Allowed    bool
	Permission Permission
	// Reason is a human-readable denial message, populated only when denied.
	Reason string
	// GrantingGroups holds the group overlap that granted access, populated
	// only when access was allowed via group membership. Empty when allowed
	// via ownership or admin status.
	GrantingGroups []string
}

// Evaluate decides whether the user holds the permission on the resource.
//
// Decision order:
//   - admins are always allowed
//   - the resource owner is always allowed
//   - a non-private resource is allowed when the user shares at least one
//     group with the resource's allowed groups
//   - everything else is denied with a reason naming the resource
//
// A non-private resource with no allowed groups is reachable only by its
// owner and admins.
func Evaluate(user UserContext, resource ResourceContext, permission Permission) AccessDecision {
	if user.IsAdmin {
		return AccessDecision{Allowed: true, Permission: permission}
	}

	if resource.OwnerId != "" && resource.OwnerId == user.UserId {
		return AccessDecision{Allowed: true, Permission: permission}
	}

	if !resource.IsPrivate {
		if overlap := groupOverlap(user.Groups, resource.AllowedGroups); len(overlap) > 0 {
			return AccessDecision{
				Allowed:        true,
				Permission:     permission,
				GrantingGroups: overlap,
			}
		}
	}

	return AccessDecision{
		Allowed:    false,
		Permission: permission,
		Reason: fmt.Sprintf("user %s does not have %s permission on %s %s",
			user.UserId, permission, resource.ResourceType, resource.ResourceId),
	}
}

// groupOverlap returns the intersection of two group sets. Group names are
// opaque, case-sensitive identifiers; order is irrelevant. The result
// preserves the order of the user's groups for stable output.
func groupOverlap(userGroups, allowedGroups []string) []string {
	if len(userGroups) == 0 || len(allowedGroups) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(allowedGroups))
	for _, g := range allowedGroups {
		allowed[g] = struct{}{}
	}

	var overlap []string
	seen := make(map[string]struct{}, len(userGroups))
	for _, g := range userGroups {
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		if _, ok := allowed[g]; ok {
			overlap = append(overlap, g)
		}
	}
	return overlap
}

// Validate evaluates the permission and returns ErrPermissionDenied when the
// decision is a denial. Call sites that want to short-circuit on denial use
// this instead of Evaluate.
func Validate(user UserContext, resource ResourceContext, permission Permission) error {
	decision := Evaluate(user, resource, permission)
	if !decision.Allowed {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, decision.Reason)
	}
	return nil
}
