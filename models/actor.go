package models

import "github.com/google/uuid"

// Actor is the authenticated caller of a workflow operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsAdmin() bool   { return a.Role == RoleAdmin }
func (a Actor) IsTutor() bool   { return a.Role == RoleTutor }
func (a Actor) IsStudent() bool { return a.Role == RoleStudent }
