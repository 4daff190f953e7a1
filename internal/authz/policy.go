// Package authz decides which actions an authenticated user may perform.
// Every admin-only route goes through Allow so the rule lives in one place.
package authz

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/SkillSwap/internal/identity"
)

// Actor is the caller as seen by the policy.
type Actor struct {
	UserID  int64
	IsAdmin bool
}

// ActorFromClaims converts session claims to an Actor. A nil claims value
// yields the zero Actor, which is denied everything.
func ActorFromClaims(c *identity.UserTokenClaims) Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{UserID: c.UserID, IsAdmin: c.IsAdmin}
}

// Capability names a privileged action.
type Capability string

const (
	ManageUsers      Capability = "users:manage"
	ApproveSkills    Capability = "skills:approve"
	DeduplicateSkill Capability = "skills:deduplicate"
	ViewStats        Capability = "stats:view"
	DownloadReports  Capability = "reports:download"
	BroadcastMessage Capability = "messages:broadcast"
	SendMail         Capability = "mail:send"
	AuditLedger      Capability = "ledger:audit"
)

// Allow reports whether actor holds capability. All current capabilities
// are admin-only.
func Allow(actor Actor, capability Capability) bool {
	if actor.UserID <= 0 {
		return false
	}
	switch capability {
	case ManageUsers, ApproveSkills, DeduplicateSkill, ViewStats,
		DownloadReports, BroadcastMessage, SendMail, AuditLedger:
		return actor.IsAdmin
	}
	return false
}

// Require aborts with 403 unless the authenticated caller holds capability.
// It must run after identity.RequireUserToken.
func Require(capability Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Allow(ActorFromClaims(identity.UserClaimsFromCtx(c)), capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
