// Package auth derives a caller role from the envelope's identity fields.
// The scheme is a stateless shared-secret proof: the caller proves knowledge
// of the salt by presenting the SHA-512 digest the server recomputes. No
// credentials are issued or stored.
package auth

import (
	"crypto/sha512"
	"encoding/hex"
	"time"

	"scoring/internal/scoring/models"
)

// Role is the authorization outcome for one request. It is derived, never
// stored.
type Role int

const (
	RoleForbidden Role = iota
	RoleUser
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleUser:
		return "user"
	default:
		return "forbidden"
	}
}

// Config carries the shared secrets. It is built once at startup and passed
// in; there is no package-level mutable state.
type Config struct {
	Salt       string
	AdminSalt  string
	AdminLogin string
}

// adminHourLayout renders the current UTC hour as YYYYMMDDHH. The admin
// digest is valid only within that hour.
const adminHourLayout = "2006010215"

// Checker validates envelope tokens against the configured secrets. The
// clock is injected so the hour-boxed admin digest is testable.
type Checker struct {
	cfg Config
	now func() time.Time
}

// New builds a Checker. A nil clock means time.Now.
func New(cfg Config, now func() time.Time) *Checker {
	if now == nil {
		now = time.Now
	}
	return &Checker{cfg: cfg, now: now}
}

// Check computes the expected digest for the envelope's identity and
// compares it with the presented token. An empty login that is not the
// admin login falls into the user branch and fails the digest check.
func (c *Checker) Check(req *models.MethodRequest) Role {
	if req.IsAdmin(c.cfg.AdminLogin) {
		digest := digestOf(c.now().UTC().Format(adminHourLayout) + c.cfg.AdminSalt)
		if digest == req.TokenValue() {
			return RoleAdmin
		}
		return RoleForbidden
	}
	digest := digestOf(req.AccountValue() + req.LoginValue() + c.cfg.Salt)
	if digest == req.TokenValue() {
		return RoleUser
	}
	return RoleForbidden
}

// UserToken returns the digest a user with the given account and login must
// present. Exposed for tests and credential provisioning.
func (c *Checker) UserToken(account, login string) string {
	return digestOf(account + login + c.cfg.Salt)
}

// AdminToken returns the digest valid for the hour containing t.
func (c *Checker) AdminToken(t time.Time) string {
	return digestOf(t.UTC().Format(adminHourLayout) + c.cfg.AdminSalt)
}

func digestOf(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}
