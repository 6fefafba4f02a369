// Package columns infers which CSV header plays each semantic role
// (date, interactions, account name, ...) across differently named exports.
package columns

import (
	"strings"

	"github.com/sells-group/postmetrics/internal/textnorm"
)

// Role is a semantic column a derived view reads from.
type Role string

// Known roles.
const (
	RoleName         Role = "name"
	RoleDate         Role = "date"
	RoleInteractions Role = "interactions"
	RoleViews        Role = "views"
	RoleLikes        Role = "likes"
	RoleComments     Role = "comments"
	RoleURL          Role = "url"
	RoleIdeology     Role = "ideology"
	RoleRole         Role = "role"
	RoleParty        Role = "party"
	RoleState        Role = "state"
	RoleText         Role = "text"
)

// roleSpec is one row of the resolution table: the substrings tried against
// normalized headers, in order, and the header used when none match.
type roleSpec struct {
	Role       Role
	Candidates []string
	Default    string
}

var roleTable = []roleSpec{
	{RoleName, []string{"nome", "usuario", "perfil", "autor", "conta", "username", "account"}, "Nome"},
	{RoleDate, []string{"data", "created", "timestamp"}, "Data de Criação do Post"},
	{RoleInteractions, []string{"interac", "intera", "engagement"}, "Total de Interações"},
	{RoleViews, []string{"visualiz", "views", "impress"}, "Visualizações"},
	{RoleLikes, []string{"curtid", "likes", "reac"}, "Curtidas"},
	{RoleComments, []string{"coment", "comment"}, "Comentários"},
	{RoleURL, []string{"url", "link"}, "URL"},
	{RoleIdeology, []string{"ideolog"}, "Ideologia"},
	{RoleRole, []string{"cargo", "funcao", "role"}, "Cargo"},
	{RoleParty, []string{"partido", "party"}, "Partido"},
	{RoleState, []string{"estado", "uf"}, "Estado"},
	{RoleText, []string{"texto", "conteudo", "mensagem", "legenda", "text"}, "Texto"},
}

// Roles returns every known role in resolution-table order.
func Roles() []Role {
	out := make([]Role, len(roleTable))
	for i, rs := range roleTable {
		out[i] = rs.Role
	}
	return out
}

// ParseRole maps a role name (case-insensitive) to its Role.
func ParseRole(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, rs := range roleTable {
		if string(rs.Role) == s {
			return rs.Role, true
		}
	}
	return "", false
}

// Column is the header resolved for a role. Found is false when no header
// matched and Header holds the role's default name instead.
type Column struct {
	Header string `json:"header" yaml:"header"`
	Found  bool   `json:"found" yaml:"found"`
}

// ColumnMap maps every role to its resolved column.
type ColumnMap map[Role]Column

// Resolve matches each role against the header row. Headers are scanned in
// their original order and the first one containing any candidate wins.
// The result depends only on headers, so equal inputs give equal maps.
func Resolve(headers []string) ColumnMap {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = textnorm.Normalize(strings.TrimSpace(h))
	}

	cm := make(ColumnMap, len(roleTable))
	for _, rs := range roleTable {
		cm[rs.Role] = resolveRole(rs, headers, normalized)
	}
	return cm
}

func resolveRole(rs roleSpec, headers, normalized []string) Column {
	for i, h := range normalized {
		for _, c := range rs.Candidates {
			if strings.Contains(h, c) {
				return Column{Header: headers[i], Found: true}
			}
		}
	}
	return Column{Header: rs.Default}
}

// Header returns the header name for role, resolved or default.
func (cm ColumnMap) Header(role Role) string {
	if c, ok := cm[role]; ok {
		return c.Header
	}
	for _, rs := range roleTable {
		if rs.Role == role {
			return rs.Default
		}
	}
	return ""
}

// Has reports whether role matched an actual header.
func (cm ColumnMap) Has(role Role) bool {
	return cm[role].Found
}

// Value returns the raw cell for role in row, or "" when absent.
func (cm ColumnMap) Value(row map[string]string, role Role) string {
	return row[cm.Header(role)]
}
