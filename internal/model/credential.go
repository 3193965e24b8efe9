package model

import (
	"strings"

	"github.com/gofrs/uuid/v5"
)

// CredentialType classifies a credential.
type CredentialType string

// Known credential types.
const (
	TypePassword CredentialType = "password"
	TypeAPIKey   CredentialType = "api_key"
	TypeToken    CredentialType = "token"
	TypeSecret   CredentialType = "secret"
	TypeUserID   CredentialType = "userId"
	TypeClientID CredentialType = "clientId"
)

// CredentialTypes lists every accepted type in display order.
var CredentialTypes = []CredentialType{
	TypePassword, TypeAPIKey, TypeToken, TypeSecret, TypeUserID, TypeClientID,
}

// Valid reports whether t is one of the known types.
func (t CredentialType) Valid() bool {
	for _, k := range CredentialTypes {
		if t == k {
			return true
		}
	}
	return false
}

// IsIdentifier reports whether values of this type are identifiers rather than secrets.
func (t CredentialType) IsIdentifier() bool {
	return t == TypeUserID || t == TypeClientID
}

const maskChar = "•"

// DisplayValue returns the value as it should be shown by default:
// identifiers in clear, everything else masked.
func (c Credential) DisplayValue() string {
	if c.Type.IsIdentifier() {
		return c.Value
	}
	n := len([]rune(c.Value))
	if n > 12 {
		n = 12
	}
	if n == 0 {
		return ""
	}
	return strings.Repeat(maskChar, n)
}

// InGroup reports whether the credential belongs to the given group.
func (c Credential) InGroup(id uuid.UUID) bool {
	return c.GroupID != nil && *c.GroupID == id
}

// GroupBucket is one group and the credentials filed under it.
type GroupBucket struct {
	Group       CredentialGroup
	Credentials []Credential
}

// Vault is the partitioned view of a user's credentials.
type Vault struct {
	Ungrouped []Credential
	Groups    []GroupBucket
}

// Partition splits creds into ungrouped ones and one bucket per group, keeping the
// order of both inputs. Credentials pointing at an unknown group are dropped from the
// buckets and are not treated as ungrouped.
func Partition(groups []CredentialGroup, creds []Credential) Vault {
	v := Vault{
		Ungrouped: []Credential{},
		Groups:    make([]GroupBucket, 0, len(groups)),
	}
	idx := make(map[uuid.UUID]int, len(groups))
	for i, g := range groups {
		idx[g.ID] = i
		v.Groups = append(v.Groups, GroupBucket{Group: g, Credentials: []Credential{}})
	}
	for _, c := range creds {
		if c.GroupID == nil {
			v.Ungrouped = append(v.Ungrouped, c)
			continue
		}
		if i, ok := idx[*c.GroupID]; ok {
			v.Groups[i].Credentials = append(v.Groups[i].Credentials, c)
		}
	}
	return v
}
