package model

import (
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
)

func TestCredentialType_Valid(t *testing.T) {
	t.Parallel()
	for _, ct := range CredentialTypes {
		require.True(t, ct.Valid(), ct)
	}
	for _, bad := range []CredentialType{"", "Password", "ssh_key", "userid"} {
		require.False(t, bad.Valid(), bad)
	}
}

func TestCredentialType_IsIdentifier(t *testing.T) {
	t.Parallel()
	require.True(t, TypeUserID.IsIdentifier())
	require.True(t, TypeClientID.IsIdentifier())
	require.False(t, TypePassword.IsIdentifier())
	require.False(t, TypeAPIKey.IsIdentifier())
}

func TestCredential_DisplayValue(t *testing.T) {
	t.Parallel()
	id := Credential{Type: TypeClientID, Value: "client-42"}
	require.Equal(t, "client-42", id.DisplayValue())

	short := Credential{Type: TypePassword, Value: "abc"}
	require.Equal(t, "•••", short.DisplayValue())

	long := Credential{Type: TypeToken, Value: "ghp_0123456789abcdefghij"}
	require.Equal(t, 12, len([]rune(long.DisplayValue())))
	require.NotContains(t, long.DisplayValue(), "ghp_")

	require.Equal(t, "", Credential{Type: TypeSecret}.DisplayValue())
}

func TestPartition(t *testing.T) {
	t.Parallel()
	work := CredentialGroup{ID: uuid.Must(uuid.NewV4()), Name: "Work"}
	home := CredentialGroup{ID: uuid.Must(uuid.NewV4()), Name: "Home"}
	orphanGroup := uuid.Must(uuid.NewV4())

	creds := []Credential{
		{Name: "a"},
		{Name: "b", GroupID: &work.ID},
		{Name: "c", GroupID: &orphanGroup},
		{Name: "d", GroupID: &work.ID},
		{Name: "e"},
	}
	v := Partition([]CredentialGroup{work, home}, creds)

	require.Len(t, v.Ungrouped, 2)
	require.Equal(t, "a", v.Ungrouped[0].Name)
	require.Equal(t, "e", v.Ungrouped[1].Name)

	require.Len(t, v.Groups, 2)
	require.Equal(t, "Work", v.Groups[0].Group.Name)
	require.Equal(t, []string{"b", "d"}, names(v.Groups[0].Credentials))
	require.Equal(t, "Home", v.Groups[1].Group.Name)
	require.Empty(t, v.Groups[1].Credentials)
	require.NotNil(t, v.Groups[1].Credentials)
}

func TestPartition_Empty(t *testing.T) {
	t.Parallel()
	v := Partition(nil, nil)
	require.NotNil(t, v.Ungrouped)
	require.Empty(t, v.Groups)
}

func names(cs []Credential) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}
