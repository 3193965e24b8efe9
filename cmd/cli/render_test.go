package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/agent-pass/internal/api/vaultv1"
)

func Test_displayValue(t *testing.T) {
	t.Parallel()

	pw := vaultv1.Credential{Type: "password", Value: "hunter2"}
	assert.Equal(t, "•••••••", displayValue(pw, false))
	assert.Equal(t, "hunter2", displayValue(pw, true))

	long := vaultv1.Credential{Type: "api_key", Value: strings.Repeat("k", 40)}
	assert.Equal(t, strings.Repeat("•", 12), displayValue(long, false))

	id := vaultv1.Credential{Type: "clientId", Value: "svc-42"}
	assert.Equal(t, "svc-42", displayValue(id, false))
}

func Test_printVault(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printVault(&buf, &vaultv1.VaultResponse{}, false)
	assert.Contains(t, buf.String(), "vault is empty")

	buf.Reset()
	v := &vaultv1.VaultResponse{
		Ungrouped: []vaultv1.Credential{{ID: "c1", Name: "github", Type: "token", Value: "ghp_secret"}},
		Groups: []vaultv1.GroupBucket{{
			Group:       vaultv1.Group{ID: "g1", Name: "Production"},
			Credentials: []vaultv1.Credential{{ID: "c2", Name: "db-user", Type: "userId", Value: "admin"}},
		}},
	}
	printVault(&buf, v, false)
	out := buf.String()
	assert.Contains(t, out, "Ungrouped")
	assert.Contains(t, out, "Production")
	assert.Contains(t, out, "admin")
	assert.NotContains(t, out, "ghp_secret")
	assert.Less(t, strings.Index(out, "github"), strings.Index(out, "Production"), "ungrouped first")
}

func Test_printAccount_Masks(t *testing.T) {
	t.Parallel()

	acc := &vaultv1.AccountResponse{APIKey: strings.Repeat("a", 64), TOTPSecret: "JBSWY3DPEHPK3PXP", TOTPURI: "otpauth://x", UpdatedAt: time.Now()}
	var buf bytes.Buffer
	printAccount(&buf, acc, false)
	assert.NotContains(t, buf.String(), acc.APIKey)
	assert.NotContains(t, buf.String(), "otpauth://")

	buf.Reset()
	printAccount(&buf, acc, true)
	assert.Contains(t, buf.String(), acc.APIKey)
	assert.Contains(t, buf.String(), "otpauth://x")
}

func Test_printJSON_WritesPretty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]any{"a": 1}))
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, float64(1), m["a"])
	assert.Contains(t, buf.String(), "\n  ")
}

func Test_friendly(t *testing.T) {
	t.Parallel()

	plain := errors.New("dial failed")
	assert.Equal(t, plain, friendly(plain))
	assert.EqualError(t, friendly(status.Error(codes.NotFound, "x")), "not found")
	assert.EqualError(t, friendly(status.Error(codes.ResourceExhausted, "x")), "too many attempts, try again later")
	assert.Contains(t, friendly(status.Error(codes.InvalidArgument, "validation: name is required")).Error(), "name is required")
}

func Test_tsString(t *testing.T) {
	t.Parallel()

	assert.Empty(t, tsString(time.Time{}))
	now := time.Now()
	assert.Contains(t, tsString(now), now.Local().Format("2006-01-02"))
}
