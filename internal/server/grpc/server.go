// Package grpcserver exposes the agentpass.v1.Vault gRPC API.
package grpcserver

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/agent-pass/internal/api/vaultv1"
	"github.com/and161185/agent-pass/internal/authctx"
	"github.com/and161185/agent-pass/internal/convert"
	"github.com/and161185/agent-pass/internal/errs"
	"github.com/and161185/agent-pass/internal/model"
	"github.com/and161185/agent-pass/internal/service"
)

// Server wires services into gRPC handlers.
type Server struct {
	vaultv1.UnimplementedVaultServer
	auth     service.AuthService
	settings service.SettingsService
	vault    service.CredentialService
	log      *zap.Logger
}

// New constructs a gRPC server with injected services.
func New(auth service.AuthService, settings service.SettingsService, vault service.CredentialService, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: auth, settings: settings, vault: vault, log: log}
}

// toStatus maps service errors to gRPC codes. Unknown errors are logged and
// reported as a generic Internal.
func (s *Server) toStatus(op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, errs.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, errs.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, "rate limited")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	s.log.Error("grpc handler failed", zap.String("op", op), zap.Error(err))
	return status.Errorf(codes.Internal, "%s failed", op)
}

func userFromCtx(ctx context.Context) (uuid.UUID, error) {
	id, ok := authctx.UserIDFromCtx(ctx)
	if !ok || id == uuid.Nil {
		return uuid.Nil, status.Error(codes.Unauthenticated, "no auth")
	}
	return id, nil
}

func badID(field string) error {
	return status.Errorf(codes.InvalidArgument, "bad %s", field)
}

// --- Auth ---

// SignUp creates a new account and returns a session.
func (s *Server) SignUp(ctx context.Context, req *vaultv1.SignUpRequest) (*vaultv1.SessionResponse, error) {
	tok, u, err := s.auth.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus("sign up", err)
	}
	return convert.ToWireSession(tok, u), nil
}

// SignIn authenticates a user and returns a session.
func (s *Server) SignIn(ctx context.Context, req *vaultv1.SignInRequest) (*vaultv1.SessionResponse, error) {
	tok, u, err := s.auth.SignInWithIP(ctx, req.Email, req.Password, remoteIP(ctx))
	if err != nil {
		return nil, s.toStatus("sign in", err)
	}
	return convert.ToWireSession(tok, u), nil
}

// SignOut revokes the bearer token of the call.
func (s *Server) SignOut(ctx context.Context, _ *vaultv1.SignOutRequest) (*vaultv1.Empty, error) {
	tok, err := bearerTokenFromMD(ctx)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "sign out requires a bearer session")
	}
	if err := s.auth.SignOut(ctx, tok); err != nil {
		return nil, s.toStatus("sign out", err)
	}
	return &vaultv1.Empty{}, nil
}

// WhoAmI returns the authenticated user.
func (s *Server) WhoAmI(ctx context.Context, _ *vaultv1.WhoAmIRequest) (*vaultv1.UserResponse, error) {
	uid, err := userFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.auth.CurrentUser(ctx, uid)
	if err != nil {
		return nil, s.toStatus("whoami", err)
	}
	return &vaultv1.UserResponse{User: convert.ToWireUser(u)}, nil
}

// --- Account ---

func (s *Server) account(ctx context.Context, uid uuid.UUID, st model.AccountSettings) (*vaultv1.AccountResponse, error) {
	u, err := s.auth.CurrentUser(ctx, uid)
	if err != nil {
		return nil, s.toStatus("account", err)
	}
	uri, err := s.settings.EnrollmentURI(st, u.Email)
	if err != nil {
		return nil, s.toStatus("account", err)
	}
	return convert.ToWireAccount(st, uri), nil
}

// GetAccount returns the account settings, creating them on first use.
func (s *Server) GetAccount(ctx context.Context, _ *vaultv1.GetAccountRequest) (*vaultv1.AccountResponse, error) {
	uid, err := userFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.settings.EnsureSettings(ctx, uid)
	if err != nil {
		return nil, s.toStatus("get account", err)
	}
	return s.account(ctx, uid, st)
}

// RegenerateAPIKey issues a new account API key.
func (s *Server) RegenerateAPIKey(ctx context.Context, _ *vaultv1.RegenerateAPIKeyRequest) (*vaultv1.AccountResponse, error) {
	uid, err := userFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.settings.RegenerateAPIKey(ctx, uid)
	if err != nil {
		return nil, s.toStatus("regenerate api key", err)
	}
	return s.account(ctx, uid, st)
}

// VerifyTOTP checks an authenticator code.
func (s *Server) VerifyTOTP(ctx context.Context, req *vaultv1.VerifyTOTPRequest) (*vaultv1.VerifyTOTPResponse, error) {
	uid, err := userFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := s.settings.VerifyTOTP(ctx, uid, req.Code)
	if err != nil {
		return nil, s.toStatus("verify totp", err)
	}
	return &vaultv1.VerifyTOTPResponse{Valid: ok}, nil
}

// --- Groups ---

// ListGroups returns the caller's groups, newest first.
func (s *Server) ListGroups(ctx context.Context, _ *vaultv1.ListGroupsRequest) (*vaultv1.ListGroupsResponse, error) {
	uid, err := userFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	gs, err := s.vault.ListGroups(ctx, uid)
	if err != nil {
		return nil, s.toStatus("list groups", err)
	}
	return &vaultv1.ListGroupsResponse{Groups: convert.ToWireGroups(gs)}, nil
}

// CreateGroup creates a group.
func (s *Server) CreateGroup(ctx context.Context, req *vaultv1.CreateGroupRequest) (*vaultv1.GroupResponse, error) {
	uid, err := userFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	g, err := s.vault.CreateGroup(ctx, uid, req.Name, req.Description)
	if err != nil {
		return nil, s.toStatus("create group", err)
	}
	return &vaultv1.GroupResponse{Group: convert.ToWireGroup(g)}, nil
}

// DeleteGroup removes a group and its credentials.
func (s *Server) DeleteGroup(ctx context.Context, req *vaultv1.DeleteGroupRequest) (*vaultv1.Empty, error) {
	uid, err := userFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	gid, err := convert.ParseID(req.ID)
	if err != nil {
		return nil, badID("id")
	}
	if err := s.vault.DeleteGroup(ctx, uid, gid); err != nil {
		return nil, s.toStatus("delete group", err)
	}
	return &vaultv1.Empty{}, nil
}

// --- Credentials ---

// ListCredentials returns the caller's credentials, newest first.
func (s *Server) ListCredentials(ctx context.Context, _ *vaultv1.ListCredentialsRequest) (*vaultv1.ListCredentialsResponse, error) {
	uid, err := userFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	cs, err := s.vault.ListCredentials(ctx, uid)
	if err != nil {
		return nil, s.toStatus("list credentials", err)
	}
	return &vaultv1.ListCredentialsResponse{Credentials: convert.ToWireCredentials(cs)}, nil
}

// CreateCredential stores a new credential.
func (s *Server) CreateCredential(ctx context.Context, req *vaultv1.CreateCredentialRequest) (*vaultv1.CredentialResponse, error) {
	uid, err := userFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	in, err := convert.FromWireNewCredential(req)
	if err != nil {
		return nil, badID("group_id")
	}
	c, err := s.vault.CreateCredential(ctx, uid, in)
	if err != nil {
		return nil, s.toStatus("create credential", err)
	}
	return &vaultv1.CredentialResponse{Credential: convert.ToWireCredential(c)}, nil
}

// UpdateCredentialValue replaces a credential's value.
func (s *Server) UpdateCredentialValue(ctx context.Context, req *vaultv1.UpdateCredentialValueRequest) (*vaultv1.UpdateCredentialValueResponse, error) {
	uid, err := userFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	id, err := convert.ParseID(req.ID)
	if err != nil {
		return nil, badID("id")
	}
	ts, err := s.vault.UpdateCredentialValue(ctx, uid, id, req.Value)
	if err != nil {
		return nil, s.toStatus("update credential", err)
	}
	return &vaultv1.UpdateCredentialValueResponse{ModifiedAt: ts}, nil
}

// DeleteCredential removes a credential; absent ids succeed.
func (s *Server) DeleteCredential(ctx context.Context, req *vaultv1.DeleteCredentialRequest) (*vaultv1.Empty, error) {
	uid, err := userFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	id, err := convert.ParseID(req.ID)
	if err != nil {
		return nil, badID("id")
	}
	if err := s.vault.DeleteCredential(ctx, uid, id); err != nil {
		return nil, s.toStatus("delete credential", err)
	}
	return &vaultv1.Empty{}, nil
}

// GetVault returns the partitioned overview.
func (s *Server) GetVault(ctx context.Context, _ *vaultv1.GetVaultRequest) (*vaultv1.VaultResponse, error) {
	uid, err := userFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	v, err := s.vault.Overview(ctx, uid)
	if err != nil {
		return nil, s.toStatus("vault", err)
	}
	return convert.ToWireVault(v), nil
}
