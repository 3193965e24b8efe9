package vaultv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "agentpass.v1.Vault"

// Full method names, as seen by interceptors.
const (
	MethodSignUp                = "/" + ServiceName + "/SignUp"
	MethodSignIn                = "/" + ServiceName + "/SignIn"
	MethodSignOut               = "/" + ServiceName + "/SignOut"
	MethodWhoAmI                = "/" + ServiceName + "/WhoAmI"
	MethodGetAccount            = "/" + ServiceName + "/GetAccount"
	MethodRegenerateAPIKey      = "/" + ServiceName + "/RegenerateAPIKey"
	MethodVerifyTOTP            = "/" + ServiceName + "/VerifyTOTP"
	MethodListGroups            = "/" + ServiceName + "/ListGroups"
	MethodCreateGroup           = "/" + ServiceName + "/CreateGroup"
	MethodDeleteGroup           = "/" + ServiceName + "/DeleteGroup"
	MethodListCredentials       = "/" + ServiceName + "/ListCredentials"
	MethodCreateCredential      = "/" + ServiceName + "/CreateCredential"
	MethodUpdateCredentialValue = "/" + ServiceName + "/UpdateCredentialValue"
	MethodDeleteCredential      = "/" + ServiceName + "/DeleteCredential"
	MethodGetVault              = "/" + ServiceName + "/GetVault"
)

// VaultServer is the server API for the Vault service.
type VaultServer interface {
	// SignUp creates an account and opens a session.
	SignUp(context.Context, *SignUpRequest) (*SessionResponse, error)
	// SignIn opens a session for existing credentials.
	SignIn(context.Context, *SignInRequest) (*SessionResponse, error)
	// SignOut revokes the calling session.
	SignOut(context.Context, *SignOutRequest) (*Empty, error)
	// WhoAmI returns the authenticated user.
	WhoAmI(context.Context, *WhoAmIRequest) (*UserResponse, error)
	// GetAccount returns the API key and TOTP enrollment data, creating them on first use.
	GetAccount(context.Context, *GetAccountRequest) (*AccountResponse, error)
	// RegenerateAPIKey replaces the API key.
	RegenerateAPIKey(context.Context, *RegenerateAPIKeyRequest) (*AccountResponse, error)
	// VerifyTOTP checks an authenticator code.
	VerifyTOTP(context.Context, *VerifyTOTPRequest) (*VerifyTOTPResponse, error)
	ListGroups(context.Context, *ListGroupsRequest) (*ListGroupsResponse, error)
	CreateGroup(context.Context, *CreateGroupRequest) (*GroupResponse, error)
	// DeleteGroup removes a group and every credential in it.
	DeleteGroup(context.Context, *DeleteGroupRequest) (*Empty, error)
	ListCredentials(context.Context, *ListCredentialsRequest) (*ListCredentialsResponse, error)
	CreateCredential(context.Context, *CreateCredentialRequest) (*CredentialResponse, error)
	// UpdateCredentialValue replaces a credential's value.
	UpdateCredentialValue(context.Context, *UpdateCredentialValueRequest) (*UpdateCredentialValueResponse, error)
	DeleteCredential(context.Context, *DeleteCredentialRequest) (*Empty, error)
	// GetVault returns credentials partitioned by group.
	GetVault(context.Context, *GetVaultRequest) (*VaultResponse, error)
}

// UnimplementedVaultServer returns Unimplemented for every method. Embed it to
// stay forward compatible with new methods.
type UnimplementedVaultServer struct{}

func (UnimplementedVaultServer) SignUp(context.Context, *SignUpRequest) (*SessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignUp not implemented")
}
func (UnimplementedVaultServer) SignIn(context.Context, *SignInRequest) (*SessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignIn not implemented")
}
func (UnimplementedVaultServer) SignOut(context.Context, *SignOutRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method SignOut not implemented")
}
func (UnimplementedVaultServer) WhoAmI(context.Context, *WhoAmIRequest) (*UserResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method WhoAmI not implemented")
}
func (UnimplementedVaultServer) GetAccount(context.Context, *GetAccountRequest) (*AccountResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAccount not implemented")
}
func (UnimplementedVaultServer) RegenerateAPIKey(context.Context, *RegenerateAPIKeyRequest) (*AccountResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RegenerateAPIKey not implemented")
}
func (UnimplementedVaultServer) VerifyTOTP(context.Context, *VerifyTOTPRequest) (*VerifyTOTPResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method VerifyTOTP not implemented")
}
func (UnimplementedVaultServer) ListGroups(context.Context, *ListGroupsRequest) (*ListGroupsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListGroups not implemented")
}
func (UnimplementedVaultServer) CreateGroup(context.Context, *CreateGroupRequest) (*GroupResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateGroup not implemented")
}
func (UnimplementedVaultServer) DeleteGroup(context.Context, *DeleteGroupRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteGroup not implemented")
}
func (UnimplementedVaultServer) ListCredentials(context.Context, *ListCredentialsRequest) (*ListCredentialsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListCredentials not implemented")
}
func (UnimplementedVaultServer) CreateCredential(context.Context, *CreateCredentialRequest) (*CredentialResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateCredential not implemented")
}
func (UnimplementedVaultServer) UpdateCredentialValue(context.Context, *UpdateCredentialValueRequest) (*UpdateCredentialValueResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateCredentialValue not implemented")
}
func (UnimplementedVaultServer) DeleteCredential(context.Context, *DeleteCredentialRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteCredential not implemented")
}
func (UnimplementedVaultServer) GetVault(context.Context, *GetVaultRequest) (*VaultResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetVault not implemented")
}

func unary[Req, Resp any](name string, call func(VaultServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(VaultServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(VaultServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Vault_ServiceDesc is the grpc.ServiceDesc for the Vault service.
var Vault_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VaultServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("SignUp", VaultServer.SignUp),
		unary("SignIn", VaultServer.SignIn),
		unary("SignOut", VaultServer.SignOut),
		unary("WhoAmI", VaultServer.WhoAmI),
		unary("GetAccount", VaultServer.GetAccount),
		unary("RegenerateAPIKey", VaultServer.RegenerateAPIKey),
		unary("VerifyTOTP", VaultServer.VerifyTOTP),
		unary("ListGroups", VaultServer.ListGroups),
		unary("CreateGroup", VaultServer.CreateGroup),
		unary("DeleteGroup", VaultServer.DeleteGroup),
		unary("ListCredentials", VaultServer.ListCredentials),
		unary("CreateCredential", VaultServer.CreateCredential),
		unary("UpdateCredentialValue", VaultServer.UpdateCredentialValue),
		unary("DeleteCredential", VaultServer.DeleteCredential),
		unary("GetVault", VaultServer.GetVault),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "agentpass/v1/vault",
}

// RegisterVaultServer registers srv on s.
func RegisterVaultServer(s grpc.ServiceRegistrar, srv VaultServer) {
	s.RegisterService(&Vault_ServiceDesc, srv)
}

// VaultClient is the client API for the Vault service.
type VaultClient interface {
	SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*SessionResponse, error)
	SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*SessionResponse, error)
	SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*Empty, error)
	WhoAmI(ctx context.Context, in *WhoAmIRequest, opts ...grpc.CallOption) (*UserResponse, error)
	GetAccount(ctx context.Context, in *GetAccountRequest, opts ...grpc.CallOption) (*AccountResponse, error)
	RegenerateAPIKey(ctx context.Context, in *RegenerateAPIKeyRequest, opts ...grpc.CallOption) (*AccountResponse, error)
	VerifyTOTP(ctx context.Context, in *VerifyTOTPRequest, opts ...grpc.CallOption) (*VerifyTOTPResponse, error)
	ListGroups(ctx context.Context, in *ListGroupsRequest, opts ...grpc.CallOption) (*ListGroupsResponse, error)
	CreateGroup(ctx context.Context, in *CreateGroupRequest, opts ...grpc.CallOption) (*GroupResponse, error)
	DeleteGroup(ctx context.Context, in *DeleteGroupRequest, opts ...grpc.CallOption) (*Empty, error)
	ListCredentials(ctx context.Context, in *ListCredentialsRequest, opts ...grpc.CallOption) (*ListCredentialsResponse, error)
	CreateCredential(ctx context.Context, in *CreateCredentialRequest, opts ...grpc.CallOption) (*CredentialResponse, error)
	UpdateCredentialValue(ctx context.Context, in *UpdateCredentialValueRequest, opts ...grpc.CallOption) (*UpdateCredentialValueResponse, error)
	DeleteCredential(ctx context.Context, in *DeleteCredentialRequest, opts ...grpc.CallOption) (*Empty, error)
	GetVault(ctx context.Context, in *GetVaultRequest, opts ...grpc.CallOption) (*VaultResponse, error)
}

type vaultClient struct {
	cc grpc.ClientConnInterface
}

// NewVaultClient returns a client that speaks the JSON content-subtype.
func NewVaultClient(cc grpc.ClientConnInterface) VaultClient {
	return &vaultClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *vaultClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, MethodSignUp, in, opts)
}

func (c *vaultClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, MethodSignIn, in, opts)
}

func (c *vaultClient) SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodSignOut, in, opts)
}

func (c *vaultClient) WhoAmI(ctx context.Context, in *WhoAmIRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, MethodWhoAmI, in, opts)
}

func (c *vaultClient) GetAccount(ctx context.Context, in *GetAccountRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, MethodGetAccount, in, opts)
}

func (c *vaultClient) RegenerateAPIKey(ctx context.Context, in *RegenerateAPIKeyRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, MethodRegenerateAPIKey, in, opts)
}

func (c *vaultClient) VerifyTOTP(ctx context.Context, in *VerifyTOTPRequest, opts ...grpc.CallOption) (*VerifyTOTPResponse, error) {
	return invoke[VerifyTOTPResponse](ctx, c.cc, MethodVerifyTOTP, in, opts)
}

func (c *vaultClient) ListGroups(ctx context.Context, in *ListGroupsRequest, opts ...grpc.CallOption) (*ListGroupsResponse, error) {
	return invoke[ListGroupsResponse](ctx, c.cc, MethodListGroups, in, opts)
}

func (c *vaultClient) CreateGroup(ctx context.Context, in *CreateGroupRequest, opts ...grpc.CallOption) (*GroupResponse, error) {
	return invoke[GroupResponse](ctx, c.cc, MethodCreateGroup, in, opts)
}

func (c *vaultClient) DeleteGroup(ctx context.Context, in *DeleteGroupRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodDeleteGroup, in, opts)
}

func (c *vaultClient) ListCredentials(ctx context.Context, in *ListCredentialsRequest, opts ...grpc.CallOption) (*ListCredentialsResponse, error) {
	return invoke[ListCredentialsResponse](ctx, c.cc, MethodListCredentials, in, opts)
}

func (c *vaultClient) CreateCredential(ctx context.Context, in *CreateCredentialRequest, opts ...grpc.CallOption) (*CredentialResponse, error) {
	return invoke[CredentialResponse](ctx, c.cc, MethodCreateCredential, in, opts)
}

func (c *vaultClient) UpdateCredentialValue(ctx context.Context, in *UpdateCredentialValueRequest, opts ...grpc.CallOption) (*UpdateCredentialValueResponse, error) {
	return invoke[UpdateCredentialValueResponse](ctx, c.cc, MethodUpdateCredentialValue, in, opts)
}

func (c *vaultClient) DeleteCredential(ctx context.Context, in *DeleteCredentialRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodDeleteCredential, in, opts)
}

func (c *vaultClient) GetVault(ctx context.Context, in *GetVaultRequest, opts ...grpc.CallOption) (*VaultResponse, error) {
	return invoke[VaultResponse](ctx, c.cc, MethodGetVault, in, opts)
}
