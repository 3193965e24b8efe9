package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/and161185/agent-pass/internal/api/vaultv1"
)

// ---- grpc dial ----

// callCreds attaches auth metadata to every call.
type callCreds struct {
	md     map[string]string
	secure bool
}

func (c callCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return c.md, nil
}
func (c callCreds) RequireTransportSecurity() bool { return c.secure }

func loadTLS(caPath string, skipVerify bool) (credentials.TransportCredentials, error) {
	if skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil //nolint:gosec // explicit --insecure
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

// dial connects to the server. md is sent with every call when non-empty.
func (a *app) dial(ctx context.Context, md map[string]string) (*grpc.ClientConn, vaultv1.VaultClient, error) {
	var opts []grpc.DialOption
	secure := !a.plaintext && a.dialer == nil
	if secure {
		tc, err := loadTLS(a.caPath, a.insecure)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, grpc.WithTransportCredentials(tc))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	if a.dialer != nil {
		opts = append(opts, grpc.WithContextDialer(a.dialer))
	}
	if len(md) > 0 {
		opts = append(opts, grpc.WithPerRPCCredentials(callCreds{md: md, secure: secure}))
	}
	//nolint:staticcheck // DialContext is supported through 1.x; migrate when grpc.NewClient is stable
	cc, err := grpc.DialContext(ctx, a.addr, opts...)
	if err != nil {
		return nil, nil, err
	}
	return cc, vaultv1.NewVaultClient(cc), nil
}

// authMD picks the credentials for a protected call: --api-key wins over the
// cached session.
func (a *app) authMD() (map[string]string, error) {
	if a.apiKey != "" {
		return map[string]string{"x-api-key": a.apiKey}, nil
	}
	tf, err := loadToken()
	if err != nil {
		return nil, err
	}
	return map[string]string{"authorization": "Bearer " + tf.AccessToken}, nil
}

type dialFunc func(context.Context, string) (net.Conn, error)
