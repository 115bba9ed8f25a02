// Package identity carries the caller identity supplied by the upstream
// authentication layer. The gateway forwards it as gRPC metadata and the api
// server enforces a per-method role policy.
package identity

import (
	"context"
	"strings"

	"github.com/dwikikusuma/shoping-checkout/pkg/apperr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

type Role string

const (
	RoleBuyer Role = "buyer"
	RoleAdmin Role = "admin"
)

const (
	MetadataUserID = "x-user-id"
	MetadataRole   = "x-user-role"
)

var (
	ErrMissingIdentity = apperr.New(apperr.ErrUnauthenticated, "missing caller identity")
	ErrForbidden       = apperr.New(apperr.ErrForbidden, "caller role is not allowed")
)

type Identity struct {
	UserID string
	Role   Role
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// UserID returns the caller id stored by the interceptor.
func UserID(ctx context.Context) (string, error) {
	id, ok := FromContext(ctx)
	if !ok || id.UserID == "" {
		return "", ErrMissingIdentity
	}
	return id.UserID, nil
}

// OutgoingContext attaches id to ctx as gRPC metadata.
func OutgoingContext(ctx context.Context, id Identity) context.Context {
	return metadata.AppendToOutgoingContext(ctx,
		MetadataUserID, id.UserID,
		MetadataRole, string(id.Role),
	)
}

func fromIncoming(ctx context.Context) (Identity, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return Identity{}, false
	}
	userID := first(md.Get(MetadataUserID))
	role := Role(strings.ToLower(first(md.Get(MetadataRole))))
	if userID == "" || role == "" {
		return Identity{}, false
	}
	return Identity{UserID: userID, Role: role}, true
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

// Policy maps full gRPC method names to the role they require. A method is
// matched exactly first, then by its "/package.Service/" prefix. Methods
// that match nothing are public.
type Policy map[string]Role

func (p Policy) required(fullMethod string) (Role, bool) {
	if role, ok := p[fullMethod]; ok {
		return role, role != ""
	}
	if i := strings.LastIndex(fullMethod, "/"); i > 0 {
		if role, ok := p[fullMethod[:i+1]]; ok {
			return role, role != ""
		}
	}
	return "", false
}

// UnaryServerInterceptor resolves the caller identity from metadata, stores
// it in the context and rejects calls that violate the policy.
func UnaryServerInterceptor(policy Policy) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id, found := fromIncoming(ctx)
		if found {
			ctx = WithIdentity(ctx, id)
		}

		if role, ok := policy.required(info.FullMethod); ok {
			if !found {
				return nil, apperr.Status(ErrMissingIdentity)
			}
			if id.Role != role {
				return nil, apperr.Status(ErrForbidden)
			}
		}

		return handler(ctx, req)
	}
}
