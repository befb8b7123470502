package interceptor

import (
	"context"
	"crypto/subtle"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"library-desk/internal/infrastructure/config"
	otelinfra "library-desk/internal/infrastructure/observability/otel"
)

// APIKeyMetadata APIキーを渡すメタデータのキー
const APIKeyMetadata = "x-api-key"

// APIKeyInterceptor APIキー認証インターセプター
func APIKeyInterceptor(cfg *config.InternalAPIConfig, logger *otelinfra.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		// 内部APIが無効化されている場合はエラー
		if !cfg.Enabled {
			logger.Warn(ctx, "Internal API is disabled", map[string]interface{}{
				"method": info.FullMethod,
			})
			return nil, status.Error(codes.PermissionDenied, "internal API is disabled")
		}

		// メタデータからAPIキーを取得
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			logger.Warn(ctx, "Missing metadata", nil)
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		apiKeys := md.Get(APIKeyMetadata)
		if len(apiKeys) == 0 || apiKeys[0] == "" {
			logger.Warn(ctx, "Missing X-API-Key metadata", map[string]interface{}{
				"method": info.FullMethod,
			})
			return nil, status.Error(codes.Unauthenticated, "missing X-API-Key metadata")
		}

		// APIキーの検証
		if cfg.APIKey == "" || subtle.ConstantTimeCompare([]byte(apiKeys[0]), []byte(cfg.APIKey)) != 1 {
			logger.Warn(ctx, "Invalid API key", map[string]interface{}{
				"method": info.FullMethod,
			})
			return nil, status.Error(codes.Unauthenticated, "invalid API key")
		}

		// IP制限のチェック（設定されている場合）
		if len(cfg.AllowedIPs) > 0 {
			clientIP := clientIPOf(ctx, md)
			if !isIPAllowed(clientIP, cfg.AllowedIPs) {
				logger.Warn(ctx, "IP address not allowed", map[string]interface{}{
					"ip": clientIP,
				})
				return nil, status.Error(codes.PermissionDenied, "IP address not allowed")
			}
		}

		return handler(ctx, req)
	}
}

// clientIPOf メタデータまたは接続元からクライアントのIPアドレスを取得
func clientIPOf(ctx context.Context, md metadata.MD) string {
	if forwardedFor := md.Get("x-forwarded-for"); len(forwardedFor) > 0 {
		// カンマ区切りの最初のIPを取得
		return strings.TrimSpace(strings.Split(forwardedFor[0], ",")[0])
	}

	if realIP := md.Get("x-real-ip"); len(realIP) > 0 {
		return strings.TrimSpace(realIP[0])
	}

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		host, _, err := net.SplitHostPort(p.Addr.String())
		if err != nil {
			return p.Addr.String()
		}
		return host
	}
	return ""
}

// isIPAllowed IPアドレスが許可リスト（IPまたはCIDR）に含まれているかチェック
func isIPAllowed(ip string, allowedIPs []string) bool {
	parsed := net.ParseIP(ip)
	for _, allowed := range allowedIPs {
		if ip == allowed {
			return true
		}
		if _, network, err := net.ParseCIDR(allowed); err == nil && parsed != nil && network.Contains(parsed) {
			return true
		}
	}
	return false
}
