package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/intelliscript/intelliscript/core"
	"github.com/intelliscript/intelliscript/core/session"
)

const (
	contextTokenKey   = "sessionToken"
	contextSessionKey = "session"
)

// newJWTConfig returns the JWT auth middleware config.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT. The subject is the session ID.
type Claims struct {
	jwt.StandardClaims
	UserID string       `json:"user_id,omitempty"`
	Role   session.Role `json:"role,omitempty"`
}

func GetSessionClaims(sess session.Session, conf *core.Config) *Claims {
	now := time.Now()
	exp := now.Add(conf.Server.JWTExpirationDelta)
	if !sess.ExpiresAt.IsZero() && sess.ExpiresAt.Before(exp) {
		exp = sess.ExpiresAt
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   sess.ID,
			Audience:  "IntelliScript",
			ExpiresAt: exp.Unix(),
			IssuedAt:  now.Unix(),
		},
		UserID: sess.UserID,
		Role:   sess.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the session Claims.
func GenerateToken(claims *Claims, jwtConf middleware.JWTConfig) (string, error) {
	method := jwt.GetSigningMethod(jwtConf.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(jwtConf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextSession(ctx echo.Context) (session.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(session.Session); ok {
		return sess, nil
	}
	return session.Session{}, errSessionNotInCtx
}

// sessionMiddleware is the route guard: it loads the live session the token was issued for.
func sessionMiddleware(svc *session.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			sess, err := svc.Get(ctx.Request().Context(), claims.Subject)
			if err != nil {
				return errors.Wrap(err, "getting session")
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}
