package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/accounts/internal/logging"
)

// BasePath prefixes every account route.
const BasePath = "/api/v1/users"

// NewRouter wires middleware and routes. Secured routes require a session
// bearer token.
func NewRouter(h *Handler, verifier TokenVerifier, logger logging.Logger) *gin.Engine {
	r := gin.New()
	if h.maxUploadBytes > 0 {
		r.MaxMultipartMemory = h.maxUploadBytes
	}

	r.Use(RequestID(), AccessLog(logger), Recovery(logger))

	r.GET("/health", h.Health)

	users := r.Group(BasePath)
	users.POST("/register", LimitBody(h.maxUploadBytes), h.Register)
	users.GET("/verify-email", h.VerifyEmail)
	users.POST("/resend-verification", h.ResendVerification)
	users.POST("/login", h.Login)

	secured := users.Group("", BearerAuth(verifier))
	secured.POST("/change-password", h.ChangePassword)
	secured.GET("/current-user", h.CurrentUser)
	secured.PATCH("/update-account", h.UpdateAccount)
	secured.PATCH("/update-profile", LimitBody(h.maxUploadBytes), h.UpdateProfile)

	return r
}
