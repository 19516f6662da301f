package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Engineernoob/Term-Mail/internal/localstore"
	"github.com/Engineernoob/Term-Mail/internal/provider"
)

// respondError translates a provider or store error into the API error
// envelope. Unknown errors are reported as internal without leaking the
// underlying message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, provider.ErrUnknownAccount):
		errorJSON(c, http.StatusNotFound, "UNKNOWN_ACCOUNT", "Account not found")
	case errors.Is(err, provider.ErrNotFound), errors.Is(err, localstore.ErrMessageNotFound):
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "Message not found")
	case errors.Is(err, localstore.ErrAddressNotFound):
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "Address not found")
	case errors.Is(err, localstore.ErrAddressExists):
		errorJSON(c, http.StatusConflict, "ADDRESS_EXISTS", "Address already exists")
	case errors.Is(err, localstore.ErrInvalidAddress):
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid address")
	case errors.Is(err, provider.ErrAuth):
		errorJSON(c, http.StatusBadGateway, "PROVIDER_AUTH_FAILED", "Provider rejected the credentials")
	case errors.Is(err, provider.ErrRateLimited):
		errorJSON(c, http.StatusTooManyRequests, "RATE_LIMITED", "Provider rate limit reached")
	case errors.Is(err, provider.ErrNoRelayConfigured):
		errorJSON(c, http.StatusConflict, "NO_RELAY", "No outbound relay configured for this address")
	case errors.Is(err, provider.ErrConnection):
		errorJSON(c, http.StatusBadGateway, "PROVIDER_UNAVAILABLE", "Provider connection failed")
	default:
		errorJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Operation failed")
	}
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func okJSON(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}
