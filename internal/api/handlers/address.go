package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Engineernoob/Term-Mail/internal/services"
)

// AddressHandler handles local address lifecycle and relay configuration
type AddressHandler struct {
	accountService *services.AccountService
	mailService    *services.MailService
	logService     *services.LogService
}

// NewAddressHandler creates a new AddressHandler instance
func NewAddressHandler(accountService *services.AccountService, mailService *services.MailService, logService *services.LogService) *AddressHandler {
	return &AddressHandler{
		accountService: accountService,
		mailService:    mailService,
		logService:     logService,
	}
}

// CreateAddressRequest represents the request to create a local address
type CreateAddressRequest struct {
	LocalPart string `json:"local_part" binding:"required"`
	Domain    string `json:"domain" binding:"required"`
}

// SetRelayRequest represents the request to configure an outbound relay
type SetRelayRequest struct {
	Server   string `json:"server" binding:"required"`
	Port     int    `json:"port" binding:"required"`
	Username string `json:"username" binding:"required"`
	Secret   string `json:"secret"`
	Enabled  bool   `json:"enabled"`
}

// ListAddresses returns every registered local address
// GET /api/addresses
func (h *AddressHandler) ListAddresses(c *gin.Context) {
	addresses, err := h.accountService.Local().Addresses()
	if err != nil {
		respondError(c, err)
		return
	}

	okJSON(c, gin.H{"addresses": addresses})
}

// CreateAddress registers a new local address
// POST /api/addresses
func (h *AddressHandler) CreateAddress(c *gin.Context) {
	var req CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	rec, err := h.accountService.Local().CreateAddress(req.LocalPart, req.Domain)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logService.LogInfo(rec.Address, services.LogModuleAddress, "create", "local address created", nil)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    rec,
	})
}

// DeleteAddress removes a local address and its stored messages
// DELETE /api/addresses/:address
func (h *AddressHandler) DeleteAddress(c *gin.Context) {
	address := c.Param("address")

	if err := h.accountService.Local().DeleteAddress(address); err != nil {
		respondError(c, err)
		return
	}

	h.logService.LogInfo(address, services.LogModuleAddress, "delete", "local address deleted", nil)
	okJSON(c, gin.H{"address": address})
}

// SetRelay configures the SMTP relay for a local address
// PUT /api/addresses/:address/relay
func (h *AddressHandler) SetRelay(c *gin.Context) {
	address := c.Param("address")

	var req SetRelayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.accountService.Local().SetRelay(address, req.Server, req.Port, req.Username, req.Secret, req.Enabled); err != nil {
		respondError(c, err)
		return
	}

	h.logService.LogInfo(address, services.LogModuleAddress, "set_relay", "relay configuration updated", gin.H{
		"server":  req.Server,
		"port":    req.Port,
		"enabled": req.Enabled,
	})
	okJSON(c, gin.H{"address": address, "relay_enabled": req.Enabled})
}

// DownloadAttachment streams a stored attachment's content
// GET /api/accounts/:id/messages/:msgId/attachments/:filename
func (h *AddressHandler) DownloadAttachment(c *gin.Context) {
	accountID := c.Param("id")
	msgID := c.Param("msgId")
	filename := c.Param("filename")

	content, err := h.mailService.GetAttachment(c.Request.Context(), accountID, msgID, filename)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, "application/octet-stream", content)
}
