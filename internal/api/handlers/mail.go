package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Engineernoob/Term-Mail/internal/mail"
	"github.com/Engineernoob/Term-Mail/internal/services"
)

// MailHandler handles folder and message requests
type MailHandler struct {
	mailService *services.MailService
	logService  *services.LogService
}

// NewMailHandler creates a new MailHandler instance
func NewMailHandler(mailService *services.MailService, logService *services.LogService) *MailHandler {
	return &MailHandler{
		mailService: mailService,
		logService:  logService,
	}
}

// SendMessageRequest represents the request to send a message
type SendMessageRequest struct {
	To          []string                `json:"to" binding:"required"`
	Cc          []string                `json:"cc"`
	Bcc         []string                `json:"bcc"`
	Subject     string                  `json:"subject"`
	Body        string                  `json:"body"`
	HTMLBody    string                  `json:"html_body"`
	Attachments []SendAttachmentRequest `json:"attachments"`
}

// SendAttachmentRequest carries one attachment of an outgoing message.
// Content is base64-decoded by the JSON codec.
type SendAttachmentRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content" binding:"required"`
}

// FlagRequest represents a read/starred flag update
type FlagRequest struct {
	Value *bool `json:"value" binding:"required"`
}

// ListFolders returns the folders of an account with live counts
// GET /api/accounts/:id/folders
func (h *MailHandler) ListFolders(c *gin.Context) {
	accountID := c.Param("id")

	folders, err := h.mailService.ListFolders(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	okJSON(c, gin.H{"folders": folders})
}

// ListMessages returns a window of messages, newest first
// GET /api/accounts/:id/folders/:folder/messages
func (h *MailHandler) ListMessages(c *gin.Context) {
	accountID := c.Param("id")
	folder := c.Param("folder")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.mailService.FetchMessages(c.Request.Context(), accountID, folder, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	okJSON(c, gin.H{
		"folder":   folder,
		"limit":    limit,
		"offset":   offset,
		"messages": messages,
	})
}

// GetMessage returns one message with its full body
// GET /api/accounts/:id/folders/:folder/messages/:msgId
func (h *MailHandler) GetMessage(c *gin.Context) {
	accountID := c.Param("id")
	folder := c.Param("folder")
	msgID := c.Param("msgId")

	message, err := h.mailService.GetMessage(c.Request.Context(), accountID, folder, msgID)
	if err != nil {
		respondError(c, err)
		return
	}

	okJSON(c, message)
}

// SendMessage submits a draft through the account's provider
// POST /api/accounts/:id/messages/send
func (h *MailHandler) SendMessage(c *gin.Context) {
	accountID := c.Param("id")

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	draft := mail.Draft{
		To:       req.To,
		Cc:       req.Cc,
		Bcc:      req.Bcc,
		Subject:  req.Subject,
		Body:     req.Body,
		HTMLBody: req.HTMLBody,
	}
	for _, a := range req.Attachments {
		draft.Attachments = append(draft.Attachments, mail.DraftAttachment{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Content:     a.Content,
		})
	}

	result, err := h.mailService.SendMessage(c.Request.Context(), accountID, draft)
	if err != nil {
		respondError(c, err)
		return
	}

	okJSON(c, result)
}

// MarkRead sets the read flag on a message
// PUT /api/accounts/:id/folders/:folder/messages/:msgId/read
func (h *MailHandler) MarkRead(c *gin.Context) {
	accountID := c.Param("id")
	folder := c.Param("folder")
	msgID := c.Param("msgId")

	var req FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.mailService.SetRead(c.Request.Context(), accountID, folder, msgID, *req.Value); err != nil {
		respondError(c, err)
		return
	}

	okJSON(c, gin.H{"id": msgID, "is_read": *req.Value})
}

// MarkStarred sets the starred flag on a message
// PUT /api/accounts/:id/folders/:folder/messages/:msgId/starred
func (h *MailHandler) MarkStarred(c *gin.Context) {
	accountID := c.Param("id")
	folder := c.Param("folder")
	msgID := c.Param("msgId")

	var req FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.mailService.SetStarred(c.Request.Context(), accountID, folder, msgID, *req.Value); err != nil {
		respondError(c, err)
		return
	}

	okJSON(c, gin.H{"id": msgID, "is_starred": *req.Value})
}

// DeleteMessage moves a message to Trash, or removes it permanently
// when it is already in Trash
// DELETE /api/accounts/:id/folders/:folder/messages/:msgId
func (h *MailHandler) DeleteMessage(c *gin.Context) {
	accountID := c.Param("id")
	folder := c.Param("folder")
	msgID := c.Param("msgId")

	if err := h.mailService.DeleteMessage(c.Request.Context(), accountID, folder, msgID); err != nil {
		respondError(c, err)
		return
	}

	okJSON(c, gin.H{"id": msgID})
}

// Search returns messages matching a free-text query
// GET /api/accounts/:id/search
func (h *MailHandler) Search(c *gin.Context) {
	accountID := c.Param("id")
	query := c.Query("q")
	if query == "" {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "Query parameter q is required")
		return
	}

	messages, err := h.mailService.Search(c.Request.Context(), accountID, query)
	if err != nil {
		respondError(c, err)
		return
	}

	okJSON(c, gin.H{
		"query":    query,
		"messages": messages,
	})
}
