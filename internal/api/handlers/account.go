package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Engineernoob/Term-Mail/internal/services"
)

// AccountHandler handles account listing and diagnostics
type AccountHandler struct {
	accountService *services.AccountService
	logService     *services.LogService
}

// NewAccountHandler creates a new AccountHandler instance
func NewAccountHandler(accountService *services.AccountService, logService *services.LogService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logService:     logService,
	}
}

// ListAccounts returns every registered account
// GET /api/accounts
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	okJSON(c, gin.H{"accounts": h.accountService.Accounts()})
}

// TestConnection checks that an account's backend is reachable
// POST /api/accounts/:id/test
func (h *AccountHandler) TestConnection(c *gin.Context) {
	accountID := c.Param("id")

	folders, err := h.accountService.TestConnection(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	okJSON(c, gin.H{
		"account_id": accountID,
		"reachable":  true,
		"folders":    len(folders),
	})
}

// ListLogs returns recent operation log entries, newest first
// GET /api/logs
func (h *AccountHandler) ListLogs(c *gin.Context) {
	accountID := c.Query("account_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	logs, err := h.logService.ListLogs(accountID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	okJSON(c, gin.H{"logs": logs})
}
