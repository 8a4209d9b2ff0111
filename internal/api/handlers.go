package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/shineum/mailroom-lite/internal/email"
	"github.com/shineum/mailroom-lite/internal/provider"
	"github.com/shineum/mailroom-lite/internal/store"
)

const (
	msgInvalidRequest     = "Invalid request"
	msgLoginSuccessful    = "Login successful"
	msgInvalidCredentials = "Invalid credentials"
	msgEmailSent          = "Email sent"
	msgSendFailed         = "Failed to send email"
)

// loginRequest uses pointers so that an empty string counts as present.
type loginRequest struct {
	Username *string `json:"username" binding:"required"`
	Password *string `json:"password" binding:"required"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type listResponse struct {
	Success bool            `json:"success"`
	Emails  []email.Summary `json:"emails"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

func failure(c *gin.Context, status int, message string) {
	c.JSON(status, messageResponse{Success: false, Message: message})
}

// login checks the posted credential. Nothing is issued on success.
func (a *API) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			a.logger.Debug("login request missing fields", "fields", len(verrs))
		}
		failure(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	if !a.credential.Matches(*req.Username, *req.Password) {
		a.logger.Info("login rejected", "username", *req.Username)
		c.JSON(http.StatusOK, messageResponse{Success: false, Message: msgInvalidCredentials})
		return
	}

	c.JSON(http.StatusOK, messageResponse{Success: true, Message: msgLoginSuccessful})
}

// listEmails returns the most recent stored emails, newest first.
func (a *API) listEmails(c *gin.Context) {
	emails, err := a.emails.Recent(c.Request.Context(), store.RecentLimit)
	if err != nil {
		a.logger.Error("failed to fetch emails", "error", err)
		failure(c, http.StatusInternalServerError, "Failed to fetch emails: "+err.Error())
		return
	}
	if emails == nil {
		emails = []email.Summary{}
	}

	c.JSON(http.StatusOK, listResponse{Success: true, Emails: emails})
}

// send forwards the posted message to the outbound provider.
func (a *API) send(c *gin.Context) {
	var req email.OutboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	id, err := a.dispatcher.Dispatch(c.Request.Context(), &req)
	if err != nil {
		var rejected *provider.RejectedError
		if errors.As(err, &rejected) {
			message := rejected.Message
			if message == "" {
				message = msgSendFailed
			}
			failure(c, http.StatusBadRequest, message)
			return
		}
		failure(c, http.StatusInternalServerError, "Error sending email: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, sendResponse{Success: true, ID: id, Message: msgEmailSent})
}
