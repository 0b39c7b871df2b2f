package api

import (
	"net/http"
	"strconv"

	"chatroom-backend/internal/middleware"
	"chatroom-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Public channel handlers

func (s *Server) GetPublicMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := s.store.ListPublicMessages(c.Request.Context(), limit)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (s *Server) PostPublicMessage(c *gin.Context) {
	var req models.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := s.store.PostPublicMessage(c.Request.Context(), middleware.MustUserID(c), req.Content, req.MessageType, req.ReplyToID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (s *Server) EditPublicMessage(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	var req models.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := s.store.EditPublicMessage(c.Request.Context(), messageID, middleware.MustUserID(c), req.Content)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (s *Server) DeletePublicMessage(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	if err := s.store.DeletePublicMessage(c.Request.Context(), messageID, middleware.MustUserID(c)); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
}

// Private message handlers

func (s *Server) SendPrivateMessage(c *gin.Context) {
	var req models.SendPrivateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := s.store.SendPrivateMessage(c.Request.Context(), middleware.MustUserID(c), req)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (s *Server) GetConversation(c *gin.Context) {
	contactID, err := uuid.Parse(c.Query("contact_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contact_id is required"})
		return
	}

	messages, err := s.store.ConversationWith(c.Request.Context(), middleware.MustUserID(c), contactID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (s *Server) MarkMessageRead(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	msg, err := s.store.MarkRead(c.Request.Context(), messageID, middleware.MustUserID(c))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (s *Server) GetUnreadCount(c *gin.Context) {
	count, err := s.store.UnreadCount(c.Request.Context(), middleware.MustUserID(c))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (s *Server) GetContacts(c *gin.Context) {
	contacts, err := s.store.Contacts(c.Request.Context(), middleware.MustUserID(c))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}
