package api

import (
	"net/http"
	"strconv"

	"chatroom-backend/internal/middleware"
	"chatroom-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) CreateGroup(c *gin.Context) {
	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := s.store.CreateGroup(c.Request.Context(), middleware.MustUserID(c), req)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (s *Server) GetGroups(c *gin.Context) {
	groups, err := s.store.ListGroups(c.Request.Context(), middleware.MustUserID(c))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (s *Server) JoinGroup(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	membership, err := s.store.JoinGroup(c.Request.Context(), groupID, middleware.MustUserID(c))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, membership)
}

func (s *Server) LeaveGroup(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	if err := s.store.LeaveGroup(c.Request.Context(), groupID, middleware.MustUserID(c)); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left group successfully"})
}

func (s *Server) DeactivateGroup(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	if err := s.store.DeactivateGroup(c.Request.Context(), groupID, middleware.MustUserID(c)); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Group deactivated successfully"})
}

func (s *Server) GetGroupMessages(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := s.store.ListGroupMessages(c.Request.Context(), groupID, middleware.MustUserID(c), limit)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (s *Server) PostGroupMessage(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	var req models.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := s.store.PostGroupMessage(c.Request.Context(), groupID, middleware.MustUserID(c), req.Content, req.MessageType, req.ReplyToID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (s *Server) MarkGroupRead(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	var req struct {
		MessageID uuid.UUID `json:"message_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.MarkGroupRead(c.Request.Context(), groupID, middleware.MustUserID(c), req.MessageID); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Read marker updated"})
}
