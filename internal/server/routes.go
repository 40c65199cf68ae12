package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avelar/launchdeck/internal/eventlog"
	"github.com/avelar/launchdeck/internal/models"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, store *eventlog.Store) {
	api := router.Group("/api/events/:event")

	api.GET("/chat", handleReadChat(store))
	api.POST("/chat", handleAppendChat(store))
	api.GET("/reactions", handleReadReactions(store))
	api.POST("/reactions", handleAddReaction(store))
	api.GET("/polls", handleReadPolls(store))
	api.POST("/polls/:poll/vote", handleCastVote(store))
	api.GET("/weather", handleReadWeather(store))
	api.PUT("/weather", handleSetWeather(store))
	api.GET("/live", handleLive(store))
}

func handleReadChat(store *eventlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		after, _ := strconv.ParseUint(c.Query("after"), 10, 64)
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		msgs, err := store.ReadChat(c.Param("event"), uint(after), limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": msgs})
	}
}

type chatWrite struct {
	Actor  string `json:"actor"`
	Handle string `json:"handle"`
	Body   string `json:"body"`
}

func handleAppendChat(store *eventlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatWrite
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
			return
		}
		msg, err := store.AppendChat(c.Param("event"), req.Actor, req.Handle, req.Body, time.Now().UTC())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"record": msg})
	}
}

func handleReadReactions(store *eventlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		totals, err := store.ReadReactions(c.Param("event"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"totals": totals})
	}
}

type reactionWrite struct {
	Actor   string `json:"actor"`
	Session string `json:"session"`
	Emoji   string `json:"emoji"`
}

func handleAddReaction(store *eventlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reactionWrite
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
			return
		}
		actor := req.Actor
		if actor == "" {
			actor = req.Session
		}
		total, err := store.AddReaction(c.Param("event"), actor, req.Emoji, time.Now().UTC())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"emoji": req.Emoji, "total": total})
	}
}

func handleReadPolls(store *eventlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := store.ReadPolls(c.Param("event"), c.Query("actor"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"polls": views})
	}
}

type voteWrite struct {
	Actor    string `json:"actor"`
	Position int    `json:"position"`
}

func handleCastVote(store *eventlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		pollID, err := strconv.ParseUint(c.Param("poll"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed poll id"})
			return
		}
		var req voteWrite
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
			return
		}
		if err := store.CastVote(uint(pollID), req.Actor, req.Position, time.Now().UTC()); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"voted": true})
	}
}

func handleReadWeather(store *eventlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		adv, err := store.ReadWeather(c.Param("event"))
		if err != nil {
			writeError(c, err)
			return
		}
		if adv == nil {
			c.JSON(http.StatusOK, gin.H{"advisory": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"advisory": adv})
	}
}

func handleSetWeather(store *eventlog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var adv models.WeatherAdvisory
		if err := c.ShouldBindJSON(&adv); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
			return
		}
		adv.EventID = c.Param("event")
		if err := store.SetWeather(&adv, time.Now().UTC()); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"advisory": adv})
	}
}

// writeError maps store errors onto the write rejection taxonomy: 429 with a
// retry hint for rate limits, 422 for validation, 409 for duplicate votes.
func writeError(c *gin.Context, err error) {
	var rl *eventlog.RateLimitError
	if errors.As(err, &rl) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":               "rate_limited",
			"retry_after_seconds": int(math.Ceil(rl.RetryAfter.Seconds())),
		})
		return
	}
	var invalid *eventlog.InvalidError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "invalid",
			"reason": invalid.Reason,
		})
		return
	}
	if errors.Is(err, eventlog.ErrAlreadyVoted) {
		c.JSON(http.StatusConflict, gin.H{"error": "already_voted"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
}
