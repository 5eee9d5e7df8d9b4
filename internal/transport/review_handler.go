package transport

import (
	"net/http"

	"petshop/internal/domain"
	"petshop/internal/middleware"
	"petshop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type RateRequest struct {
	UserName string `json:"user_name" validate:"required,max=100"`
	Rating   int    `json:"rating" validate:"required"`
}

type CommentRequest struct {
	UserName string `json:"user_name" validate:"required,max=100"`
	Comment  string `json:"comment" validate:"required"`
}

type EditCommentRequest struct {
	Comment string `json:"comment" validate:"required"`
}

// VoteRequest casts, switches or clears one voter's vote
type VoteRequest struct {
	UserName  string `json:"user_name" validate:"required,max=100"`
	Direction string `json:"direction" validate:"required"`
}

// ReviewHandler handles ratings, comments, votes and the derived summaries
type ReviewHandler struct {
	reviews service.ReviewService
	logger  *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviews service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// RegisterRoutes registers the review routes; writeLimit guards mutations
func (h *ReviewHandler) RegisterRoutes(r chi.Router, writeLimit func(http.Handler) http.Handler) {
	r.Get("/api/products/{id}/ratings", h.Ratings)
	r.Get("/api/products/{id}/rating-stats", h.RatingStats)
	r.Get("/api/products/{id}/summary", h.Summary)
	r.Get("/api/products/{id}/comments", h.Comments)
	r.Get("/api/comments/{id}/votes", h.Tally)
	r.Get("/api/admin/dashboard", h.Dashboard)

	r.Group(func(r chi.Router) {
		r.Use(orPassthrough(writeLimit))
		r.Post("/api/products/{id}/rate", h.Rate)
		r.Post("/api/products/{id}/comments", h.AddComment)
		r.Put("/api/comments/{id}", h.EditComment)
		r.Delete("/api/comments/{id}", h.DeleteComment)
		r.Post("/api/comments/{id}/vote", h.Vote)
	})
}

func (h *ReviewHandler) Rate(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req RateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	rating, err := h.reviews.Rate(r.Context(), productID, req.UserName, req.Rating)
	if err != nil {
		respondServiceError(w, h.logger, err, "rate product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, rating)
}

func (h *ReviewHandler) Ratings(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	ratings, err := h.reviews.Ratings(r.Context(), productID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list ratings")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ratings)
}

func (h *ReviewHandler) RatingStats(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	stats, err := h.reviews.RatingStats(r.Context(), productID)
	if err != nil {
		respondServiceError(w, h.logger, err, "load rating stats")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// Summary reports ratings, sentiment and the badge of a product
func (h *ReviewHandler) Summary(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	summary, err := h.reviews.Summary(r.Context(), productID)
	if err != nil {
		respondServiceError(w, h.logger, err, "summarize product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *ReviewHandler) Comments(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	comments, err := h.reviews.Comments(r.Context(), productID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list comments")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, comments)
}

func (h *ReviewHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req CommentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	comment, err := h.reviews.AddComment(r.Context(), productID, req.UserName, req.Comment)
	if err != nil {
		respondServiceError(w, h.logger, err, "add comment")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, comment)
}

func (h *ReviewHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req EditCommentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	comment, err := h.reviews.EditComment(r.Context(), id, req.Comment)
	if err != nil {
		respondServiceError(w, h.logger, err, "edit comment")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, comment)
}

func (h *ReviewHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.reviews.DeleteComment(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete comment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Vote answers with the comment's tally after the vote is applied
func (h *ReviewHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req VoteRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	tally, err := h.reviews.Vote(r.Context(), id, req.UserName, domain.VoteDirection(req.Direction))
	if err != nil {
		respondServiceError(w, h.logger, err, "vote")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, tally)
}

func (h *ReviewHandler) Tally(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	tally, err := h.reviews.Tally(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "tally votes")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, tally)
}

func (h *ReviewHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.reviews.Dashboard(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "build dashboard")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, entries)
}
