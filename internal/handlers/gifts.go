package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nawel-dev/nawel/internal/services"
	"github.com/nawel-dev/nawel/internal/types"
	"github.com/nawel-dev/nawel/internal/utils"
)

type CreateGiftRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"imageUrl"`
	Price       *float64 `json:"price"`
	Currency    string   `json:"currency"`
	IsGroupGift bool     `json:"isGroupGift"`
	Year        int      `json:"year"`
}

type UpdateGiftRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	URL         *string  `json:"url"`
	ImageURL    *string  `json:"imageUrl"`
	Price       *float64 `json:"price"`
	Currency    *string  `json:"currency"`
	IsGroupGift *bool    `json:"isGroupGift"`
}

type ReserveGiftRequest struct {
	Comment string `json:"comment"`
}

type GiftHandler struct {
	gifts        *services.GiftService
	reservations *services.ReservationService
	log          *logrus.Logger
}

func NewGiftHandler(gifts *services.GiftService, reservations *services.ReservationService, log *logrus.Logger) *GiftHandler {
	return &GiftHandler{gifts: gifts, reservations: reservations, log: log}
}

func (h *GiftHandler) Years(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	years, err := h.gifts.ListYears(ctx.Request.Context(), userID)

	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, years)
}

// MyList returns the caller's own gifts for a year, redacted: reservation
// details are never shown to the list owner.
func (h *GiftHandler) MyList(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	gifts, err := h.gifts.ListGifts(ctx.Request.Context(), userID, userID, yearParam(ctx))

	if err != nil {
		if errors.Is(err, services.ErrListNotFound) {
			ctx.JSON(http.StatusOK, []types.GiftResponse{})
			return
		}
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gifts)
}

func (h *GiftHandler) UserList(ctx *gin.Context) {
	currentUserID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ownerID, ok := idParam(ctx, "user_id")

	if !ok {
		return
	}

	if ownerID == currentUserID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Use the my-list endpoint for your own gifts"})
		return
	}

	gifts, err := h.gifts.ListGifts(ctx.Request.Context(), ownerID, currentUserID, yearParam(ctx))

	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gifts)
}

func (h *GiftHandler) Create(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	h.createForOwner(ctx, userID, userID)
}

func (h *GiftHandler) Update(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	giftID, ok := idParam(ctx, "gift_id")

	if !ok {
		return
	}

	var req UpdateGiftRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	gift, err := h.gifts.UpdateGift(ctx.Request.Context(), giftID, userID, services.GiftUpdate{
		Name:        req.Name,
		Description: req.Description,
		URL:         req.URL,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		Currency:    req.Currency,
		IsGroupGift: req.IsGroupGift,
	})

	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gift)
}

func (h *GiftHandler) Delete(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	giftID, ok := idParam(ctx, "gift_id")

	if !ok {
		return
	}

	if err := h.gifts.DeleteGift(ctx.Request.Context(), giftID, userID); err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *GiftHandler) Reserve(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	giftID, ok := idParam(ctx, "gift_id")

	if !ok {
		return
	}

	var req ReserveGiftRequest

	if ctx.Request.ContentLength > 0 {
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
	}

	if err := h.reservations.Reserve(ctx.Request.Context(), giftID, userID, req.Comment); err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	gift, err := h.gifts.GetGift(ctx.Request.Context(), giftID, userID)

	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gift)
}

func (h *GiftHandler) Unreserve(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	giftID, ok := idParam(ctx, "gift_id")

	if !ok {
		return
	}

	if err := h.reservations.Unreserve(ctx.Request.Context(), giftID, userID); err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	gift, err := h.gifts.GetGift(ctx.Request.Context(), giftID, userID)

	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gift)
}

// ImportFromYear copies the caller's unreserved gifts from a past year into
// the current year.
func (h *GiftHandler) ImportFromYear(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	sourceYear, err := strconv.Atoi(ctx.Param("year"))

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
		return
	}

	count, err := h.gifts.ImportFromYear(ctx.Request.Context(), userID, sourceYear, time.Now().Year())

	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Can only import from past years"})
			return
		}
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"count": count})
}

// ChildList lets a same-family adult read a child's list. The adult is not
// the owner, so the standard unredacted projection applies.
func (h *GiftHandler) ChildList(ctx *gin.Context) {
	currentUserID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	childID, ok := idParam(ctx, "child_id")

	if !ok {
		return
	}

	gifts, err := h.gifts.ListChildGifts(ctx.Request.Context(), childID, currentUserID, yearParam(ctx))

	if err != nil {
		if errors.Is(err, services.ErrListNotFound) {
			ctx.JSON(http.StatusOK, []types.GiftResponse{})
			return
		}
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gifts)
}

func (h *GiftHandler) ChildCreate(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	childID, ok := idParam(ctx, "child_id")

	if !ok {
		return
	}

	h.createForOwner(ctx, childID, userID)
}

func (h *GiftHandler) createForOwner(ctx *gin.Context, ownerID, actorID uint) {
	var req CreateGiftRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	gift, err := h.gifts.CreateGift(ctx.Request.Context(), ownerID, actorID, services.GiftInput{
		Name:        req.Name,
		Description: req.Description,
		URL:         req.URL,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		Currency:    req.Currency,
		IsGroupGift: req.IsGroupGift,
		Year:        req.Year,
	})

	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, gift)
}

func idParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}

	return uint(id), true
}

func yearParam(ctx *gin.Context) int {
	year, err := strconv.Atoi(ctx.Query("year"))

	if err != nil || year <= 0 {
		return time.Now().Year()
	}

	return year
}
