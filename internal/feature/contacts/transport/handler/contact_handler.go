// Package handler はcontactsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"contacts_backend/internal/api"
	authentity "contacts_backend/internal/feature/auth/domain/entity"
	"contacts_backend/internal/feature/contacts/domain/entity"
	"contacts_backend/internal/feature/contacts/transport/http/dto"
	"contacts_backend/internal/feature/contacts/usecase"
	jwtmw "contacts_backend/internal/platform/jwt"
)

// ContactUsecase は連絡先のユースケースを定義します。
type ContactUsecase interface {
	List(ctx context.Context, ownerID uint, offset, limit int) ([]entity.Contact, error)
	Get(ctx context.Context, ownerID, id uint) (*entity.Contact, error)
	Create(ctx context.Context, ownerID uint, in usecase.ContactInput) (*entity.Contact, error)
	Update(ctx context.Context, ownerID, id uint, in usecase.ContactInput) (*entity.Contact, error)
	PatchStatus(ctx context.Context, ownerID, id uint, done bool) (*entity.Contact, error)
	Delete(ctx context.Context, ownerID, id uint) (*entity.Contact, error)
	Search(ctx context.Context, ownerID uint, field usecase.SearchField, substring string, offset, limit int) ([]entity.Contact, error)
	UpcomingBirthdays(ctx context.Context, ownerID uint, days, offset, limit int) ([]entity.Contact, error)
}

// ContactHandler は /contacts を処理します。全ルートで jwtmw.AuthRequired が必要です。
type ContactHandler struct {
	contacts ContactUsecase
}

// NewContactHandler はContactHandlerを生成します。
func NewContactHandler(contacts ContactUsecase) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// List は GET /contacts を処理します。first_name・last_name・email のいずれか1つの
// クエリパラメータが指定された場合は検索になります。
func (h *ContactHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		unprocessable(c, err)
		return
	}

	field, value, n := searchFilter(q)
	var (
		found []entity.Contact
		err   error
	)
	switch n {
	case 0:
		found, err = h.contacts.List(c.Request.Context(), user.ID, q.Skip, q.Limit)
	case 1:
		found, err = h.contacts.Search(c.Request.Context(), user.ID, field, value, q.Skip, q.Limit)
	default:
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: "only one of first_name, last_name, email may be given"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewContactListResponse(found))
}

// Get は GET /contacts/:id を処理します。
func (h *ContactHandler) Get(c *gin.Context) {
	user, id, ok := userAndID(c)
	if !ok {
		return
	}
	contact, err := h.contacts.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewContactResponse(contact))
}

// Create は POST /contacts を処理します。
func (h *ContactHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	in, ok := bindContact(c)
	if !ok {
		return
	}

	contact, err := h.contacts.Create(c.Request.Context(), user.ID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	slog.Info("contact created", "contact_id", contact.ID, "user_id", user.ID)
	c.JSON(http.StatusCreated, dto.NewContactResponse(contact))
}

// Update は PUT /contacts/:id を処理します。
func (h *ContactHandler) Update(c *gin.Context) {
	user, id, ok := userAndID(c)
	if !ok {
		return
	}
	in, ok := bindContact(c)
	if !ok {
		return
	}

	contact, err := h.contacts.Update(c.Request.Context(), user.ID, id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewContactResponse(contact))
}

// PatchStatus は PATCH /contacts/:id を処理します。
func (h *ContactHandler) PatchStatus(c *gin.Context) {
	user, id, ok := userAndID(c)
	if !ok {
		return
	}
	var req dto.StatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		unprocessable(c, err)
		return
	}

	contact, err := h.contacts.PatchStatus(c.Request.Context(), user.ID, id, *req.Done)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewContactResponse(contact))
}

// Delete は DELETE /contacts/:id を処理し、削除した連絡先を返します。
func (h *ContactHandler) Delete(c *gin.Context) {
	user, id, ok := userAndID(c)
	if !ok {
		return
	}
	contact, err := h.contacts.Delete(c.Request.Context(), user.ID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	slog.Info("contact deleted", "contact_id", contact.ID, "user_id", user.ID)
	c.JSON(http.StatusOK, dto.NewContactResponse(contact))
}

// Birthdays は GET /contacts/birthday/:days を処理します。
func (h *ContactHandler) Birthdays(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	days, err := strconv.Atoi(c.Param("days"))
	if err != nil || days < 0 {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: "days must be a non-negative integer"})
		return
	}
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		unprocessable(c, err)
		return
	}

	found, err := h.contacts.UpcomingBirthdays(c.Request.Context(), user.ID, days, q.Skip, q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewContactListResponse(found))
}

func searchFilter(q dto.ListQuery) (usecase.SearchField, string, int) {
	var (
		field usecase.SearchField
		value string
		n     int
	)
	for _, f := range []struct {
		field usecase.SearchField
		value string
	}{
		{usecase.FieldFirstName, q.FirstName},
		{usecase.FieldLastName, q.LastName},
		{usecase.FieldEmail, q.Email},
	} {
		if f.value != "" {
			field, value = f.field, f.value
			n++
		}
	}
	return field, value, n
}

func bindContact(c *gin.Context) (usecase.ContactInput, bool) {
	var req dto.ContactReq
	if err := c.ShouldBindJSON(&req); err != nil {
		unprocessable(c, err)
		return usecase.ContactInput{}, false
	}
	in, err := req.Input()
	if err != nil {
		unprocessable(c, err)
		return usecase.ContactInput{}, false
	}
	return in, true
}

func currentUser(c *gin.Context) (*authentity.User, bool) {
	user, ok := jwtmw.CurrentUser(c)
	if !ok {
		jwtmw.Unauthorized(c, "Could not validate credentials")
	}
	return user, ok
}

func userAndID(c *gin.Context) (*authentity.User, uint, bool) {
	user, ok := currentUser(c)
	if !ok {
		return nil, 0, false
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: "contact id must be a positive integer"})
		return nil, 0, false
	}
	return user, uint(id), true
}

func unprocessable(c *gin.Context, err error) {
	slog.Warn("contact validation failed", "error", err, "remote_addr", c.ClientIP())
	c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: err.Error()})
}

// writeError はユースケースのエラーをHTTPステータスコードとdetailに変換します。
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrContactNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Detail: "Contact not found"})
	case errors.Is(err, usecase.ErrContactsNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Detail: "Contacts not found"})
	case errors.Is(err, usecase.ErrContactEmailTaken):
		c.JSON(http.StatusConflict, api.ErrorResponse{Detail: "Contact with this email already exists"})
	case errors.Is(err, usecase.ErrInvalidSearchField), errors.Is(err, usecase.ErrInvalidDays):
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: err.Error()})
	default:
		slog.Error("contact request failed", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "internal server error"})
	}
}
