package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-api/internal/domain/entity"
	"github.com/oksasatya/go-event-api/internal/interface/middleware"
	"github.com/oksasatya/go-event-api/pkg/response"
)

// ProfileManager reads and updates the caller's own account.
type ProfileManager interface {
	GetProfile(ctx context.Context, accountID string) (*entity.Account, error)
	UploadProfileImage(ctx context.Context, accountID, contentType string, r io.Reader) (string, error)
	SearchAccounts(ctx context.Context, q string, size int) ([]entity.Account, error)
}

type ProfileHandler struct {
	Svc           ProfileManager
	Logger        *logrus.Logger
	MaxImageBytes int64
}

func NewProfileHandler(svc ProfileManager, logger *logrus.Logger, maxImageBytes int64) *ProfileHandler {
	return &ProfileHandler{Svc: svc, Logger: logger, MaxImageBytes: maxImageBytes}
}

type accountView struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	EmailVerified   bool      `json:"email_verified"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toAccountView(a *entity.Account) accountView {
	return accountView{
		ID:              a.ID,
		Email:           a.Email,
		Role:            a.Role.String(),
		EmailVerified:   a.EmailVerified,
		ProfileImageURL: a.ProfileImageURL,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// GetProfile GET /api/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		response.Error[any](c, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	a, err := h.Svc.GetProfile(c.Request.Context(), p.AccountID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toAccountView(a), "profile", nil)
}

// UploadImage POST /api/profile/image (multipart, field "profileImage")
// The content type is sniffed from the bytes, not taken from the client.
func (h *ProfileHandler) UploadImage(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		response.Error[any](c, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	if h.MaxImageBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxImageBytes+(1<<20))
	}
	fh, err := c.FormFile("profileImage")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error[any](c, http.StatusRequestEntityTooLarge, "image too large", nil)
			return
		}
		response.Error[any](c, http.StatusBadRequest, "profileImage file is required", nil)
		return
	}
	if h.MaxImageBytes > 0 && fh.Size > h.MaxImageBytes {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "image too large", gin.H{"max_bytes": h.MaxImageBytes})
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeError(c, h.Logger, err)
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)

	url, err := h.Svc.UploadProfileImage(c.Request.Context(), p.AccountID, contentType, io.MultiReader(bytes.NewReader(head), f))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profile_image_url": url}, "profile image updated", nil)
}

// SearchAccounts GET /api/accounts/search?q=&size= (ADMIN)
func (h *ProfileHandler) SearchAccounts(c *gin.Context) {
	q := c.Query("q")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	found, err := h.Svc.SearchAccounts(c.Request.Context(), q, size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	out := make([]accountView, 0, len(found))
	for i := range found {
		out = append(out, toAccountView(&found[i]))
	}
	response.Success(c, http.StatusOK, out, "accounts", gin.H{"count": len(out)})
}
