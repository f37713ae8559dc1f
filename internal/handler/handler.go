package handler

import (
	"context"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"faceattend/internal/attendance"
	"faceattend/internal/audit"
	"faceattend/internal/auth"
	"faceattend/internal/faceclient"
	"faceattend/internal/recognition"
	"faceattend/internal/user"
)

// UserDirectory is the user persistence surface the handlers need beyond
// the auth service.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
	List(ctx context.Context) ([]user.User, error)
	SetFaceEnrolled(ctx context.Context, id string, enrolled bool) error
	SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	RefreshTokenValid(ctx context.Context, token string) (bool, error)
	RevokeRefreshToken(ctx context.Context, token string) error
	RevokeRefreshTokens(ctx context.Context, userID string) error
}

// FaceRegistrar is the enrollment capability of the face microservice.
type FaceRegistrar interface {
	Register(ctx context.Context, images []string, name, nik string) (*faceclient.RegisterResult, error)
}

// Recognizer runs the recognize-then-record flow.
type Recognizer interface {
	Verify(ctx context.Context, u *user.User, image string) (*recognition.Result, error)
}

// TokenConfig carries what Login/Refresh need to mint tokens.
type TokenConfig struct {
	Issuer     string
	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Handler owns the HTTP-facing request handling.
type Handler struct {
	users    *user.Service
	dir      UserDirectory
	att      *attendance.Service
	rec      Recognizer
	face     FaceRegistrar
	denylist auth.Denylist
	audit    *audit.Recorder
	window   attendance.Window
	tokens   TokenConfig
}

// New creates a handler with all collaborators wired.
func New(users *user.Service, dir UserDirectory, att *attendance.Service, rec Recognizer,
	face FaceRegistrar, denylist auth.Denylist, rec2 *audit.Recorder,
	window attendance.Window, tokens TokenConfig) *Handler {
	return &Handler{
		users:    users,
		dir:      dir,
		att:      att,
		rec:      rec,
		face:     face,
		denylist: denylist,
		audit:    rec2,
		window:   window,
		tokens:   tokens,
	}
}

// currentUser loads the authenticated user for this request.
func (h *Handler) currentUser(c *gin.Context) (*user.User, bool) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: user not found in session."})
		return nil, false
	}
	u, err := h.dir.FindByID(c.Request.Context(), claims.Subject)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: user not found in session."})
		return nil, false
	}
	return u, true
}

// ListUsers returns all users. Password hashes never serialize.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.dir.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	if users == nil {
		users = []user.User{}
	}
	c.JSON(http.StatusOK, users)
}

// ListAttendance returns recent attendance records.
func (h *Handler) ListAttendance(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := h.att.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	c.JSON(http.StatusOK, records)
}

// AttendanceWindow reports whether the attendance window is currently open,
// so clients can gate the recognition action and re-poll on a timer.
func (h *Handler) AttendanceWindow(c *gin.Context) {
	now := time.Now()
	open, close := h.window.Bounds(now)
	c.JSON(http.StatusOK, gin.H{
		"open":        h.window.Contains(now),
		"window":      h.window.String(),
		"opens_at":    open,
		"closes_at":   close,
		"server_time": now,
	})
}

// Validation errors report JSON field names, so binding failures and the
// hand-built checks produce the same 422 shape.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// fieldErrors shapes binding failures as Laravel-style field error maps.
func fieldErrors(err error) gin.H {
	errs := map[string][]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			field := fe.Field()
			errs[field] = append(errs[field], "failed on rule: "+fe.Tag())
		}
	} else {
		errs["body"] = []string{err.Error()}
	}
	return gin.H{"message": "Validation Failed", "errors": errs}
}
