package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"faceattend/internal/audit"
	"faceattend/internal/faceclient"
	"faceattend/internal/metrics"
	"faceattend/internal/recognition"
	"faceattend/internal/user"
)

type faceRegisterRequest struct {
	Name   string   `json:"name" binding:"required,max=255"`
	NIK    string   `json:"nik" binding:"required"`
	Images []string `json:"images" binding:"required,min=1,dive,required"`
}

// FaceRegister forwards enrollment images to the face microservice. The user
// account already exists; no user row is created or modified here beyond the
// enrollment flag.
func (h *Handler) FaceRegister(c *gin.Context) {
	var req faceRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, fieldErrors(err))
		return
	}
	if !user.ValidNIK(req.NIK) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": "Validation Failed",
			"errors":  map[string][]string{"nik": {"nik must be exactly 16 digits"}},
		})
		return
	}

	caller, ok := h.currentUser(c)
	if !ok {
		return
	}

	result, err := h.face.Register(c.Request.Context(), req.Images, req.Name, req.NIK)
	if err != nil {
		metrics.EnrollmentsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, faceclient.ErrNoEmbedding) {
			log.Printf("face service returned no face_embedding for nik %s", req.NIK)
			h.audit.Record(c.Request.Context(), audit.Event{
				Endpoint: "face-register", UserID: caller.ID, NIK: req.NIK,
				Decision: "upstream_invalid", Detail: err.Error(),
			})
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "Face service did not return a valid face embedding.",
			})
			return
		}
		log.Printf("face register upstream failed for nik %s: %v", req.NIK, err)
		h.audit.Record(c.Request.Context(), audit.Event{
			Endpoint: "face-register", UserID: caller.ID, NIK: req.NIK,
			Decision: "upstream_error", Detail: err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Server error: could not reach the face service.",
			"error":   err.Error(),
		})
		return
	}

	// Only flag enrollment when the caller enrolled their own face.
	if caller.NIK == req.NIK {
		if err := h.dir.SetFaceEnrolled(c.Request.Context(), caller.ID, true); err != nil {
			log.Printf("set face enrolled failed for %s: %v", caller.ID, err)
		}
	}

	metrics.EnrollmentsTotal.WithLabelValues("ok").Inc()
	h.audit.Record(c.Request.Context(), audit.Event{
		Endpoint: "face-register", UserID: caller.ID, NIK: req.NIK,
		Decision: "enrolled", Upstream: result.Raw,
	})
	c.JSON(http.StatusOK, gin.H{
		"message":       "Face registered with the microservice.",
		"nik":           req.NIK,
		"name":          req.Name,
		"face_response": result.Raw,
	})
}

type faceRecognizeRequest struct {
	Image string `json:"image" binding:"required"`
}

// upstreamEcho shapes the microservice result for responses, with every
// field present so clients never branch on missing keys.
func upstreamEcho(res *faceclient.RecognizeResult) gin.H {
	return gin.H{
		"status":     res.Status,
		"nik":        res.NIK,
		"name":       res.Name,
		"confidence": res.Confidence,
		"message":    res.Message,
	}
}

// FaceRecognize runs recognition for the authenticated user and records
// attendance on a positive same-NIK match. The caller's identity comes from
// the session, never from the request body.
func (h *Handler) FaceRecognize(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req faceRecognizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, fieldErrors(err))
		return
	}

	result, err := h.rec.Verify(c.Request.Context(), caller, req.Image)
	if err != nil {
		metrics.RecognitionsTotal.WithLabelValues("upstream_error").Inc()
		h.audit.Record(c.Request.Context(), audit.Event{
			Endpoint: "face-recognize", UserID: caller.ID, NIK: caller.NIK,
			Decision: "upstream_error", Detail: err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"message":                "Error communicating with the face service.",
			"error":                  err.Error(),
			"authenticated_user_nik": caller.NIK,
		})
		return
	}

	switch result.Kind {
	case recognition.KindRecorded, recognition.KindAlreadyRecorded:
		var attendanceInfo string
		switch {
		case result.AttendanceErr != nil:
			attendanceInfo = "Face recognition succeeded, but recording attendance failed. Please contact an administrator."
		case result.Kind == recognition.KindRecorded:
			metrics.AttendanceRecordsTotal.Inc()
			attendanceInfo = "Attendance recorded at " + result.Attendance.Time.Format("15:04") +
				" with status: " + result.Attendance.Status
		default:
			attendanceInfo = "You already marked attendance today at " + result.Attendance.Time.Format("15:04") +
				" with status: " + result.Attendance.Status
		}

		outcome := "recorded"
		if result.Kind == recognition.KindAlreadyRecorded {
			outcome = "already_recorded"
		}
		metrics.RecognitionsTotal.WithLabelValues(outcome).Inc()
		h.audit.Record(c.Request.Context(), audit.Event{
			Endpoint: "face-recognize", UserID: caller.ID, NIK: caller.NIK,
			Decision: outcome, Detail: attendanceInfo,
			Upstream: map[string]any{
				"status": result.Upstream.Status, "nik": result.Upstream.NIK,
				"name": result.Upstream.Name, "confidence": result.Upstream.Confidence,
			},
		})

		c.JSON(http.StatusOK, gin.H{
			"message":         "I know you.",
			"attendance_info": attendanceInfo,
			"user_data": gin.H{
				"id":    caller.ID,
				"name":  caller.Name,
				"nik":   caller.NIK,
				"email": caller.Email,
			},
			"face_response":          upstreamEcho(result.Upstream),
			"recognized_nik":         result.Upstream.NIK,
			"authenticated_user_nik": caller.NIK,
		})

	case recognition.KindMismatch:
		metrics.RecognitionsTotal.WithLabelValues("mismatch").Inc()
		h.audit.Record(c.Request.Context(), audit.Event{
			Endpoint: "face-recognize", UserID: caller.ID, NIK: caller.NIK,
			Decision: "mismatch", Detail: "recognized nik " + result.Upstream.NIK,
			Upstream: map[string]any{
				"status": result.Upstream.Status, "nik": result.Upstream.NIK,
				"name": result.Upstream.Name, "confidence": result.Upstream.Confidence,
			},
		})
		c.JSON(http.StatusForbidden, gin.H{
			"message":                "I do not know you. The recognized face does not belong to the logged-in user.",
			"recognized_nik":         result.Upstream.NIK,
			"authenticated_user_nik": caller.NIK,
			"face_response":          upstreamEcho(result.Upstream),
		})

	case recognition.KindNoMatch:
		metrics.RecognitionsTotal.WithLabelValues("no_match").Inc()
		h.audit.Record(c.Request.Context(), audit.Event{
			Endpoint: "face-recognize", UserID: caller.ID, NIK: caller.NIK,
			Decision: "no_match", Detail: result.Upstream.Message,
		})
		c.JSON(http.StatusNotFound, gin.H{
			"message":                "I do not know you. The face could not be recognized.",
			"face_error":             result.Upstream.Message,
			"authenticated_user_nik": caller.NIK,
		})

	default:
		log.Printf("unexpected recognition outcome %d for user %s", result.Kind, caller.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}
