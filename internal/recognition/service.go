package recognition

import (
	"context"
	"log"

	"faceattend/internal/attendance"
	"faceattend/internal/faceclient"
	"faceattend/internal/user"
)

// Kind tags the outcome of a recognition attempt. Each kind guarantees a
// specific set of populated Result fields, instead of one response shape
// with many optional fields.
type Kind int

const (
	// KindRecorded means the face matched the caller and a new attendance
	// record was written.
	KindRecorded Kind = iota
	// KindAlreadyRecorded means the face matched but today's attendance
	// already existed; the existing record is reported.
	KindAlreadyRecorded
	// KindMismatch means a face was recognized, but it belongs to a
	// different NIK than the authenticated caller.
	KindMismatch
	// KindNoMatch means the microservice did not recognize the face.
	KindNoMatch
)

// Result is the outcome of one recognition attempt. Upstream is always set.
// Attendance is set for KindRecorded/KindAlreadyRecorded unless the write
// failed, in which case AttendanceErr holds the failure and the match still
// counts as positive identification.
type Result struct {
	Kind          Kind
	Upstream      *faceclient.RecognizeResult
	Attendance    *attendance.Record
	AttendanceErr error
}

// FaceClient is the recognition capability of the face microservice.
type FaceClient interface {
	Recognize(ctx context.Context, image string) (*faceclient.RecognizeResult, error)
}

// AttendanceMarker records attendance for matched users.
type AttendanceMarker interface {
	MarkPresent(ctx context.Context, userID string) (attendance.Record, bool, error)
}

// Service runs the recognize-then-record flow for an authenticated user.
type Service struct {
	face FaceClient
	att  AttendanceMarker
}

// NewService creates a recognition service.
func NewService(face FaceClient, att AttendanceMarker) *Service {
	return &Service{face: face, att: att}
}

// Verify forwards the image to the microservice, compares the recognized NIK
// with the caller's, and applies the attendance rule on a positive match.
// An error return means the upstream call itself failed; every other branch
// is expressed as a tagged Result.
func (s *Service) Verify(ctx context.Context, u *user.User, image string) (*Result, error) {
	res, err := s.face.Recognize(ctx, faceclient.StripDataURL(image))
	if err != nil {
		log.Printf("recognize upstream failed for user %s (nik %s): %v", u.ID, u.NIK, err)
		return nil, err
	}

	if !res.Matched() {
		log.Printf("face not recognized for user %s (nik %s): %s", u.ID, u.NIK, res.Message)
		return &Result{Kind: KindNoMatch, Upstream: res}, nil
	}

	if res.NIK != u.NIK {
		log.Printf("face recognized but nik mismatch: recognized %s, authenticated %s (user %s)",
			res.NIK, u.NIK, u.ID)
		return &Result{Kind: KindMismatch, Upstream: res}, nil
	}

	log.Printf("face recognized and nik matches: user %s (%s), confidence %.2f", u.Name, u.NIK, res.Confidence)

	rec, created, err := s.att.MarkPresent(ctx, u.ID)
	if err != nil {
		// The match stands even when the attendance write fails; the
		// caller reports success with a note.
		log.Printf("attendance write failed for user %s: %v", u.ID, err)
		return &Result{Kind: KindRecorded, Upstream: res, AttendanceErr: err}, nil
	}

	kind := KindAlreadyRecorded
	if created {
		kind = KindRecorded
		log.Printf("attendance recorded for user %s at %s", u.ID, rec.Time.Format("15:04"))
	} else {
		log.Printf("attendance already exists for user %s on %s", u.ID, rec.Date)
	}
	return &Result{Kind: kind, Upstream: res, Attendance: &rec}, nil
}
