package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecognitionsTotal counts recognition attempts by outcome:
	// recorded, already_recorded, mismatch, no_match, upstream_error.
	RecognitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faceattend_recognitions_total",
		Help: "Recognition attempts by outcome.",
	}, []string{"outcome"})

	// EnrollmentsTotal counts face enrollment attempts by result.
	EnrollmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faceattend_enrollments_total",
		Help: "Face enrollment attempts by result.",
	}, []string{"result"})

	// AttendanceRecordsTotal counts newly written attendance rows.
	AttendanceRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faceattend_attendance_records_total",
		Help: "Attendance records created.",
	})
)
