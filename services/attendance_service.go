// services/attendance_service.go
package services

import (
	"log/slog"
	"time"
)

// AttendanceService clocks household staff in and out alongside their gate
// crossings. The bookkeeping itself lives in the staff-shift module; the
// workflow only has to invoke it.
type AttendanceService interface {
	ClockIn(staffID uint, at time.Time) error
	ClockOut(staffID uint, at time.Time) error
}

// LogAttendanceService is the default no-op implementation used until the
// shift module is wired in. It only logs the clock events.
type LogAttendanceService struct{}

func (LogAttendanceService) ClockIn(staffID uint, at time.Time) error {
	slog.Info("staff clock-in", "staffId", staffID, "at", at)
	return nil
}

func (LogAttendanceService) ClockOut(staffID uint, at time.Time) error {
	slog.Info("staff clock-out", "staffId", staffID, "at", at)
	return nil
}
