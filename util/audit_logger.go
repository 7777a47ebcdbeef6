package util

import (
	"encoding/json"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ariebrainware/rental-unit-registry/model"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditEventType represents different types of registry events
type AuditEventType string

const (
	EventUnitCreated        AuditEventType = "UNIT_CREATED"
	EventUnitMoved          AuditEventType = "UNIT_MOVED"
	EventUnitDeleted        AuditEventType = "UNIT_DELETED"
	EventUnitNumberConflict AuditEventType = "UNIT_NUMBER_COLLISION"
	EventInvalidUnitCode    AuditEventType = "INVALID_UNIT_CODE"
	EventUnauthorizedAccess AuditEventType = "UNAUTHORIZED_ACCESS"
	EventRateLimitExceeded  AuditEventType = "RATE_LIMIT_EXCEEDED"
	EventEndpointCall       AuditEventType = "ENDPOINT_CALL"
)

// AuditEvent represents an event to be logged
type AuditEvent struct {
	EventType  AuditEventType
	Actor      string
	IP         string
	UserAgent  string
	UnitNumber string
	Message    string
	Details    map[string]interface{}
}

var auditLogger *logrus.Logger
var auditDB *gorm.DB

// SetAuditLoggerDB sets a gorm DB instance used by the audit logger.
// Call this during application startup after DB initialization.
func SetAuditLoggerDB(db *gorm.DB) {
	auditDB = db
}

func init() {
	auditLogger = logrus.New()
	auditLogger.SetOutput(os.Stdout)
	auditLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Widths of the audit_logs varchar columns, in characters.
const (
	maxLogValueLen       = 200
	auditActorWidth      = 64
	auditIPWidth         = 45
	auditUnitNumberWidth = 16
)

// truncateRunes cuts value to at most n characters without splitting a UTF-8 sequence.
func truncateRunes(value string, n int) string {
	if utf8.RuneCountInString(value) <= n {
		return value
	}
	return string([]rune(value)[:n])
}

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	if utf8.RuneCountInString(value) > maxLogValueLen {
		value = truncateRunes(value, maxLogValueLen) + "..."
	}
	return value
}

// LogAuditEvent writes event to the audit log and, when a DB is set, persists it.
// Persistence is best-effort and never fails the caller.
func LogAuditEvent(event AuditEvent) {
	fields := logrus.Fields{
		"event":       sanitizeLogValue(string(event.EventType)),
		"actor":       sanitizeLogValue(event.Actor),
		"ip":          sanitizeLogValue(event.IP),
		"user_agent":  sanitizeLogValue(event.UserAgent),
		"unit_number": sanitizeLogValue(event.UnitNumber),
	}
	if len(event.Details) > 0 {
		fields["details_count"] = len(event.Details)
	}
	auditLogger.WithFields(fields).Info(sanitizeLogValue(event.Message))

	if auditDB == nil {
		return
	}

	var details datatypes.JSON
	if event.Details != nil {
		if b, err := json.Marshal(event.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}

	entry := model.AuditLog{
		EventType:  string(event.EventType),
		Actor:      truncateRunes(sanitizeLogValue(event.Actor), auditActorWidth),
		IP:         truncateRunes(sanitizeLogValue(event.IP), auditIPWidth),
		UnitNumber: truncateRunes(sanitizeLogValue(event.UnitNumber), auditUnitNumberWidth),
		UserAgent:  sanitizeLogValue(event.UserAgent),
		Message:    sanitizeLogValue(event.Message),
		Details:    details,
	}
	if err := auditDB.Create(&entry).Error; err != nil {
		auditLogger.WithError(err).Warn("failed to persist audit event")
	}
}

// LogUnitCreated logs a newly registered unit
func LogUnitCreated(unit model.Unit, ip string) {
	LogAuditEvent(AuditEvent{
		EventType:  EventUnitCreated,
		IP:         ip,
		UnitNumber: unit.UnitNumber,
		Message:    "Unit registered",
		Details: map[string]interface{}{
			"property_id": unit.PropertyID.String(),
			"floor":       unit.Floor,
			"unit_index":  unit.UnitIndex,
		},
	})
}

// LogUnitMoved logs a unit whose floor change produced a new unit number
func LogUnitMoved(unit model.Unit, previousNumber, ip string) {
	LogAuditEvent(AuditEvent{
		EventType:  EventUnitMoved,
		IP:         ip,
		UnitNumber: unit.UnitNumber,
		Message:    "Unit moved from " + previousNumber,
		Details: map[string]interface{}{
			"previous_unit_number": previousNumber,
			"floor":                unit.Floor,
			"unit_index":           unit.UnitIndex,
		},
	})
}

// LogUnitDeleted logs a soft-deleted unit
func LogUnitDeleted(unit model.Unit, ip string) {
	LogAuditEvent(AuditEvent{
		EventType:  EventUnitDeleted,
		IP:         ip,
		UnitNumber: unit.UnitNumber,
		Message:    "Unit deleted",
	})
}

// LogUnitNumberCollision logs a generated number that was already taken
func LogUnitNumberCollision(unitNumber string, floor, unitIndex int) {
	LogAuditEvent(AuditEvent{
		EventType:  EventUnitNumberConflict,
		UnitNumber: unitNumber,
		Message:    "Generated unit number already registered",
		Details: map[string]interface{}{
			"floor":      floor,
			"unit_index": unitIndex,
		},
	})
}

// LogInvalidUnitCode logs a unit number that failed validation
func LogInvalidUnitCode(code, ip, userAgent string) {
	LogAuditEvent(AuditEvent{
		EventType:  EventInvalidUnitCode,
		IP:         ip,
		UserAgent:  userAgent,
		UnitNumber: code,
		Message:    "Unit number failed validation",
	})
}

// LogUnauthorizedAccess logs requests rejected by the service token check
func LogUnauthorizedAccess(ip, resource, reason string) {
	LogAuditEvent(AuditEvent{
		EventType: EventUnauthorizedAccess,
		IP:        ip,
		Message:   "Unauthorized access to " + resource + ": " + reason,
	})
}

// LogRateLimitExceeded logs when rate limit is exceeded
func LogRateLimitExceeded(ip, endpoint string) {
	LogAuditEvent(AuditEvent{
		EventType: EventRateLimitExceeded,
		IP:        ip,
		Message:   "Rate limit exceeded for endpoint: " + endpoint,
	})
}

// GetAuditLoggerForTest returns the current audit logger for testing purposes
func GetAuditLoggerForTest() *logrus.Logger {
	return auditLogger
}

// SetAuditLoggerForTest sets a custom logger for testing purposes
func SetAuditLoggerForTest(logger *logrus.Logger) {
	auditLogger = logger
}
