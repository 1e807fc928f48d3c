// Package notification provides the notification bounded context: persisted
// in-app notifications, the capped Redis mirror, SSE push, and the email
// side-channel. Everything here runs as an event subscriber; no other module
// calls into it directly.
package notification

import (
	"context"
	"fmt"

	"admissions_portal_backend/internal/events"
	apphttp "admissions_portal_backend/internal/http"
	"admissions_portal_backend/internal/notification/handler"
	"admissions_portal_backend/internal/notification/inapp"
	"admissions_portal_backend/internal/notification/sse"
	"admissions_portal_backend/internal/scheduler"
	"admissions_portal_backend/platform/cache"
	"admissions_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification types, used by clients to pick icons and routes.
const (
	TypeAssignmentRequest  = "assignment_request"
	TypeAssignmentAccepted = "assignment_accepted"
	TypeLeadShare          = "lead_share"
	TypeShareAccepted      = "share_accepted"
	TypeShareRejected      = "share_rejected"
	TypePhaseChange        = "phase_change"
	TypeNewLead            = "new_lead"
)

// EmailEnqueuer queues notification emails for the worker process.
type EmailEnqueuer interface {
	EnqueueNotificationEmail(ctx context.Context, p scheduler.NotificationEmailPayload) error
}

// Module is the notification bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *inapp.Service
	emails  EmailEnqueuer
	log     *logger.Logger
}

// NewModule creates and initializes the notification module. The email
// enqueuer may be nil, in which case no emails are sent.
func NewModule(pool *pgxpool.Pool, cacheClient *cache.Client, emails EmailEnqueuer, log *logger.Logger, mirrorCap int) *Module {
	repo := inapp.NewRepo(pool)
	hub := sse.NewHub()
	svc := inapp.NewService(repo, cacheClient, hub, log, mirrorCap)
	h := handler.New(svc)

	return &Module{
		handler: h,
		svc:     svc,
		emails:  emails,
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterRoutes mounts notification routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/notifications", m.handler.List)
	ctx.Protected.GET("/notifications/unread-count", m.handler.UnreadCount)
	ctx.Protected.PATCH("/notifications/:id/read", m.handler.MarkRead)
	ctx.Protected.PATCH("/notifications/read-all", m.handler.MarkAllRead)
	ctx.Protected.GET("/notifications/stream", m.handler.Stream)
}

// RegisterHandlers subscribes the module to the domain events it turns into
// notifications. Handlers run after the owning transaction committed; any
// failure here is logged by the bus and never affects the original request.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.AssignmentRequested{}.EventName(), events.HandlerFunc(m.onAssignmentRequested))
	bus.Subscribe(events.LeadAssigned{}.EventName(), events.HandlerFunc(m.onLeadAssigned))
	bus.Subscribe(events.LeadShared{}.EventName(), events.HandlerFunc(m.onLeadShared))
	bus.Subscribe(events.LeadShareAccepted{}.EventName(), events.HandlerFunc(m.onShareAccepted))
	bus.Subscribe(events.LeadShareRejected{}.EventName(), events.HandlerFunc(m.onShareRejected))
	bus.Subscribe(events.PhaseChanged{}.EventName(), events.HandlerFunc(m.onPhaseChanged))
	bus.Subscribe(events.StudentCreated{}.EventName(), events.HandlerFunc(m.onStudentCreated))
}

func (m *Module) onAssignmentRequested(ctx context.Context, event events.Event) error {
	e, ok := event.(events.AssignmentRequested)
	if !ok {
		return nil
	}

	n := &inapp.Notification{
		UserID:   e.CounselorID,
		Type:     TypeAssignmentRequest,
		Title:    "New lead assignment",
		Message:  fmt.Sprintf("%s has been offered to you. Accept to take ownership.", e.StudentName),
		Priority: inapp.PriorityHigh,
		LeadID:   &e.StudentID,
	}
	if err := m.svc.Dispatch(ctx, n); err != nil {
		return err
	}

	m.sendEmail(ctx, e.CounselorID, "New lead assignment", n.Title, n.Message)
	return nil
}

func (m *Module) onLeadAssigned(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadAssigned)
	if !ok {
		return nil
	}
	if e.MarketingOwnerID == nil {
		return nil
	}

	return m.svc.Dispatch(ctx, &inapp.Notification{
		UserID:  *e.MarketingOwnerID,
		Type:    TypeAssignmentAccepted,
		Title:   "Lead assignment accepted",
		Message: fmt.Sprintf("The assignment of %s has been accepted.", e.StudentName),
		LeadID:  &e.StudentID,
	})
}

func (m *Module) onLeadShared(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadShared)
	if !ok {
		return nil
	}

	n := &inapp.Notification{
		UserID:              e.ReceiverID,
		Type:                TypeLeadShare,
		Title:               "Lead shared with you",
		Message:             fmt.Sprintf("%s shared the lead %s with you.", e.SenderName, e.StudentName),
		Priority:            inapp.PriorityHigh,
		LeadID:              &e.StudentID,
		SharedByCounselorID: &e.SenderID,
		SharedLeadID:        &e.SharedLeadID,
	}
	if err := m.svc.Dispatch(ctx, n); err != nil {
		return err
	}

	m.sendEmail(ctx, e.ReceiverID, "Lead shared with you", n.Title, n.Message)
	return nil
}

func (m *Module) onShareAccepted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadShareAccepted)
	if !ok {
		return nil
	}

	return m.svc.Dispatch(ctx, &inapp.Notification{
		UserID:       e.SenderID,
		Type:         TypeShareAccepted,
		Title:        "Shared lead accepted",
		Message:      fmt.Sprintf("%s accepted the lead %s.", e.ReceiverName, e.StudentName),
		LeadID:       &e.StudentID,
		SharedLeadID: &e.SharedLeadID,
	})
}

func (m *Module) onShareRejected(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadShareRejected)
	if !ok {
		return nil
	}

	return m.svc.Dispatch(ctx, &inapp.Notification{
		UserID:       e.SenderID,
		Type:         TypeShareRejected,
		Title:        "Shared lead declined",
		Message:      fmt.Sprintf("%s declined the lead %s. It stays with you.", e.ReceiverName, e.StudentName),
		LeadID:       &e.StudentID,
		SharedLeadID: &e.SharedLeadID,
	})
}

func (m *Module) onPhaseChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(events.PhaseChanged)
	if !ok {
		return nil
	}
	// Do not notify the owner about a phase change they made themselves;
	// the activity log still records it.
	if e.MarketingOwnerID == nil || *e.MarketingOwnerID == e.ActorID {
		return nil
	}

	message := fmt.Sprintf("%s moved to %s.", e.StudentName, e.NewPhaseDisplay)
	if e.Country != "" {
		message = fmt.Sprintf("%s moved to %s for %s.", e.StudentName, e.NewPhaseDisplay, e.Country)
	}

	return m.svc.Dispatch(ctx, &inapp.Notification{
		UserID:  *e.MarketingOwnerID,
		Type:    TypePhaseChange,
		Title:   "Application phase updated",
		Message: message,
		LeadID:  &e.StudentID,
	})
}

func (m *Module) onStudentCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.StudentCreated)
	if !ok {
		return nil
	}
	if e.CounselorID == nil {
		return nil
	}

	return m.svc.Dispatch(ctx, &inapp.Notification{
		UserID:  *e.CounselorID,
		Type:    TypeNewLead,
		Title:   "New lead",
		Message: fmt.Sprintf("%s has been registered and assigned to you.", e.StudentName),
		LeadID:  &e.StudentID,
	})
}

// sendEmail enqueues the email side-channel for high-priority notifications.
// Failures are logged; the in-app notification already landed.
func (m *Module) sendEmail(ctx context.Context, userID uuid.UUID, subject, title, message string) {
	if m.emails == nil {
		return
	}

	name, address, err := m.svc.UserContact(ctx, userID)
	if err != nil {
		m.log.Warn("skip notification email, no contact", "userId", userID, "error", err)
		return
	}

	err = m.emails.EnqueueNotificationEmail(ctx, scheduler.NotificationEmailPayload{
		To:      address,
		Name:    name,
		Subject: subject,
		Title:   title,
		Message: message,
	})
	if err != nil {
		m.log.Warn("enqueue notification email failed", "userId", userID, "error", err)
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
