// Package server exposes the collaboration services over HTTP.
package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/teamline-io/teamline/internal/activity"
	"github.com/teamline-io/teamline/internal/comments"
	"github.com/teamline-io/teamline/internal/meetings"
	"github.com/teamline-io/teamline/internal/notify"
	"github.com/teamline-io/teamline/internal/scanner"
	"go.uber.org/zap"
)

var (
	errMissingCommentsService = errors.New("comments service dependency required")
	errMissingActivityService = errors.New("activity service dependency required")
	errMissingMeetingsService = errors.New("meetings service dependency required")
	errMissingDispatcher      = errors.New("notification dispatcher dependency required")
)

type Dependencies struct {
	CommentsService *comments.Service
	ActivityService *activity.Service
	MeetingsService *meetings.Service
	Dispatcher      *notify.Dispatcher
	Scanner         *scanner.Scanner
	Logger          *zap.Logger
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.CommentsService == nil {
		return nil, errMissingCommentsService
	}
	if deps.ActivityService == nil {
		return nil, errMissingActivityService
	}
	if deps.MeetingsService == nil {
		return nil, errMissingMeetingsService
	}
	if deps.Dispatcher == nil {
		return nil, errMissingDispatcher
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		comments: deps.CommentsService,
		activity: deps.ActivityService,
		meetings: deps.MeetingsService,
		notify:   deps.Dispatcher,
		scanner:  deps.Scanner,
		logger:   logger,
	}

	router.GET("/healthz", handler.handleHealth)

	router.POST("/projects/:id/comments", handler.handleAddComment)
	router.GET("/projects/:id/comments", handler.handleListComments)
	router.GET("/comments/:id/thread", handler.handleThread)
	router.PATCH("/comments/:id", handler.handleEditComment)
	router.DELETE("/comments/:id", handler.handleDeleteComment)

	router.GET("/projects/:id/activities", handler.handleActivities)

	router.POST("/projects/:id/meetings", handler.handleCreateMeeting)
	router.GET("/projects/:id/meetings", handler.handleListMeetings)
	router.DELETE("/meetings/:id", handler.handleDeleteMeeting)
	router.GET("/projects/:id/action-items", handler.handleActionItems)
	router.GET("/projects/:id/action-items/overdue", handler.handleOverdueActionItems)
	router.GET("/projects/:id/decisions", handler.handleDecisions)
	router.PATCH("/action-items/:id/status", handler.handleActionItemStatus)

	router.GET("/notifications", handler.handleUnreadNotifications)
	router.GET("/notifications/summary", handler.handleNotificationSummary)
	router.POST("/notifications/:id/read", handler.handleMarkRead)

	router.POST("/internal/scan", handler.handleScan)

	return router, nil
}

type httpHandler struct {
	comments *comments.Service
	activity *activity.Service
	meetings *meetings.Service
	notify   *notify.Dispatcher
	scanner  *scanner.Scanner
	logger   *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type addCommentPayload struct {
	Author   string `json:"author"`
	Text     string `json:"text"`
	ParentID *uint  `json:"parent_id"`
}

type commentPayload struct {
	ID               uint   `json:"id"`
	ProjectID        uint   `json:"project_id"`
	Author           string `json:"author"`
	Text             string `json:"text"`
	ParentID         *uint  `json:"parent_id,omitempty"`
	Mentions         string `json:"mentions,omitempty"`
	CreatedAtSeconds int64  `json:"created_at_s"`
	EditedAtSeconds  *int64 `json:"edited_at_s,omitempty"`
}

func commentToPayload(comment comments.Comment) commentPayload {
	return commentPayload{
		ID:               comment.ID,
		ProjectID:        comment.ProjectID,
		Author:           comment.AuthorName,
		Text:             comment.Text,
		ParentID:         comment.ParentID,
		Mentions:         comment.Mentions,
		CreatedAtSeconds: comment.CreatedAtS,
		EditedAtSeconds:  comment.EditedAtS,
	}
}

func (h *httpHandler) handleAddComment(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var request addCommentPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Text) == "" || strings.TrimSpace(request.Author) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	commentID, err := h.comments.Add(c.Request.Context(), projectID, request.Author, request.Text, request.ParentID)
	if errors.Is(err, comments.ErrParentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "parent_not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to add comment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comment_add_failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": commentID})
}

func (h *httpHandler) handleListComments(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	newestFirst := c.DefaultQuery("order", "newest") != "oldest"

	list, err := h.comments.List(c.Request.Context(), projectID, newestFirst)
	if err != nil {
		h.logger.Error("failed to list comments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comment_list_failed"})
		return
	}
	payload := make([]commentPayload, 0, len(list))
	for _, comment := range list {
		payload = append(payload, commentToPayload(comment))
	}
	c.JSON(http.StatusOK, gin.H{"comments": payload})
}

func (h *httpHandler) handleThread(c *gin.Context) {
	rootID, ok := pathID(c, "id")
	if !ok {
		return
	}

	thread, err := h.comments.Thread(c.Request.Context(), rootID)
	if err != nil {
		var serviceErr *comments.ServiceError
		if errors.As(err, &serviceErr) && strings.HasSuffix(serviceErr.Code(), "root_not_found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment_not_found"})
			return
		}
		h.logger.Error("failed to load thread", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "thread_failed"})
		return
	}
	payload := make([]commentPayload, 0, len(thread))
	for _, comment := range thread {
		payload = append(payload, commentToPayload(comment))
	}
	c.JSON(http.StatusOK, gin.H{"thread": payload})
}

type editCommentPayload struct {
	Text      string `json:"text"`
	Requester string `json:"requester"`
}

func (h *httpHandler) handleEditComment(c *gin.Context) {
	commentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var request editCommentPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Text) == "" || strings.TrimSpace(request.Requester) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	edited, err := h.comments.Edit(c.Request.Context(), commentID, request.Text, request.Requester)
	if err != nil {
		h.logger.Error("failed to edit comment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comment_edit_failed"})
		return
	}
	if !edited {
		c.JSON(http.StatusForbidden, gin.H{"error": "edit_denied"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"edited": true})
}

func (h *httpHandler) handleDeleteComment(c *gin.Context) {
	commentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	requester := strings.TrimSpace(c.Query("requester"))
	if requester == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	deleted, err := h.comments.Delete(c.Request.Context(), commentID, requester)
	if err != nil {
		h.logger.Error("failed to delete comment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comment_delete_failed"})
		return
	}
	if !deleted {
		c.JSON(http.StatusForbidden, gin.H{"error": "delete_denied"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type activityPayload struct {
	ID               uint   `json:"id"`
	Kind             string `json:"kind"`
	Actor            string `json:"actor"`
	Description      string `json:"description"`
	EntityType       string `json:"entity_type,omitempty"`
	EntityID         uint   `json:"entity_id,omitempty"`
	CreatedAtSeconds int64  `json:"created_at_s"`
}

func (h *httpHandler) handleActivities(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_limit"})
			return
		}
		limit = parsed
	}
	filter := activity.QueryFilter{
		Kind:  activity.Kind(c.Query("kind")),
		Actor: c.Query("actor"),
	}

	records, err := h.activity.Query(c.Request.Context(), projectID, limit, filter)
	if err != nil {
		h.logger.Error("failed to query activity", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "activity_query_failed"})
		return
	}
	payload := make([]activityPayload, 0, len(records))
	for _, record := range records {
		payload = append(payload, activityPayload{
			ID:               record.ID,
			Kind:             string(record.Kind),
			Actor:            record.ActorName,
			Description:      record.Description,
			EntityType:       record.EntityType,
			EntityID:         record.EntityID,
			CreatedAtSeconds: record.CreatedAtS,
		})
	}
	c.JSON(http.StatusOK, gin.H{"activities": payload})
}

type actionItemRequestPayload struct {
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	DueDate     string `json:"due_date"`
	Priority    string `json:"priority"`
	Notes       string `json:"notes"`
}

type decisionRequestPayload struct {
	Description   string `json:"description"`
	DecisionMaker string `json:"decision_maker"`
	Rationale     string `json:"rationale"`
}

type createMeetingPayload struct {
	Title       string                     `json:"title"`
	Date        string                     `json:"date"`
	Time        string                     `json:"time"`
	Location    string                     `json:"location"`
	DurationM   int                        `json:"duration_minutes"`
	Attendees   string                     `json:"attendees"`
	Agenda      string                     `json:"agenda"`
	Notes       string                     `json:"notes"`
	CreatedBy   string                     `json:"created_by"`
	ActionItems []actionItemRequestPayload `json:"action_items"`
	Decisions   []decisionRequestPayload   `json:"decisions"`
}

func (h *httpHandler) handleCreateMeeting(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var request createMeetingPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	input := meetings.MeetingInput{
		Title:     request.Title,
		Date:      request.Date,
		Time:      request.Time,
		Location:  request.Location,
		DurationM: request.DurationM,
		Attendees: request.Attendees,
		Agenda:    request.Agenda,
		Notes:     request.Notes,
		CreatedBy: request.CreatedBy,
	}
	for _, item := range request.ActionItems {
		input.ActionItems = append(input.ActionItems, meetings.ActionItemInput{
			Description: item.Description,
			Assignee:    item.Assignee,
			DueDate:     item.DueDate,
			Priority:    meetings.Priority(item.Priority),
			Notes:       item.Notes,
		})
	}
	for _, decision := range request.Decisions {
		input.Decisions = append(input.Decisions, meetings.DecisionInput{
			Description:   decision.Description,
			DecisionMaker: decision.DecisionMaker,
			Rationale:     decision.Rationale,
		})
	}

	meetingID, err := h.meetings.CreateMeeting(c.Request.Context(), projectID, input)
	if err != nil {
		h.logger.Warn("meeting creation rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "meeting_create_failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": meetingID})
}

type meetingPayload struct {
	ID               uint   `json:"id"`
	ProjectID        uint   `json:"project_id"`
	Title            string `json:"title"`
	Date             string `json:"date"`
	Time             string `json:"time,omitempty"`
	Location         string `json:"location,omitempty"`
	DurationM        int    `json:"duration_minutes,omitempty"`
	Attendees        string `json:"attendees,omitempty"`
	Agenda           string `json:"agenda,omitempty"`
	Notes            string `json:"notes,omitempty"`
	CreatedBy        string `json:"created_by"`
	CreatedAtSeconds int64  `json:"created_at_s"`
}

func (h *httpHandler) handleListMeetings(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.meetings.Meetings(c.Request.Context(), projectID)
	if err != nil {
		h.logger.Error("failed to list meetings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "meeting_list_failed"})
		return
	}
	payload := make([]meetingPayload, 0, len(list))
	for _, meeting := range list {
		payload = append(payload, meetingPayload{
			ID:               meeting.ID,
			ProjectID:        meeting.ProjectID,
			Title:            meeting.Title,
			Date:             meeting.Date,
			Time:             meeting.Time,
			Location:         meeting.Location,
			DurationM:        meeting.DurationM,
			Attendees:        meeting.Attendees,
			Agenda:           meeting.Agenda,
			Notes:            meeting.Notes,
			CreatedBy:        meeting.CreatedBy,
			CreatedAtSeconds: meeting.CreatedAtS,
		})
	}
	c.JSON(http.StatusOK, gin.H{"meetings": payload})
}

func (h *httpHandler) handleDeleteMeeting(c *gin.Context) {
	meetingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	requester := strings.TrimSpace(c.Query("requester"))
	if requester == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	err := h.meetings.DeleteMeeting(c.Request.Context(), meetingID, requester)
	if errors.Is(err, meetings.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "meeting_not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to delete meeting", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "meeting_delete_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type actionItemPayload struct {
	ID                 uint   `json:"id"`
	MeetingID          uint   `json:"meeting_id"`
	MeetingDate        string `json:"meeting_date,omitempty"`
	ProjectID          uint   `json:"project_id"`
	Description        string `json:"description"`
	Assignee           string `json:"assignee,omitempty"`
	DueDate            string `json:"due_date,omitempty"`
	Priority           string `json:"priority"`
	Status             string `json:"status"`
	Notes              string `json:"notes,omitempty"`
	CompletedAtSeconds *int64 `json:"completed_at_s,omitempty"`
	CreatedAtSeconds   int64  `json:"created_at_s"`
}

func actionItemsToPayload(items []meetings.ActionItem) []actionItemPayload {
	payload := make([]actionItemPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, actionItemPayload{
			ID:                 item.ID,
			MeetingID:          item.MeetingID,
			MeetingDate:        item.MeetingDate,
			ProjectID:          item.ProjectID,
			Description:        item.Description,
			Assignee:           item.Assignee,
			DueDate:            item.DueDate,
			Priority:           string(item.Priority),
			Status:             string(item.Status),
			Notes:              item.Notes,
			CompletedAtSeconds: item.CompletedAtS,
			CreatedAtSeconds:   item.CreatedAtS,
		})
	}
	return payload
}

func (h *httpHandler) handleActionItems(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var status meetings.Status
	if raw := c.Query("status"); raw != "" {
		parsed, err := meetings.ParseStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
			return
		}
		status = parsed
	}

	items, err := h.meetings.ActionItems(c.Request.Context(), projectID, status)
	if err != nil {
		h.logger.Error("failed to list action items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "action_item_list_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"action_items": actionItemsToPayload(items)})
}

func (h *httpHandler) handleOverdueActionItems(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	items, err := h.meetings.Overdue(c.Request.Context(), projectID, time.Now().UTC())
	if err != nil {
		h.logger.Error("failed to list overdue items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "overdue_list_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"action_items": actionItemsToPayload(items)})
}

type decisionPayload struct {
	ID               uint   `json:"id"`
	MeetingID        uint   `json:"meeting_id"`
	MeetingDate      string `json:"meeting_date,omitempty"`
	ProjectID        uint   `json:"project_id"`
	Description      string `json:"description"`
	DecisionMaker    string `json:"decision_maker,omitempty"`
	Rationale        string `json:"rationale,omitempty"`
	CreatedAtSeconds int64  `json:"created_at_s"`
}

func (h *httpHandler) handleDecisions(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	decisions, err := h.meetings.Decisions(c.Request.Context(), projectID)
	if err != nil {
		h.logger.Error("failed to list decisions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "decision_list_failed"})
		return
	}
	payload := make([]decisionPayload, 0, len(decisions))
	for _, decision := range decisions {
		payload = append(payload, decisionPayload{
			ID:               decision.ID,
			MeetingID:        decision.MeetingID,
			MeetingDate:      decision.MeetingDate,
			ProjectID:        decision.ProjectID,
			Description:      decision.Description,
			DecisionMaker:    decision.DecisionMaker,
			Rationale:        decision.Rationale,
			CreatedAtSeconds: decision.CreatedAtS,
		})
	}
	c.JSON(http.StatusOK, gin.H{"decisions": payload})
}

type actionStatusPayload struct {
	Status    string `json:"status"`
	Notes     string `json:"notes"`
	UpdatedBy string `json:"updated_by"`
}

func (h *httpHandler) handleActionItemStatus(c *gin.Context) {
	actionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var request actionStatusPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	status, err := meetings.ParseStatus(request.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
		return
	}

	err = h.meetings.UpdateActionItemStatus(c.Request.Context(), actionID, status, request.Notes, request.UpdatedBy)
	if errors.Is(err, meetings.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "action_item_not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to update action item", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "action_item_update_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(status)})
}

type notificationPayload struct {
	ID            uint   `json:"id"`
	ProjectID     uint   `json:"project_id,omitempty"`
	Type          string `json:"type"`
	Recipient     string `json:"recipient"`
	Title         string `json:"title"`
	Body          string `json:"body,omitempty"`
	IsRead        bool   `json:"is_read"`
	MessageID     string `json:"message_id,omitempty"`
	SentAtSeconds int64  `json:"sent_at_s"`
}

func (h *httpHandler) handleUnreadNotifications(c *gin.Context) {
	recipient := strings.TrimSpace(c.Query("recipient"))
	if recipient == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient_required"})
		return
	}
	notifications, err := h.notify.Unread(c.Request.Context(), recipient)
	if err != nil {
		h.logger.Error("failed to list notifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "notification_list_failed"})
		return
	}
	payload := make([]notificationPayload, 0, len(notifications))
	for _, notification := range notifications {
		payload = append(payload, notificationPayload{
			ID:            notification.ID,
			ProjectID:     notification.ProjectID,
			Type:          string(notification.Type),
			Recipient:     notification.Recipient,
			Title:         notification.Title,
			Body:          notification.Body,
			IsRead:        notification.IsRead,
			MessageID:     notification.MessageID,
			SentAtSeconds: notification.SentAtS,
		})
	}
	c.JSON(http.StatusOK, gin.H{"notifications": payload})
}

func (h *httpHandler) handleNotificationSummary(c *gin.Context) {
	recipient := strings.TrimSpace(c.Query("recipient"))
	if recipient == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient_required"})
		return
	}
	summary, err := h.notify.RecipientSummary(c.Request.Context(), recipient)
	if err != nil {
		h.logger.Error("failed to summarize notifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "notification_summary_failed"})
		return
	}
	byType := make(map[string]int, len(summary.ByType))
	for notificationType, count := range summary.ByType {
		byType[string(notificationType)] = count
	}
	c.JSON(http.StatusOK, gin.H{
		"total":   summary.Total,
		"unread":  summary.Unread,
		"by_type": byType,
	})
}

func (h *httpHandler) handleMarkRead(c *gin.Context) {
	notificationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notify.MarkRead(c.Request.Context(), notificationID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification_not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}

func (h *httpHandler) handleScan(c *gin.Context) {
	if h.scanner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scanner_disabled"})
		return
	}
	report, err := h.scanner.Scan(c.Request.Context())
	if errors.Is(err, scanner.ErrScanInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "scan_in_progress"})
		return
	}
	if err != nil {
		h.logger.Error("manual scan failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"projects":          report.ProjectsScanned,
		"tasks":             report.TasksExamined,
		"sent":              report.RemindersSent,
		"duplicates":        report.DuplicatesSkipped,
		"missing_addresses": report.MissingAddresses,
		"send_failures":     report.SendFailures,
	})
}

func pathID(c *gin.Context, name string) (uint, bool) {
	parsed, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || parsed == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return 0, false
	}
	return uint(parsed), true
}
