package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sukritx/roommatebase/internal/domain"
	"github.com/sukritx/roommatebase/internal/events"
	"github.com/sukritx/roommatebase/internal/repository"
	"github.com/sukritx/roommatebase/internal/validation"
	apperrors "github.com/sukritx/roommatebase/pkg/util/errorutil"
)

// InquiryService owns the inquiry state machine and the matching of inquiries.
type InquiryService struct {
	inquiries  repository.InquiryRepository
	rooms      repository.RoomRepository
	dispatcher events.Dispatcher
	validator  *validation.Validator
}

// InquiryDependencies bundles collaborators for the inquiry service.
type InquiryDependencies struct {
	InquiryRepo repository.InquiryRepository
	RoomRepo    repository.RoomRepository
	Dispatcher  events.Dispatcher
	Validator   *validation.Validator
}

// PreferencesInput are the student's stated habits.
type PreferencesInput struct {
	Smoking         bool   `json:"smoking"`
	Pets            bool   `json:"pets"`
	Quiet           bool   `json:"quiet"`
	Visitors        string `json:"visitors" validate:"omitempty,oneof=none occasional frequent"`
	AdditionalNotes string `json:"additional_notes" validate:"maxrunes=1000"`
}

// TermsInput are the terms proposed with an inquiry.
type TermsInput struct {
	RentSplit      string           `json:"rent_split" validate:"required,max=200"`
	MoveInDate     *time.Time       `json:"move_in_date" validate:"required"`
	DurationMonths int              `json:"duration_months" validate:"min=1,max=120"`
	Preferences    PreferencesInput `json:"preferences"`
}

// InquiryInput is the payload for a new inquiry. Status may be omitted; if
// present it must be pending.
type InquiryInput struct {
	RoomID  string               `json:"room_id" validate:"required"`
	Terms   TermsInput           `json:"terms"`
	Message string               `json:"message" validate:"required,maxrunes=1000"`
	Status  domain.InquiryStatus `json:"status"`
}

// StatusInput requests a transition. ExpectedStatus, when set, must equal
// the stored status for the change to apply.
type StatusInput struct {
	Status         domain.InquiryStatus  `json:"status" validate:"required,oneof=pending accepted rejected withdrawn"`
	ExpectedStatus *domain.InquiryStatus `json:"expected_status" validate:"omitempty,oneof=pending accepted rejected withdrawn"`
}

// NewInquiryService constructs the service.
func NewInquiryService(deps InquiryDependencies) *InquiryService {
	return &InquiryService{
		inquiries:  deps.InquiryRepo,
		rooms:      deps.RoomRepo,
		dispatcher: deps.Dispatcher,
		validator:  deps.Validator,
	}
}

// allowedTransitions maps current status to the next statuses and the party
// allowed to drive each: the room owner or the inquiring student.
var allowedTransitions = map[domain.InquiryStatus]map[domain.InquiryStatus]domain.Role{
	domain.InquiryStatusPending: {
		domain.InquiryStatusAccepted:  domain.RoleOwner,
		domain.InquiryStatusRejected:  domain.RoleOwner,
		domain.InquiryStatusWithdrawn: domain.RoleStudent,
	},
	domain.InquiryStatusAccepted: {
		domain.InquiryStatusWithdrawn: domain.RoleStudent,
	},
	domain.InquiryStatusRejected:  {},
	domain.InquiryStatusWithdrawn: {},
}

func transitionActor(current, next domain.InquiryStatus) (domain.Role, bool) {
	role, ok := allowedTransitions[current][next]
	return role, ok
}

// CreateInquiry stores a pending inquiry from a student on an available room.
func (s *InquiryService) CreateInquiry(ctx context.Context, actor Actor, input InquiryInput) (*domain.Inquiry, error) {
	if actor.Role != domain.RoleStudent {
		return nil, apperrors.NewUnauthorized("only students can send inquiries")
	}
	if input.Status != "" && input.Status != domain.InquiryStatusPending {
		return nil, apperrors.NewInvalidInitialState(string(input.Status))
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	room, err := s.rooms.GetByID(ctx, input.RoomID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("room", nil)
		}
		return nil, err
	}
	if room.Status != domain.RoomStatusAvailable || !room.Published() {
		return nil, apperrors.NewRoomUnavailable(room.ID, string(room.Status))
	}

	inquiry := &domain.Inquiry{
		RoomID:    room.ID,
		StudentID: actor.UserID,
		Terms: domain.InquiryTerms{
			RentSplit:      strings.TrimSpace(input.Terms.RentSplit),
			MoveInDate:     input.Terms.MoveInDate.UTC(),
			DurationMonths: input.Terms.DurationMonths,
			Preferences: domain.LifestylePreferences{
				Smoking:         input.Terms.Preferences.Smoking,
				Pets:            input.Terms.Preferences.Pets,
				Quiet:           input.Terms.Preferences.Quiet,
				Visitors:        input.Terms.Preferences.Visitors,
				AdditionalNotes: input.Terms.Preferences.AdditionalNotes,
			},
		},
		Status:      domain.InquiryStatusPending,
		MatchedWith: []string{},
		Message:     strings.TrimSpace(input.Message),
	}

	if err := s.inquiries.Create(ctx, inquiry); err != nil {
		switch {
		case isNoRows(err):
			return nil, apperrors.NewNotFound("room", nil)
		case errors.Is(err, repository.ErrRoomUnavailable):
			return nil, apperrors.NewRoomUnavailable(room.ID, string(room.Status))
		case errors.Is(err, repository.ErrDuplicateActiveInquiry):
			return nil, apperrors.NewDuplicateActiveInquiry(room.ID)
		case errors.Is(err, repository.ErrInvalidInitialState):
			return nil, apperrors.NewInvalidInitialState(string(inquiry.Status))
		}
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.New(events.EventInquiryCreated, room.ID, inquiry.ID, actor.UserID, nil))
	return inquiry, nil
}

// ListForRoom returns the inquiries on a room the caller owns.
func (s *InquiryService) ListForRoom(ctx context.Context, actor Actor, roomID string) ([]domain.Inquiry, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("room", nil)
		}
		return nil, err
	}
	if room.OwnerID != actor.UserID {
		return nil, apperrors.NewNotFound("room", nil)
	}
	return s.inquiries.ListByRoom(ctx, room.ID)
}

// ListForStudent returns the caller's own inquiries.
func (s *InquiryService) ListForStudent(ctx context.Context, actor Actor) ([]domain.Inquiry, error) {
	return s.inquiries.ListByStudent(ctx, actor.UserID)
}

// GetInquiry returns an inquiry to its student or to the room owner.
func (s *InquiryService) GetInquiry(ctx context.Context, actor Actor, inquiryID string) (*domain.Inquiry, error) {
	inquiry, _, err := s.visibleInquiry(ctx, actor, inquiryID)
	return inquiry, err
}

// ListHistory returns the audit trail of an inquiry to the same audience as GetInquiry.
func (s *InquiryService) ListHistory(ctx context.Context, actor Actor, inquiryID string) ([]domain.InquiryTransition, error) {
	inquiry, _, err := s.visibleInquiry(ctx, actor, inquiryID)
	if err != nil {
		return nil, err
	}
	return s.inquiries.ListTransitions(ctx, inquiry.ID)
}

// SetStatus applies a transition from the table for the caller's side of the inquiry.
func (s *InquiryService) SetStatus(ctx context.Context, actor Actor, inquiryID string, input StatusInput) (*domain.Inquiry, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}
	inquiry, party, err := s.visibleInquiry(ctx, actor, inquiryID)
	if err != nil {
		return nil, err
	}

	current := inquiry.Status
	if input.ExpectedStatus != nil && *input.ExpectedStatus != current {
		return nil, apperrors.NewInvalidTransition(string(current), string(input.Status))
	}
	required, ok := transitionActor(current, input.Status)
	if !ok {
		return nil, apperrors.NewInvalidTransition(string(current), string(input.Status))
	}
	if required != party {
		return nil, apperrors.NewUnauthorized("only the " + partyName(required) + " can move an inquiry to " + string(input.Status))
	}
	return s.transition(ctx, actor, inquiry, input.Status)
}

// Withdraw moves the caller's inquiry to withdrawn from pending or accepted.
// Withdrawing an accepted inquiry frees the student's slot in the room.
func (s *InquiryService) Withdraw(ctx context.Context, actor Actor, inquiryID string) (*domain.Inquiry, error) {
	inquiry, err := s.inquiries.GetByID(ctx, inquiryID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("inquiry", nil)
		}
		return nil, err
	}
	if inquiry.StudentID != actor.UserID {
		return nil, apperrors.NewNotFound("inquiry", nil)
	}
	if _, ok := transitionActor(inquiry.Status, domain.InquiryStatusWithdrawn); !ok {
		return nil, apperrors.NewInvalidTransition(string(inquiry.Status), string(domain.InquiryStatusWithdrawn))
	}
	return s.transition(ctx, actor, inquiry, domain.InquiryStatusWithdrawn)
}

// ProposeMatch links the caller's pending inquiry with another pending
// inquiry on the same room. Repeating a match is a no-op.
func (s *InquiryService) ProposeMatch(ctx context.Context, actor Actor, inquiryID, otherInquiryID string) (*domain.Inquiry, error) {
	inquiry, err := s.inquiries.GetByID(ctx, inquiryID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("inquiry", nil)
		}
		return nil, err
	}
	if inquiry.StudentID != actor.UserID {
		return nil, apperrors.NewUnauthorized("inquiry belongs to another student")
	}

	updated, _, err := s.inquiries.AddMatch(ctx, inquiry.ID, otherInquiryID)
	if err != nil {
		if isNoRows(err) || errors.Is(err, repository.ErrMatchIneligible) {
			return nil, apperrors.NewNotFound("matching inquiry", nil)
		}
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.New(events.EventInquiryMatched, updated.RoomID, updated.ID, actor.UserID,
		events.InquiryMatchedPayload{OtherInquiryID: otherInquiryID}))
	return updated, nil
}

func (s *InquiryService) transition(ctx context.Context, actor Actor, inquiry *domain.Inquiry, next domain.InquiryStatus) (*domain.Inquiry, error) {
	change := repository.StatusChange{
		InquiryID: inquiry.ID,
		ActorID:   actor.UserID,
		From:      inquiry.Status,
		To:        next,
	}
	updated, err := s.inquiries.Transition(ctx, change)

	var conflict *repository.StatusConflictError
	if next == domain.InquiryStatusWithdrawn && errors.As(err, &conflict) && conflict.Current != change.From {
		// The owner may decide between our read and the swap. Withdrawing
		// stays legal from accepted, so retry once from the stored status.
		if _, ok := transitionActor(conflict.Current, next); ok {
			change.From = conflict.Current
			updated, err = s.inquiries.Transition(ctx, change)
		}
	}

	if err != nil {
		switch {
		case errors.As(err, &conflict):
			return nil, apperrors.NewInvalidTransition(string(conflict.Current), string(next))
		case errors.Is(err, repository.ErrRoomFull), errors.Is(err, repository.ErrCapacityExceeded):
			return nil, apperrors.NewRoomFull(inquiry.RoomID)
		case isNoRows(err):
			return nil, apperrors.NewNotFound("room", nil)
		}
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.New(events.EventInquiryStatusChanged, updated.RoomID, updated.ID, actor.UserID,
		events.InquiryStatusChangedPayload{OldStatus: change.From, NewStatus: updated.Status}))
	return updated, nil
}

// visibleInquiry loads an inquiry and resolves which party the caller is.
// Callers that are neither get NotFound.
func (s *InquiryService) visibleInquiry(ctx context.Context, actor Actor, inquiryID string) (*domain.Inquiry, domain.Role, error) {
	inquiry, err := s.inquiries.GetByID(ctx, inquiryID)
	if err != nil {
		if isNoRows(err) {
			return nil, "", apperrors.NewNotFound("inquiry", nil)
		}
		return nil, "", err
	}
	if inquiry.StudentID == actor.UserID {
		return inquiry, domain.RoleStudent, nil
	}

	room, err := s.rooms.GetByID(ctx, inquiry.RoomID)
	if err != nil {
		if isNoRows(err) {
			return nil, "", apperrors.NewNotFound("inquiry", nil)
		}
		return nil, "", err
	}
	if room.OwnerID != actor.UserID {
		return nil, "", apperrors.NewNotFound("inquiry", nil)
	}
	return inquiry, domain.RoleOwner, nil
}

func partyName(role domain.Role) string {
	if role == domain.RoleOwner {
		return "room owner"
	}
	return "inquiring student"
}
