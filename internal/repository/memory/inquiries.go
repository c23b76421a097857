package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sukritx/roommatebase/internal/domain"
	"github.com/sukritx/roommatebase/internal/repository"
)

type inquiryRepo struct{ s *Store }

func (r *inquiryRepo) Create(_ context.Context, inquiry *domain.Inquiry) error {
	if inquiry.Status != domain.InquiryStatusPending {
		return repository.ErrInvalidInitialState
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[inquiry.RoomID]
	if !ok {
		return pgx.ErrNoRows
	}
	if room.Status != domain.RoomStatusAvailable || room.PaymentStatus != domain.PaymentStatusPaid {
		return repository.ErrRoomUnavailable
	}
	for _, existing := range s.inquiries {
		if existing.StudentID == inquiry.StudentID && existing.RoomID == inquiry.RoomID && existing.Status.Active() {
			return repository.ErrDuplicateActiveInquiry
		}
	}

	now := s.now()
	inquiry.ID = uuid.NewString()
	inquiry.CreatedAt, inquiry.UpdatedAt = now, now
	if inquiry.MatchedWith == nil {
		inquiry.MatchedWith = []string{}
	}
	s.inquiries[inquiry.ID] = cloneInquiry(inquiry)
	s.recordTransition(inquiry.ID, inquiry.StudentID, nil, inquiry.Status)
	return nil
}

func (r *inquiryRepo) GetByID(_ context.Context, id string) (*domain.Inquiry, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	inquiry, ok := s.inquiries[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneInquiry(inquiry), nil
}

func (r *inquiryRepo) ListByRoom(_ context.Context, roomID string) ([]domain.Inquiry, error) {
	return r.list(func(i *domain.Inquiry) bool { return i.RoomID == roomID }), nil
}

func (r *inquiryRepo) ListByStudent(_ context.Context, studentID string) ([]domain.Inquiry, error) {
	return r.list(func(i *domain.Inquiry) bool { return i.StudentID == studentID }), nil
}

// list returns the matching inquiries, newest first.
func (r *inquiryRepo) list(match func(*domain.Inquiry) bool) []domain.Inquiry {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []domain.Inquiry{}
	for _, inquiry := range s.inquiries {
		if match(inquiry) {
			result = append(result, *cloneInquiry(inquiry))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (r *inquiryRepo) Transition(_ context.Context, change repository.StatusChange) (*domain.Inquiry, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	inquiry, ok := s.inquiries[change.InquiryID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if inquiry.Status != change.From {
		return nil, &repository.StatusConflictError{Current: inquiry.Status}
	}

	switch {
	case change.To == domain.InquiryStatusAccepted:
		room, ok := s.rooms[inquiry.RoomID]
		if !ok {
			return nil, pgx.ErrNoRows
		}
		if !room.HasRoommate(inquiry.StudentID) {
			if !room.HasVacancy() {
				return nil, repository.ErrRoomFull
			}
			room.CurrentRoommates = append(room.CurrentRoommates, inquiry.StudentID)
			room.UpdatedAt = s.now()
		}
	case change.From == domain.InquiryStatusAccepted:
		if room, ok := s.rooms[inquiry.RoomID]; ok {
			kept := room.CurrentRoommates[:0]
			for _, id := range room.CurrentRoommates {
				if id != inquiry.StudentID {
					kept = append(kept, id)
				}
			}
			room.CurrentRoommates = kept
			room.UpdatedAt = s.now()
		}
	}

	inquiry.Status = change.To
	inquiry.UpdatedAt = s.now()
	from := change.From
	s.recordTransition(inquiry.ID, change.ActorID, &from, change.To)
	return cloneInquiry(inquiry), nil
}

func (r *inquiryRepo) ListTransitions(_ context.Context, inquiryID string) ([]domain.InquiryTransition, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.InquiryTransition{}, s.transitions[inquiryID]...), nil
}

func (r *inquiryRepo) AddMatch(_ context.Context, inquiryID, otherID string) (*domain.Inquiry, *domain.Inquiry, error) {
	if inquiryID == otherID {
		return nil, nil, repository.ErrMatchIneligible
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	a, okA := s.inquiries[inquiryID]
	b, okB := s.inquiries[otherID]
	if !okA || !okB {
		return nil, nil, pgx.ErrNoRows
	}
	if a.RoomID != b.RoomID || a.Status != domain.InquiryStatusPending || b.Status != domain.InquiryStatusPending {
		return nil, nil, repository.ErrMatchIneligible
	}

	now := s.now()
	if !a.IsMatchedWith(b.StudentID) {
		a.MatchedWith = append(a.MatchedWith, b.StudentID)
		a.UpdatedAt = now
	}
	if !b.IsMatchedWith(a.StudentID) {
		b.MatchedWith = append(b.MatchedWith, a.StudentID)
		b.UpdatedAt = now
	}
	return cloneInquiry(a), cloneInquiry(b), nil
}

// recordTransition must be called with s.mu held.
func (s *Store) recordTransition(inquiryID, actorID string, from *domain.InquiryStatus, to domain.InquiryStatus) {
	s.transitions[inquiryID] = append(s.transitions[inquiryID], domain.InquiryTransition{
		ID:        uuid.NewString(),
		InquiryID: inquiryID,
		ActorID:   actorID,
		From:      from,
		To:        to,
		CreatedAt: s.now(),
	})
}
