package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

type OfferState string

const (
	OfferStateNone     OfferState = "none"
	OfferStateApplying OfferState = "applying"
	OfferStateApplied  OfferState = "applied"
)

// OfferSession はオファー適用の状態機械。
// none -> applying -> applied（成功） / none（理由つき拒否）。
// 適用できるのは同時に1つだけ。外すと none に戻る。
// UIが理由別のメッセージを出すため、拒否理由は個別のエラーで返す。
type OfferSession struct {
	offers repo.OfferRepository
	now    func() time.Time

	mu      sync.Mutex
	state   OfferState
	applied *model.Offer
}

func NewOfferSession(offers repo.OfferRepository, now func() time.Time) *OfferSession {
	if now == nil {
		now = time.Now
	}
	return &OfferSession{
		offers: offers,
		now:    now,
		state:  OfferStateNone,
	}
}

// Apply はコードを検証して適用する。
// 拒否してもカートや内訳には一切触れない。
func (s *OfferSession) Apply(ctx context.Context, code string, subtotal decimal.Decimal) (model.Offer, error) {
	s.mu.Lock()
	if s.state == OfferStateApplied {
		s.mu.Unlock()
		return model.Offer{}, NewHTTPError(http.StatusConflict, "offer already applied")
	}
	if s.state == OfferStateApplying {
		s.mu.Unlock()
		return model.Offer{}, NewHTTPError(http.StatusConflict, "offer apply in progress")
	}
	s.state = OfferStateApplying
	s.mu.Unlock()

	offer, err := s.validate(ctx, code, subtotal)
	if err != nil {
		s.mu.Lock()
		if s.state == OfferStateApplying {
			s.state = OfferStateNone
		}
		s.mu.Unlock()
		return model.Offer{}, err
	}

	s.mu.Lock()
	s.state = OfferStateApplied
	s.applied = &offer
	s.mu.Unlock()

	return offer, nil
}

func (s *OfferSession) validate(ctx context.Context, code string, subtotal decimal.Decimal) (model.Offer, error) {
	offer, err := s.offers.FindByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Offer{}, NewHTTPError(http.StatusNotFound, "invalid code")
	}
	if err != nil {
		return model.Offer{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !offer.IsActive {
		return model.Offer{}, NewHTTPError(http.StatusBadRequest, "offer inactive")
	}

	now := s.now()
	if now.Before(offer.ValidFrom) || now.After(offer.ValidUntil) {
		return model.Offer{}, NewHTTPError(http.StatusBadRequest, "offer expired")
	}

	if subtotal.LessThan(offer.MinOrderAmount) {
		return model.Offer{}, NewHTTPError(http.StatusBadRequest, "minimum order not met")
	}

	return offer, nil
}

// Remove は適用中のオファーを外す。未適用なら何もしない。
func (s *OfferSession) Remove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = OfferStateNone
	s.applied = nil
}

// Applied は適用中オファーのコピーを返す。nilなら未適用。
func (s *OfferSession) Applied() *model.Offer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applied == nil {
		return nil
	}
	o := *s.applied
	return &o
}

func (s *OfferSession) State() OfferState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
