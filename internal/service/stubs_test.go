package service

// In-memory repository and gateway stubs shared by the service tests. They
// mirror the data layer's atomic guarantees (clamp-at-zero decrement, capped
// coupon redemption) so the services exercise the same contracts as in
// production.

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hpmarcas/internal/cart"
	"hpmarcas/internal/dto"
	"hpmarcas/internal/infra"
	"hpmarcas/internal/model"
	"hpmarcas/internal/repository"
)

// errNotFound mirrors the miss error the gorm-backed repositories surface,
// so error classification in the services behaves as in production.
var errNotFound = gorm.ErrRecordNotFound

// ── Products ──────────────────────────────────────────────────────────────────

type stubProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
	// decrements counts DecrementStock calls per product.
	decrements map[uuid.UUID]int
	// deactivateAfterLoad flips every product inactive right after a
	// FindActiveByIDs call returns, imitating a concurrent deactivation.
	deactivateAfterLoad bool
}

func newStubProductRepo(products ...*model.Product) *stubProductRepo {
	r := &stubProductRepo{
		products:   make(map[uuid.UUID]*model.Product),
		decrements: make(map[uuid.UUID]int),
	}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindActiveByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	seen := make(map[uuid.UUID]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := r.products[id]; ok && p.Status == "active" {
			out = append(out, *p)
		}
	}
	if r.deactivateAfterLoad {
		for _, p := range r.products {
			p.Status = "inactive"
		}
	}
	return out, nil
}

func (r *stubProductRepo) FindVolumeByID(_ context.Context, id uuid.UUID) (*model.Volume, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		for idx := range p.Volumes {
			if p.Volumes[idx].ID == id {
				v := p.Volumes[idx]
				return &v, nil
			}
		}
	}
	return nil, errNotFound
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

// DecrementStock matches the SQL's GREATEST(stock - n, 0) semantics.
func (r *stubProductRepo) DecrementStock(_ context.Context, _ *gorm.DB, id uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return errNotFound
	}
	p.Stock -= qty
	if p.Stock < 0 {
		p.Stock = 0
	}
	r.decrements[id]++
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

func (r *stubProductRepo) stock(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id].Stock
}

// ── Customers ─────────────────────────────────────────────────────────────────

type stubCustomerRepo struct {
	customers map[uuid.UUID]*model.Customer
	addresses map[uuid.UUID]*model.Address
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{
		customers: make(map[uuid.UUID]*model.Customer),
		addresses: make(map[uuid.UUID]*model.Address),
	}
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, errNotFound
	}
	return c, nil
}

func (r *stubCustomerRepo) FindAddressByID(_ context.Context, id uuid.UUID) (*model.Address, error) {
	a, ok := r.addresses[id]
	if !ok {
		return nil, errNotFound
	}
	return a, nil
}

// ── Sales ─────────────────────────────────────────────────────────────────────

type stubSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]*model.Sale
	// failItems makes CreateItems fail once, to exercise the compensating
	// delete on the online path.
	failItems bool
	// findErr makes every finder fail with it, imitating a database outage.
	findErr error
	deleted  []uuid.UUID
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *stubSaleRepo) Create(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.sales[s.ID] = &cp
	return nil
}

func (r *stubSaleRepo) CreateItems(_ context.Context, _ *gorm.DB, items []model.SaleItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failItems {
		r.failItems = false
		return fmt.Errorf("constraint violation")
	}
	if len(items) == 0 {
		return nil
	}
	sale, ok := r.sales[items[0].SaleID]
	if !ok {
		return errNotFound
	}
	sale.Items = append(sale.Items, items...)
	return nil
}

func (r *stubSaleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sales, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	s, ok := r.sales[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSaleRepo) FindByPaymentExternalID(_ context.Context, externalID string) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, s := range r.sales {
		if s.PaymentExternalID != nil && *s.PaymentExternalID == externalID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, errNotFound
}

func (r *stubSaleRepo) SetPaymentExternalID(_ context.Context, id uuid.UUID, externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return errNotFound
	}
	s.PaymentExternalID = &externalID
	return nil
}

func (r *stubSaleRepo) UpdatePaymentState(_ context.Context, id uuid.UUID, upd repository.PaymentUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return errNotFound
	}
	s.PaymentStatus = upd.PaymentStatus
	s.Status = upd.Status
	s.PaymentExternalID = &upd.PaymentExternalID
	s.PaymentMethod = upd.PaymentMethod
	s.PaymentMethodDetail = &upd.PaymentMethodDetail
	return nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

func (r *stubSaleRepo) get(id uuid.UUID) *model.Sale {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sales[id]
}

// ── Coupons ───────────────────────────────────────────────────────────────────

type stubCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]*model.Coupon
	usages  []*model.CouponUsage
}

func newStubCouponRepo(coupons ...*model.Coupon) *stubCouponRepo {
	r := &stubCouponRepo{coupons: make(map[string]*model.Coupon)}
	for _, c := range coupons {
		r.coupons[c.Code] = c
	}
	return r
}

func (r *stubCouponRepo) FindByCode(_ context.Context, code string) (*model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coupons[code]
	if !ok {
		return nil, errNotFound
	}
	cp := *c
	return &cp, nil
}

// Redeem mirrors the guarded atomic increment: the cap check and the
// increment happen under one lock, the same way the SQL does them in one
// UPDATE.
func (r *stubCouponRepo) Redeem(_ context.Context, usage *model.CouponUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.coupons {
		if c.ID == usage.CouponID {
			if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
				return repository.ErrCouponExhausted
			}
			c.UsedCount++
			r.usages = append(r.usages, usage)
			return nil
		}
	}
	return errNotFound
}

// ── Stock movements ───────────────────────────────────────────────────────────

type stubMovementRepo struct {
	mu        sync.Mutex
	movements []*model.StockMovement
}

func newStubMovementRepo() *stubMovementRepo { return &stubMovementRepo{} }

func (r *stubMovementRepo) Create(_ context.Context, _ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, m)
	return nil
}

func (r *stubMovementRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]model.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, *m)
		}
	}
	return out, nil
}

// ── Payment gateway ───────────────────────────────────────────────────────────

type stubGateway struct {
	mu          sync.Mutex
	preference  *infra.Preference
	prefErr     error
	payments    map[string]*infra.Payment
	getErr      error
	lastPrefReq *infra.PreferenceRequest
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		preference: &infra.Preference{ID: "pref-1", InitPoint: "https://gateway.test/pay/pref-1"},
		payments:   make(map[string]*infra.Payment),
	}
}

func (g *stubGateway) CreatePreference(_ context.Context, req infra.PreferenceRequest) (*infra.Preference, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastPrefReq = &req
	if g.prefErr != nil {
		return nil, g.prefErr
	}
	return g.preference, nil
}

func (g *stubGateway) GetPayment(_ context.Context, id string) (*infra.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getErr != nil {
		return nil, g.getErr
	}
	p, ok := g.payments[id]
	if !ok {
		return nil, errNotFound
	}
	return p, nil
}

// ── Draft store ───────────────────────────────────────────────────────────────

type stubDraftStore struct {
	mu       sync.Mutex
	drafts   map[string]*cart.Cart
	restored map[string]bool
}

func newStubDraftStore() *stubDraftStore {
	return &stubDraftStore{drafts: make(map[string]*cart.Cart), restored: make(map[string]bool)}
}

func (s *stubDraftStore) Save(_ context.Context, sessionID string, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.drafts[sessionID] = &cp
	s.restored[sessionID] = true
	return nil
}

func (s *stubDraftStore) Load(_ context.Context, sessionID string) (*cart.Cart, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.drafts[sessionID]
	if !ok {
		return nil, false, nil
	}
	restored := s.restored[sessionID]
	s.restored[sessionID] = false
	return c, restored, nil
}

func (s *stubDraftStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, sessionID)
	delete(s.restored, sessionID)
	return nil
}
