package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zaikaapp/session-bfa-go/internal/domain"
	"github.com/zaikaapp/session-bfa-go/internal/infra/observability"
	"github.com/zaikaapp/session-bfa-go/internal/port"
)

var tracer = otel.Tracer("service/controller")

// blankArea is the legacy "unset" sentinel some clients persisted for the
// selected area. Treated the same as a missing key.
const blankArea = " "

// Controller owns the session & onboarding state of one browser identity
// and reconciles it from the persisted store, backend responses, user
// actions and cross-tab signals. All asynchronous inputs converge on a
// single VisibleModal; the enum makes "at most one modal" structural.
//
// Hydration is generation-fenced per entity: a response is applied only if
// it belongs to the latest issued fetch, so a slow early response can never
// overwrite a newer one.
//
// Network failures never escape the controller. State degrades to the last
// cached value or a configured default, and the failure is logged.
type Controller struct {
	store     port.SessionStore
	customers port.CustomerFetcher
	updater   port.CustomerUpdater
	areaList  port.AreaFetcher

	defaultArea string

	logger  *zap.Logger
	metrics *observability.Metrics

	mu           sync.Mutex
	session      domain.Session
	profile      *domain.CustomerProfile
	areas        []domain.Area
	selectedArea string
	modal        domain.VisibleModal
	signupPhone  string

	profileGen uint64
	areasGen   uint64

	nextWatcher int
	watchers    map[int]chan domain.SessionState
}

// NewController creates a session controller. The store is injected rather
// than ambient; cross-tab signals arrive through the Notifier.
func NewController(
	store port.SessionStore,
	customers port.CustomerFetcher,
	updater port.CustomerUpdater,
	areaList port.AreaFetcher,
	defaultArea string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		store:       store,
		customers:   customers,
		updater:     updater,
		areaList:    areaList,
		defaultArea: defaultArea,
		logger:      logger,
		metrics:     metrics,
		modal:       domain.ModalNone,
		watchers:    make(map[int]chan domain.SessionState),
	}
}

// ============================================================
// Lifecycle
// ============================================================

// Initialize re-derives the whole session state from the persisted store.
// Called on startup and, in full, on every cross-tab signal: foreign changes
// are authoritative, so nothing is patched incrementally.
func (c *Controller) Initialize(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "Controller.Initialize")
	defer span.End()

	sess, cachedProfile, cachedAreas, storedArea := c.readStoredState(ctx)
	span.SetAttributes(attribute.Bool("session.valid", sess.Valid()))

	c.mu.Lock()
	c.selectedArea = storedArea
	if cachedProfile != nil {
		c.profile = cachedProfile
	}
	if cachedAreas != nil {
		c.areas = cachedAreas
	}

	if !sess.Valid() {
		c.session = domain.Session{}
		c.profile = nil
		c.setModalLocked(domain.ModalLogin)
		c.mu.Unlock()
		c.ensureDefaultArea(ctx)
		c.broadcast()
		return
	}

	c.session = sess
	if c.modal == domain.ModalLogin || c.modal == domain.ModalSignup {
		c.setModalLocked(domain.ModalNone)
	}
	c.mu.Unlock()

	c.HydrateProfile(ctx, sess.CustomerID)
}

// readStoredState reads the persisted session plus cached mirrors. Any
// unparsable value is treated as absent; the read path never fails.
func (c *Controller) readStoredState(ctx context.Context) (domain.Session, *domain.CustomerProfile, []domain.Area, string) {
	token, _, err := c.store.Get(ctx, domain.StoreKeyAuthToken)
	if err != nil {
		c.logger.Warn("init: store read failed", zap.String("key", domain.StoreKeyAuthToken), zap.Error(err))
	}

	var profile *domain.CustomerProfile
	customerID := ""
	if raw, ok, _ := c.store.Get(ctx, domain.StoreKeyCustomer); ok {
		var p domain.CustomerProfile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			c.logger.Warn("init: unparsable cached customer, treating as absent", zap.Error(err))
		} else {
			profile = &p
			customerID = p.ID
		}
	}
	if customerID == "" {
		// Legacy standalone id key, still written by older clients.
		if id, ok, _ := c.store.Get(ctx, domain.StoreKeyLegacyCustomerID); ok {
			customerID = strings.TrimSpace(id)
		}
	}
	if customerID == "" && token != "" {
		// Last resort: the auth token itself may carry the customer id as
		// its subject claim. Best effort only; the backend re-checks every
		// call, so the claim is not trusted beyond identifying the cache.
		customerID = subjectClaim(token)
	}

	var areas []domain.Area
	if raw, ok, _ := c.store.Get(ctx, domain.StoreKeyAreas); ok {
		if err := json.Unmarshal([]byte(raw), &areas); err != nil {
			c.logger.Warn("init: unparsable cached areas, treating as absent", zap.Error(err))
			areas = nil
		}
	}

	storedArea := ""
	if v, ok, _ := c.store.Get(ctx, domain.StoreKeySelectedArea); ok && v != blankArea {
		storedArea = v
	}

	return domain.Session{AuthToken: token, CustomerID: customerID}, profile, areas, storedArea
}

func subjectClaim(token string) string {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// ============================================================
// Hydration
// ============================================================

// HydrateProfile fetches the customer profile and the area list
// concurrently. The profile's completion strictly precedes the gate
// evaluation that opens a modal; the area fetch independently updates the
// selected area. Either failure degrades, neither propagates.
func (c *Controller) HydrateProfile(ctx context.Context, customerID string) {
	if strings.TrimSpace(customerID) == "" {
		// Not yet authenticated; nothing to hydrate.
		c.logger.Warn("hydrate: skipped, missing customer id")
		return
	}

	ctx, span := tracer.Start(ctx, "Controller.HydrateProfile")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	c.mu.Lock()
	c.profileGen++
	c.areasGen++
	profileGen := c.profileGen
	areasGen := c.areasGen
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c.fetchProfile(gctx, customerID, profileGen, true)
		return nil
	})
	g.Go(func() error {
		c.fetchAreas(gctx, areasGen, true)
		return nil
	})
	_ = g.Wait()

	c.broadcast()
}

// fetchProfile fetches and applies the profile under generation fencing.
// When runGate is set, the gate verdict drives the modal.
func (c *Controller) fetchProfile(ctx context.Context, customerID string, gen uint64, runGate bool) {
	start := time.Now()
	p, err := c.customers.GetCustomer(ctx, customerID)
	c.metrics.RecordHydration("profile", time.Since(start))

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.profileGen {
		c.metrics.IncrStaleResponse("profile")
		return
	}
	if err != nil {
		c.metrics.IncrExternalError("customer")
		c.logger.Error("hydrate: customer fetch failed",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		// Drop the in-memory mirror; the persisted copy and the modal stay
		// as previously computed so the UI keeps rendering.
		c.profile = nil
		return
	}

	c.profile = p
	c.persistJSONLocked(ctx, domain.StoreKeyCustomer, p)
	if runGate {
		c.applyVerdictLocked(EvaluateProfile(p))
	}
}

// fetchAreas fetches and applies the area list under generation fencing.
// When matchArea is set, the selected area is re-derived from the current
// profile's areaId, falling back to the configured default.
func (c *Controller) fetchAreas(ctx context.Context, gen uint64, matchArea bool) {
	start := time.Now()
	areas, err := c.areaList.GetAreas(ctx)
	c.metrics.RecordHydration("areas", time.Since(start))

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.areasGen {
		c.metrics.IncrStaleResponse("areas")
		return
	}
	if err != nil {
		c.metrics.IncrExternalError("areas")
		c.logger.Error("hydrate: area fetch failed", zap.Error(err))
		// Keep whatever area was already selected; only an unset selection
		// falls back to the default.
		if c.selectedArea == "" || c.selectedArea == blankArea {
			c.setSelectedAreaLocked(ctx, c.defaultArea)
		}
		return
	}

	c.areas = areas
	c.persistJSONLocked(ctx, domain.StoreKeyAreas, areas)

	if !matchArea {
		return
	}
	name := c.defaultArea
	if c.profile.HasArea() {
		for _, a := range areas {
			if a.ID == c.profile.AreaID {
				name = a.AreaName
				break
			}
		}
	}
	c.setSelectedAreaLocked(ctx, name)
}

// ============================================================
// Auth transitions
// ============================================================

// OnLoginSuccess persists the new session and immediately hydrates.
func (c *Controller) OnLoginSuccess(ctx context.Context, authToken string, customer *domain.CustomerProfile) {
	c.adoptSession(ctx, authToken, customer)
	c.HydrateProfile(ctx, customer.ID)
}

// OnSignupSuccess is login success plus a forced Location capture: a brand
// new account has no area yet, so the Location modal opens once regardless
// of the gate verdict.
func (c *Controller) OnSignupSuccess(ctx context.Context, authToken string, customer *domain.CustomerProfile) {
	c.adoptSession(ctx, authToken, customer)
	c.HydrateProfile(ctx, customer.ID)

	c.mu.Lock()
	c.signupPhone = ""
	c.setModalLocked(domain.ModalLocation)
	c.mu.Unlock()
	c.broadcast()
}

func (c *Controller) adoptSession(ctx context.Context, authToken string, customer *domain.CustomerProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = domain.Session{AuthToken: authToken, CustomerID: customer.ID}
	c.profile = customer
	c.setModalLocked(domain.ModalNone)

	if err := c.store.Set(ctx, domain.StoreKeyAuthToken, authToken); err != nil {
		c.logger.Warn("auth: persist token failed", zap.Error(err))
	}
	c.persistJSONLocked(ctx, domain.StoreKeyCustomer, customer)
	if err := c.store.Set(ctx, domain.StoreKeyLegacyCustomerID, customer.ID); err != nil {
		c.logger.Warn("auth: persist customer id failed", zap.Error(err))
	}
}

// OnLogout clears the entire store and returns to the login modal. The
// store clear fans out to other tabs, which re-derive and land on Login too.
func (c *Controller) OnLogout(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error("logout: store clear failed", zap.Error(err))
	}

	c.mu.Lock()
	c.session = domain.Session{}
	c.profile = nil
	c.areas = nil
	c.selectedArea = ""
	c.signupPhone = ""
	c.setModalLocked(domain.ModalLogin)
	c.mu.Unlock()

	c.ensureDefaultArea(ctx)
	c.broadcast()
}

// OnCrossTabSignal re-derives everything from the store. Foreign mutations
// are authoritative; patching local state piecemeal risks divergence.
func (c *Controller) OnCrossTabSignal(ctx context.Context) {
	c.Initialize(ctx)
}

// ============================================================
// Onboarding transitions
// ============================================================

// UpdatePhone pushes the new phone number to the backend and, on success,
// resolves the phone step with the refreshed profile. On failure the Phone
// modal stays up and the error is returned for inline display.
func (c *Controller) UpdatePhone(ctx context.Context, phone string) error {
	c.mu.Lock()
	customerID := c.session.CustomerID
	c.mu.Unlock()
	if customerID == "" {
		return &domain.ErrUnauthorized{}
	}

	updated, err := c.updater.UpdateCustomerPhone(ctx, customerID, phone)
	if err != nil {
		c.metrics.IncrExternalError("customer")
		c.logger.Error("phone update failed",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		return err
	}
	c.OnPhoneResolved(ctx, updated)
	return nil
}

// OnPhoneResolved closes the phone step. With an updated profile the gate
// re-runs on it, so a still-missing address immediately opens Location.
// Without one (popup dismissed) the gate re-runs on the cached profile
// instead of assuming completion.
func (c *Controller) OnPhoneResolved(ctx context.Context, updated *domain.CustomerProfile) {
	c.mu.Lock()
	if updated != nil {
		c.profile = updated
		c.persistJSONLocked(ctx, domain.StoreKeyCustomer, updated)
	}
	c.applyVerdictLocked(EvaluateProfile(c.profile))
	c.mu.Unlock()
	c.broadcast()
}

// OnLocationResolved persists the chosen area, then re-fetches profile and
// areas to confirm the verdict. The Location modal closes only when the
// gate actually clears — picking an area while the typed address is still
// missing keeps it open.
func (c *Controller) OnLocationResolved(ctx context.Context, areaName string) {
	ctx, span := tracer.Start(ctx, "Controller.OnLocationResolved")
	defer span.End()

	c.mu.Lock()
	c.setSelectedAreaLocked(ctx, areaName)
	customerID := c.session.CustomerID
	c.profileGen++
	c.areasGen++
	profileGen := c.profileGen
	areasGen := c.areasGen
	c.mu.Unlock()

	if customerID == "" {
		c.broadcast()
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.fetchProfile(gctx, customerID, profileGen, true)
		return nil
	})
	g.Go(func() error {
		// Refresh the area cache but keep the just-picked selection.
		c.fetchAreas(gctx, areasGen, false)
		return nil
	})
	_ = g.Wait()

	c.broadcast()
}

// OpenLocation is the explicit user entry into the Location modal (header
// area button), independent of onboarding. Fresh data is fetched for the
// popup; a failed refresh degrades to nothing rather than stale mirrors.
func (c *Controller) OpenLocation(ctx context.Context) {
	c.mu.Lock()
	c.setModalLocked(domain.ModalLocation)
	customerID := c.session.CustomerID
	c.profileGen++
	c.areasGen++
	profileGen := c.profileGen
	areasGen := c.areasGen
	c.mu.Unlock()
	c.broadcast()

	g, gctx := errgroup.WithContext(ctx)
	if customerID != "" {
		g.Go(func() error {
			c.fetchProfile(gctx, customerID, profileGen, false)
			return nil
		})
	}
	g.Go(func() error {
		c.fetchAreas(gctx, areasGen, false)
		return nil
	})
	_ = g.Wait()

	c.broadcast()
}

// ============================================================
// Login / Signup / Profile modal switches
// ============================================================

// ShowSignup switches from Login to Signup, optionally carrying a phone
// number typed on the login form.
func (c *Controller) ShowSignup(phone string) {
	c.mu.Lock()
	if c.modal == domain.ModalLogin {
		c.signupPhone = phone
		c.setModalLocked(domain.ModalSignup)
	}
	c.mu.Unlock()
	c.broadcast()
}

// CancelSignup returns from Signup to Login.
func (c *Controller) CancelSignup() {
	c.mu.Lock()
	if c.modal == domain.ModalSignup {
		c.setModalLocked(domain.ModalLogin)
	}
	c.mu.Unlock()
	c.broadcast()
}

// OpenProfile shows the profile overlay. Suppressed while any other modal
// is up: onboarding and auth take precedence.
func (c *Controller) OpenProfile() {
	c.mu.Lock()
	if c.modal == domain.ModalNone && c.session.Valid() {
		c.setModalLocked(domain.ModalProfile)
	}
	c.mu.Unlock()
	c.broadcast()
}

// CloseProfile dismisses the profile overlay.
func (c *Controller) CloseProfile() {
	c.mu.Lock()
	if c.modal == domain.ModalProfile {
		c.setModalLocked(domain.ModalNone)
	}
	c.mu.Unlock()
	c.broadcast()
}

// ============================================================
// State access
// ============================================================

// State returns a consistent snapshot of the session.
func (c *Controller) State() domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() domain.SessionState {
	verdict := domain.VerdictNone
	if c.session.Valid() {
		verdict = EvaluateProfile(c.profile)
	}
	selected := c.selectedArea
	if selected == "" {
		selected = c.defaultArea
	}
	return domain.SessionState{
		Authenticated: c.session.Valid(),
		CustomerID:    c.session.CustomerID,
		Modal:         c.modal,
		Verdict:       verdict,
		SelectedArea:  selected,
		TrackOrderID:  c.profile.FirstOrderID(),
		Areas:         c.areas,
	}
}

// SignupPhone returns the phone carried from Login into Signup.
func (c *Controller) SignupPhone() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signupPhone
}

// Watch registers a state watcher. Every state change delivers a snapshot;
// slow watchers miss intermediate snapshots, never the final one per change.
func (c *Controller) Watch() (<-chan domain.SessionState, func()) {
	ch := make(chan domain.SessionState, 8)
	c.mu.Lock()
	id := c.nextWatcher
	c.nextWatcher++
	c.watchers[id] = ch
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if w, ok := c.watchers[id]; ok {
			delete(c.watchers, id)
			close(w)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

// ============================================================
// Internals (all *Locked funcs require c.mu held)
// ============================================================

func (c *Controller) setModalLocked(to domain.VisibleModal) {
	if c.modal == to {
		return
	}
	c.metrics.RecordModalTransition(string(c.modal), string(to))
	c.logger.Debug("modal transition",
		zap.String("from", string(c.modal)),
		zap.String("to", string(to)),
	)
	c.modal = to
}

func (c *Controller) applyVerdictLocked(v domain.OnboardingVerdict) {
	switch v {
	case domain.VerdictNeedsPhone:
		c.setModalLocked(domain.ModalPhone)
	case domain.VerdictNeedsLocation:
		c.setModalLocked(domain.ModalLocation)
	default:
		if c.modal.Onboarding() {
			c.setModalLocked(domain.ModalNone)
		}
	}
}

func (c *Controller) setSelectedAreaLocked(ctx context.Context, name string) {
	c.selectedArea = name
	if err := c.store.Set(ctx, domain.StoreKeySelectedArea, name); err != nil {
		c.logger.Warn("persist selected area failed", zap.Error(err))
	}
}

func (c *Controller) persistJSONLocked(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("persist: marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, string(raw)); err != nil {
		c.logger.Warn("persist: store write failed", zap.String("key", key), zap.Error(err))
	}
}

// ensureDefaultArea applies the configured default area when nothing usable
// is selected, so browsing always has an area even before login.
func (c *Controller) ensureDefaultArea(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selectedArea != "" && c.selectedArea != blankArea {
		return
	}
	c.setSelectedAreaLocked(ctx, c.defaultArea)
}

// broadcast sends a snapshot to every watcher. Sends happen under c.mu: they
// never block (buffered channel, drop when full), and the watcher cancel func
// closes its channel under the same mutex, so a send can never hit a channel
// closed by a concurrent disconnect.
func (c *Controller) broadcast() {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.stateLocked()
	for _, ch := range c.watchers {
		select {
		case ch <- state:
		default:
			// Watcher is behind; it will catch up on the next change.
		}
	}
}
