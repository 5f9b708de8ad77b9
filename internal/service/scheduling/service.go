package scheduling

import (
	"io"
	"log/slog"
	"time"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/observability"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/store"
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var SystemClock Clock = ClockFunc(time.Now)

// PriceLookup is total: every valid (service, duration) pair has a price in minor units.
type PriceLookup interface {
	PriceFor(serviceType domain.ServiceType, durationMinutes int) int64
}

type MeetingReferenceGenerator interface {
	NewMeetingReference() string
}

type Config struct {
	// Location is the wall-clock zone of every date and time the service handles.
	Location           *time.Location
	LeadTime           time.Duration
	CancellationWindow time.Duration
	SlotStep           time.Duration
	MaxProjectionDays  int
}

func DefaultConfig() Config {
	return Config{
		Location:           time.UTC,
		LeadTime:           domain.MinimumLeadTime,
		CancellationWindow: 24 * time.Hour,
		SlotStep:           domain.SlotStep,
		MaxProjectionDays:  62,
	}
}

type Dependencies struct {
	Availability store.AvailabilityRepository
	Exceptions   store.ExceptionRepository
	Reservations store.ReservationRepository
	Prices       PriceLookup
	Meetings     MeetingReferenceGenerator
	Clock        Clock
}

type Option func(*Service)

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		def := DefaultConfig()
		if cfg.Location == nil {
			cfg.Location = def.Location
		}
		if cfg.LeadTime <= 0 {
			cfg.LeadTime = def.LeadTime
		}
		if cfg.CancellationWindow <= 0 {
			cfg.CancellationWindow = def.CancellationWindow
		}
		if cfg.SlotStep <= 0 {
			cfg.SlotStep = def.SlotStep
		}
		if cfg.MaxProjectionDays <= 0 {
			cfg.MaxProjectionDays = def.MaxProjectionDays
		}
		s.cfg = cfg
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithBookingPolicies replaces the rules checked before a booking transaction opens.
func WithBookingPolicies(policies ...BookingPolicy) Option {
	return func(s *Service) { s.policies = policies }
}

// Service is the scheduling and booking engine.
type Service struct {
	availability store.AvailabilityRepository
	exceptions   store.ExceptionRepository
	reservations store.ReservationRepository
	prices       PriceLookup
	meetings     MeetingReferenceGenerator
	clock        Clock

	cfg      Config
	policies []BookingPolicy
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewService(deps Dependencies, opts ...Option) *Service {
	s := &Service{
		availability: deps.Availability,
		exceptions:   deps.Exceptions,
		reservations: deps.Reservations,
		prices:       deps.Prices,
		meetings:     deps.Meetings,
		clock:        deps.Clock,
		cfg:          DefaultConfig(),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if s.clock == nil {
		s.clock = SystemClock
	}
	s.policies = []BookingPolicy{SinglePendingReservation()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock.Now()
}

func (s *Service) today() time.Time {
	return domain.TodayIn(s.now(), s.cfg.Location)
}
