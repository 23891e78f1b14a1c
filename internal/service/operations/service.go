package operations

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/decapage/internal/domain/metrics"
	"github.com/mamadbah2/decapage/internal/domain/models"
	"github.com/mamadbah2/decapage/internal/repository/mongodb"
)

const dateLayout = "2006-01-02"

// driftTolerance bounds the difference accepted between a stored snapshot and
// a recomputation before it is reported.
const driftTolerance = 1e-9

var (
	// ErrInvalidOperation indicates the submitted form is missing required fields.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrNotFound indicates the requested operation does not exist.
	ErrNotFound = errors.New("operation not found")
)

// View is an operation together with the metrics shown for it.
type View struct {
	models.Operation
	Computed metrics.Result `json:"computed"`
	// FromSnapshot is true when Computed comes from the stored snapshot.
	FromSnapshot bool `json:"fromSnapshot"`
}

// Service handles the operation entry form and operation listings.
type Service struct {
	repo     mongodb.OperationRepository
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time
	newID    func() string
}

// Option customizes the operations service.
type Option func(*Service)

// WithLocation sets the timezone giving the day of an operation submitted
// without a date.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewService constructs the operations service.
func NewService(repository mongodb.OperationRepository, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:     repository,
		logger:   logger,
		location: time.UTC,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preview computes the metrics the form would be saved with.
func (s *Service) Preview(form models.OperationForm) metrics.Result {
	return metrics.Compute(form.Input())
}

// Submit validates the form, snapshots its metrics and persists the operation.
// The stored snapshot is exactly what Preview returns for the same form.
func (s *Service) Submit(ctx context.Context, form models.OperationForm) (models.Operation, error) {
	form.Normalize()

	switch {
	case form.Fiche == "":
		return models.Operation{}, fmt.Errorf("%w: fiche is required", ErrInvalidOperation)
	case form.Machine == "":
		return models.Operation{}, fmt.Errorf("%w: machine is required", ErrInvalidOperation)
	}

	now := s.now()
	date := models.DayOf(now.In(s.location))
	if form.Date != "" {
		parsed, err := time.Parse(dateLayout, form.Date)
		if err != nil {
			return models.Operation{}, fmt.Errorf("%w: date must use %s", ErrInvalidOperation, dateLayout)
		}
		date = parsed
	}

	input := form.Input()
	op := models.Operation{
		ID:        s.newID(),
		Fiche:     form.Fiche,
		Machine:   form.Machine,
		Operator:  form.Operator,
		Site:      form.Site,
		Date:      date,
		Input:     input,
		Metrics:   models.NewStoredMetrics(metrics.Compute(input)),
		Notes:     form.Notes,
		CreatedAt: now.UTC(),
	}

	if err := s.repo.InsertOperation(ctx, op); err != nil {
		return models.Operation{}, fmt.Errorf("save operation: %w", err)
	}

	s.logger.Info("operation saved",
		zap.String("id", op.ID),
		zap.String("fiche", op.Fiche),
		zap.String("machine", op.Machine),
		zap.Float64("line_meters", op.Metrics.LineMeters))

	return op, nil
}

// Get returns one operation with its metrics.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	op, err := s.repo.FindOperation(ctx, id)
	if errors.Is(err, mongodb.ErrNotFound) {
		return View{}, ErrNotFound
	}
	if err != nil {
		return View{}, fmt.Errorf("load operation %s: %w", id, err)
	}
	return s.view(op), nil
}

// List returns the operations matching filter with their metrics.
func (s *Service) List(ctx context.Context, filter models.OperationFilter) ([]View, error) {
	ops, err := s.repo.ListOperations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}

	views := make([]View, 0, len(ops))
	for _, op := range ops {
		views = append(views, s.view(op))
	}
	return views, nil
}

// view prefers the stored snapshot and reports when a recomputation disagrees.
func (s *Service) view(op models.Operation) View {
	computed := metrics.Compute(op.Input)
	if op.Metrics == nil {
		return View{Operation: op, Computed: computed}
	}

	stored := op.Metrics.Result()
	if drifted(stored, computed) {
		s.logger.Warn("stored metrics differ from recomputation",
			zap.String("id", op.ID),
			zap.String("fiche", op.Fiche),
			zap.Any("stored", stored),
			zap.Any("computed", computed))
	}
	return View{Operation: op, Computed: stored, FromSnapshot: true}
}

func drifted(a, b metrics.Result) bool {
	return math.Abs(a.LineMeters-b.LineMeters) > driftTolerance ||
		math.Abs(a.YieldRate-b.YieldRate) > driftTolerance ||
		math.Abs(a.ExcavatedVolume-b.ExcavatedVolume) > driftTolerance ||
		math.Abs(a.Availability-b.Availability) > driftTolerance
}
