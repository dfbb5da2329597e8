package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/classweek/classweek-api/internal/dto"
	"github.com/classweek/classweek-api/internal/models"
	"github.com/classweek/classweek-api/internal/schedule"
	appErrors "github.com/classweek/classweek-api/pkg/errors"
)

type scheduleEventRepository interface {
	ListByRange(ctx context.Context, from, to time.Time, types []models.EventType) ([]models.Event, error)
}

type scheduleCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Subscribe(ctx context.Context, channel string) (<-chan *redis.Message, func(), error)
}

// ScheduleService builds the bucketed week view: query the active window,
// bucket per day, cache the grid, and feed live subscribers whenever an event
// changes.
type ScheduleService struct {
	repo     scheduleEventRepository
	cache    scheduleCache
	metrics  *MetricsService
	logger   *zap.Logger
	location *time.Location
	cacheTTL time.Duration
	channel  string
}

// NewScheduleService constructs the service.
func NewScheduleService(repo scheduleEventRepository, cache scheduleCache, metrics *MetricsService, logger *zap.Logger, location *time.Location, cacheTTL time.Duration, channel string) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.Local
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ScheduleService{repo: repo, cache: cache, metrics: metrics, logger: logger, location: location, cacheTTL: cacheTTL, channel: channel}
}

// WeekSchedule returns the active-window day grid. The second result reports
// whether the grid came from cache.
func (s *ScheduleService) WeekSchedule(ctx context.Context, now time.Time) (*dto.WeekScheduleResponse, bool, error) {
	window := schedule.ActiveWindow(now.In(s.location))
	key := "schedule:week:" + window.Start.Format(schedule.DateLayout)

	if s.cache != nil {
		var cached dto.WeekScheduleResponse
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.recordCacheLookup(true)
			return &cached, true, nil
		} else if err != appErrors.ErrCacheMiss {
			s.logger.Warn("schedule cache read failed", zap.Error(err))
		}
		s.recordCacheLookup(false)
	}

	resp, err := s.build(ctx, window)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, s.cacheTTL); err != nil {
			s.logger.Warn("schedule cache write failed", zap.Error(err))
		}
	}

	return resp, false, nil
}

// UpcomingClassTests flattens every CT of the active window, in day order.
func (s *ScheduleService) UpcomingClassTests(ctx context.Context, now time.Time) ([]dto.UpcomingClassTest, error) {
	week, _, err := s.WeekSchedule(ctx, now)
	if err != nil {
		return nil, err
	}

	tests := []dto.UpcomingClassTest{}
	for _, day := range week.Days {
		for _, ct := range day.ClassTests {
			item := dto.UpcomingClassTest{
				ID:      ct.ID,
				DayName: day.DayName,
				Date:    day.Date,
			}
			if ct.Subject != nil {
				item.Subject = *ct.Subject
			}
			if ct.Teacher != nil {
				item.Teacher = *ct.Teacher
			}
			if ct.StartTime != nil {
				item.StartTime = *ct.StartTime
			}
			if ct.DurationMinutes != nil {
				item.DurationMinutes = *ct.DurationMinutes
			}
			if ct.Room != nil {
				item.Room = *ct.Room
			}
			if ct.Topics != nil {
				item.Topics = *ct.Topics
			}
			tests = append(tests, item)
		}
	}
	return tests, nil
}

// Watch streams full week-grid snapshots: one on subscribe, then one per
// change notification. Every push replaces the previous state wholesale;
// when the consumer lags only the freshest snapshot is kept. The returned
// channel closes when ctx is cancelled.
func (s *ScheduleService) Watch(ctx context.Context, now func() time.Time) (<-chan dto.WeekScheduleResponse, error) {
	if s.cache == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "live updates unavailable")
	}

	messages, closeSub, err := s.cache.Subscribe(ctx, s.channel)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to subscribe to change feed")
	}

	out := make(chan dto.WeekScheduleResponse, 1)

	push := func() {
		snap, _, err := s.WeekSchedule(ctx, now())
		if err != nil {
			s.logger.Warn("rebuild for live schedule failed", zap.Error(err))
			return
		}
		// Drop the undelivered previous snapshot, if any; last push wins.
		select {
		case <-out:
		default:
		}
		out <- *snap
	}

	if s.metrics != nil {
		s.metrics.StreamClientConnected(1)
	}

	go func() {
		defer func() {
			closeSub()
			close(out)
			if s.metrics != nil {
				s.metrics.StreamClientConnected(-1)
			}
		}()

		push()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				push()
			}
		}
	}()

	return out, nil
}

func (s *ScheduleService) build(ctx context.Context, window schedule.Window) (*dto.WeekScheduleResponse, error) {
	events, err := s.repo.ListByRange(ctx, window.Start, window.End, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load schedule events")
	}

	return &dto.WeekScheduleResponse{
		WeekStart: window.Start.Format(schedule.DateLayout),
		WeekEnd:   window.End.Format(schedule.DateLayout),
		Window:    window,
		Days:      schedule.BuildDays(window, events),
	}, nil
}

func (s *ScheduleService) recordCacheLookup(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(hit)
	}
}
