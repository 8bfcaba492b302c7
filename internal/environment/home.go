package environment

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"saadSocialAPI/internal/cache"
	"saadSocialAPI/internal/logger"
)

// Prayers lists the daily prayers in the order they occur.
var Prayers = []string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}

// NextPrayer returns the first prayer whose HH:MM is strictly after now, at
// minute resolution, wrapping to Fajr after Isha.
func NextPrayer(timings map[string]string, now time.Time) string {
	current := now.Hour()*60 + now.Minute()
	for _, name := range Prayers {
		m, ok := minuteOfDay(timings[name])
		if ok && m > current {
			return name
		}
	}
	return Prayers[0]
}

// minuteOfDay parses "HH:MM", ignoring any suffix such as " (EET)".
func minuteOfDay(s string) (int, bool) {
	s, _, _ = strings.Cut(strings.TrimSpace(s), " ")
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, false
	}
	return h*60 + m, true
}

type AdviceSource interface {
	DailyAdvice(ctx context.Context, city, condition string, temp int) string
}

// Home is the dashboard summary. A widget whose source failed is nil.
type Home struct {
	Weather    *Weather     `json:"weather"`
	Location   *Location    `json:"location"`
	Prayers    *PrayerTimes `json:"prayers"`
	NextPrayer string       `json:"nextPrayer,omitempty"`
	Advice     string       `json:"advice,omitempty"`
}

func (h Home) complete() bool {
	return h.Weather != nil && h.Location != nil && h.Prayers != nil
}

type Service struct {
	client *Client
	cache  cache.Cache
	advice AdviceSource
	ttl    time.Duration
	now    func() time.Time
}

func NewService(client *Client, c cache.Cache, advice AdviceSource, ttl time.Duration) *Service {
	if c == nil {
		c = cache.NewMemory()
	}
	return &Service{client: client, cache: c, advice: advice, ttl: ttl, now: time.Now}
}

func cacheKey(lat, lon float64) string {
	round := func(v float64) float64 { return math.Round(v*100) / 100 }
	return fmt.Sprintf("home:%.2f:%.2f", round(lat), round(lon))
}

// Home fetches the three widgets concurrently, then asks for advice when
// the weather is known. Complete results are cached per rounded coordinate;
// a result with a failed widget is served but refetched next time. The next
// prayer is computed on every call.
func (s *Service) Home(ctx context.Context, lat, lon float64) *Home {
	key := cacheKey(lat, lon)
	var h Home
	hit, err := s.cache.Get(ctx, key, &h)
	if err != nil {
		logger.L().Warn("Home cache read failed", zap.String("key", key), zap.Error(err))
	}
	if !hit {
		h = s.fetch(ctx, lat, lon)
		if h.complete() {
			if err := s.cache.Set(ctx, key, h, s.ttl); err != nil {
				logger.L().Warn("Home cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	if h.Prayers != nil {
		h.NextPrayer = NextPrayer(h.Prayers.Timings, s.localNow(h.Prayers.Timezone))
	}
	return &h
}

func (s *Service) fetch(ctx context.Context, lat, lon float64) Home {
	var (
		h  Home
		wg sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		w, err := s.client.Weather(ctx, lat, lon)
		if err != nil {
			logger.L().Warn("Weather fetch failed", zap.Error(err))
			return
		}
		h.Weather = w
	}()
	go func() {
		defer wg.Done()
		loc, err := s.client.ReverseGeocode(ctx, lat, lon)
		if err != nil {
			logger.L().Warn("Reverse geocode failed", zap.Error(err))
			return
		}
		h.Location = loc
	}()
	go func() {
		defer wg.Done()
		p, err := s.client.PrayerTimes(ctx, lat, lon)
		if err != nil {
			logger.L().Warn("Prayer times fetch failed", zap.Error(err))
			return
		}
		h.Prayers = p
	}()
	wg.Wait()

	if h.Weather != nil && s.advice != nil {
		city := "Nearby"
		if h.Location != nil {
			city = h.Location.City
		}
		h.Advice = s.advice.DailyAdvice(ctx, city, h.Weather.Condition, h.Weather.Temp)
	}
	return h
}

func (s *Service) localNow(tz string) time.Time {
	now := s.now()
	if tz == "" {
		return now
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return now
	}
	return now.In(loc)
}
