package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nakanaka07/kueccha/internal/adapters/cache"
	"github.com/nakanaka07/kueccha/internal/domain/entities"
	"github.com/nakanaka07/kueccha/internal/domain/mapping"
	"github.com/nakanaka07/kueccha/internal/domain/providers"
	apperrors "github.com/nakanaka07/kueccha/pkg/errors"
	"github.com/nakanaka07/kueccha/pkg/retry"
)

type fakeFetcher struct {
	rows  [][]string
	errs  []error
	calls int

	lastSheet string
	lastRange string
}

func (f *fakeFetcher) FetchRange(_ context.Context, sheetName, a1Range string) ([][]string, error) {
	f.calls++
	f.lastSheet = sheetName
	f.lastRange = a1Range
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.rows, nil
}

func fastRetry() retry.Config {
	return retry.Config{
		MaxAttempts:     4,
		InitialDelay:    time.Millisecond,
		MaxDelay:        4 * time.Millisecond,
		BackoffFactor:   2.0,
		MaxTotalTimeout: time.Second,
	}
}

func dataRow(name, lng, lat, key string) []string {
	row := make([]string, 50)
	row[26] = "restaurant"
	row[27] = "ramen"
	row[40] = "1 Main St"
	row[43] = name
	row[46] = lng
	row[47] = lat
	row[49] = key
	return row
}

func headerRow() []string {
	row := make([]string, 50)
	row[43] = "店舗名"
	return row
}

func newTestSource(t *testing.T, fetcher *fakeFetcher) *Source {
	t.Helper()
	mem, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)
	src := NewSource(fetcher, mem, nil, nil, 10*time.Minute, mapping.PolicyLenient)
	src.retryCfg = fastRetry()
	return src
}

func TestSource_FetchArea(t *testing.T) {
	fetcher := &fakeFetcher{rows: [][]string{
		headerRow(),
		dataRow("Joe's Diner", "138.40", "38.05", "poi-001"),
		dataRow("Sado Ramen", "138.37", "38.02", "poi-002"),
	}}
	src := newTestSource(t, fetcher)

	pois, err := src.FetchArea(context.Background(), entities.AreaRyotsuAikawa, false)
	require.NoError(t, err)
	require.Len(t, pois, 2)

	assert.Equal(t, "poi-001", pois[0].Key)
	assert.Equal(t, "Joe's Diner", pois[0].Name)
	assert.Equal(t, entities.AreaRyotsuAikawa, pois[0].Area)
	assert.InDelta(t, 38.05, pois[0].Location.Lat, 1e-9)
	assert.InDelta(t, 138.40, pois[0].Location.Lng, 1e-9)

	assert.Equal(t, "両津・相川", fetcher.lastSheet)
	assert.Equal(t, "A1:AX1000", fetcher.lastRange)
}

func TestSource_FetchArea_ServesCacheOnSecondCall(t *testing.T) {
	fetcher := &fakeFetcher{rows: [][]string{
		headerRow(),
		dataRow("Joe's Diner", "138.40", "38.05", "poi-001"),
	}}
	src := newTestSource(t, fetcher)
	ctx := context.Background()

	_, err := src.FetchArea(ctx, entities.AreaSnack, true)
	require.NoError(t, err)
	require.Equal(t, 1, fetcher.calls)

	// A second cached read must not touch the API at all.
	fetcher.errs = []error{errors.New("api must not be called")}
	pois, err := src.FetchArea(ctx, entities.AreaSnack, true)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
	require.Len(t, pois, 1)
	assert.Equal(t, "poi-001", pois[0].Key)
}

func TestSource_FetchArea_BypassesCacheWhenDisabled(t *testing.T) {
	fetcher := &fakeFetcher{rows: [][]string{
		headerRow(),
		dataRow("Joe's Diner", "138.40", "38.05", "poi-001"),
	}}
	src := newTestSource(t, fetcher)
	ctx := context.Background()

	_, err := src.FetchArea(ctx, entities.AreaParking, true)
	require.NoError(t, err)
	_, err = src.FetchArea(ctx, entities.AreaParking, false)
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.calls)
}

func TestSource_FetchArea_HeaderOnlySheet(t *testing.T) {
	fetcher := &fakeFetcher{rows: [][]string{headerRow()}}
	src := newTestSource(t, fetcher)

	pois, err := src.FetchArea(context.Background(), entities.AreaPublicToilet, false)
	require.NoError(t, err)
	assert.Empty(t, pois)
}

func TestSource_FetchArea_RetriesTransientErrors(t *testing.T) {
	fetcher := &fakeFetcher{
		rows: [][]string{
			headerRow(),
			dataRow("Joe's Diner", "138.40", "38.05", "poi-001"),
		},
		errs: []error{
			errors.New("upstream exploded"),
			errors.New("upstream exploded"),
			nil,
		},
	}
	src := newTestSource(t, fetcher)

	pois, err := src.FetchArea(context.Background(), entities.AreaRyotsuAikawa, false)
	require.NoError(t, err)
	assert.Len(t, pois, 1)
	assert.Equal(t, 3, fetcher.calls)
}

func TestSource_FetchArea_TimeoutNotRetried(t *testing.T) {
	fetcher := &fakeFetcher{errs: []error{context.DeadlineExceeded}}
	src := newTestSource(t, fetcher)

	_, err := src.FetchArea(context.Background(), entities.AreaRyotsuAikawa, false)
	require.Error(t, err)
	assert.Equal(t, 1, fetcher.calls)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeRequestTimeout, appErr.Code)
}

func TestSource_FetchArea_APIKeyErrorNotRetried(t *testing.T) {
	fetcher := &fakeFetcher{errs: []error{
		apperrors.NewAPIKeyError("sheets api rejected the api key", nil),
	}}
	src := newTestSource(t, fetcher)

	_, err := src.FetchArea(context.Background(), entities.AreaRyotsuAikawa, false)
	require.Error(t, err)
	assert.Equal(t, 1, fetcher.calls)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeAPIKeyError, appErr.Code)
}

func TestSource_FetchArea_MaxRetriesExhausted(t *testing.T) {
	boom := errors.New("upstream exploded")
	fetcher := &fakeFetcher{errs: []error{boom, boom, boom, boom}}
	src := newTestSource(t, fetcher)

	_, err := src.FetchArea(context.Background(), entities.AreaRyotsuAikawa, false)
	require.Error(t, err)
	assert.Equal(t, 4, fetcher.calls)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeFetchErrorMaxRetries, appErr.Code)
}

func TestSource_FetchArea_VirtualAreaRejected(t *testing.T) {
	src := newTestSource(t, &fakeFetcher{})

	_, err := src.FetchArea(context.Background(), entities.AreaCurrentLocation, false)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
}

func TestSource_Areas(t *testing.T) {
	src := newTestSource(t, &fakeFetcher{})

	areas := src.Areas()
	assert.Contains(t, areas, entities.AreaRyotsuAikawa)
	assert.Contains(t, areas, entities.AreaRecommend)
	assert.NotContains(t, areas, entities.AreaCurrentLocation)
}

type fakeEventBus struct {
	published []*entities.POIEvent
	channels  []string
}

func (b *fakeEventBus) Publish(_ context.Context, channel string, event *entities.POIEvent) error {
	b.channels = append(b.channels, channel)
	b.published = append(b.published, event)
	return nil
}

func (b *fakeEventBus) Subscribe(context.Context, string) (<-chan *entities.POIEvent, error) {
	return nil, nil
}

func (b *fakeEventBus) Unsubscribe(context.Context, string) error { return nil }

func (b *fakeEventBus) Close() error { return nil }

func TestSource_FetchArea_PublishesAreaUpdate(t *testing.T) {
	fetcher := &fakeFetcher{rows: [][]string{
		headerRow(),
		dataRow("Joe's Diner", "138.40", "38.05", "poi-001"),
		dataRow("Sado Ramen", "138.37", "38.02", "poi-002"),
	}}
	bus := &fakeEventBus{}
	mem, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)
	src := NewSource(fetcher, mem, bus, nil, 10*time.Minute, mapping.PolicyLenient)
	src.retryCfg = fastRetry()
	ctx := context.Background()

	_, err = src.FetchArea(ctx, entities.AreaSnack, true)
	require.NoError(t, err)

	require.Len(t, bus.published, 1)
	assert.Equal(t, providers.EventChannelPOIUpdates, bus.channels[0])
	assert.Equal(t, entities.POIEventTypeAreaUpdated, bus.published[0].EventType)
	assert.Equal(t, entities.AreaSnack, bus.published[0].Area)
	assert.Equal(t, 2, bus.published[0].Count)

	// A cached read changes nothing, so nothing is announced.
	_, err = src.FetchArea(ctx, entities.AreaSnack, true)
	require.NoError(t, err)
	assert.Len(t, bus.published, 1)
}
