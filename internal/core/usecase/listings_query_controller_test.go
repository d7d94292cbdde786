package usecase

import (
	"context"
	"errors"
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
)

func newTestController(handler fetchHandler) (*ListingsQueryController, *fakeFetcher, *fakeHistory) {
	fetcher := newFakeFetcher(handler)
	history := newFakeHistory()
	c := NewListingsQueryController("test-session", fetcher, history, nil, nil)
	return c, fetcher, history
}

func TestController_FreeTextScenario(t *testing.T) {
	ctx := context.Background()
	c, fetcher, history := newTestController(staticPage(1, `[{"id":"1"}]`))
	defer c.Close()

	require.NoError(t, c.SetFreeText(ctx, "Eindhoven"))
	c.Wait()

	require.Len(t, fetcher.Calls(), 1)
	assert.Equal(t, "page=0&q=Eindhoven&size=12", fetcher.LastCall().Encode())
	assert.Equal(t, []string{"page=0&q=Eindhoven&size=12"}, history.Writes())

	snap := c.Snapshot()
	assert.Equal(t, domain.StatusSuccess, snap.Status)
	assert.Equal(t, 1, snap.Result.Total)
	assert.False(t, snap.Result.Loading)
	assert.Empty(t, snap.Result.Error)
	require.Len(t, snap.Result.Items, 1)
	assert.Equal(t, "1", snap.Result.Items[0].ID)
}

func TestController_HydrateDoesNotWriteHistory(t *testing.T) {
	ctx := context.Background()
	c, fetcher, history := newTestController(staticPage(0, `[]`))
	defer c.Close()

	require.NoError(t, c.Hydrate(ctx, "?q=loft&city=Sofia&page=2&size=24&view=grid"))
	c.Wait()

	assert.Empty(t, history.Writes())
	require.Len(t, fetcher.Calls(), 1)

	call := fetcher.LastCall()
	assert.Equal(t, "loft", call.Get("q"))
	assert.Equal(t, "Sofia", call.Get("city"))
	assert.Equal(t, "2", call.Get("page"))
	assert.Equal(t, "24", call.Get("size"))
	assert.False(t, call.Has("view"))

	snap := c.Snapshot()
	assert.Equal(t, domain.ViewList, snap.State.ViewMode)
	assert.Equal(t, "city=Sofia&page=2&q=loft&size=24", snap.URL)
}

func TestController_PageReset(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(staticPage(100, `[]`))
	defer c.Close()

	require.NoError(t, c.Hydrate(ctx, ""))
	c.Wait()

	require.NoError(t, c.SetPage(ctx, 3))
	c.Wait()
	snap := c.Snapshot()
	assert.Equal(t, 3, snap.State.Page)
	assert.True(t, snap.State.Filters.IsEmpty())
	assert.Empty(t, snap.State.FreeText)

	require.NoError(t, c.SetFilters(ctx, domain.Filters{City: domain.Ptr("Utrecht")}))
	c.Wait()
	assert.Equal(t, 0, c.Snapshot().State.Page)

	require.NoError(t, c.SetPage(ctx, 3))
	c.Wait()
	require.NoError(t, c.SetFreeText(ctx, "garden"))
	c.Wait()
	snap = c.Snapshot()
	assert.Equal(t, 0, snap.State.Page)
	assert.Equal(t, "Utrecht", *snap.State.Filters.City)
}

func TestController_StaleResponseIsDiscarded(t *testing.T) {
	ctx := context.Background()
	releaseA := make(chan struct{})

	// ответ A игнорирует отмену и приходит последним
	c, _, _ := newTestController(func(ctx context.Context, params url.Values) (*domain.ListingsPage, error) {
		if params.Get("q") == "A" {
			<-releaseA
			return pageOf(10, `[{"id":"a1"},{"id":"a2"}]`), nil
		}
		return pageOf(1, `[{"id":"b1"}]`), nil
	})
	defer c.Close()

	require.NoError(t, c.SetFreeText(ctx, "A"))
	require.NoError(t, c.SetFreeText(ctx, "B"))

	require.Eventually(t, func() bool {
		return c.Snapshot().Status == domain.StatusSuccess
	}, time.Second, 5*time.Millisecond)

	close(releaseA)
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, "B", snap.State.FreeText)
	assert.Equal(t, 1, snap.Result.Total)
	require.Len(t, snap.Result.Items, 1)
	assert.Equal(t, "b1", snap.Result.Items[0].ID)
}

func TestController_NewMutationCancelsPreviousRequest(t *testing.T) {
	ctx := context.Background()
	cancelled := make(chan struct{})

	c, _, _ := newTestController(func(ctx context.Context, params url.Values) (*domain.ListingsPage, error) {
		if params.Get("q") == "slow" {
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}
		return pageOf(0, `[]`), nil
	})
	defer c.Close()

	require.NoError(t, c.SetFreeText(ctx, "slow"))
	require.NoError(t, c.SetFreeText(ctx, "fast"))

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("previous request was not cancelled")
	}
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, domain.StatusSuccess, snap.Status)
	assert.Empty(t, snap.Result.Error)
}

func TestController_FailureClearsResults(t *testing.T) {
	ctx := context.Background()
	fail := false

	c, _, _ := newTestController(func(ctx context.Context, params url.Values) (*domain.ListingsPage, error) {
		if fail {
			return nil, &domain.HTTPStatusError{StatusCode: 503}
		}
		return pageOf(2, `[{"id":"1"},{"id":"2"}]`), nil
	})
	defer c.Close()

	require.NoError(t, c.Hydrate(ctx, ""))
	c.Wait()
	require.Len(t, c.Snapshot().Result.Items, 2)

	fail = true
	require.NoError(t, c.SetFreeText(ctx, "x"))
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, domain.StatusFailed, snap.Status)
	assert.Equal(t, "HTTP 503", snap.Result.Error)
	assert.NotNil(t, snap.Result.Items)
	assert.Empty(t, snap.Result.Items)
	assert.Zero(t, snap.Result.Total)
	assert.False(t, snap.Result.Loading)

	// повторная отправка того же поиска - это и есть retry
	fail = false
	require.NoError(t, c.Retry(ctx))
	c.Wait()
	assert.Equal(t, domain.StatusSuccess, c.Snapshot().Status)
	assert.Empty(t, c.Snapshot().Result.Error)
}

func TestController_NetworkErrorMessage(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(func(ctx context.Context, params url.Values) (*domain.ListingsPage, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	defer c.Close()

	require.NoError(t, c.Hydrate(ctx, ""))
	c.Wait()

	assert.Equal(t, FailedToLoadMessage, c.Snapshot().Result.Error)
}

func TestController_MapViewScenario(t *testing.T) {
	ctx := context.Background()
	c, fetcher, history := newTestController(staticPage(0, `[]`))
	defer c.Close()

	require.NoError(t, c.Hydrate(ctx, ""))
	c.Wait()
	require.Len(t, fetcher.Calls(), 1)

	require.NoError(t, c.SetViewMode(ctx, domain.ViewMap))
	c.Wait()
	assert.Len(t, fetcher.Calls(), 1, "switching to map waits for bounds")
	assert.Equal(t, "page=0&size=12&view=map", history.Writes()[len(history.Writes())-1])

	require.NoError(t, c.SetMapBounds(ctx, domain.MapBounds{North: 1, South: 2, East: 3, West: 4}))
	c.Wait()
	require.Len(t, fetcher.Calls(), 2)
	call := fetcher.LastCall()
	assert.Equal(t, "1", call.Get("north"))
	assert.Equal(t, "2", call.Get("south"))
	assert.Equal(t, "3", call.Get("east"))
	assert.Equal(t, "4", call.Get("west"))

	require.NoError(t, c.SetViewMode(ctx, domain.ViewList))
	c.Wait()
	require.Len(t, fetcher.Calls(), 3)
	call = fetcher.LastCall()
	for _, key := range []string{"north", "south", "east", "west"} {
		assert.False(t, call.Has(key), key)
	}
	assert.Nil(t, c.Snapshot().State.MapBounds)
}

func TestController_MapBoundsIgnoredInListView(t *testing.T) {
	ctx := context.Background()
	c, fetcher, _ := newTestController(staticPage(0, `[]`))
	defer c.Close()

	require.NoError(t, c.SetMapBounds(ctx, domain.MapBounds{North: 1, South: 0, East: 1, West: 0}))
	c.Wait()

	assert.Empty(t, fetcher.Calls())
	assert.Nil(t, c.Snapshot().State.MapBounds)
}

func TestController_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	c, fetcher, _ := newTestController(staticPage(0, `[]`))
	defer c.Close()

	err := c.SetFilters(ctx, domain.Filters{MinPrice: domain.Ptr(2000.0), MaxPrice: domain.Ptr(1000.0)})
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)

	err = c.PatchFilters(ctx, domain.FilterPatch{AreaMin: domain.SetTo(-5.0)})
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)

	assert.ErrorIs(t, c.SetPageSize(ctx, 13), domain.ErrInvalidPageSize)

	nan := domain.MapBounds{North: 1, South: 0, East: 1, West: math.NaN()}
	assert.ErrorIs(t, c.SetMapBounds(ctx, nan), domain.ErrInvalidMapBounds)

	c.Wait()
	assert.Empty(t, fetcher.Calls())
	assert.Equal(t, domain.StatusIdle, c.Snapshot().Status)
}

func TestController_PatchFiltersKeepsUnmentionedFields(t *testing.T) {
	ctx := context.Background()
	c, fetcher, _ := newTestController(staticPage(0, `[]`))
	defer c.Close()

	require.NoError(t, c.Hydrate(ctx, "minPrice=1000&maxPrice=2000&city=Delft"))
	c.Wait()

	require.NoError(t, c.PatchFilters(ctx, domain.FilterPatch{MinPrice: domain.Clear[float64]()}))
	c.Wait()

	filters := c.Snapshot().State.Filters
	assert.Nil(t, filters.MinPrice)
	require.NotNil(t, filters.MaxPrice)
	assert.Equal(t, 2000.0, *filters.MaxPrice)
	assert.Equal(t, "Delft", *filters.City)
	assert.False(t, fetcher.LastCall().Has("minPrice"))
}

func TestController_PaginationClamp(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(staticPage(25, `[]`))
	defer c.Close()

	require.NoError(t, c.Hydrate(ctx, ""))
	c.Wait()

	require.NoError(t, c.SetPage(ctx, 10))
	c.Wait()
	snap := c.Snapshot()
	assert.Equal(t, 2, snap.State.Page)
	assert.Equal(t, 3, snap.TotalPages())
	assert.False(t, snap.CanGoNext())
	assert.True(t, snap.CanGoPrev())

	require.NoError(t, c.NextPage(ctx))
	c.Wait()
	assert.Equal(t, 2, c.Snapshot().State.Page)

	require.NoError(t, c.PrevPage(ctx))
	c.Wait()
	assert.Equal(t, 1, c.Snapshot().State.Page)

	require.NoError(t, c.SetPage(ctx, -3))
	c.Wait()
	assert.Equal(t, 0, c.Snapshot().State.Page)
}

func TestController_PageNotClampedByPreviousFilters(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})

	c, _, _ := newTestController(func(ctx context.Context, params url.Values) (*domain.ListingsPage, error) {
		if params.Get("q") == "" {
			return pageOf(10, `[]`), nil
		}
		<-release
		return pageOf(200, `[]`), nil
	})
	defer c.Close()

	require.NoError(t, c.Hydrate(ctx, ""))
	c.Wait()

	// total=10 относится к пустому поиску, для "big" он еще неизвестен
	require.NoError(t, c.SetFreeText(ctx, "big"))
	require.NoError(t, c.SetPage(ctx, 5))
	assert.Equal(t, 5, c.Snapshot().State.Page)

	close(release)
	c.Wait()

	require.NoError(t, c.SetPage(ctx, 40))
	c.Wait()
	assert.Equal(t, 16, c.Snapshot().State.Page)
}

func TestController_ResetKeepsViewAndPageSize(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(staticPage(0, `[]`))
	defer c.Close()

	require.NoError(t, c.Hydrate(ctx, "q=loft&city=Sofia&size=48&view=map&page=1"))
	c.Wait()
	require.NoError(t, c.Reset(ctx))
	c.Wait()

	state := c.Snapshot().State
	assert.Empty(t, state.FreeText)
	assert.True(t, state.Filters.IsEmpty())
	assert.Equal(t, 0, state.Page)
	assert.Equal(t, 48, state.PageSize)
	assert.Equal(t, domain.ViewMap, state.ViewMode)
}

func TestController_SubscribeReceivesLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(staticPage(3, `[{"id":"1"}]`))

	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	first := <-updates
	assert.Equal(t, domain.StatusIdle, first.Status)

	require.NoError(t, c.SetFreeText(ctx, "canal"))
	c.Wait()

	var last domain.Snapshot
	require.Eventually(t, func() bool {
		select {
		case snap, ok := <-updates:
			if ok {
				last = snap
			}
		default:
		}
		return last.Status == domain.StatusSuccess
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, last.Result.Total)
	assert.Equal(t, "canal", last.State.FreeText)

	c.Close()
	_, ok := <-updates
	assert.False(t, ok, "channel is closed with the controller")
}

func TestController_CloseCancelsAndRejectsMutations(t *testing.T) {
	ctx := context.Background()
	cancelled := make(chan struct{})

	c, _, _ := newTestController(func(ctx context.Context, params url.Values) (*domain.ListingsPage, error) {
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	})

	require.NoError(t, c.Hydrate(ctx, ""))
	c.Close()
	c.Close()

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("in-flight request was not cancelled on close")
	}
	c.Wait()

	assert.ErrorIs(t, c.SetFreeText(ctx, "x"), domain.ErrControllerClosed)
	assert.ErrorIs(t, c.Retry(ctx), domain.ErrControllerClosed)
	assert.Empty(t, c.Snapshot().Result.Error)
}

func TestController_RequestOutlivesCallerContext(t *testing.T) {
	callerCtx, cancel := context.WithCancel(context.Background())
	c, _, _ := newTestController(func(ctx context.Context, params url.Values) (*domain.ListingsPage, error) {
		time.Sleep(10 * time.Millisecond)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return pageOf(1, `[{"id":"1"}]`), nil
	})
	defer c.Close()

	require.NoError(t, c.Hydrate(callerCtx, ""))
	cancel()
	c.Wait()

	assert.Equal(t, domain.StatusSuccess, c.Snapshot().Status)
}

func TestController_PublishesSearchEvents(t *testing.T) {
	ctx := context.Background()
	publisher := &fakePublisher{err: errors.New("broker down")}
	fetcher := newFakeFetcher(staticPage(7, `[]`))
	c := NewListingsQueryController("s-1", fetcher, newFakeHistory(), publisher, nil)
	defer c.Close()

	require.NoError(t, c.SetFreeText(ctx, "attic"))
	c.Wait()

	events := publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "s-1", events[0].SessionID)
	assert.Equal(t, "page=0&q=attic&size=12", events[0].Query)
	assert.Equal(t, 7, events[0].Total)
	// ошибка брокера не влияет на состояние
	assert.Equal(t, domain.StatusSuccess, c.Snapshot().Status)
}

func TestController_PublishesWithLiveContext(t *testing.T) {
	ctx := context.Background()
	publisher := &fakePublisher{}
	fetcher := newFakeFetcher(staticPage(2, `[]`))
	c := NewListingsQueryController("s-2", fetcher, newFakeHistory(), publisher, nil)
	defer c.Close()

	require.NoError(t, c.SetFreeText(ctx, "x"))
	c.Wait()
	require.NoError(t, c.SetPage(ctx, 0))
	c.Wait()

	errs := publisher.CtxErrs()
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.NoError(t, err)
	}
}
